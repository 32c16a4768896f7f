package urls

// Repository is the project home, shown in the console header
const Repository = "github.com/muurk/stouch"

// Issues is where unsupported controllers and decode failures are reported
const Issues = "https://" + Repository + "/issues"

// APIPath is the prefix of the REST front-end routes, advertised via mDNS
const APIPath = "/api/touch"
