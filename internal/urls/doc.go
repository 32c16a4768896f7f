// Package urls provides centralized constants for the project URLs shown
// in CLI output and the console header.
//
// Usage:
//
//	import "github.com/muurk/stouch/internal/urls"
//
//	fmt.Printf("Report unsupported controllers at %s\n", urls.Issues)
package urls
