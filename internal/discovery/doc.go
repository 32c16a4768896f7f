// Package discovery finds controllers and running emulator front-ends on the
// local network.
//
// # Controller Search
//
// Controllers answer a UDP broadcast of "0 1 A" on port 8001 with a line of
// eleven space separated fields:
//
//	SC2 1 192.168.11.23 255.255.255.0 192.168.11.1 SystaComfort-II0 0809720001 0 V0.34 V1.00 2CBE9700BEE9
//
// Fields 2, 5, 6, 8 and 10 carry the IP, unit name, unit id, base version and
// MAC. The unit id encodes app, platform and version as hex digits. The
// searcher then asks the controller, addressed by MAC, for its S-Touch port
// and UDP password. Controllers without S-Touch reply "unknown value" to the
// port request.
//
// Searcher implements session.Locator, so a session without a configured
// endpoint connects to the first controller that supports S-Touch.
//
// # Front-End Advertisement
//
// The REST front-end can be advertised as "_stouch._tcp" with Advertise, and
// Scanner browses for other running front-ends:
//
//	emulators, err := discovery.NewScanner().Scan(ctx)
//	for _, e := range emulators {
//	    fmt.Println(e.BaseURL())
//	}
//
// # Network Requirements
//
// Both mechanisms are link local: broadcast and multicast traffic does not
// cross routers, and host firewalls must allow UDP 8001 replies and mDNS
// (UDP 5353).
package discovery
