// Package logging provides structured logging for the S-Touch emulator.
//
// A single global zap logger sits behind package level functions so every
// component logs the same way. The logger is silent until Initialize is
// called with a level or STOUCH_LOG_LEVEL is set, which keeps CLI output
// clean by default.
//
// # Log Levels
//
//   - Debug: datagram hex dumps, per-command dispatch, discovery replies
//   - Info: session state changes, served HTTP requests
//   - Warn: dropped packets, failed sends, handshake retries
//   - Error: socket failures and startup problems
//
// # Specialized Logging
//
//	logging.LogDatagram("recv", remote, datagram)
//	logging.LogSessionEvent("192.168.1.20:3477", "connected")
//	logging.LogHTTPRequest(remote, "GET", "/api/touch/status", 200, elapsed)
//
// # Configuration
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// Logs go to stderr in zap's console format so they never mix with command
// output written to stdout.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use once Initialize has
// returned.
package logging
