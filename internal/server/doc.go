// Package server implements the REST front-end of the S-Touch emulator.
//
// The server exposes one emulated panel (a Panel, normally a
// *session.Session) over HTTP using a chi router. Actions accept GET and
// POST; views are GET only.
//
// # Endpoints
//
//	/api/touch/connect            handshake with the controller
//	/api/touch/disconnect         end the session
//	/api/touch/findsystacomfort   broadcast search, pins the found endpoint
//	/api/touch/touch?x=&y=        touch a coordinate
//	/api/touch/touchbutton?id=    touch inside a button
//	/api/touch/touchtext?text=    touch a text
//	/api/touch/automation?...     run a sequence, see package automation
//	/api/touch/status             connection state, touch and counters
//	/api/touch/screen             PNG of the screen
//	/api/touch/debugscreen        clickable HTML page around the PNG
//	/api/touch/objecttree         containment tree as indented text
//	/api/touch/excalidraw         screen as an Excalidraw scene
//	/api/touch/scene              screen content as JSON
//	/api/touch/stream             websocket pushing the scene on every change
//	/api/health                   liveness
//	/metrics                      Prometheus exposition, when enabled
//
// # Status Codes
//
// Connect maps its outcome to a status: 200 on success, 409 when the
// device is in use or already connected, 401 for a wrong password, 408 on
// timeout, 503 when no device is found. Touching a button or text that is
// not on screen yields 404. An automation run answers with the code of the
// step that failed, 408 for an exhausted loop, and 400 for a sequence that
// does not parse.
//
// # Usage Example
//
//	sess := session.New(cfg.SessionConfig())
//	srv := server.New(&server.Config{Host: "0.0.0.0", Port: 1337}, sess,
//	    server.WithMetrics(metrics.New()),
//	    server.WithFinder(discovery.NewSearcher()),
//	)
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// Start blocks until SIGINT or SIGTERM and then calls Shutdown, which also
// disconnects the panel.
package server
