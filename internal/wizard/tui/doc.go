// Package tui implements the interactive console for the S-Touch emulator.
//
// Built on Bubble Tea, it has two screens:
//   - Discovery: broadcast search for controllers, or enter an address
//     manually, then pick one
//   - Dashboard: connects the emulated panel and shows its screen (buttons,
//     texts, rectangles and the current touch), refreshed on every display
//     change notification
//
// The dashboard reads console commands from a text input:
//
//	touch X,Y     simulate a touch at a coordinate
//	button N      touch the center of button N
//	text LABEL    touch the button under a text label
//	connect       (re)connect to the controller
//	disconnect    close the session
//	quit          leave the console
//
// # Usage Example
//
//	sess := session.New(cfg.SessionConfig())
//	err := tui.Run(ctx, sess, tui.Options{
//	    Finder:   cfg.Searcher(),
//	    Password: cfg.Device.Password,
//	})
//
// Without a Finder the console opens directly on the dashboard.
package tui
