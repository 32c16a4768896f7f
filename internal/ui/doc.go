// Package ui renders styled, non-interactive output for the emulator CLI.
//
// Commands print a Header before they start and a Result box when they
// finish. Multi-step operations, such as an automation run, print a
// Progress step list in between. All components render with Lipgloss and
// size themselves to the terminal width.
//
// Example:
//
//	p := ui.NewPrinter(nil)
//	p.PrintHeader("Automation", "stouch-emulator run",
//	    ui.Param{Key: "Device", Value: "192.168.1.20:3477"},
//	    ui.Param{Key: "Steps", Value: "4"},
//	)
//	res := runner.Run(ctx, seq)
//	p.PrintProgress(ui.AutomationProgress(seq, res))
//	if res.OK() {
//	    p.PrintSuccess("Sequence complete")
//	} else {
//	    p.PrintError("Sequence failed", res.Failure)
//	}
//
// The interactive console lives in internal/wizard/tui.
//
// Logging is controlled separately through STOUCH_LOG_LEVEL so zap output
// does not interleave with this package's output.
package ui
