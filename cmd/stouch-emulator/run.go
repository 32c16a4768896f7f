package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/stouch/internal/automation"
	"github.com/muurk/stouch/internal/logging"
	"github.com/muurk/stouch/internal/session"
	"github.com/muurk/stouch/internal/ui"
)

// Run command flags
var (
	stepDelay time.Duration
	maxLoops  int
)

var runCmd = &cobra.Command{
	Use:   "run <step>...",
	Short: "Run an automation sequence",
	Long: `Run an automation sequence against the controller.

Each argument is one token of the sequence, in order:

  connect, disconnect, none
  touch=X,Y             touch a screen position
  touchbutton=ID        press a button
  touchtext=TEXT        touch a text
  whiletext==TEXT / whiletext!=TEXT / whilebutton==ID / whilebutton!=ID
                        followed by doaction=ACTION
  checktext==TEXT / checktext!=TEXT / checkbutton==ID / checkbutton!=ID
                        followed by thenaction=ACTION [elseaction=ACTION]

The sequence stops at the first failing step. A session left open by a
failing sequence is disconnected before the command exits.`,
	Example: `  # Open the menu and press button 12
  stouch-emulator run connect touchtext=Menu touchbutton=12 disconnect

  # Page forward until "Heizkreis" shows up
  stouch-emulator run connect whiletext!=Heizkreis doaction=touchbutton=20 disconnect

  # Faster steps against a known controller
  stouch-emulator run --device 192.168.11.23 --step-delay 500ms connect touch=160,120 disconnect`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAutomation,
}

func init() {
	runCmd.Flags().DurationVar(&stepDelay, "step-delay", 0, "Delay after each action (default from config, 2s)")
	runCmd.Flags().IntVar(&maxLoops, "max-loops", 0, "Iteration limit of while steps (default from config, 100)")

	rootCmd.AddCommand(runCmd)
}

func runAutomation(cmd *cobra.Command, args []string) error {
	seq, err := automation.Parse(args)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("step-delay") {
		cfg.Automation.StepDelay = stepDelay
	}
	if cmd.Flags().Changed("max-loops") {
		cfg.Automation.MaxLoops = maxLoops
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid automation settings: %w", err)
	}
	if err := promptPassword(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	panel := newSession(nil)
	runner := &automation.Runner{
		Device:    panel,
		StepDelay: cfg.Automation.StepDelay,
		MaxLoops:  cfg.Automation.MaxLoops,
	}

	device := "discovered by broadcast"
	if cfg.Device.Address != "" {
		device = cfg.Endpoint().String()
	}

	p := ui.NewPrinter(nil)
	p.PrintHeader("Automation", "stouch-emulator run",
		ui.Param{Key: "Device", Value: device},
		ui.Param{Key: "Steps", Value: strconv.Itoa(len(seq))},
		ui.Param{Key: "Step delay", Value: runner.StepDelay.String()},
	)
	p.PrintPleaseWait("Running sequence", fmt.Sprintf("at least %s", time.Duration(len(seq))*runner.StepDelay))
	p.Newline()

	start := time.Now()
	res := runner.Run(ctx, seq)
	elapsed := time.Since(start).Round(time.Millisecond)

	if panel.Status().State != session.Disconnected {
		dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
		confirmed := panel.Disconnect(dctx)
		dcancel()
		logging.Info("Disconnected after sequence")
		if !confirmed {
			logging.Warn("Controller did not confirm the disconnect")
		}
	}

	p.PrintProgress(ui.AutomationProgress(seq, res))

	if res.OK() {
		p.PrintSuccess("Sequence completed",
			ui.Param{Key: "Steps", Value: strconv.Itoa(len(res.Completed))},
			ui.Param{Key: "Duration", Value: elapsed.String()},
		)
		return nil
	}

	f := res.Failure
	var tips []string
	if f.Connect != nil {
		tips = connectTips(*f.Connect)
	} else if f.Kind == automation.FailLoopLimit {
		tips = []string{"Raise --max-loops or check the loop condition"}
	}
	p.PrintError("Sequence failed", f, tips...)
	return fmt.Errorf("automation stopped at step %d: %s", f.Index+1, f.Reason)
}
