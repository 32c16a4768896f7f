package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/stouch/internal/display"
	"github.com/muurk/stouch/internal/logging"
	"github.com/muurk/stouch/internal/render"
	"github.com/muurk/stouch/internal/session"
	"github.com/muurk/stouch/internal/ui"
	"go.uber.org/zap"
)

// Render command flags
var (
	pngPath        string
	excalidrawPath string
	treePath       string
	settleTime     time.Duration
	maxWait        time.Duration
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Capture the panel screen to files",
	Long: `Connect, wait until the controller has finished drawing, and write the
screen to files.

The screen counts as finished once no change arrived for --settle, or after
--wait at the latest. Formats:

  --png         320x240 PNG image
  --excalidraw  Excalidraw scene with buttons, rectangles and texts
  --tree        depth-indented object tree`,
	Example: `  # Screenshot of the start screen
  stouch-emulator render --png screen.png

  # All formats from a known controller
  stouch-emulator render --device 192.168.11.23 --png s.png --excalidraw s.excalidraw --tree s.txt`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVar(&pngPath, "png", "", "Write a PNG image to this file")
	renderCmd.Flags().StringVar(&excalidrawPath, "excalidraw", "", "Write an Excalidraw scene to this file")
	renderCmd.Flags().StringVar(&treePath, "tree", "", "Write the object tree to this file")
	renderCmd.Flags().DurationVar(&settleTime, "settle", time.Second, "Quiet period that ends the capture")
	renderCmd.Flags().DurationVar(&maxWait, "wait", 10*time.Second, "Maximum capture time after connecting")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	if pngPath == "" && excalidrawPath == "" && treePath == "" {
		pngPath = "screen.png"
	}
	if err := promptPassword(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	panel := newSession(nil)
	changes, unsubscribe := panel.Subscribe()
	defer unsubscribe()

	p := ui.NewPrinter(nil)
	p.PrintHeader("Render", "stouch-emulator render",
		ui.Param{Key: "Settle", Value: settleTime.String()},
		ui.Param{Key: "Wait", Value: maxWait.String()},
	)

	result := panel.Connect(ctx)
	if result != session.Success {
		p.PrintError("Connect failed", fmt.Errorf("%s", result.Message()), connectTips(result)...)
		return fmt.Errorf("connect failed: %s", result)
	}
	p.PrintPleaseWait("Waiting for the screen", "up to "+maxWait.String())
	p.Newline()

	waitForQuiet(ctx, changes, settleTime, maxWait)
	snap := panel.Display().Snapshot()

	dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
	if !panel.Disconnect(dctx) {
		logging.Warn("Controller did not confirm the disconnect")
	}
	dcancel()

	written, err := writeSnapshot(snap)
	if err != nil {
		p.PrintError("Write failed", err)
		return err
	}

	details := []ui.Param{
		{Key: "Buttons", Value: strconv.Itoa(len(snap.Buttons))},
		{Key: "Texts", Value: strconv.Itoa(len(snap.Texts))},
		{Key: "Rectangles", Value: strconv.Itoa(len(snap.Rectangles))},
	}
	for _, f := range written {
		details = append(details, ui.Param{Key: "File", Value: f})
	}
	p.PrintSuccess("Screen captured", details...)
	return nil
}

// waitForQuiet returns once no change arrived for settle, after limit, or
// when ctx is done.
func waitForQuiet(ctx context.Context, changes <-chan struct{}, settle, limit time.Duration) {
	deadline := time.NewTimer(limit)
	defer deadline.Stop()
	quiet := time.NewTimer(settle)
	defer quiet.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			logging.Debug("Capture deadline reached")
			return
		case <-quiet.C:
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			quiet.Reset(settle)
		}
	}
}

// writeSnapshot writes every requested format and returns the paths written
func writeSnapshot(snap display.Snapshot) ([]string, error) {
	var written []string

	if pngPath != "" {
		data, err := render.PNGBytes(snap)
		if err != nil {
			return written, fmt.Errorf("failed to render PNG: %w", err)
		}
		if err := os.WriteFile(pngPath, data, 0644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", pngPath, err)
		}
		written = append(written, pngPath)
	}

	if excalidrawPath != "" {
		data, err := render.ExcalidrawJSON(snap)
		if err != nil {
			return written, fmt.Errorf("failed to render Excalidraw scene: %w", err)
		}
		if err := os.WriteFile(excalidrawPath, data, 0644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", excalidrawPath, err)
		}
		written = append(written, excalidrawPath)
	}

	if treePath != "" {
		if err := os.WriteFile(treePath, []byte(snap.Tree), 0644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", treePath, err)
		}
		written = append(written, treePath)
	}

	logging.Info("Screen written", zap.Strings("files", written))
	return written, nil
}
