package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/jeselxe/video-cropper/internal/export"
	"github.com/jeselxe/video-cropper/internal/notify"
	"github.com/jeselxe/video-cropper/internal/orchestrator"
	"github.com/jeselxe/video-cropper/internal/stats"
	"github.com/jeselxe/video-cropper/internal/tui"
)

type exportOptions struct {
	req      export.Request
	printCmd bool
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export <input> <output>",
		Short: "Export a trimmed and cropped clip",
		Long: `Export a trimmed and cropped clip of <input> into <output>.

The selection is given in seconds from the start of the source and the crop
rectangle in source pixels. Audio is copied unchanged. An existing output
file is overwritten.

Example:
  video-cropper export in.mp4 out.mp4 --start 12.5 --end 20 --crop 640x360+100+50`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.req.InputPath = args[0]
			opts.req.OutputPath = args[1]
			return runExport(cmd, ctx, opts)
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&opts.req.Selection.Start, "start", 0, "Clip start in seconds")
	flags.Float64Var(&opts.req.Selection.End, "end", 0, "Clip end in seconds")
	flags.Var(newCropValue(&opts.req.Crop), "crop", "Crop rectangle as WxH+X+Y")
	flags.IntVar(&opts.req.Crop.X, "crop-x", 0, "Crop rectangle left edge")
	flags.IntVar(&opts.req.Crop.Y, "crop-y", 0, "Crop rectangle top edge")
	flags.IntVar(&opts.req.Crop.Width, "crop-width", 0, "Crop rectangle width")
	flags.IntVar(&opts.req.Crop.Height, "crop-height", 0, "Crop rectangle height")
	flags.BoolVar(&opts.printCmd, "print-cmd", false, "Print the FFmpeg command and exit")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func runExport(cmd *cobra.Command, ctx *commandContext, opts *exportOptions) error {
	out := cmd.OutOrStdout()

	if opts.printCmd {
		orch := ctx.orchestrator(cmd, ctx.logger(false))
		c, err := orch.ExportCommand(opts.req)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, c.String())
		return nil
	}

	if err := opts.req.Validate(); err != nil {
		return err
	}

	useTUI := ctx.cfg.TUI && isTerminal(out)
	runCtx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var program *tea.Program
	var sinks []notify.Sink
	if useTUI {
		program = tea.NewProgram(tui.New(tui.Config{
			Input:       opts.req.InputPath,
			Output:      opts.req.OutputPath,
			Clip:        opts.req.Selection.Duration(),
			MetricsAddr: ctx.cfg.MetricsAddr,
			Cancel:      cancel,
		}), tea.WithAltScreen(), tea.WithOutput(out))
		sinks = append(sinks, tui.NewSink(program))
	}

	orch := ctx.orchestrator(cmd, ctx.logger(useTUI), sinks...)
	if err := orch.Start(runCtx); err != nil {
		return err
	}
	defer func() {
		_ = orch.Shutdown(context.Background())
	}()

	var (
		js  stats.JobStats
		err error
	)
	if useTUI {
		js, err = runWithTUI(runCtx, cancel, orch, program, opts.req)
	} else {
		fmt.Fprintf(cmd.ErrOrStderr(), "Exporting %s -> %s (%s)\n",
			opts.req.InputPath, opts.req.OutputPath, stats.FormatDuration(opts.req.Selection.Duration()))
		js, err = orch.RunExport(runCtx, opts.req)
	}
	if err != nil {
		return err
	}

	fmt.Fprint(out, orch.Summary())
	return jobError(js)
}

type exportResult struct {
	js  stats.JobStats
	err error
}

func runWithTUI(ctx context.Context, cancel context.CancelFunc, orch *orchestrator.Orchestrator, p *tea.Program, req export.Request) (stats.JobStats, error) {
	done := make(chan exportResult, 1)
	go func() {
		js, err := orch.RunExport(ctx, req)
		if err != nil {
			// No terminal event will reach the TUI.
			tui.SendQuit(p)
		}
		done <- exportResult{js: js, err: err}
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return stats.JobStats{}, fmt.Errorf("tui: %w", err)
	}

	r := <-done
	return r.js, r.err
}

func jobError(js stats.JobStats) error {
	switch {
	case js.Succeeded:
		return nil
	case js.Message != "":
		return errors.New(js.Message)
	default:
		return errors.New("export did not finish")
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
