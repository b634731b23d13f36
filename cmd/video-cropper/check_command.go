package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeselxe/video-cropper/internal/orchestrator"
	"github.com/jeselxe/video-cropper/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that FFmpeg, ffprobe and the data directory are usable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			orch := ctx.orchestrator(cmd, ctx.logger(false))

			if ctx.configPath != "" {
				fmt.Fprintf(out, "Config: %s\n", ctx.configPath)
			}
			result := orch.Preflight(cmd.Context())
			preflight.PrintResults(out, result)
			if !result.Passed {
				return orchestrator.ErrPreflightFailed
			}
			return nil
		},
	}
}
