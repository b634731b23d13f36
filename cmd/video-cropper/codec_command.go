package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCodecCommand(ctx *commandContext) *cobra.Command {
	var printCmd bool

	cmd := &cobra.Command{
		Use:   "codec <path>",
		Short: "Print the codec of the first video stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			orch := ctx.orchestrator(cmd, ctx.logger(false))

			if printCmd {
				fmt.Fprintln(out, orch.CodecCommand(args[0]).String())
				return nil
			}

			codec, err := orch.Codec(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if codec == "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "no video stream")
				return nil
			}
			fmt.Fprintln(out, codec)
			return nil
		},
	}

	cmd.Flags().BoolVar(&printCmd, "print-cmd", false, "Print the ffprobe command and exit")
	return cmd
}
