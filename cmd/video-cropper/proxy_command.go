package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProxyCommand(ctx *commandContext) *cobra.Command {
	var printCmd bool

	cmd := &cobra.Command{
		Use:   "proxy <input>",
		Short: "Print the path of a preview proxy, building it if needed",
		Long: `Print the path of a low-resolution proxy of <input>.

Proxies are cached below the data directory, keyed by the source path and
its modification time. A cached proxy is returned without running FFmpeg.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			orch := ctx.orchestrator(cmd, ctx.logger(false))

			if printCmd {
				c, err := orch.ProxyCommand(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, c.String())
				return nil
			}

			if err := orch.Start(cmd.Context()); err != nil {
				return err
			}
			defer func() {
				_ = orch.Shutdown(cmd.Context())
			}()

			path, err := orch.Proxy(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&printCmd, "print-cmd", false, "Print the FFmpeg command and exit")
	return cmd
}
