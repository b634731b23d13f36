package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeselxe/video-cropper/internal/config"
	"github.com/jeselxe/video-cropper/internal/logging"
	"github.com/jeselxe/video-cropper/internal/notify"
	"github.com/jeselxe/video-cropper/internal/orchestrator"
)

type commandContext struct {
	cfg        *config.Config
	configPath string
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{cfg: config.DefaultConfig()}

	rootCmd := &cobra.Command{
		Use:           "video-cropper",
		Short:         "Trim, crop and preview videos with FFmpeg",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return ctx.loadConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	config.BindFlags(rootCmd.PersistentFlags(), ctx.cfg)

	rootCmd.AddCommand(newExportCommand(ctx))
	rootCmd.AddCommand(newProxyCommand(ctx))
	rootCmd.AddCommand(newCodecCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func (c *commandContext) loadConfig(cmd *cobra.Command) error {
	path, err := cmd.Flags().GetString(config.ConfigFlag)
	if err != nil {
		return err
	}
	resolved, _, err := config.Load(strings.TrimSpace(path), c.cfg, cmd.Flags())
	if err != nil {
		return err
	}
	c.configPath = resolved
	return config.Validate(c.cfg)
}

// logger builds the process logger. With the TUI on, records are dropped so
// they do not tear the display.
func (c *commandContext) logger(tui bool) *slog.Logger {
	var logger *slog.Logger
	if tui {
		logger = logging.NewLoggerWithWriter(io.Discard, c.cfg.LogFormat, c.cfg.LogLevel)
	} else {
		logger = logging.NewLogger(c.cfg.LogFormat, c.cfg.LogLevel, c.cfg.Verbose)
	}
	logging.SetDefault(logger)
	return logger
}

func (c *commandContext) orchestrator(cmd *cobra.Command, logger *slog.Logger, sinks ...notify.Sink) *orchestrator.Orchestrator {
	return orchestrator.New(c.cfg, logger, orchestrator.Options{
		Version: version,
		Sinks:   sinks,
		Out:     cmd.ErrOrStderr(),
	})
}
