package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/interview-analyzer/internal/config"
	"alfredoptarigan/interview-analyzer/internal/logger"
)

const app = "kbctl"

var (
	boldGreen = color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan  = color.New(color.FgCyan, color.Bold).SprintFunc()
	boldRed   = color.New(color.FgRed, color.Bold).SprintFunc()
	yellow    = color.New(color.FgYellow).SprintFunc()
)

type rootOptions struct {
	debug bool
	json  bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           app,
		Short:         "kbctl manages the interview advice knowledge base and runs analyses offline",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "verbose/debug output")
	root.PersistentFlags().BoolVarP(&opts.json, "json", "j", false, "json format for logging")

	root.AddCommand(
		newIndexCmd(opts),
		newScoreCmd(opts),
		newAnalyzeCmd(opts),
	)
	return root
}

func (o *rootOptions) logger() (*zap.Logger, error) {
	level := "warn"
	if o.debug {
		level = "debug"
	}
	format := "console"
	if o.json {
		format = "json"
	}
	return logger.New(level, format)
}

func (o *rootOptions) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := o.logger()
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
