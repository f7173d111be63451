package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"devicemgr/internal/bootstrap"
	"devicemgr/internal/config"
	"devicemgr/internal/hostinfo"
	"devicemgr/internal/logging"
)

// Version is set at build time
var Version = "0.1.0-dev"

// app carries what every command needs once flags are parsed
type app struct {
	configPath string
	verbose    int
	forceCPU   bool

	loadConfig func(path string) (config.Config, error)
	newStack   func(cfg config.Config, logger *logging.Logger) (*bootstrap.Stack, error)
	collect    hostinfo.Collector

	cfg    config.Config
	logger *logging.Logger
	stack  *bootstrap.Stack
}

func newApp() *app {
	return &app{
		loadConfig: config.Load,
		newStack:   bootstrap.New,
		collect:    hostinfo.Collect,
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "devicemgr",
		Short:         "Resolve the compute device and execution providers for inference",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipsSetup(cmd) {
				return nil
			}
			return a.setup(cmd.ErrOrStderr())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&a.verbose, "verbose", "v", "increase log verbosity (-v info, -vv debug)")
	flags.BoolVar(&a.forceCPU, "force-cpu", false, "skip GPU detection and run on the CPU")
	flags.StringVar(&a.configPath, "config", "", "configuration file")

	rootCmd.AddCommand(
		newResolveCmd(a),
		newDescribeCmd(a),
		newMemoryCmd(a),
		newProvidersCmd(a),
		newWatchCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// skipsSetup reports commands that need neither configuration nor probing
func skipsSetup(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "version", "help", "completion":
			return true
		}
	}
	return false
}

func (a *app) setup(logOutput io.Writer) error {
	cfg, err := a.loadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if a.forceCPU {
		cfg.Device.ForceCPU = true
	}
	a.cfg = cfg

	logger, err := a.buildLogger(logOutput)
	if err != nil {
		return err
	}
	a.logger = logger

	stack, err := a.newStack(cfg, logger)
	if err != nil {
		return fmt.Errorf("wire resolver: %w", err)
	}
	a.stack = stack
	return nil
}

// buildLogger honours -v over the configured level
func (a *app) buildLogger(w io.Writer) (*logging.Logger, error) {
	level := logging.LevelFromVerbosity(a.verbose)
	if a.verbose == 0 {
		parsed, err := logging.ParseLevel(a.cfg.Logging.Level)
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	if a.cfg.Logging.File != "" {
		logger, err := logging.NewFileLogger(level, a.cfg.Logging.File)
		if err != nil {
			return nil, err
		}
		return logger, nil
	}

	return logging.NewLoggerWithWriter(level, logging.Format(a.cfg.Logging.Format), w), nil
}

func (a *app) close() {
	if a.logger != nil {
		_ = a.logger.Close()
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the devicemgr version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("devicemgr version %s\n", Version)
		},
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
