package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/okian/attreval/internal/config"
	"github.com/okian/attreval/pkg/logger"
)

const logFilePermission = 0o600

// cli holds state shared by all subcommands.
type cli struct {
	configPath string
	logLevel   string
	logFile    string

	cfg     *config.Config
	logSink io.Closer

	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "attreval",
		Short: "Evaluate extracted product attribute predictions",
		Long: `attreval normalizes "<number> <unit>" attribute values and scores
predictions against ground truth with two F1 variants:

  binary    record-level true/false positive counting
  weighted  per-value labels averaged by ground-truth support

Configuration layers defaults, an optional YAML file (--config or
ATTREVAL_CONFIG) and ATTREVAL_* environment variables.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return c.teardown()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "YAML config file (overrides ATTREVAL_CONFIG)")
	flags.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&c.logFile, "log-file", "", "write logs to this file instead of stderr")

	root.AddCommand(
		newEvaluateCmd(c),
		newPredictCmd(c),
		newSanityCmd(c),
		newServeCmd(c),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if err := c.initLogging(); err != nil {
		return err
	}

	cfg, err := config.LoadFile(cmd.Context(), c.configPath)
	if err != nil {
		_ = c.teardown()
		return err
	}
	level := cfg.LogLevel
	if c.logLevel != "" {
		level = c.logLevel
	}
	if err := logger.SetLevelString(level); err != nil {
		logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info",
			logger.String("log_level", level), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	c.cfg = cfg
	return nil
}

func (c *cli) initLogging() error {
	if c.logFile == "" {
		return logger.SetOutput(c.stderr)
	}
	if dir := filepath.Dir(c.logFile); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	c.logSink = f
	return logger.SetOutput(f)
}

func (c *cli) teardown() error {
	_ = logger.Sync()
	if c.logSink == nil {
		return nil
	}
	err := c.logSink.Close()
	c.logSink = nil
	_ = logger.SetOutput(c.stderr)
	return err
}

// score formats v with the configured number of decimals.
func (c *cli) score(v float64) string {
	return strconv.FormatFloat(v, 'f', c.cfg.ScorePrecision, 64)
}
