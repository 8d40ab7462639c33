package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/jsonstore/cmd/jsonstore/internal/config"
	"github.com/haivivi/jsonstore/pkg/cli"
)

var (
	// Global flags
	verbose      bool
	debug        bool
	configDir    string
	backendName  string
	formatOutput string
	outputFile   string

	// Global configuration (loaded at init time)
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "jsonstore",
	Short: "Store JSON files in local, keychain, cloud, dropbox or memory backends",
	Long: `jsonstore - read, write, list and wipe JSON files in pluggable backends.

Backends:
  dropbox    Dropbox app folder, when dropbox.app_key is configured
  keychain   encrypted badger key-value store (default when available)
  cloud      S3 bucket, when cloud.bucket is configured
  local      plain files under a directory
  memory     in-process store, for testing (memory.enabled)

Configuration is stored in the OS config directory:
  macOS:   ~/Library/Application Support/jsonstore/
  Linux:   ~/.config/jsonstore/
  Windows: %AppData%/jsonstore/

Examples:
  jsonstore write settings/app.json '{"theme":"dark"}'
  jsonstore read settings/app.json --query .theme
  jsonstore ls settings
  jsonstore -b local write notes/todo.json -f todo.yaml
  jsonstore use local`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := cli.ParseOutputFormat(formatOutput); err != nil {
			return err
		}
		setupLogging()
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.BoolVar(&debug, "debug", false, "log every storage call")
	pf.StringVar(&configDir, "config-dir", "", "configuration directory (default: OS config dir)")
	pf.StringVarP(&backendName, "backend", "b", "", "backend for this command (default: configured default)")
	pf.StringVarP(&formatOutput, "output", "o", "yaml", "output format: yaml, json or raw")
	pf.StringVar(&outputFile, "output-file", "", "write output to a file instead of stdout")
}

// setupLogging routes slog to stderr. Warnings are always shown; -v and
// --debug lower the level to info.
func setupLogging() {
	level := slog.LevelWarn
	if verbose || debug {
		level = slog.LevelInfo
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))
}

// GetConfig returns the global configuration, loading it on first use.
func GetConfig() (*config.Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}
	var (
		cfg *config.Config
		err error
	)
	if configDir != "" {
		cfg, err = config.LoadFrom(configDir)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("config not available: %w", err)
	}
	globalConfig = cfg
	return cfg, nil
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

// output writes v in the selected format.
func output(cmd *cobra.Command, v any) error {
	f, err := cli.ParseOutputFormat(formatOutput)
	if err != nil {
		return err
	}
	opts := cli.OutputOptions{Format: f, File: outputFile}
	if outputFile == "" {
		opts.Writer = cmd.OutOrStdout()
	}
	return cli.Output(v, opts)
}

// printer returns a status line printer bound to the command's streams.
func printer(cmd *cobra.Command) *cli.Printer {
	return cli.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())
}
