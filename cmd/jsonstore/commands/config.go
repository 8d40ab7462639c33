package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/jsonstore/cmd/jsonstore/internal/config"
	"github.com/haivivi/jsonstore/pkg/cli"
)

var configReveal bool

// displayValue masks secret values unless --reveal is given.
func displayValue(key, value string) string {
	if configReveal || !config.IsSecret(key) {
		return value
	}
	return cli.MaskSecret(value)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Show and change the configuration file.

Keys are dotted paths into config.yaml; see 'jsonstore config keys'.
Secrets (keychain.encryption_key, dropbox.token) are masked by show and get
unless --reveal is given.

Examples:
  jsonstore config path
  jsonstore config show
  jsonstore config set cloud.bucket my-bucket
  jsonstore config set keychain.encryption_key $(openssl rand -hex 32)
  jsonstore config get default_backend`,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cfg.Path())
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		values := make(map[string]string)
		for _, k := range config.Keys() {
			v, _ := cfg.Get(k)
			values[k] = displayValue(k, v)
		}
		return output(cmd, values)
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the configuration keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, k := range config.Keys() {
			fmt.Fprintln(cmd.OutOrStdout(), k)
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		v, err := cfg.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), displayValue(args[0], v))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		printer(cmd).Success("%s updated", args[0])
		return nil
	},
}

func init() {
	configShowCmd.Flags().BoolVar(&configReveal, "reveal", false, "print secrets in clear text")
	configGetCmd.Flags().BoolVar(&configReveal, "reveal", false, "print secrets in clear text")
	configCmd.AddCommand(configPathCmd, configShowCmd, configKeysCmd, configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
