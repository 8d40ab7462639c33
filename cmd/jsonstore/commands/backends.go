package commands

import (
	"github.com/spf13/cobra"

	"github.com/haivivi/jsonstore/pkg/jsonstore"
)

// backendInfo is one row of the backends listing.
type backendInfo struct {
	Name    string `json:"name" yaml:"name"`
	Default bool   `json:"default" yaml:"default"`
}

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List the available backends",
	Long: `List the backends that passed their availability check, in priority order,
marking the default one.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStorage(cmd, func(s *jsonstore.Storage) error {
			def := s.DefaultBackend()
			names := s.Backends()
			if formatOutput == "raw" {
				return output(cmd, names)
			}
			infos := make([]backendInfo, 0, len(names))
			for _, name := range names {
				infos = append(infos, backendInfo{Name: name, Default: name == def})
			}
			return output(cmd, infos)
		})
	},
}

var useCmd = &cobra.Command{
	Use:   "use <backend>",
	Short: "Set the default backend",
	Long: `Set the default backend and save it in the configuration file.

The backend must be available; see 'jsonstore backends'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		return withStorage(cmd, func(s *jsonstore.Storage) error {
			if res, err := s.SetDefaultBackend(name); err != nil {
				return report(cmd, res, err)
			}
			cfg.DefaultBackend = name
			if err := cfg.Save(); err != nil {
				return err
			}
			p := printer(cmd)
			p.Success("default backend is now %s", name)
			p.Info("saved to %s", cfg.Path())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(backendsCmd, useCmd)
}
