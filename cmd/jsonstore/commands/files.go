package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/jsonstore/pkg/cli"
	"github.com/haivivi/jsonstore/pkg/jsonstore"
)

var (
	readQuery string
	writeFile string
	wipeYes   bool
)

// report prints the result of a storage call and returns the call's error,
// so that failures exit non-zero after their payload was printed.
func report(cmd *cobra.Command, res jsonstore.Result, err error) error {
	if outErr := output(cmd, res); outErr != nil {
		return outErr
	}
	return err
}

var readCmd = &cobra.Command{
	Use:   "read <path>",
	Short: "Read a JSON file",
	Long: `Read the JSON file at path and print the result.

With --query, a jq expression is applied to the file contents and only its
output is printed.

Examples:
  jsonstore read settings/app.json
  jsonstore read settings/app.json --query '.theme'
  jsonstore -b local read notes/todo.json -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withStorage(cmd, func(s *jsonstore.Storage) error {
			res, err := s.ReadFile(ctx, args[0], callOptions()...)
			if err != nil || readQuery == "" {
				return report(cmd, res, err)
			}
			out, err := cli.Query(ctx, res.Contents, readQuery)
			if err != nil {
				return err
			}
			if len(out) == 1 {
				return output(cmd, out[0])
			}
			return output(cmd, out)
		})
	},
}

var writeCmd = &cobra.Command{
	Use:   "write <path> [value]",
	Short: "Write a JSON file",
	Long: `Write a JSON value to path, replacing any previous value.

The value is given as an argument (JSON, or YAML for convenience) or read
from a JSON or YAML file with -f. Use -f - to read stdin.

Examples:
  jsonstore write settings/app.json '{"theme":"dark"}'
  jsonstore write counters/visits.json 42
  jsonstore write notes/todo.json -f todo.yaml`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := writeValue(args)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		return withStorage(cmd, func(s *jsonstore.Storage) error {
			res, err := s.WriteFile(ctx, args[0], value, callOptions()...)
			return report(cmd, res, err)
		})
	},
}

// writeValue returns the value to write from the arguments or -f.
func writeValue(args []string) (any, error) {
	switch {
	case writeFile != "" && len(args) == 2:
		return nil, errors.New("give the value either as an argument or with -f, not both")
	case writeFile != "":
		return cli.LoadValue(writeFile)
	case len(args) == 2:
		return cli.ParseValue([]byte(args[1]), "")
	default:
		return nil, errors.New("missing value: give it as an argument or with -f")
	}
}

var rmCmd = &cobra.Command{
	Use:     "rm <path>",
	Aliases: []string{"remove"},
	Short:   "Remove a JSON file",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withStorage(cmd, func(s *jsonstore.Storage) error {
			res, err := s.RemoveFile(ctx, args[0], callOptions()...)
			return report(cmd, res, err)
		})
	},
}

var lsCmd = &cobra.Command{
	Use:     "ls [path]",
	Aliases: []string{"list"},
	Short:   "List a directory",
	Long: `List the files under path (default: the root).

The local and memory backends list immediate children only and fail for
missing directories. The keychain and cloud backends list every descendant
and return an empty list for unknown directories.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		ctx := cmd.Context()
		return withStorage(cmd, func(s *jsonstore.Storage) error {
			res, err := s.ListFiles(ctx, path, callOptions()...)
			if err == nil && formatOutput == string(cli.FormatRaw) {
				return output(cmd, res.Contents)
			}
			return report(cmd, res, err)
		})
	},
}

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Remove everything stored in a backend",
	Long: `Remove every file stored in the selected backend.

This cannot be undone; --yes is required.

Examples:
  jsonstore wipe --yes
  jsonstore -b cloud wipe --yes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !wipeYes {
			return fmt.Errorf("refusing to wipe without --yes")
		}
		ctx := cmd.Context()
		return withStorage(cmd, func(s *jsonstore.Storage) error {
			res, err := s.WipeData(ctx, callOptions()...)
			return report(cmd, res, err)
		})
	},
}

func init() {
	readCmd.Flags().StringVarP(&readQuery, "query", "q", "", "jq expression applied to the contents")
	writeCmd.Flags().StringVarP(&writeFile, "file", "f", "", "read the value from a JSON or YAML file (- for stdin)")
	wipeCmd.Flags().BoolVarP(&wipeYes, "yes", "y", false, "confirm the wipe")

	rootCmd.AddCommand(readCmd, writeCmd, rmCmd, lsCmd, wipeCmd)
}
