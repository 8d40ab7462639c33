// Package cli provides the output and input helpers shared by the jsonstore
// command-line tool.
//
// This package includes:
//   - Output formatting (JSON, YAML, raw)
//   - jq-style queries over decoded JSON values
//   - Value loading from JSON or YAML files and stdin
//   - Styled status lines for terminals
//
// Example usage:
//
//	res, err := store.ReadFile(ctx, "settings/app.json")
//	if err != nil {
//	    return err
//	}
//	cli.Output(res, cli.OutputOptions{
//	    Format: cli.FormatJSON,
//	    File:   outputPath,
//	})
package cli
