package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/jsonc"

	"evalgo.org/adjvalet/internal/edit"
	"evalgo.org/adjvalet/internal/validation"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate an ADJ document",
		Long: `Validate an assembled ADJ document. Comments and trailing commas are
allowed in the file. Without a file the current session document is
checked the way save would check it.

Examples:
  adjvalet validate adj.json
  adjvalet validate`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := validation.New()

			var result *validation.ValidationResult
			if len(args) == 1 {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("failed to read file: %w", err)
				}
				result, err = v.ValidateDocument(jsonc.ToJSON(data))
				if err != nil {
					return fmt.Errorf("validation error: %w", err)
				}
			} else {
				s, err := a.session()
				if err != nil {
					return err
				}
				if err := s.requireConfig(); err != nil {
					return err
				}
				doc, err := edit.AssignPacketIDs(s.store.Assemble())
				if err != nil {
					return err
				}
				result = v.ValidateConfig(doc)
			}

			return printResult(cmd.OutOrStdout(), result)
		},
	}
}

func printResult(w io.Writer, result *validation.ValidationResult) error {
	if result.Valid {
		fmt.Fprintln(w, "✓ Document is valid")
		return nil
	}

	fmt.Fprintln(w, "✗ Validation failed:")
	for _, e := range result.Errors {
		if e.Value != nil {
			fmt.Fprintf(w, "  - %s: %s (value: %v)\n", e.Field, e.Message, e.Value)
		} else {
			fmt.Fprintf(w, "  - %s: %s\n", e.Field, e.Message)
		}
	}

	return fmt.Errorf("validation failed")
}
