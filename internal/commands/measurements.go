package commands

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"evalgo.org/adjvalet/internal/edit"
	"evalgo.org/adjvalet/internal/store"
	"evalgo.org/adjvalet/models"
)

func newMeasurementCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "measurement",
		Aliases: []string{"measurements", "m"},
		Short:   "Edit the measurements of a board",
	}

	cmd.AddCommand(
		newMeasurementAddCmd(a),
		newMeasurementRemoveCmd(a),
		newMeasurementUpdateCmd(a),
		newMeasurementThresholdCmd(a),
		newMeasurementListCmd(a),
	)
	return cmd
}

func newMeasurementAddCmd(a *app) *cobra.Command {
	var m models.Measurement

	cmd := &cobra.Command{
		Use:   "add <board> <id>",
		Short: "Add a measurement to a board",
		Long: `Add a measurement to a board. The name defaults to the id.

Examples:
  adjvalet measurement add VCU speed --type float32 --pod-units m/s --display-units km/h
  adjvalet measurement add VCU state --type enum --enum-values IDLE,RUNNING,FAULT`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m.ID = args[1]
			if m.Name == "" {
				m.Name = m.ID
			}
			if !models.IsMeasurementType(m.Type) {
				return fmt.Errorf("unknown measurement type %q (use one of %s)",
					m.Type, strings.Join(models.MeasurementTypes, ", "))
			}
			if len(m.EnumValues) == 0 {
				m.EnumValues = nil
			}

			return a.edit(func(st *store.Store) error {
				if err := st.AddMeasurement(args[0], m); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Measurement %s added to %s\n", m.ID, args[0])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&m.Name, "name", "", "display name (default: id)")
	cmd.Flags().StringVar(&m.Type, "type", models.TypeFloat32, "value type")
	cmd.Flags().StringVar(&m.PodUnits, "pod-units", "", "units of the raw value")
	cmd.Flags().StringVar(&m.DisplayUnits, "display-units", "", "units shown to operators")
	cmd.Flags().StringSliceVar(&m.EnumValues, "enum-values", nil, "enum labels in order")
	return cmd
}

func newMeasurementRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <board> <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a measurement and its packet references",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(func(st *store.Store) error {
				if err := st.RemoveMeasurement(args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Measurement %s removed from %s\n", args[1], args[0])
				return nil
			})
		},
	}
}

func newMeasurementUpdateCmd(a *app) *cobra.Command {
	var (
		id, name, typ       string
		podUnits, dispUnits string
		enumValues          []string
		outOfRange          []float64
		clearThresholds     bool
		clearOutOfRange     bool
	)

	cmd := &cobra.Command{
		Use:   "update <board> <id>",
		Short: "Change fields of a measurement",
		Long: `Change fields of a measurement. Only the given flags are applied.
Changing the id also rewrites packet variables that reference it.

Examples:
  adjvalet measurement update VCU speed --id vehicle_speed
  adjvalet measurement update VCU speed --out-of-range 0,120`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()

			return a.edit(func(st *store.Store) error {
				current, err := findMeasurement(st.Assemble(), args[0], args[1])
				if err != nil {
					return err
				}

				var edits []edit.MeasurementEdit
				if flags.Changed("id") {
					edits = append(edits, edit.SetMeasurementID(id))
				}
				if flags.Changed("name") {
					edits = append(edits, edit.SetMeasurementName(name))
				}
				if flags.Changed("type") {
					edits = append(edits, edit.SetMeasurementType(typ))
				}
				if flags.Changed("pod-units") || flags.Changed("display-units") {
					pod, disp := current.PodUnits, current.DisplayUnits
					if flags.Changed("pod-units") {
						pod = podUnits
					}
					if flags.Changed("display-units") {
						disp = dispUnits
					}
					edits = append(edits, edit.SetUnits(pod, disp))
				}
				if flags.Changed("enum-values") {
					edits = append(edits, edit.SetEnumValues(enumValues...))
				}
				if clearThresholds {
					edits = append(edits, edit.ClearThresholds())
				}
				if flags.Changed("out-of-range") {
					if len(outOfRange) != 2 {
						return fmt.Errorf("--out-of-range needs min,max")
					}
					edits = append(edits, edit.SetOutOfRange(outOfRange[0], outOfRange[1]))
				}
				if clearOutOfRange {
					edits = append(edits, edit.ClearOutOfRange())
				}
				if len(edits) == 0 {
					return fmt.Errorf("nothing to update")
				}

				if err := st.UpdateMeasurement(args[0], args[1], edits...); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Measurement %s updated on %s\n", args[1], args[0])
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&id, "id", "", "new id")
	f.StringVar(&name, "name", "", "display name")
	f.StringVar(&typ, "type", "", "value type")
	f.StringVar(&podUnits, "pod-units", "", "units of the raw value")
	f.StringVar(&dispUnits, "display-units", "", "units shown to operators")
	f.StringSliceVar(&enumValues, "enum-values", nil, "enum labels in order")
	f.Float64SliceVar(&outOfRange, "out-of-range", nil, "physically valid range as min,max")
	f.BoolVar(&clearThresholds, "clear-thresholds", false, "remove safe and warning limits")
	f.BoolVar(&clearOutOfRange, "clear-out-of-range", false, "remove the valid range")
	return cmd
}

func newMeasurementThresholdCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-threshold <board> <id> <above|below> <safe|warning> <value>",
		Short: "Set one safe or warning limit",
		Long: `Set one safe or warning limit of a measurement. Limits that were never
set start at zero. Put negative values after --.

Examples:
  adjvalet measurement set-threshold VCU speed above safe 100
  adjvalet measurement set-threshold VCU speed below warning -- -5`,
		Args: cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := models.Direction(strings.ToLower(args[2]))
			level := models.Level(strings.ToLower(args[3]))
			value, err := strconv.ParseFloat(args[4], 64)
			if err != nil {
				return fmt.Errorf("invalid threshold value %q: %w", args[4], err)
			}

			return a.edit(func(st *store.Store) error {
				if err := st.UpdateMeasurement(args[0], args[1], edit.SetThreshold(dir, level, value)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s %s %s limit set to %v\n", args[1], dir, level, value)
				return nil
			})
		},
	}
}

func newMeasurementListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list <board>",
		Aliases: []string{"ls"},
		Short:   "List the measurements of a board",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			if err := s.requireConfig(); err != nil {
				return err
			}
			b, ok := s.store.Assemble().Board(args[0])
			if !ok {
				return fmt.Errorf("%w: board %q", edit.ErrNotFound, args[0])
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tUNITS\tSAFE\tWARNING")
			for _, m := range b.Measurements {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					m.ID, m.Name, m.Type, units(m), limits(m.Thresholds, models.Safe), limits(m.Thresholds, models.Warning))
			}
			w.Flush()
			fmt.Fprintf(cmd.OutOrStdout(), "\nTotal: %d measurements\n", len(b.Measurements))
			return nil
		},
	}
}

func findMeasurement(cfg *models.ADJConfig, board, id string) (models.Measurement, error) {
	b, ok := cfg.Board(board)
	if !ok {
		return models.Measurement{}, fmt.Errorf("%w: board %q", edit.ErrNotFound, board)
	}
	idx := b.Measurement(id)
	if idx < 0 {
		return models.Measurement{}, fmt.Errorf("%w: measurement %q on board %q", edit.ErrNotFound, id, board)
	}
	return b.Measurements[idx], nil
}

func units(m models.Measurement) string {
	switch {
	case m.PodUnits == "" && m.DisplayUnits == "":
		return "-"
	case m.PodUnits == m.DisplayUnits || m.DisplayUnits == "":
		return m.PodUnits
	case m.PodUnits == "":
		return m.DisplayUnits
	}
	return m.PodUnits + " → " + m.DisplayUnits
}

// limits renders one level of t as [below, above].
func limits(t *models.Thresholds, level models.Level) string {
	if t == nil {
		return "-"
	}
	if level == models.Safe {
		return fmt.Sprintf("[%v, %v]", t.Below.Safe, t.Above.Safe)
	}
	return fmt.Sprintf("[%v, %v]", t.Below.Warning, t.Above.Warning)
}
