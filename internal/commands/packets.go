package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"evalgo.org/adjvalet/internal/edit"
	"evalgo.org/adjvalet/internal/store"
	"evalgo.org/adjvalet/models"
)

func newPacketCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "packet",
		Aliases: []string{"packets", "p"},
		Short:   "Edit the packets of a board",
		Long: `Edit the packets of a board. Packets are referenced by id, or by name
when they have no id yet.`,
	}

	cmd.AddCommand(
		newPacketAddCmd(a),
		newPacketRemoveCmd(a),
		newPacketUpdateCmd(a),
		newPacketVariableCmd(a, "add-var", "Add measurements to a packet", edit.AddVariable),
		newPacketVariableCmd(a, "remove-var", "Remove measurements from a packet", edit.RemoveVariable),
		newPacketListCmd(a),
	)
	return cmd
}

func newPacketAddCmd(a *app) *cobra.Command {
	var (
		id   string
		p    models.Packet
		vars []string
	)

	cmd := &cobra.Command{
		Use:   "add <board>",
		Short: "Add a packet to a board",
		Long: `Add a packet to a board. Without --id the packet gets an id on save.

Examples:
  adjvalet packet add VCU --name vcu_state --type data --vars speed,state
  adjvalet packet add VCU --id 210 --name brake_order --type order`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if id != "" {
				pid, err := models.ParsePacketID(id)
				if err != nil {
					return err
				}
				p.ID = &pid
			}
			if len(vars) > 0 {
				p.Variables = vars
			}

			return a.edit(func(st *store.Store) error {
				if err := st.AddPacket(args[0], p); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Packet %s added to %s\n", p.Name, args[0])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "packet id (default: assigned on save)")
	cmd.Flags().StringVar(&p.Name, "name", "", "packet name")
	cmd.Flags().StringVar(&p.Type, "type", "data", "packet type")
	cmd.Flags().StringSliceVar(&vars, "vars", nil, "measurement ids carried by the packet")
	_ = cmd.MarkFlagRequired("name") //nolint:errcheck
	return cmd
}

func newPacketRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <board> <packet>",
		Aliases: []string{"rm"},
		Short:   "Remove a packet",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(func(st *store.Store) error {
				if err := st.RemovePacket(args[0], edit.PacketRef(args[1])); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Packet %s removed from %s\n", args[1], args[0])
				return nil
			})
		},
	}
}

func newPacketUpdateCmd(a *app) *cobra.Command {
	var (
		id, name, typ string
		vars          []string
		clearID       bool
	)

	cmd := &cobra.Command{
		Use:   "update <board> <packet>",
		Short: "Change fields of a packet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()

			var edits []edit.PacketEdit
			if flags.Changed("id") {
				pid, err := models.ParsePacketID(id)
				if err != nil {
					return err
				}
				edits = append(edits, edit.SetPacketID(pid))
			}
			if clearID {
				edits = append(edits, edit.ClearPacketID())
			}
			if flags.Changed("name") {
				edits = append(edits, edit.SetPacketName(name))
			}
			if flags.Changed("type") {
				edits = append(edits, edit.SetPacketType(typ))
			}
			if flags.Changed("vars") {
				edits = append(edits, edit.SetVariables(vars...))
			}
			if len(edits) == 0 {
				return fmt.Errorf("nothing to update")
			}

			return a.edit(func(st *store.Store) error {
				if err := st.UpdatePacket(args[0], edit.PacketRef(args[1]), edits...); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Packet %s updated on %s\n", args[1], args[0])
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&id, "id", "", "new packet id")
	f.BoolVar(&clearID, "clear-id", false, "drop the id so one is assigned on save")
	f.StringVar(&name, "name", "", "packet name")
	f.StringVar(&typ, "type", "", "packet type")
	f.StringSliceVar(&vars, "vars", nil, "replace the carried measurement ids")
	cmd.MarkFlagsMutuallyExclusive("id", "clear-id")
	return cmd
}

func newPacketVariableCmd(a *app, use, short string, op func(string) edit.PacketEdit) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <board> <packet> <measurement>...",
		Short: short,
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			edits := make([]edit.PacketEdit, 0, len(args)-2)
			for _, v := range args[2:] {
				edits = append(edits, op(v))
			}

			return a.edit(func(st *store.Store) error {
				if err := st.UpdatePacket(args[0], edit.PacketRef(args[1]), edits...); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Packet %s variables updated\n", args[1])
				return nil
			})
		},
	}
}

func newPacketListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list <board>",
		Aliases: []string{"ls"},
		Short:   "List the packets of a board",
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
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tVARIABLES")
			for _, p := range b.Packets {
				pid := "-"
				if p.ID != nil {
					pid = p.ID.String()
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", pid, p.Name, p.Type, strings.Join(p.Variables, ","))
			}
			w.Flush()
			fmt.Fprintf(cmd.OutOrStdout(), "\nTotal: %d packets\n", len(b.Packets))
			return nil
		},
	}
}
