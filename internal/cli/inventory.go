package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tillpoint/internal/domain"
)

func (a *app) inventoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inventory",
		Aliases: []string{"inv"},
		Short:   "Maintain the item catalog",
	}
	cmd.AddCommand(
		a.inventoryListCommand(),
		a.inventoryNamesCommand(),
		a.inventoryAddCommand(),
		a.inventoryEditCommand(),
		a.inventorySetActiveCommand("activate", true),
		a.inventorySetActiveCommand("deactivate", false),
	)
	return cmd
}

func (a *app) inventoryListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every catalog item, active or not",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := a.svc.ListInventory(cmd.Context())
			if err != nil {
				return err
			}
			views := inventoryViews(items)
			return a.render(cmd.OutOrStdout(), views, func(tw *tabwriter.Writer) {
				printInventory(tw, views)
			})
		},
	}
}

func (a *app) inventoryNamesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "names",
		Short: "List active item names in register order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := a.svc.ListActiveNames(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), names, func(tw *tabwriter.Writer) {
				for _, name := range names {
					fmt.Fprintln(tw, name)
				}
			})
		},
	}
}

func (a *app) inventoryAddCommand() *cobra.Command {
	var name, price string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an active catalog item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := domain.ParsePrice(price)
			if err != nil {
				return err
			}
			id, err := a.svc.AddInventoryItem(cmd.Context(), name, parsed)
			if err != nil {
				return err
			}
			result := map[string]int64{"id": id}
			return a.render(cmd.OutOrStdout(), result, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "added item %d\n", id)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "item name")
	cmd.Flags().StringVar(&price, "price", "", "default unit price")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

// Flags left unset keep the item's current values.
func (a *app) inventoryEditCommand() *cobra.Command {
	var (
		name   string
		price  string
		active bool
	)
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change an item's name, default price or active flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			item, err := a.findItem(cmd, id)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("name") {
				item.Name = name
			}
			if cmd.Flags().Changed("price") {
				parsed, err := domain.ParsePrice(price)
				if err != nil {
					return err
				}
				item.DefaultPrice = parsed
			}
			if cmd.Flags().Changed("active") {
				item.Active = active
			}

			if err := a.svc.EditInventoryItem(cmd.Context(), item); err != nil {
				return err
			}
			updated, err := a.findItem(cmd, id)
			if err != nil {
				return err
			}
			views := inventoryViews([]domain.InventoryItem{updated})
			return a.render(cmd.OutOrStdout(), views[0], func(tw *tabwriter.Writer) {
				printInventory(tw, views)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new item name")
	cmd.Flags().StringVar(&price, "price", "", "new default unit price")
	cmd.Flags().BoolVar(&active, "active", true, "whether the item is offered at the register")
	return cmd
}

func (a *app) inventorySetActiveCommand(use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: fmt.Sprintf("Mark an item %sd", use),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.svc.SetInventoryActive(cmd.Context(), id, active); err != nil {
				return err
			}
			result := map[string]any{"id": id, "active": active}
			return a.render(cmd.OutOrStdout(), result, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "item %d active=%t\n", id, active)
			})
		},
	}
}

func (a *app) findItem(cmd *cobra.Command, id int64) (domain.InventoryItem, error) {
	items, err := a.svc.ListInventory(cmd.Context())
	if err != nil {
		return domain.InventoryItem{}, err
	}
	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}
	return domain.InventoryItem{}, fmt.Errorf("inventory item %d: %w", id, domain.ErrNotFound)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, domain.Invalid("invalid id %q", raw)
	}
	return id, nil
}
