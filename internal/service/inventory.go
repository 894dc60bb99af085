package service

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"tillpoint/internal/codec"
	"tillpoint/internal/domain"
)

func (s *Service) ListInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	items, err := s.repo.QueryInventory(ctx)
	if err != nil {
		return nil, domain.WrapStore("query inventory", err)
	}
	return items, nil
}

// AddInventoryItem creates an active catalog entry and returns its id.
func (s *Service) AddInventoryItem(ctx context.Context, name string, price decimal.Decimal) (int64, error) {
	name = strings.TrimSpace(name)
	if err := validateInventoryFields(name, price); err != nil {
		return 0, err
	}

	id, err := s.repo.InsertInventoryItem(ctx, name, price)
	if err != nil {
		return 0, domain.WrapStore("insert inventory item", err)
	}

	s.logAudit(ctx, "inventory_add", "item_id", id, "name", name, "price", price.String())
	return id, nil
}

// SetInventoryActive flips the active flag. Setting the current value again
// does not write.
func (s *Service) SetInventoryActive(ctx context.Context, id int64, active bool) error {
	item, err := s.findInventoryItem(ctx, id)
	if err != nil {
		return err
	}
	if item.Active == active {
		return nil
	}

	item.Active = active
	if err := s.repo.UpdateInventoryItem(ctx, item); err != nil {
		return domain.WrapStore("update inventory item", err)
	}

	s.logAudit(ctx, "inventory_set_active", "item_id", id, "active", active)
	return nil
}

// EditInventoryItem overwrites name, default price and active flag of an
// existing item.
func (s *Service) EditInventoryItem(ctx context.Context, item domain.InventoryItem) error {
	item.Name = strings.TrimSpace(item.Name)
	if err := validateInventoryFields(item.Name, item.DefaultPrice); err != nil {
		return err
	}

	if err := s.repo.UpdateInventoryItem(ctx, item); err != nil {
		return domain.WrapStore("update inventory item", err)
	}

	s.logAudit(ctx, "inventory_edit", "item_id", item.ID, "name", item.Name, "price", item.DefaultPrice.String(), "active", item.Active)
	return nil
}

// ListActiveNames returns the names of active items, sorted
// case-insensitively.
func (s *Service) ListActiveNames(ctx context.Context) ([]string, error) {
	items, err := s.ListInventory(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		if item.Active {
			names = append(names, item.Name)
		}
	}
	sort.SliceStable(names, func(i, j int) bool {
		li, lj := strings.ToLower(names[i]), strings.ToLower(names[j])
		if li != lj {
			return li < lj
		}
		return names[i] < names[j]
	})
	return names, nil
}

// SelectableItems is what a sale-entry screen offers. Entry is disabled
// when the catalog has no active items.
func (s *Service) SelectableItems(ctx context.Context) (domain.SelectableItems, error) {
	names, err := s.ListActiveNames(ctx)
	if err != nil {
		return domain.SelectableItems{}, err
	}
	return domain.SelectableItems{Names: names, EntryEnabled: len(names) > 0}, nil
}

// LookupDefaultPrice returns the default price of the first active item
// with exactly this name, in id order.
func (s *Service) LookupDefaultPrice(ctx context.Context, name string) (decimal.Decimal, error) {
	items, err := s.ListInventory(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	for _, item := range items {
		if item.Active && item.Name == name {
			return item.DefaultPrice, nil
		}
	}
	return decimal.Zero, domain.ErrNotFound
}

func (s *Service) findInventoryItem(ctx context.Context, id int64) (domain.InventoryItem, error) {
	items, err := s.ListInventory(ctx)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}
	return domain.InventoryItem{}, domain.ErrNotFound
}

func validateInventoryFields(name string, price decimal.Decimal) error {
	if name == "" {
		return domain.Invalid("item name is required")
	}
	if err := codec.ValidateName(name); err != nil {
		return err
	}
	if price.IsNegative() {
		return domain.Invalid("default price must not be negative")
	}
	return domain.CheckPriceRange(price)
}
