package inventory

import (
	"context"
	"errors"

	"github.com/circuitstash/core/internal/ids"
	"github.com/circuitstash/core/internal/infrastructure/database"
)

// CreateInventory adds a stock row for a part at a location and
// re-aggregates the part's stock. Both references must exist, and a part
// has at most one row per location.
func (e *Engine) CreateInventory(ctx context.Context, in InventoryInput) (*Inventory, error) {
	if err := validateInventoryInput(&in); err != nil {
		return nil, err
	}
	id, err := resolveID(in.ID)
	if err != nil {
		return nil, err
	}

	now := e.now().UTC()
	inv := &Inventory{
		ID:         id,
		PartID:     in.PartID,
		LocationID: in.LocationID,
		Stock:      in.Stock,
		UpdatedAt:  now,
	}

	err = e.tx(ctx, func(ctx context.Context, q database.DBTX) error {
		if err := requireRef(ctx, q, "parts", &inv.PartID, ErrPartNotFound); err != nil {
			return err
		}
		if err := requireRef(ctx, q, "locations", &inv.LocationID, ErrLocationNotFound); err != nil {
			return err
		}
		if err := insertInventory(ctx, q, inv); err != nil {
			return err
		}
		_, err := recomputeStock(ctx, q, inv.PartID, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// UpdateInventory sets a row's stock and re-aggregates its part.
func (e *Engine) UpdateInventory(ctx context.Context, id string, stock int) (*Inventory, error) {
	if stock < 0 {
		return nil, ErrNegativeStock
	}

	var inv *Inventory
	err := e.tx(ctx, func(ctx context.Context, q database.DBTX) error {
		current, err := getInventory(ctx, q, id)
		if err != nil {
			return err
		}

		now := e.now().UTC()
		if err := setInventoryStock(ctx, q, id, stock, now); err != nil {
			return err
		}
		if _, err := recomputeStock(ctx, q, current.PartID, now); err != nil {
			return err
		}

		current.Stock = stock
		current.UpdatedAt = now
		inv = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// AdjustStock records a stock movement of delta for a part at a location,
// creating the row on the first positive movement. The resulting row stock
// must not go below zero.
func (e *Engine) AdjustStock(ctx context.Context, partID, locationID string, delta int) (*Inventory, error) {
	if partID == "" || locationID == "" {
		return nil, ErrMissingReference
	}

	var inv *Inventory
	err := e.tx(ctx, func(ctx context.Context, q database.DBTX) error {
		if err := requireRef(ctx, q, "parts", &partID, ErrPartNotFound); err != nil {
			return err
		}
		if err := requireRef(ctx, q, "locations", &locationID, ErrLocationNotFound); err != nil {
			return err
		}

		now := e.now().UTC()
		current, err := getInventoryByPair(ctx, q, partID, locationID)
		switch {
		case errors.Is(err, ErrInventoryNotFound):
			if delta < 0 {
				return ErrNegativeStock
			}
			current = &Inventory{
				ID:         ids.New(),
				PartID:     partID,
				LocationID: locationID,
				Stock:      delta,
				UpdatedAt:  now,
			}
			if err := insertInventory(ctx, q, current); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			next := current.Stock + delta
			if next < 0 {
				return ErrNegativeStock
			}
			if err := setInventoryStock(ctx, q, current.ID, next, now); err != nil {
				return err
			}
			current.Stock = next
			current.UpdatedAt = now
		}

		if _, err := recomputeStock(ctx, q, partID, now); err != nil {
			return err
		}
		inv = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// DeleteInventory removes a row and re-aggregates its part.
func (e *Engine) DeleteInventory(ctx context.Context, id string) error {
	return e.tx(ctx, func(ctx context.Context, q database.DBTX) error {
		current, err := getInventory(ctx, q, id)
		if err != nil {
			return err
		}
		if _, err := deleteRow(ctx, q, "inventory", id); err != nil {
			return err
		}
		_, err = recomputeStock(ctx, q, current.PartID, e.now().UTC())
		return err
	})
}

// GetInventory returns an inventory row by id.
func (e *Engine) GetInventory(ctx context.Context, id string) (*Inventory, error) {
	return getInventory(ctx, e.db, id)
}

// ListInventory returns inventory rows matching f.
func (e *Engine) ListInventory(ctx context.Context, f InventoryFilter) ([]Inventory, error) {
	return listInventory(ctx, e.db, f)
}
