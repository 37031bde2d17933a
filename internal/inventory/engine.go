package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/circuitstash/core/internal/infrastructure/database"
)

// Engine validates and applies mutations to the inventory graph.
type Engine struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine creates an integrity engine over db, which must have the
// inventory schema applied.
func NewEngine(db *sql.DB, logger *slog.Logger) *Engine {
	return &Engine{db: db, logger: logger, now: time.Now}
}

// tx runs fn in one BEGIN IMMEDIATE transaction.
func (e *Engine) tx(ctx context.Context, fn func(ctx context.Context, q database.DBTX) error) error {
	return database.WithTx(ctx, e.db, fn)
}

// ─── Parts ──────────────────────────────────────────────────────────

// CreatePart inserts a part with stock 0. Referenced image and datasheet
// must exist; a client-supplied id that is already taken fails with
// ErrPartExists. Nothing is written on failure.
func (e *Engine) CreatePart(ctx context.Context, in PartInput) (*Part, error) {
	if err := validatePartInput(&in); err != nil {
		return nil, err
	}
	id, err := resolveID(in.ID)
	if err != nil {
		return nil, err
	}

	now := e.now().UTC()
	part := &Part{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		MinStock:    in.MinStock,
		ImageID:     normRef(in.ImageID),
		DatasheetID: normRef(in.DatasheetID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = e.tx(ctx, func(ctx context.Context, q database.DBTX) error {
		if err := requireRef(ctx, q, "images", part.ImageID, ErrImageNotFound); err != nil {
			return err
		}
		if err := requireRef(ctx, q, "datasheets", part.DatasheetID, ErrDatasheetNotFound); err != nil {
			return err
		}
		if err := insertPart(ctx, q, part); err != nil {
			return err
		}
		created, err := getPart(ctx, q, part.ID)
		if err != nil {
			return err
		}
		part = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return part, nil
}

// UpdatePart applies upd to an existing part and recomputes its stock from
// inventory rows. Any stock value in upd is ignored.
func (e *Engine) UpdatePart(ctx context.Context, id string, upd PartUpdate) (*Part, error) {
	var part *Part
	err := e.tx(ctx, func(ctx context.Context, q database.DBTX) error {
		current, err := getPart(ctx, q, id)
		if err != nil {
			return err
		}

		if upd.Name != nil {
			name, err := validateName(*upd.Name)
			if err != nil {
				return err
			}
			current.Name = name
		}
		if upd.Description != nil {
			current.Description = *upd.Description
		}
		if upd.MinStock != nil {
			if *upd.MinStock < 0 {
				return ErrNegativeMinStock
			}
			current.MinStock = *upd.MinStock
		}
		current.ImageID = applyRef(current.ImageID, upd.ImageID)
		current.DatasheetID = applyRef(current.DatasheetID, upd.DatasheetID)

		if err := requireRef(ctx, q, "images", current.ImageID, ErrImageNotFound); err != nil {
			return err
		}
		if err := requireRef(ctx, q, "datasheets", current.DatasheetID, ErrDatasheetNotFound); err != nil {
			return err
		}

		now := e.now().UTC()
		current.UpdatedAt = now
		if err := updatePartRow(ctx, q, current); err != nil {
			return err
		}
		if _, err := recomputeStock(ctx, q, id, now); err != nil {
			return err
		}

		part, err = getPart(ctx, q, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return part, nil
}

// GetPart returns a part by id.
func (e *Engine) GetPart(ctx context.Context, id string) (*Part, error) {
	return getPart(ctx, e.db, id)
}

// ListParts returns parts matching f, ordered by name.
func (e *Engine) ListParts(ctx context.Context, f PartFilter) ([]Part, error) {
	return listParts(ctx, e.db, f)
}

// DeletePart removes a part and, through the foreign key, its inventory rows.
func (e *Engine) DeletePart(ctx context.Context, id string) error {
	return e.tx(ctx, func(ctx context.Context, q database.DBTX) error {
		found, err := deleteRow(ctx, q, "parts", id)
		if err != nil {
			return err
		}
		if !found {
			return ErrPartNotFound
		}
		e.logger.InfoContext(ctx, "part deleted", "part_id", id)
		return nil
	})
}

// ─── Locations ──────────────────────────────────────────────────────

// CreateLocation inserts a location. Its parent and image must exist. A
// location cannot name itself as parent at creation because it does not
// exist yet.
func (e *Engine) CreateLocation(ctx context.Context, in LocationInput) (*Location, error) {
	if err := validateLocationInput(&in); err != nil {
		return nil, err
	}
	id, err := resolveID(in.ID)
	if err != nil {
		return nil, err
	}

	now := e.now().UTC()
	loc := &Location{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		ImageID:     normRef(in.ImageID),
		ParentID:    normRef(in.ParentID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = e.tx(ctx, func(ctx context.Context, q database.DBTX) error {
		if err := requireRef(ctx, q, "images", loc.ImageID, ErrImageNotFound); err != nil {
			return err
		}
		if err := requireRef(ctx, q, "locations", loc.ParentID, ErrParentNotFound); err != nil {
			return err
		}
		if err := insertLocation(ctx, q, loc); err != nil {
			return err
		}
		created, err := getLocation(ctx, q, loc.ID)
		if err != nil {
			return err
		}
		loc = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loc, nil
}

// UpdateLocation applies upd to an existing location. The new parent must
// exist; cycles are not checked.
func (e *Engine) UpdateLocation(ctx context.Context, id string, upd LocationUpdate) (*Location, error) {
	var loc *Location
	err := e.tx(ctx, func(ctx context.Context, q database.DBTX) error {
		current, err := getLocation(ctx, q, id)
		if err != nil {
			return err
		}

		if upd.Name != nil {
			name, err := validateName(*upd.Name)
			if err != nil {
				return err
			}
			current.Name = name
		}
		if upd.Description != nil {
			current.Description = *upd.Description
		}
		current.ImageID = applyRef(current.ImageID, upd.ImageID)
		current.ParentID = applyRef(current.ParentID, upd.ParentID)

		if err := requireRef(ctx, q, "images", current.ImageID, ErrImageNotFound); err != nil {
			return err
		}
		if err := requireRef(ctx, q, "locations", current.ParentID, ErrParentNotFound); err != nil {
			return err
		}

		current.UpdatedAt = e.now().UTC()
		if err := updateLocationRow(ctx, q, current); err != nil {
			return err
		}

		loc, err = getLocation(ctx, q, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return loc, nil
}

// GetLocation returns a location by id.
func (e *Engine) GetLocation(ctx context.Context, id string) (*Location, error) {
	return getLocation(ctx, e.db, id)
}

// ListLocations returns all locations ordered by name.
func (e *Engine) ListLocations(ctx context.Context) ([]Location, error) {
	return listLocations(ctx, e.db)
}

// DeleteLocation removes a location and its inventory rows, re-aggregates
// the stock of every part that was stored there, and detaches child
// locations.
func (e *Engine) DeleteLocation(ctx context.Context, id string) error {
	return e.tx(ctx, func(ctx context.Context, q database.DBTX) error {
		if ok, err := exists(ctx, q, "locations", id); err != nil {
			return err
		} else if !ok {
			return ErrLocationNotFound
		}

		affected, err := partsAtLocation(ctx, q, id)
		if err != nil {
			return err
		}

		if _, err := q.ExecContext(ctx, "UPDATE locations SET parent_id = NULL WHERE parent_id = ? AND id <> ?", id, id); err != nil {
			return fmt.Errorf("detaching children of location %s: %w", id, err)
		}
		if _, err := q.ExecContext(ctx, "DELETE FROM inventory WHERE location_id = ?", id); err != nil {
			return fmt.Errorf("deleting inventory at location %s: %w", id, err)
		}
		if _, err := deleteRow(ctx, q, "locations", id); err != nil {
			return err
		}

		now := e.now().UTC()
		for _, partID := range affected {
			if _, err := recomputeStock(ctx, q, partID, now); err != nil {
				return err
			}
		}

		e.logger.InfoContext(ctx, "location deleted", "location_id", id, "parts_reaggregated", len(affected))
		return nil
	})
}
