package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/circuitstash/core/internal/apperr"
	"github.com/circuitstash/core/internal/infrastructure/database"
)

// Row-level SQL shared by the engine. Every function takes the DBTX it
// runs on so the engine can compose them inside one transaction.

const (
	partColumns      = "id, name, description, stock, min_stock, image_id, datasheet_id, created_at, updated_at"
	locationColumns  = "id, name, description, image_id, parent_id, created_at, updated_at"
	inventoryColumns = "id, part_id, location_id, stock, updated_at"
	assetColumns     = "id, name, path, created_at"
)

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

// nullStr converts an optional reference to a nullable column value.
func nullStr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s) //nolint:errcheck // format is controlled
	return t
}

// exists reports whether a row with id is present in table. table is
// always a constant from this package.
func exists(ctx context.Context, q database.DBTX, table, id string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s %s: %w", table, id, err)
	}
	return true, nil
}

// writeError classifies a failed INSERT or UPDATE on entity. UNIQUE
// violations become exists when given. Foreign key and CHECK failures that
// get past the engine's own checks, such as a reference removed by another
// process, become NotFound and InvalidInput.
func writeError(err error, entity, id string, exists error) error {
	switch {
	case exists != nil && database.IsUniqueViolation(err):
		return exists
	case database.IsForeignKeyViolation(err):
		return apperr.NotFound("%s %s references a row that does not exist", entity, id)
	case database.IsCheckViolation(err):
		return apperr.Invalid("%s %s has a value out of range", entity, id)
	}
	return fmt.Errorf("writing %s %s: %w", entity, id, err)
}

// requireRef returns notFound if ref is set and absent from table.
func requireRef(ctx context.Context, q database.DBTX, table string, ref *string, notFound error) error {
	if ref == nil {
		return nil
	}
	ok, err := exists(ctx, q, table, *ref)
	if err != nil {
		return err
	}
	if !ok {
		return notFound
	}
	return nil
}

// ─── Parts ──────────────────────────────────────────────────────────

func scanPart(s scanner) (*Part, error) {
	var p Part
	var image, datasheet sql.NullString
	var createdAt, updatedAt string
	err := s.Scan(&p.ID, &p.Name, &p.Description, &p.Stock, &p.MinStock,
		&image, &datasheet, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPartNotFound
		}
		return nil, fmt.Errorf("scanning part: %w", err)
	}
	p.ImageID = strPtr(image)
	p.DatasheetID = strPtr(datasheet)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

func getPart(ctx context.Context, q database.DBTX, id string) (*Part, error) {
	row := q.QueryRowContext(ctx, "SELECT "+partColumns+" FROM parts WHERE id = ?", id)
	return scanPart(row)
}

func insertPart(ctx context.Context, q database.DBTX, p *Part) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO parts (`+partColumns+`) VALUES (?, ?, ?, 0, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.MinStock,
		nullStr(p.ImageID), nullStr(p.DatasheetID),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return writeError(err, "part", p.ID, ErrPartExists)
	}
	return nil
}

// updatePartRow writes every client-editable column. Stock is not among them.
func updatePartRow(ctx context.Context, q database.DBTX, p *Part) error {
	_, err := q.ExecContext(ctx,
		`UPDATE parts SET name = ?, description = ?, min_stock = ?, image_id = ?, datasheet_id = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.Description, p.MinStock, nullStr(p.ImageID), nullStr(p.DatasheetID),
		formatTime(p.UpdatedAt), p.ID,
	)
	if err != nil {
		return writeError(err, "part", p.ID, nil)
	}
	return nil
}

func listParts(ctx context.Context, q database.DBTX, f PartFilter) ([]Part, error) {
	query := "SELECT " + partColumns + " FROM parts"
	var where []string
	var args []any
	if f.Query != "" {
		where = append(where, "name LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(f.Query)+"%")
	}
	if f.LowStockOnly {
		where = append(where, "stock < min_stock")
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name, id"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing parts: %w", err)
	}
	defer rows.Close()

	parts := []Part{}
	for rows.Next() {
		p, err := scanPart(rows)
		if err != nil {
			return nil, err
		}
		parts = append(parts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating parts: %w", err)
	}
	return parts, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// recomputeStock sets parts.stock to the sum of the part's inventory rows
// and returns the new value. It must run in the same transaction as the
// write that changed those rows.
func recomputeStock(ctx context.Context, q database.DBTX, partID string, now time.Time) (int, error) {
	_, err := q.ExecContext(ctx,
		`UPDATE parts
		 SET stock = (SELECT COALESCE(SUM(stock), 0) FROM inventory WHERE part_id = ?),
		     updated_at = ?
		 WHERE id = ?`,
		partID, formatTime(now), partID,
	)
	if err != nil {
		return 0, fmt.Errorf("recomputing stock for part %s: %w", partID, err)
	}

	var stock int
	if err := q.QueryRowContext(ctx, "SELECT stock FROM parts WHERE id = ?", partID).Scan(&stock); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrPartNotFound
		}
		return 0, fmt.Errorf("reading stock for part %s: %w", partID, err)
	}
	return stock, nil
}

// ─── Locations ──────────────────────────────────────────────────────

func scanLocation(s scanner) (*Location, error) {
	var l Location
	var image, parent sql.NullString
	var createdAt, updatedAt string
	err := s.Scan(&l.ID, &l.Name, &l.Description, &image, &parent, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("scanning location: %w", err)
	}
	l.ImageID = strPtr(image)
	l.ParentID = strPtr(parent)
	l.CreatedAt = parseTime(createdAt)
	l.UpdatedAt = parseTime(updatedAt)
	return &l, nil
}

func getLocation(ctx context.Context, q database.DBTX, id string) (*Location, error) {
	row := q.QueryRowContext(ctx, "SELECT "+locationColumns+" FROM locations WHERE id = ?", id)
	return scanLocation(row)
}

func insertLocation(ctx context.Context, q database.DBTX, l *Location) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO locations (`+locationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Name, l.Description, nullStr(l.ImageID), nullStr(l.ParentID),
		formatTime(l.CreatedAt), formatTime(l.UpdatedAt),
	)
	if err != nil {
		return writeError(err, "location", l.ID, ErrLocationExists)
	}
	return nil
}

func updateLocationRow(ctx context.Context, q database.DBTX, l *Location) error {
	_, err := q.ExecContext(ctx,
		`UPDATE locations SET name = ?, description = ?, image_id = ?, parent_id = ?, updated_at = ?
		 WHERE id = ?`,
		l.Name, l.Description, nullStr(l.ImageID), nullStr(l.ParentID), formatTime(l.UpdatedAt), l.ID,
	)
	if err != nil {
		return writeError(err, "location", l.ID, nil)
	}
	return nil
}

func listLocations(ctx context.Context, q database.DBTX) ([]Location, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+locationColumns+" FROM locations ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("listing locations: %w", err)
	}
	defer rows.Close()

	locations := []Location{}
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating locations: %w", err)
	}
	return locations, nil
}

// ─── Inventory ──────────────────────────────────────────────────────

func scanInventory(s scanner) (*Inventory, error) {
	var inv Inventory
	var updatedAt string
	err := s.Scan(&inv.ID, &inv.PartID, &inv.LocationID, &inv.Stock, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInventoryNotFound
		}
		return nil, fmt.Errorf("scanning inventory: %w", err)
	}
	inv.UpdatedAt = parseTime(updatedAt)
	return &inv, nil
}

func getInventory(ctx context.Context, q database.DBTX, id string) (*Inventory, error) {
	row := q.QueryRowContext(ctx, "SELECT "+inventoryColumns+" FROM inventory WHERE id = ?", id)
	return scanInventory(row)
}

func getInventoryByPair(ctx context.Context, q database.DBTX, partID, locationID string) (*Inventory, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+inventoryColumns+" FROM inventory WHERE part_id = ? AND location_id = ?",
		partID, locationID)
	return scanInventory(row)
}

func insertInventory(ctx context.Context, q database.DBTX, inv *Inventory) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO inventory (`+inventoryColumns+`) VALUES (?, ?, ?, ?, ?)`,
		inv.ID, inv.PartID, inv.LocationID, inv.Stock, formatTime(inv.UpdatedAt),
	)
	if err != nil {
		return writeError(err, "inventory row", inv.ID, ErrInventoryExists)
	}
	return nil
}

func setInventoryStock(ctx context.Context, q database.DBTX, id string, stock int, now time.Time) error {
	_, err := q.ExecContext(ctx,
		"UPDATE inventory SET stock = ?, updated_at = ? WHERE id = ?",
		stock, formatTime(now), id)
	if err != nil {
		return writeError(err, "inventory row", id, nil)
	}
	return nil
}

func listInventory(ctx context.Context, q database.DBTX, f InventoryFilter) ([]Inventory, error) {
	query := "SELECT " + inventoryColumns + " FROM inventory"
	var where []string
	var args []any
	if f.PartID != "" {
		where = append(where, "part_id = ?")
		args = append(args, f.PartID)
	}
	if f.LocationID != "" {
		where = append(where, "location_id = ?")
		args = append(args, f.LocationID)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY part_id, location_id"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing inventory: %w", err)
	}
	defer rows.Close()

	items := []Inventory{}
	for rows.Next() {
		inv, err := scanInventory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating inventory: %w", err)
	}
	return items, nil
}

// partsAtLocation returns the distinct part ids stocked at a location.
func partsAtLocation(ctx context.Context, q database.DBTX, locationID string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT DISTINCT part_id FROM inventory WHERE location_id = ? ORDER BY part_id", locationID)
	if err != nil {
		return nil, fmt.Errorf("listing parts at location %s: %w", locationID, err)
	}
	defer rows.Close()

	var partIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning part id: %w", err)
		}
		partIDs = append(partIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating part ids: %w", err)
	}
	return partIDs, nil
}

// ─── Assets ─────────────────────────────────────────────────────────

func scanAsset(s scanner, kind AssetKind) (*Asset, error) {
	var a Asset
	var createdAt string
	if err := s.Scan(&a.ID, &a.Name, &a.Path, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, assetNotFound(kind)
		}
		return nil, fmt.Errorf("scanning %s: %w", kind, err)
	}
	a.Kind = kind
	a.CreatedAt = parseTime(createdAt)
	return &a, nil
}

func assetNotFound(kind AssetKind) error {
	if kind == KindDatasheet {
		return ErrDatasheetNotFound
	}
	return ErrImageNotFound
}

func getAsset(ctx context.Context, q database.DBTX, kind AssetKind, id string) (*Asset, error) {
	row := q.QueryRowContext(ctx, "SELECT "+assetColumns+" FROM "+kind.table()+" WHERE id = ?", id)
	return scanAsset(row, kind)
}

func insertAsset(ctx context.Context, q database.DBTX, a *Asset) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO "+a.Kind.table()+" ("+assetColumns+") VALUES (?, ?, ?, ?)",
		a.ID, a.Name, a.Path, formatTime(a.CreatedAt),
	)
	if err != nil {
		if database.IsUniqueViolation(err) && strings.Contains(err.Error(), ".path") {
			return ErrAssetPathExists
		}
		return writeError(err, string(a.Kind), a.ID, ErrAssetExists)
	}
	return nil
}

func listAssets(ctx context.Context, q database.DBTX, kind AssetKind) ([]Asset, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+assetColumns+" FROM "+kind.table()+" ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("listing %ss: %w", kind, err)
	}
	defer rows.Close()

	assets := []Asset{}
	for rows.Next() {
		a, err := scanAsset(rows, kind)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %ss: %w", kind, err)
	}
	return assets, nil
}

// deleteRow removes one row by id and reports whether it existed.
func deleteRow(ctx context.Context, q database.DBTX, table, id string) (bool, error) {
	result, err := q.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting from %s %s: %w", table, id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	return n > 0, nil
}
