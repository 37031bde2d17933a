package inventory

import "time"

// Part is a stocked component.
type Part struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// Stock is SUM(inventory.stock) for this part. It is read-only.
	Stock       int       `json:"stock"`
	MinStock    int       `json:"min_stock"`
	ImageID     *string   `json:"image_id"`
	DatasheetID *string   `json:"datasheet_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LowStock reports whether the part is below its minimum.
func (p *Part) LowStock() bool {
	return p.Stock < p.MinStock
}

// PartInput creates a Part. ID is optional; when set it must not exist yet.
type PartInput struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	MinStock    int     `json:"min_stock"`
	ImageID     *string `json:"image_id,omitempty"`
	DatasheetID *string `json:"datasheet_id,omitempty"`
}

// PartUpdate changes a Part in place. Nil fields are left unchanged; a
// reference set to "" is cleared.
type PartUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	MinStock    *int    `json:"min_stock,omitempty"`
	ImageID     *string `json:"image_id,omitempty"`
	DatasheetID *string `json:"datasheet_id,omitempty"`

	// Stock is accepted so clients can send a whole Part back, but it is
	// ignored: stock is always recomputed from inventory rows.
	Stock *int `json:"stock,omitempty"`
}

// PartFilter narrows ListParts.
type PartFilter struct {
	// Query matches a substring of the name, case-insensitively.
	Query string
	// LowStockOnly keeps parts whose stock is below min_stock.
	LowStockOnly bool
}

// Location is a place parts are stored in. Locations nest through ParentID.
type Location struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageID     *string   `json:"image_id"`
	ParentID    *string   `json:"parent_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LocationInput creates a Location. ID is optional.
type LocationInput struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ImageID     *string `json:"image_id,omitempty"`
	ParentID    *string `json:"parent_id,omitempty"`
}

// LocationUpdate changes a Location in place, with the same nil and ""
// rules as PartUpdate.
type LocationUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	ImageID     *string `json:"image_id,omitempty"`
	ParentID    *string `json:"parent_id,omitempty"`
}

// Inventory is the stock of one part at one location. There is at most
// one row per (part, location) pair.
type Inventory struct {
	ID         string    `json:"id"`
	PartID     string    `json:"part_id"`
	LocationID string    `json:"location_id"`
	Stock      int       `json:"stock"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// InventoryInput creates an Inventory row. ID is optional.
type InventoryInput struct {
	ID         string `json:"id,omitempty"`
	PartID     string `json:"part_id"`
	LocationID string `json:"location_id"`
	Stock      int    `json:"stock"`
}

// InventoryFilter narrows ListInventory. Empty fields match everything.
type InventoryFilter struct {
	PartID     string
	LocationID string
}

// AssetKind selects the image or datasheet catalogue.
type AssetKind string

// Asset kinds.
const (
	KindImage     AssetKind = "image"
	KindDatasheet AssetKind = "datasheet"
)

// Valid reports whether k is a known asset kind.
func (k AssetKind) Valid() bool {
	return k == KindImage || k == KindDatasheet
}

// table returns the catalogue table for k. Callers validate k first.
func (k AssetKind) table() string {
	if k == KindDatasheet {
		return "datasheets"
	}
	return "images"
}

// Asset is a catalogued image or datasheet file.
type Asset struct {
	ID        string    `json:"id"`
	Kind      AssetKind `json:"kind"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// AssetInput registers an asset. ID is optional; Name defaults to the
// base name of Path.
type AssetInput struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// SyncResult reports what SyncAssets changed.
type SyncResult struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Kept    int `json:"kept"`
}
