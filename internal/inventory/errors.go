package inventory

import "github.com/circuitstash/core/internal/apperr"

var (
	// ErrPartNotFound is returned when a part ID does not exist.
	ErrPartNotFound = apperr.New(apperr.KindNotFound, "part not found")

	// ErrLocationNotFound is returned when a location ID does not exist.
	ErrLocationNotFound = apperr.New(apperr.KindNotFound, "location not found")

	// ErrParentNotFound is returned when a location's parent does not exist.
	ErrParentNotFound = apperr.New(apperr.KindNotFound, "parent location not found")

	// ErrInventoryNotFound is returned when an inventory row does not exist.
	ErrInventoryNotFound = apperr.New(apperr.KindNotFound, "inventory row not found")

	// ErrImageNotFound is returned when a referenced image does not exist.
	ErrImageNotFound = apperr.New(apperr.KindNotFound, "image not found")

	// ErrDatasheetNotFound is returned when a referenced datasheet does not exist.
	ErrDatasheetNotFound = apperr.New(apperr.KindNotFound, "datasheet not found")

	ErrPartExists      = apperr.New(apperr.KindAlreadyExists, "part id already exists")
	ErrLocationExists  = apperr.New(apperr.KindAlreadyExists, "location id already exists")
	ErrInventoryExists = apperr.New(apperr.KindAlreadyExists, "inventory row already exists for this id or part and location")
	ErrAssetExists     = apperr.New(apperr.KindAlreadyExists, "asset id already exists")
	ErrAssetPathExists = apperr.New(apperr.KindAlreadyExists, "asset path already registered")

	ErrEmptyName        = apperr.New(apperr.KindInvalidInput, "name must not be empty")
	ErrNameTooLong      = apperr.New(apperr.KindInvalidInput, "name exceeds 200 characters")
	ErrNegativeMinStock = apperr.New(apperr.KindInvalidInput, "min_stock must not be negative")
	ErrNegativeStock    = apperr.New(apperr.KindInvalidInput, "stock must not be negative")
	ErrInvalidID        = apperr.New(apperr.KindInvalidInput, "id must be 1-64 printable characters without spaces or '/'")
	ErrMissingReference = apperr.New(apperr.KindInvalidInput, "part_id and location_id are required")
	ErrInvalidAssetKind = apperr.New(apperr.KindInvalidInput, "asset kind must be image or datasheet")
	ErrEmptyPath        = apperr.New(apperr.KindInvalidInput, "asset path must not be empty")
)
