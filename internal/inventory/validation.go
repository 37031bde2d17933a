package inventory

import (
	"strings"

	"github.com/circuitstash/core/internal/ids"
)

const maxNameLength = 200

// validateName trims and checks a part or location name.
func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if len(name) > maxNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}

// resolveID returns a client-supplied id after checking it, or a new one.
func resolveID(id string) (string, error) {
	if id == "" {
		return ids.New(), nil
	}
	if !ids.Valid(id) {
		return "", ErrInvalidID
	}
	return id, nil
}

// normRef turns an optional reference into nil when absent or cleared.
func normRef(ref *string) *string {
	if ref == nil || *ref == "" {
		return nil
	}
	v := *ref
	return &v
}

// applyRef applies an update pointer to a current reference: nil keeps
// current, "" clears it, anything else replaces it.
func applyRef(current, update *string) *string {
	if update == nil {
		return current
	}
	return normRef(update)
}

func validatePartInput(in *PartInput) error {
	name, err := validateName(in.Name)
	if err != nil {
		return err
	}
	in.Name = name
	if in.MinStock < 0 {
		return ErrNegativeMinStock
	}
	return nil
}

func validateLocationInput(in *LocationInput) error {
	name, err := validateName(in.Name)
	if err != nil {
		return err
	}
	in.Name = name
	return nil
}

func validateInventoryInput(in *InventoryInput) error {
	if in.PartID == "" || in.LocationID == "" {
		return ErrMissingReference
	}
	if in.Stock < 0 {
		return ErrNegativeStock
	}
	return nil
}
