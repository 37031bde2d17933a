package inventory

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/circuitstash/core/internal/ids"
	"github.com/circuitstash/core/internal/infrastructure/database"
)

// RegisterAsset records an image or datasheet file. The file itself is
// managed by the caller.
func (e *Engine) RegisterAsset(ctx context.Context, kind AssetKind, in AssetInput) (*Asset, error) {
	if !kind.Valid() {
		return nil, ErrInvalidAssetKind
	}
	path := strings.TrimSpace(in.Path)
	if path == "" {
		return nil, ErrEmptyPath
	}
	id, err := resolveID(in.ID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = filepath.Base(path)
	}

	asset := &Asset{
		ID:        id,
		Kind:      kind,
		Name:      name,
		Path:      path,
		CreatedAt: e.now().UTC(),
	}
	if err := e.tx(ctx, func(ctx context.Context, q database.DBTX) error {
		return insertAsset(ctx, q, asset)
	}); err != nil {
		return nil, err
	}
	return asset, nil
}

// GetAsset returns an asset by id.
func (e *Engine) GetAsset(ctx context.Context, kind AssetKind, id string) (*Asset, error) {
	if !kind.Valid() {
		return nil, ErrInvalidAssetKind
	}
	return getAsset(ctx, e.db, kind, id)
}

// ListAssets returns every asset of kind ordered by name.
func (e *Engine) ListAssets(ctx context.Context, kind AssetKind) ([]Asset, error) {
	if !kind.Valid() {
		return nil, ErrInvalidAssetKind
	}
	return listAssets(ctx, e.db, kind)
}

// DeleteAsset removes an asset. Parts and locations referencing it have
// the reference cleared by the foreign key.
func (e *Engine) DeleteAsset(ctx context.Context, kind AssetKind, id string) error {
	if !kind.Valid() {
		return ErrInvalidAssetKind
	}
	return e.tx(ctx, func(ctx context.Context, q database.DBTX) error {
		found, err := deleteRow(ctx, q, kind.table(), id)
		if err != nil {
			return err
		}
		if !found {
			return assetNotFound(kind)
		}
		return nil
	})
}

// SyncAssets makes the catalogue of kind match paths: rows whose path is
// still listed are kept with their ids, new paths are added, and rows for
// paths no longer present are removed (clearing references to them).
func (e *Engine) SyncAssets(ctx context.Context, kind AssetKind, paths []string) (SyncResult, error) {
	if !kind.Valid() {
		return SyncResult{}, ErrInvalidAssetKind
	}

	wanted := make(map[string]bool, len(paths))
	ordered := make([]string, 0, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" || wanted[p] {
			continue
		}
		wanted[p] = true
		ordered = append(ordered, p)
	}

	var result SyncResult
	err := e.tx(ctx, func(ctx context.Context, q database.DBTX) error {
		current, err := listAssets(ctx, q, kind)
		if err != nil {
			return err
		}

		have := make(map[string]bool, len(current))
		for _, a := range current {
			if wanted[a.Path] {
				have[a.Path] = true
				result.Kept++
				continue
			}
			if _, err := deleteRow(ctx, q, kind.table(), a.ID); err != nil {
				return err
			}
			result.Removed++
		}

		now := e.now().UTC()
		for _, p := range ordered {
			if have[p] {
				continue
			}
			asset := &Asset{
				ID:        ids.New(),
				Kind:      kind,
				Name:      filepath.Base(p),
				Path:      p,
				CreatedAt: now,
			}
			if err := insertAsset(ctx, q, asset); err != nil {
				return err
			}
			result.Added++
		}
		return nil
	})
	if err != nil {
		return SyncResult{}, err
	}

	e.logger.InfoContext(ctx, "asset catalogue synced",
		"kind", string(kind),
		"added", result.Added,
		"removed", result.Removed,
		"kept", result.Kept,
	)
	return result, nil
}

// ScanDir lists the regular files in dir matching any of patterns, for
// use with SyncAssets. A missing directory yields no paths.
func ScanDir(dir string, patterns ...string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{"*"}
	}

	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			info, err := os.Stat(m)
			if err != nil || info.IsDir() {
				continue
			}
			seen[m] = true
			paths = append(paths, m)
		}
	}
	return paths, nil
}
