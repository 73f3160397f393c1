package clip

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"storyclip/internal/fileutil"
)

const manifestName = "manifest.json"

// manifest maps clip filenames to the content signature they were cut with.
// It lives next to the clips and is consulted before any cut to decide
// whether the existing file already represents the requested artifact.
type manifest struct {
	Signatures map[string]string `json:"signatures"`
}

func loadManifest(dir string) (manifest, error) {
	var m manifest
	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return manifest{Signatures: map[string]string{}}, nil
		}
		return m, fmt.Errorf("read clip manifest: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		// A corrupt manifest means every existing clip gets re-verified by
		// re-cutting; safe, just slower.
		return manifest{Signatures: map[string]string{}}, nil
	}
	if m.Signatures == nil {
		m.Signatures = map[string]string{}
	}
	return m, nil
}

func (m manifest) save(dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode clip manifest: %w", err)
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(dir, manifestName), data, 0o644); err != nil {
		return fmt.Errorf("persist clip manifest: %w", err)
	}
	return nil
}
