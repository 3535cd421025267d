package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mapgrid/usermarks/internal/model"
)

// exportFile is the JSON snapshot schema.
type exportFile struct {
	ExportedAt time.Time               `json:"exportedAt"`
	Groups     []model.AnnotationGroup `json:"groups"`
}

// exportJSON writes the annotation set to a timestamped JSON file in the
// configured output dir. Caller must hold the write lock.
func (b *Backend) exportJSON() error {
	if err := os.MkdirAll(b.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	groups := make([]model.AnnotationGroup, 0, len(b.groups))
	for _, g := range b.groups {
		groups = append(groups, *g)
	}

	name := fmt.Sprintf("annotations.%s.json", time.Now().UTC().Format("20060102_150405"))
	if b.cfg.CompressOutput {
		name += ".gz"
	}
	path := filepath.Join(b.cfg.OutputDir, name)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	payload := exportFile{ExportedAt: time.Now().UTC(), Groups: groups}

	if b.cfg.CompressOutput {
		gz := gzip.NewWriter(f)
		if err := json.NewEncoder(gz).Encode(payload); err != nil {
			gz.Close()
			return fmt.Errorf("encoding export: %w", err)
		}
		if err := gz.Close(); err != nil {
			return fmt.Errorf("closing gzip writer: %w", err)
		}
	} else {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			return fmt.Errorf("encoding export: %w", err)
		}
	}

	b.exportedPath = path
	return nil
}
