package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/mrlokans/locallibrary/internal/utils"
)

// Archive keeps JSON snapshots of deleted catalog records on disk.
type Archive struct {
	Dir string
}

func NewArchive(dir string) *Archive {
	return &Archive{
		Dir: dir,
	}
}

// SaveJSON writes data to <entityType>-<entityID>-<label>-<uuid>.json and
// returns the file name. label is a human-readable name such as a book title.
func (a *Archive) SaveJSON(entityType, entityID, label string, data any) (string, error) {
	if err := a.ensureDir(); err != nil {
		return "", fmt.Errorf("failed to ensure archive directory: %w", err)
	}

	filename := fmt.Sprintf("%s-%s-%s-%s.json",
		utils.FilenameSlug(entityType), utils.FilenameSlug(entityID), utils.FilenameSlug(label), uuid.New().String())
	path := filepath.Join(a.Dir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot to JSON: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	log.Printf("Archived deleted %s %s to %s", entityType, entityID, path)
	return filename, nil
}

func (a *Archive) ensureDir() error {
	if _, err := os.Stat(a.Dir); os.IsNotExist(err) {
		if err := os.MkdirAll(a.Dir, 0755); err != nil {
			return fmt.Errorf("failed to create archive directory: %w", err)
		}
	}
	return nil
}
