package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pavelanni/pacer/internal/model"
)

// ImportResult reports what an ImportFile call did.
type ImportResult struct {
	Skipped     bool `json:"skipped"`
	Profiles    int  `json:"profiles"`
	Modules     int  `json:"modules"`
	Submissions int  `json:"submissions"`
}

// ImportFile loads a dataset document unless a file with the same name and
// content was already imported.
func (s *Store) ImportFile(name string, data []byte) (ImportResult, error) {
	hash := sha256sum(data)
	storedHash, err := s.GetImportedFileHash(name)
	if err != nil {
		return ImportResult{}, fmt.Errorf("check import status for %s: %w", name, err)
	}
	if storedHash == hash {
		slog.Info("dataset file unchanged, skipping", "path", name)
		return ImportResult{Skipped: true}, nil
	}
	if storedHash != "" {
		slog.Warn("dataset file changed since last import, re-importing", "path", name)
	}

	var ds model.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return ImportResult{}, fmt.Errorf("parse %s: %w", name, err)
	}
	if err := ds.Check(); err != nil {
		return ImportResult{}, fmt.Errorf("check %s: %w", name, err)
	}
	if err := s.ImportDataset(ds); err != nil {
		return ImportResult{}, fmt.Errorf("import %s: %w", name, err)
	}
	if err := s.SetImportedFileHash(name, hash); err != nil {
		return ImportResult{}, fmt.Errorf("record import for %s: %w", name, err)
	}

	res := ImportResult{
		Profiles:    len(ds.Profiles),
		Modules:     len(ds.Curriculum),
		Submissions: len(ds.Submissions),
	}
	slog.Info("imported dataset", "path", name,
		"profiles", res.Profiles, "modules", res.Modules, "submissions", res.Submissions)
	return res, nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
