package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"agenda/internal/availability/validator"
	"agenda/pkg/logger"
	"agenda/pkg/model"
	"agenda/pkg/sanitizer"
)

// readSnapshot decodes a YAML (or, by extension, JSON) snapshot file, then
// normalizes and validates it.
func readSnapshot(path string, log *logger.Logger) (*model.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var snap model.Snapshot
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &snap)
	default:
		err = yaml.Unmarshal(data, &snap)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	sanitizer.SanitizeSnapshot(&snap)
	if err := validator.NewAvailabilityValidator(log).ValidateSnapshot(&snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot %s: %w", path, err)
	}
	return &snap, nil
}
