package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// Metadata is the JSON sidecar shipped next to the model asset: the model's
// class names in output order and the resolution it was trained at.
type Metadata struct {
	Classes     []string `json:"classes"`
	InputWidth  int      `json:"input_width"`
	InputHeight int      `json:"input_height"`
}

func loadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read model metadata: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse model metadata: %w", err)
	}

	if meta.InputWidth <= 0 {
		meta.InputWidth = defaultInputSize
	}
	if meta.InputHeight <= 0 {
		meta.InputHeight = defaultInputSize
	}
	return meta, nil
}
