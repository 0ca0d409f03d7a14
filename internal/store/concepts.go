package store

import (
	"fmt"
	"os"
	"strings"

	"fjacquet/bank-movements/internal/models"

	"gopkg.in/yaml.v3"
)

type conceptsFile struct {
	Concepts []models.Concept `yaml:"concepts"`
}

// LoadConceptsYAML reads a seed catalog. Both a top-level "concepts:" key
// and a bare list are accepted.
func LoadConceptsYAML(path string) ([]models.Concept, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading concepts file: %w", err)
	}

	var wrapped conceptsFile
	concepts := []models.Concept(nil)
	if err := yaml.Unmarshal(data, &wrapped); err == nil && len(wrapped.Concepts) > 0 {
		concepts = wrapped.Concepts
	} else {
		var bare []models.Concept
		if err := yaml.Unmarshal(data, &bare); err != nil {
			return nil, fmt.Errorf("error parsing concepts file: %w", err)
		}
		concepts = bare
	}

	seen := make(map[int]bool, len(concepts))
	for i, c := range concepts {
		concepts[i].Label = strings.TrimSpace(c.Label)
		if concepts[i].Label == "" {
			return nil, fmt.Errorf("concept %d has an empty label", c.ID)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("concept %d is defined twice", c.ID)
		}
		seen[c.ID] = true
	}
	return concepts, nil
}
