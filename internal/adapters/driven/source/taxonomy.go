package source

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
)

// Ensure TaxonomyLoader implements the interface.
var _ driven.TaxonomyLoader = (*TaxonomyLoader)(nil)

// TaxonomyLoader reads predefined taxonomies from JSON or YAML files.
// Both a bare list of categories and {"categories": [...]} are accepted.
type TaxonomyLoader struct{}

// NewTaxonomyLoader creates a new taxonomy loader.
func NewTaxonomyLoader() *TaxonomyLoader {
	return &TaxonomyLoader{}
}

type taxonomyFile struct {
	Categories []domain.Category `json:"categories" yaml:"categories"`
}

// Load reads the taxonomy at path. Missing IDs are assigned sequentially.
func (l *TaxonomyLoader) Load(path string) (domain.Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy: %w", err)
	}

	var categories []domain.Category
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		categories, err = decodeTaxonomy(data, json.Unmarshal)
	case ".yaml", ".yml":
		categories, err = decodeTaxonomy(data, yaml.Unmarshal)
	default:
		return nil, fmt.Errorf("%w: taxonomy file extension %q", domain.ErrUnsupportedType, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parse taxonomy %s: %w", domain.ErrInvalidInput, filepath.Base(path), err)
	}

	tax := domain.AssignIDs(categories)
	if len(tax) == 0 {
		return nil, fmt.Errorf("%w: taxonomy %s has no categories", domain.ErrInvalidInput, filepath.Base(path))
	}
	return tax, nil
}

func decodeTaxonomy(data []byte, unmarshal func([]byte, any) error) ([]domain.Category, error) {
	var list []domain.Category
	if err := unmarshal(data, &list); err == nil {
		return list, nil
	}
	var file taxonomyFile
	if err := unmarshal(data, &file); err != nil {
		return nil, err
	}
	return file.Categories, nil
}
