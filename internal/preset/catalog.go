package preset

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// TodayPlaceholder in a string field value resolves to the current date.
const TodayPlaceholder = "{{today}}"

var ErrEmptyCatalog = errors.New("preset catalog is empty")

//go:embed presets.yaml
var defaultCatalog []byte

type Definition struct {
	ID       string         `yaml:"id"`
	Label    string         `yaml:"label"`
	Question string         `yaml:"question"`
	Fields   map[string]any `yaml:"fields,omitempty"`
}

type Catalog struct {
	Presets []Definition `yaml:"presets"`
}

// Default returns the built-in catalog.
func Default() Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("built-in preset catalog: %v", err))
	}
	return c
}

// LoadCatalog reads an operator-provided YAML catalog.
func LoadCatalog(path string) (Catalog, error) {
	// #nosec G304 -- path comes from operator-configured presets path.
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, err
	}
	return Parse(data)
}

func Parse(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, err
	}
	return c, c.Validate()
}

func (c Catalog) Validate() error {
	if len(c.Presets) == 0 {
		return ErrEmptyCatalog
	}
	seen := map[string]struct{}{}
	for i, p := range c.Presets {
		if p.ID == "" {
			return fmt.Errorf("presets[%d]: id is required", i)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("presets[%d]: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.Question == "" {
			return fmt.Errorf("preset %s: question is required", p.ID)
		}
		if _, err := json.Marshal(p.Fields); err != nil {
			return fmt.Errorf("preset %s: fields are not JSON-encodable: %w", p.ID, err)
		}
	}
	return nil
}

func (c Catalog) Lookup(id string) (Definition, bool) {
	for _, p := range c.Presets {
		if p.ID == id {
			return p, true
		}
	}
	return Definition{}, false
}

// Resolve returns the preset for id, or the first entry for an unknown id.
func (c Catalog) Resolve(id string) Definition {
	if p, ok := c.Lookup(id); ok {
		return p
	}
	if len(c.Presets) == 0 {
		return Definition{}
	}
	return c.Presets[0]
}

// ResolvedFields returns the preset fields with date placeholders filled in.
func (d Definition) ResolvedFields(now time.Time) map[string]any {
	out := make(map[string]any, len(d.Fields))
	for k, v := range d.Fields {
		if s, ok := v.(string); ok && s == TodayPlaceholder {
			out[k] = now.Format(time.DateOnly)
			continue
		}
		out[k] = v
	}
	return out
}
