// Package catalog loads the curated reference data (interaction table,
// combination matrix and substance profiles) and answers lookups against it.
// The catalog is immutable once loaded.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"github.com/qubesight-bit/gosafe.lat-sub000/catalog/entities"
	"github.com/qubesight-bit/gosafe.lat-sub000/names"
	"github.com/qubesight-bit/gosafe.lat-sub000/pairs"
	"github.com/qubesight-bit/gosafe.lat-sub000/severity"
	"gopkg.in/yaml.v3"
)

//go:embed data/catalog.yaml
var embeddedCatalog []byte

// ErrUnknownSubstance is returned for names outside the catalog.
var ErrUnknownSubstance = errors.New("unknown substance")

// Catalog is the loaded curated dataset.
type Catalog struct {
	substances   []entities.Substance
	byName       map[string]int // canonical name or alias -> substances index
	interactions []entities.InteractionRecord
	exact        pairs.Table[int] // canonical pair -> interactions index
	matrix       *Matrix
}

type fileSource struct {
	Name        string              `yaml:"name"`
	Institution string              `yaml:"institution"`
	Type        entities.SourceType `yaml:"type"`
	Title       string              `yaml:"title"`
	URL         string              `yaml:"url"`
}

type fileSubstance struct {
	Name      string            `yaml:"name"`
	Aliases   []string          `yaml:"aliases"`
	Category  string            `yaml:"category"`
	RiskLevel severity.Severity `yaml:"risk_level"`
	Summary   string            `yaml:"summary"`
	Sources   []string          `yaml:"sources"`
}

type fileInteraction struct {
	A            string            `yaml:"a"`
	B            string            `yaml:"b"`
	Severity     severity.Severity `yaml:"severity"`
	Mechanism    string            `yaml:"mechanism"`
	ClinicalNote string            `yaml:"clinical_note"`
	Sources      []string          `yaml:"sources"`
}

type fileCell struct {
	A      string `yaml:"a"`
	B      string `yaml:"b"`
	Status string `yaml:"status"`
	Note   string `yaml:"note"`
}

type catalogFile struct {
	Sources      map[string]fileSource `yaml:"sources"`
	Substances   []fileSubstance       `yaml:"substances"`
	Interactions []fileInteraction     `yaml:"interactions"`
	Matrix       struct {
		Substances []string   `yaml:"substances"`
		Cells      []fileCell `yaml:"cells"`
	} `yaml:"matrix"`
}

// LoadEmbedded loads the catalog compiled into the binary.
func LoadEmbedded() (*Catalog, error) {
	return Load(embeddedCatalog)
}

// Load parses a YAML catalog document and builds its indexes.
func Load(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	sources := make(map[string]entities.Source, len(file.Sources))
	for key, fs := range file.Sources {
		src := entities.Source{
			Name:        fs.Name,
			Institution: fs.Institution,
			Type:        fs.Type,
			Title:       fs.Title,
			URL:         fs.URL,
		}
		if err := src.Validate(); err != nil {
			return nil, fmt.Errorf("source %q: %w", key, err)
		}
		sources[key] = src
	}

	resolve := func(owner string, keys []string) ([]entities.Source, error) {
		out := make([]entities.Source, 0, len(keys))
		for _, k := range keys {
			src, ok := sources[k]
			if !ok {
				return nil, fmt.Errorf("%s references unknown source %q", owner, k)
			}
			out = append(out, src)
		}
		return out, nil
	}

	c := &Catalog{
		byName: make(map[string]int),
		exact:  pairs.New[int](),
	}

	for _, fs := range file.Substances {
		if names.Canonical(fs.Name) == "" {
			return nil, fmt.Errorf("substance with empty name")
		}
		srcs, err := resolve("substance "+fs.Name, fs.Sources)
		if err != nil {
			return nil, err
		}
		idx := len(c.substances)
		c.substances = append(c.substances, entities.Substance{
			Name:      fs.Name,
			Aliases:   fs.Aliases,
			Category:  fs.Category,
			RiskLevel: fs.RiskLevel,
			Summary:   fs.Summary,
			Sources:   srcs,
		})
		for _, n := range append([]string{fs.Name}, fs.Aliases...) {
			key := names.Canonical(n)
			if prev, dup := c.byName[key]; dup {
				return nil, fmt.Errorf("name %q is used by both %q and %q", n, c.substances[prev].Name, fs.Name)
			}
			c.byName[key] = idx
		}
	}

	for i, fi := range file.Interactions {
		a, b := names.Canonical(fi.A), names.Canonical(fi.B)
		if a == "" || b == "" {
			return nil, fmt.Errorf("interaction %d has an empty substance name", i)
		}
		srcs, err := resolve(fmt.Sprintf("interaction %s/%s", fi.A, fi.B), fi.Sources)
		if err != nil {
			return nil, err
		}
		if err := c.exact.Set(a, b, len(c.interactions)); err != nil {
			return nil, fmt.Errorf("interaction %s/%s: %w", fi.A, fi.B, err)
		}
		c.interactions = append(c.interactions, entities.InteractionRecord{
			SubstanceA:     fi.A,
			SubstanceB:     fi.B,
			Classification: severity.ForLevel(fi.Severity),
			Mechanism:      fi.Mechanism,
			ClinicalNote:   fi.ClinicalNote,
			Sources:        srcs,
		})
	}

	matrix, err := newMatrix(file.Matrix.Substances, file.Matrix.Cells)
	if err != nil {
		return nil, err
	}
	c.matrix = matrix

	return c, nil
}

// Substances returns every profile in catalog order.
func (c *Catalog) Substances() []entities.Substance {
	return c.substances
}

// Substance finds a profile by name or alias.
func (c *Catalog) Substance(name string) (entities.Substance, bool) {
	idx, ok := c.byName[names.Canonical(name)]
	if !ok {
		return entities.Substance{}, false
	}
	return c.substances[idx], true
}

// Interactions returns the curated records in table order.
func (c *Catalog) Interactions() []entities.InteractionRecord {
	return c.interactions
}

// Matrix returns the combination grid.
func (c *Catalog) Matrix() *Matrix {
	return c.matrix
}

// Names returns every name the catalog knows (profiles, aliases, interaction
// and matrix names), deduplicated by canonical form and sorted.
func (c *Catalog) Names() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(n string) {
		key := names.Canonical(n)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, n)
	}

	for _, s := range c.substances {
		add(s.Name)
		for _, a := range s.Aliases {
			add(a)
		}
	}
	for _, r := range c.interactions {
		add(r.SubstanceA)
		add(r.SubstanceB)
	}
	for _, n := range c.matrix.Substances() {
		add(n)
	}

	sort.Slice(out, func(i, j int) bool { return names.Canonical(out[i]) < names.Canonical(out[j]) })
	return out
}
