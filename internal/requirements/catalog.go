package requirements

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"casedesk/pkg/domain"
)

// Catalog serves every requirement template ordered by Seq. Inactive
// templates are included; the resolver skips them.
type Catalog interface {
	Templates(ctx context.Context) ([]Template, error)
}

//go:embed catalog.yaml
var defaultCatalog []byte

type seedTemplate struct {
	ID              string            `yaml:"id"`
	Name            string            `yaml:"name"`
	Description     string            `yaml:"description"`
	Kind            Kind              `yaml:"kind"`
	Category        string            `yaml:"category"`
	EntityType      domain.EntityType `yaml:"entity_type"`
	ResidencyStatus string            `yaml:"residency_status"`
	RiskLevel       domain.RiskLevel  `yaml:"risk_level"`
	FormCategory    string            `yaml:"form_category"`
	AccountType     string            `yaml:"account_type"`
	Optional        bool              `yaml:"optional"`
	ValidityMonths  int               `yaml:"validity_months"`
	SortOrder       int               `yaml:"sort_order"`
	Disabled        bool              `yaml:"disabled"`
}

type seedFile struct {
	Templates []seedTemplate `yaml:"templates"`
}

// LoadYAML parses a catalog document. Seq follows document order starting at 1.
func LoadYAML(r io.Reader) ([]Template, error) {
	var f seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode requirement catalog: %w", err)
	}
	out := make([]Template, 0, len(f.Templates))
	seen := make(map[string]struct{}, len(f.Templates))
	for i, st := range f.Templates {
		if st.ID == "" || st.Name == "" {
			return nil, fmt.Errorf("catalog entry %d: id and name are required", i+1)
		}
		if _, dup := seen[st.ID]; dup {
			return nil, fmt.Errorf("catalog entry %d: duplicate id %s", i+1, st.ID)
		}
		seen[st.ID] = struct{}{}
		if !st.Kind.IsValid() {
			return nil, fmt.Errorf("catalog entry %s: unknown kind %q", st.ID, st.Kind)
		}
		out = append(out, Template{
			ID:              st.ID,
			Seq:             i + 1,
			Name:            st.Name,
			Description:     st.Description,
			Kind:            st.Kind,
			Category:        st.Category,
			EntityType:      st.EntityType,
			ResidencyStatus: st.ResidencyStatus,
			RiskLevel:       st.RiskLevel,
			FormCategory:    st.FormCategory,
			AccountType:     st.AccountType,
			Required:        !st.Optional,
			ValidityMonths:  st.ValidityMonths,
			SortOrder:       st.SortOrder,
			Active:          !st.Disabled,
		})
	}
	return out, nil
}

// LoadFile reads a catalog document from path.
func LoadFile(path string) ([]Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open requirement catalog: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}

// DefaultTemplates returns the embedded seed catalog.
func DefaultTemplates() []Template {
	t, err := LoadYAML(bytes.NewReader(defaultCatalog))
	if err != nil {
		panic(err)
	}
	return t
}

// MemoryCatalog is a process-local catalog.
type MemoryCatalog struct {
	mu        sync.RWMutex
	templates []Template
}

func NewMemoryCatalog(templates []Template) *MemoryCatalog {
	c := &MemoryCatalog{}
	c.Replace(templates)
	return c
}

// Replace swaps the whole catalog.
func (c *MemoryCatalog) Replace(templates []Template) {
	cp := slices.Clone(templates)
	slices.SortStableFunc(cp, func(a, b Template) int { return a.Seq - b.Seq })
	c.mu.Lock()
	c.templates = cp
	c.mu.Unlock()
}

func (c *MemoryCatalog) Templates(_ context.Context) ([]Template, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.templates), nil
}
