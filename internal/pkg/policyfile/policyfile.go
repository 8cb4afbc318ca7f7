package policyfile

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/policy"
	"gopkg.in/yaml.v3"
)

// Parse decodes a policy document. Sections left out keep the reference values, except the
// holiday calendar, which stays nil when the document has no holidays key.
func Parse(data []byte) (policy.Tables, error) {
	doc := fromTables(policy.DefaultTables())
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return policy.Tables{}, fmt.Errorf("failed to parse policy file: %w", err)
	}

	tables, err := doc.toTables()
	if err != nil {
		return policy.Tables{}, err
	}
	if err := tables.Validate(); err != nil {
		return policy.Tables{}, fmt.Errorf("invalid policy: %w", err)
	}
	return tables, nil
}

// Load reads and parses the policy file at path.
func Load(path string) (policy.Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return policy.Tables{}, fmt.Errorf("failed to read policy file: %w", err)
	}
	return Parse(data)
}

// Encode renders tables as a policy document.
func Encode(t policy.Tables) ([]byte, error) {
	doc := fromTables(t)
	if len(t.Festivals) > 0 {
		doc.Festivals = make(map[string]festivalDoc, len(t.Festivals))
		for m, f := range t.Festivals {
			doc.Festivals[m.String()] = festivalDoc{Percent: amount{f.Percent}, Name: f.Name}
		}
	}
	doc.Holidays = t.Holidays
	return yaml.Marshal(doc)
}

// Store serves one loaded policy snapshot. It implements policy.Store.
type Store struct {
	tables policy.Tables
}

func NewStore(tables policy.Tables) *Store {
	return &Store{tables: tables}
}

// Open loads path into a Store. An empty path serves the reference policy with no holiday calendar.
func Open(path string) (*Store, error) {
	if path == "" {
		tables := policy.DefaultTables()
		tables.Holidays = nil
		return NewStore(tables), nil
	}
	tables, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewStore(tables), nil
}

func (s *Store) Holidays(ctx context.Context) (map[string]string, error) {
	return s.tables.Holidays, nil
}

func (s *Store) FestivalSchedule(ctx context.Context) (map[time.Month]policy.FestivalBonus, error) {
	return s.tables.Festivals, nil
}

func (s *Store) TaxSlabs(ctx context.Context) ([]policy.TaxSlab, error) {
	return s.tables.TaxSlabs, nil
}

func (s *Store) Tables(ctx context.Context) (policy.Tables, error) {
	return s.tables, nil
}
