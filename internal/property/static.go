package property

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// StaticDirectory serves a fixed set of properties, typically loaded from a
// JSON seed file for local runs.
type StaticDirectory struct {
	byCode map[string]*Property
	byID   map[string]*Property
}

// NewStaticDirectory indexes props by code and id. Later entries win.
func NewStaticDirectory(props ...*Property) *StaticDirectory {
	d := &StaticDirectory{byCode: map[string]*Property{}, byID: map[string]*Property{}}
	for _, p := range props {
		if p == nil {
			continue
		}
		p.Hydrate()
		if code := strings.TrimSpace(p.Code); code != "" {
			d.byCode[code] = p
		}
		if p.ID != "" {
			d.byID[p.ID] = p
		}
	}
	return d
}

// LoadStaticDirectory reads a JSON array of properties from path.
func LoadStaticDirectory(path string) (*StaticDirectory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("property: read seed file: %w", err)
	}
	var props []*Property
	if err := json.Unmarshal(raw, &props); err != nil {
		return nil, fmt.Errorf("property: decode seed file: %w", err)
	}
	return NewStaticDirectory(props...), nil
}

func (d *StaticDirectory) GetByCode(_ context.Context, code string) (*Property, error) {
	if p, ok := d.byCode[strings.TrimSpace(code)]; ok {
		return p, nil
	}
	return nil, ErrNotFound
}

func (d *StaticDirectory) GetByID(_ context.Context, id string) (*Property, error) {
	if p, ok := d.byID[id]; ok {
		return p, nil
	}
	return nil, ErrNotFound
}

// Len reports how many properties are indexed by code.
func (d *StaticDirectory) Len() int { return len(d.byCode) }
