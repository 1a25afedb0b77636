package roster

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/fleetops/rostersync/pkg/errors"
	"github.com/fleetops/rostersync/pkg/normalize"
)

// Warehouses is the denylist of records the engine must never mutate or
// delete. Loaded once per pass; immutable afterwards.
type Warehouses struct {
	ids   map[string]struct{}
	names map[string]struct{}
}

// ContainsID reports whether the remote id is a protected warehouse.
func (w *Warehouses) ContainsID(id string) bool {
	if w == nil || id == "" {
		return false
	}
	_, ok := w.ids[id]
	return ok
}

// ContainsName reports whether the normalized name is a protected warehouse.
func (w *Warehouses) ContainsName(name string) bool {
	if w == nil {
		return false
	}
	key := normalize.Key(name)
	if key == "" {
		return false
	}
	_, ok := w.names[key]
	return ok
}

// Protects reports whether a record with the given id or name is protected.
func (w *Warehouses) Protects(id, name string) bool {
	return w.ContainsID(id) || w.ContainsName(name)
}

// Len returns the number of distinct protected ids and names.
func (w *Warehouses) Len() int {
	if w == nil {
		return 0
	}
	return len(w.ids) + len(w.names)
}

type warehouseEntry struct {
	SamsaraID string `yaml:"samsara_id"`
	Name      string `yaml:"name"`
}

// LoadWarehouses reads the registry from CSV (headers samsara_id,name) or
// YAML when the path ends in .yaml/.yml.
func LoadWarehouses(path string) (*Warehouses, error) {
	w := &Warehouses{
		ids:   make(map[string]struct{}),
		names: make(map[string]struct{}),
	}
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		if err := loadWarehousesYAML(path, w); err != nil {
			return nil, err
		}
		return w, nil
	}
	if err := loadWarehousesCSV(path, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Warehouses) add(id, name string) {
	if id = strings.TrimSpace(id); id != "" {
		w.ids[id] = struct{}{}
	}
	if key := normalize.Key(name); key != "" {
		w.names[key] = struct{}{}
	}
}

func loadWarehousesYAML(path string, w *Warehouses) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapIO("read", path, err)
	}

	// Accept either a bare list or a document with a "warehouses" key.
	var doc struct {
		Warehouses []warehouseEntry `yaml:"warehouses"`
	}
	if err := yaml.Unmarshal(raw, &doc); err == nil && len(doc.Warehouses) > 0 {
		for _, e := range doc.Warehouses {
			w.add(e.SamsaraID, e.Name)
		}
		return nil
	}
	var list []warehouseEntry
	if err := yaml.Unmarshal(raw, &list); err != nil {
		return errors.WrapParse("yaml", path, err)
	}
	for _, e := range list {
		w.add(e.SamsaraID, e.Name)
	}
	return nil
}

func loadWarehousesCSV(path string, w *Warehouses) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.WrapIO("open", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return errors.WrapParse("csv", path, err)
	}
	idCol, nameCol := -1, -1
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\uFEFF")
		}
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "samsara_id":
			idCol = i
		case "name":
			nameCol = i
		}
	}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.WrapParse("csv", path, err)
		}
		var id, name string
		if idCol >= 0 && idCol < len(record) {
			id = record[idCol]
		}
		if nameCol >= 0 && nameCol < len(record) {
			name = record[nameCol]
		}
		w.add(id, name)
	}
}
