// Package roster parses the source-of-truth input files: the Encompass
// customer export, the Paycom payroll export, and the warehouse registry.
// Rows are parsed fresh from each file and never persisted.
package roster

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fleetops/rostersync/pkg/errors"
)

// Required columns of the Encompass customer export. Parsing fails fast
// before any planning when one is absent.
var requiredColumns = []string{
	"Customer ID",
	"Customer Name",
	"Account Status",
	"Latitude",
	"Longitude",
	"Report Company Address",
	"Location",
	"Company",
	"Customer Type",
}

// SourceRow is one customer record from the Encompass export. Immutable
// after parse.
type SourceRow struct {
	EncompassID string
	Name        string
	Status      string
	Lat         *float64
	Lon         *float64
	Address     string
	Location    string
	Company     string
	CType       string

	// Action is the row-level hint on delta files: "upsert" or "delete".
	// Empty on full exports.
	Action string
}

// IsDelete reports whether the row explicitly requests a delete.
func (r SourceRow) IsDelete() bool {
	return r.Action == "delete"
}

// IsInactive reports whether the account status marks the customer inactive.
func (r SourceRow) IsInactive() bool {
	return strings.EqualFold(strings.TrimSpace(r.Status), "INACTIVE")
}

// ReadEncompassCSV parses an Encompass export. A UTF-8 BOM is tolerated.
func ReadEncompassCSV(path string) ([]SourceRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer f.Close()
	rows, err := parseEncompass(f)
	if err != nil {
		return nil, errors.WrapParse("csv", path, err)
	}
	return rows, nil
}

func parseEncompass(r io.Reader) ([]SourceRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\uFEFF")
		}
		cols[strings.TrimSpace(name)] = i
	}
	for _, req := range requiredColumns {
		if _, ok := cols[req]; !ok {
			return nil, &errors.ValidationError{
				Field:   req,
				Message: "missing required column",
			}
		}
	}

	cell := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var out []SourceRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, SourceRow{
			EncompassID: cell(record, "Customer ID"),
			Name:        cell(record, "Customer Name"),
			Status:      cell(record, "Account Status"),
			Lat:         parseFloat(cell(record, "Latitude")),
			Lon:         parseFloat(cell(record, "Longitude")),
			Address:     cell(record, "Report Company Address"),
			Location:    cell(record, "Location"),
			Company:     cell(record, "Company"),
			CType:       cell(record, "Customer Type"),
			Action:      strings.ToLower(cell(record, "Action")),
		})
	}
	return out, nil
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
