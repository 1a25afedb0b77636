package roster

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/fleetops/rostersync/pkg/errors"
)

// ReadAddressIDs reads remote address ids from a CSV with an "ID" column,
// used by the purge command. Blank cells are skipped.
func ReadAddressIDs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, errors.WrapParse("csv", path, err)
	}
	idCol := -1
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\uFEFF")
		}
		if strings.EqualFold(strings.TrimSpace(name), "ID") {
			idCol = i
			break
		}
	}
	if idCol < 0 {
		return nil, &errors.ValidationError{Field: "ID", Message: "missing required column"}
	}

	var ids []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return ids, nil
		}
		if err != nil {
			return nil, errors.WrapParse("csv", path, err)
		}
		if idCol < len(record) {
			if id := strings.TrimSpace(record[idCol]); id != "" {
				ids = append(ids, id)
			}
		}
	}
}
