package roster

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/fleetops/rostersync/pkg/errors"
	"github.com/fleetops/rostersync/pkg/fingerprint"
)

// ReadPayrollCSV parses a Paycom payroll export into payroll rows. Header
// resolution is forgiving: columns are matched by their sanitized form, so
// "Employee_Code", "employee code", and "EmployeeCode" all resolve the same
// way. A UTF-8 BOM is tolerated.
func ReadPayrollCSV(path string) ([]fingerprint.PayrollRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer f.Close()
	rows, err := parsePayroll(f)
	if err != nil {
		return nil, errors.WrapParse("csv", path, err)
	}
	return rows, nil
}

func parsePayroll(r io.Reader) ([]fingerprint.PayrollRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\uFEFF")
		}
		header[i] = strings.TrimSpace(name)
	}

	var out []fingerprint.PayrollRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		raw := make(map[string]string, len(header))
		for i, name := range header {
			if name == "" || i >= len(record) {
				continue
			}
			raw[name] = record[i]
		}
		out = append(out, fingerprint.NewPayrollRow(raw))
	}
	return out, nil
}
