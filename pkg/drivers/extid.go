package drivers

// External-id keys the driver engine owns on remote records.
const (
	KeyEmployeeCode = "employee_code"
	KeyFingerprint  = "paycom_fingerprint"
)

// legacyKeys maps historical key spellings onto the canonical keys. Earlier
// sync tooling wrote camel-case and squashed variants; reads fold them so a
// record marked by any generation of the tooling stays recognizable.
var legacyKeys = map[string]string{
	"employeeCode":      KeyEmployeeCode,
	"employeecode":      KeyEmployeeCode,
	"EmployeeCode":      KeyEmployeeCode,
	"Employee_Code":     KeyEmployeeCode,
	"paycomFingerprint": KeyFingerprint,
	"paycomfingerprint": KeyFingerprint,
}

// CleanExternalIDs folds legacy key spellings onto canonical keys. Unknown
// keys pass through untouched; a canonical key always wins over a legacy
// spelling of the same key.
func CleanExternalIDs(ext map[string]string) map[string]string {
	out := make(map[string]string, len(ext))
	for k, v := range ext {
		if _, legacy := legacyKeys[k]; legacy {
			continue
		}
		out[k] = v
	}
	for k, v := range ext {
		canonical, legacy := legacyKeys[k]
		if !legacy {
			continue
		}
		if _, ok := out[canonical]; !ok {
			out[canonical] = v
		}
	}
	return out
}

// EmployeeCode returns the stored employee code, folding legacy spellings.
func EmployeeCode(ext map[string]string) string {
	return CleanExternalIDs(ext)[KeyEmployeeCode]
}

// StoredFingerprint returns the stored payroll fingerprint, folding legacy
// spellings.
func StoredFingerprint(ext map[string]string) string {
	return CleanExternalIDs(ext)[KeyFingerprint]
}
