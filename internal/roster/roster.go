// Package roster reads the vendor roster.
//
// The roster is an external, read-only CSV whose exact columns we do not
// control. Each row is read as a header-keyed mapping and the recognized
// keys are probed first-match-wins: name or company_name for the vendor's
// name; specialties, repair_types, or services for its specialty tags.
package roster

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Vendor is one roster entry. A vendor with no specialties declared is
// treated as handling anything.
type Vendor struct {
	Name        string            `json:"name"`
	Specialties string            `json:"specialties,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// HandlesRepairType reports whether the vendor covers the given repair
// type. Matching is a loose case-insensitive substring test, and an empty
// specialty list matches everything.
func (v Vendor) HandlesRepairType(repairType string) bool {
	if strings.TrimSpace(v.Specialties) == "" {
		return true
	}
	return strings.Contains(strings.ToLower(v.Specialties), strings.ToLower(repairType))
}

var nameKeys = []string{"name", "company_name"}
var specialtyKeys = []string{"specialties", "repair_types", "services"}

// Load reads the roster file. A missing file is not an error: it yields an
// empty roster, which downstream records as an explicit no-vendor outcome.
func Load(path string) ([]Vendor, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open roster: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var vendors []Vendor
	for _, row := range records[1:] {
		attrs := make(map[string]string, len(header))
		for i, val := range row {
			if i < len(header) {
				attrs[header[i]] = strings.TrimSpace(val)
			}
		}
		v := Vendor{
			Name:        firstMatch(attrs, nameKeys),
			Specialties: firstMatch(attrs, specialtyKeys),
			Attributes:  attrs,
		}
		if v.Name == "" {
			continue
		}
		vendors = append(vendors, v)
	}
	return vendors, nil
}

func firstMatch(attrs map[string]string, keys []string) string {
	for _, key := range keys {
		if v := attrs[key]; v != "" {
			return v
		}
	}
	return ""
}
