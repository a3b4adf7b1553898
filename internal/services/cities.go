package services

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// CityDirectory is a read-only lookup of known city names, loaded once at
// startup and injected into the creation policy.
type CityDirectory struct {
	names map[string]struct{}
}

// NewCityDirectory builds a directory from a list of names
func NewCityDirectory(names []string) *CityDirectory {
	d := &CityDirectory{names: make(map[string]struct{}, len(names))}
	for _, name := range names {
		if n := strings.ToLower(strings.TrimSpace(name)); n != "" {
			d.names[n] = struct{}{}
		}
	}
	return d
}

// LoadCityDirectory reads a one-column CSV of city names. A header row named
// "city_name" is skipped.
func LoadCityDirectory(path string) (*CityDirectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cities file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse cities file: %w", err)
	}

	names := make([]string, 0, len(records))
	for i, record := range records {
		if len(record) == 0 {
			continue
		}
		if i == 0 && strings.EqualFold(strings.TrimSpace(record[0]), "city_name") {
			continue
		}
		names = append(names, record[0])
	}
	return NewCityDirectory(names), nil
}

// IsValid reports whether name is a known city, case-insensitively.
// A nil directory accepts everything.
func (d *CityDirectory) IsValid(name string) bool {
	if d == nil {
		return true
	}
	_, ok := d.names[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Len returns the number of known cities
func (d *CityDirectory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.names)
}
