package services

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// AliasEntry maps a condition substring to ordered drug-label search terms
type AliasEntry struct {
	Key   string   `json:"key"`
	Terms []string `json:"terms"`
}

// AliasTable is the fallback used when a literal indication search finds no
// labels. Matching is a substring heuristic: an entry applies when its key,
// or any of its terms, occurs in the lowercased condition. Entries are tried
// in order and the first match wins, so more specific keys come first.
type AliasTable struct {
	Version string       `json:"version"`
	Entries []AliasEntry `json:"entries"`
}

// DefaultAliasTable returns the built-in table
func DefaultAliasTable() *AliasTable {
	return &AliasTable{
		Version: "2024-01",
		Entries: []AliasEntry{
			{Key: "type 2 diabetes", Terms: []string{"metformin", "insulin", "diabetes"}},
			{Key: "hypertension", Terms: []string{"amlodipine", "lisinopril", "blood pressure"}},
			{Key: "chest pain", Terms: []string{"nitroglycerin", "aspirin", "angina"}},
			{Key: "infection", Terms: []string{"amoxicillin", "antibiotic"}},
			{Key: "depression", Terms: []string{"sertraline", "fluoxetine", "antidepressant"}},
			{Key: "asthma", Terms: []string{"albuterol", "inhaler", "corticosteroid"}},
			{Key: "pain", Terms: []string{"ibuprofen", "acetaminophen", "analgesic"}},
		},
	}
}

// LoadAliasTable reads a table from a JSON file. An empty path returns the default table.
func LoadAliasTable(path string) (*AliasTable, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultAliasTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias table: %w", err)
	}
	var table AliasTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse alias table %s: %w", path, err)
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("alias table %s: %w", path, err)
	}
	return &table, nil
}

// Validate checks every entry has a key and at least one term
func (t *AliasTable) Validate() error {
	for i, entry := range t.Entries {
		if strings.TrimSpace(entry.Key) == "" {
			return fmt.Errorf("entry %d has an empty key", i)
		}
		if len(entry.Terms) == 0 || strings.TrimSpace(entry.Terms[0]) == "" {
			return fmt.Errorf("entry %q has no terms", entry.Key)
		}
	}
	return nil
}

// Match returns the first entry that applies to condition
func (t *AliasTable) Match(condition string) (AliasEntry, bool) {
	if t == nil {
		return AliasEntry{}, false
	}
	lowered := strings.ToLower(condition)
	if strings.TrimSpace(lowered) == "" {
		return AliasEntry{}, false
	}
	for _, entry := range t.Entries {
		if strings.Contains(lowered, strings.ToLower(entry.Key)) {
			return entry, true
		}
		for _, term := range entry.Terms {
			if strings.Contains(lowered, strings.ToLower(term)) {
				return entry, true
			}
		}
	}
	return AliasEntry{}, false
}

// FallbackTerm returns the first term of the matching entry
func (t *AliasTable) FallbackTerm(condition string) (string, bool) {
	entry, ok := t.Match(condition)
	if !ok {
		return "", false
	}
	return entry.Terms[0], true
}
