package cities

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/natefinch/atomic"
)

// FileName is the table's file name inside the data directory.
const FileName = "cities.json"

// ErrEmptyName is returned when adding a city without a name or identifier.
var ErrEmptyName = errors.New("city name and id are required")

// ErrCorruptTable is returned when the table file is not valid JSON.
var ErrCorruptTable = errors.New("corrupt city table")

// ID is a provider location identifier. It is stored as a JSON number when it
// is all digits and as a string otherwise; both forms are accepted on read.
type ID string

// UnmarshalJSON accepts 2643743 and "2643743".
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("city id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes numeric ids as numbers.
func (id ID) MarshalJSON() ([]byte, error) {
	if s := string(id); isDigits(s) && (s == "0" || s[0] != '0') {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Record is the stored value for one city.
type Record struct {
	ID ID `json:"id"`
}

// UnmarshalJSON accepts {"id": ...} as well as a bare id.
func (r *Record) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		type plain Record
		var p plain
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*r = Record(p)
		return nil
	}
	return r.ID.UnmarshalJSON(data)
}

// Table maps display names to identifiers. Names keep the case they were
// stored with; lookups ignore case through an index built when the table is
// loaded or modified.
type Table struct {
	records map[string]Record
	index   map[string]string // lower-cased name -> stored name
}

// New returns an empty table.
func New() *Table {
	return &Table{records: make(map[string]Record), index: make(map[string]string)}
}

// Load reads the table at path. An absent or empty file yields an empty table
// and is initialised to an empty JSON object.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read city table: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		t := New()
		if err := t.Save(path); err != nil {
			return nil, err
		}
		return t, nil
	}

	var raw map[string]Record
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptTable, path, err)
	}
	t := New()
	// Sorted so that names colliding case-insensitively resolve deterministically.
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		key := indexKey(name)
		if _, dup := t.index[key]; dup {
			continue
		}
		t.records[name] = raw[name]
		t.index[key] = name
	}
	return t, nil
}

// Save writes the whole table to path, replacing its previous contents.
func (t *Table) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("city table dir: %w", err)
	}
	data, err := json.MarshalIndent(t.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode city table: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write city table: %w", err)
	}
	return nil
}

// Lookup returns the stored identifier for name, ignoring case.
func (t *Table) Lookup(name string) (string, bool) {
	stored, ok := t.index[indexKey(name)]
	if !ok {
		return "", false
	}
	return string(t.records[stored].ID), true
}

// Add stores id under name. An existing entry that matches name
// case-insensitively is replaced, and the new spelling becomes canonical.
func (t *Table) Add(name, id string) error {
	name = strings.TrimSpace(name)
	id = strings.TrimSpace(id)
	if name == "" || id == "" {
		return ErrEmptyName
	}
	t.Remove(name)
	t.records[name] = Record{ID: ID(id)}
	t.index[indexKey(name)] = name
	return nil
}

// Remove deletes name, ignoring case. It reports whether an entry existed.
func (t *Table) Remove(name string) bool {
	key := indexKey(name)
	stored, ok := t.index[key]
	if !ok {
		return false
	}
	delete(t.records, stored)
	delete(t.index, key)
	return true
}

// Names returns the stored names in case-insensitive order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.records))
	for name := range t.records {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return indexKey(names[i]) < indexKey(names[j]) })
	return names
}

// Len returns the number of stored cities.
func (t *Table) Len() int {
	return len(t.records)
}

func indexKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
