package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// ReferenceError describes a reference collection that could not be used.
// LoadReferences still returns an empty, usable set alongside it.
type ReferenceError struct {
	Path string
	Err  error
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("reference collection %s: %v", e.Path, e.Err)
}

func (e *ReferenceError) Unwrap() error {
	return e.Err
}

// LoadReferences reads a JSON array of objects and collects their "id"
// values, stringified. Objects without an id are skipped. The returned set
// is never nil: a missing or malformed file yields an empty set together
// with a *ReferenceError the caller should surface as a warning.
func LoadReferences(path string) (IDSet, error) {
	set := IDSet{}

	data, err := os.ReadFile(path)
	if err != nil {
		return set, &ReferenceError{Path: path, Err: err}
	}

	var records []map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&records); err != nil {
		return set, &ReferenceError{Path: path, Err: fmt.Errorf("malformed: %w", err)}
	}

	for _, record := range records {
		switch id := record["id"].(type) {
		case string:
			if id != "" {
				set[id] = true
			}
		case json.Number:
			set[id.String()] = true
		}
	}
	return set, nil
}
