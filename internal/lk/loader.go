package lk

import (
	"encoding/json"
	"fmt"
	"os"
)

// MalformedSourceError is the fatal error class for structurally invalid
// exports. Anything less severe is a recoverable diagnostic handled later in
// the pipeline.
type MalformedSourceError struct {
	Path   string
	Reason string
	Err    error
}

func (e *MalformedSourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed export %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed export %s: %s", e.Path, e.Reason)
}

func (e *MalformedSourceError) Unwrap() error { return e.Err }

// Load reads and parses a LegendKeeper export file. It fails with a
// *MalformedSourceError when the file is not valid JSON, the top-level
// "resources" array is absent, or a resource lacks its id. Load performs no
// side effects beyond reading the file.
func Load(path string) (*Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lk: read export: %w", err)
	}

	// Probe for the required top-level key before decoding the full model so
	// that "valid JSON, wrong shape" yields a precise error.
	var probe struct {
		Resources *json.RawMessage `json:"resources"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &MalformedSourceError{Path: path, Reason: "not valid JSON", Err: err}
	}
	if probe.Resources == nil {
		return nil, &MalformedSourceError{Path: path, Reason: `missing required "resources" array`}
	}

	var exp Export
	if err := json.Unmarshal(data, &exp); err != nil {
		return nil, &MalformedSourceError{Path: path, Reason: "unexpected structure", Err: err}
	}

	exp.byID = make(map[string]*Resource, len(exp.Resources))
	for i := range exp.Resources {
		r := &exp.Resources[i]
		if r.ID == "" {
			return nil, &MalformedSourceError{Path: path, Reason: fmt.Sprintf("resource %d has no id", i)}
		}
		if r.Name == "" {
			r.Name = "Untitled"
		}
		exp.byID[r.ID] = r
	}

	return &exp, nil
}
