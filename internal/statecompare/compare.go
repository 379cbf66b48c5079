// Package statecompare diffs the outcome of two scenario runs: the result of
// every step and the ledger entries left after the last one.
package statecompare

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"sort"

	"github.com/LeJamon/goDEXd/internal/scenario"
)

// Entry is a ledger entry of a final snapshot, keyed by what it is.
type Entry struct {
	Key    string         `json:"key"`
	Fields map[string]any `json:"fields"`
}

// FieldDiff is one field that differs between two versions of an entry.
type FieldDiff struct {
	Field string `json:"field"`
	Left  any    `json:"left"`
	Right any    `json:"right"`
}

// Modified is an entry present on both sides with different fields.
type Modified struct {
	Key    string      `json:"key"`
	Fields []FieldDiff `json:"fields"`
}

// StepDiff is an operation whose outcome differs.
type StepDiff struct {
	Index  int         `json:"index"`
	Fields []FieldDiff `json:"fields"`
}

// Diff is the difference between a left and a right report.
type Diff struct {
	Steps    []StepDiff `json:"steps,omitempty"`
	Added    []Entry    `json:"added,omitempty"`
	Removed  []Entry    `json:"removed,omitempty"`
	Modified []Modified `json:"modified,omitempty"`
}

// Empty reports whether both runs had the same outcome.
func (d *Diff) Empty() bool {
	return len(d.Steps) == 0 && len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Modified) == 0
}

// LoadReport reads a report written by dexd run.
func LoadReport(path string) (*scenario.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r scenario.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("report %s: %w", path, err)
	}
	return &r, nil
}

// Compare returns what changed from left to right. Entries only in right are
// added, entries only in left are removed.
func Compare(left, right *scenario.Report) (*Diff, error) {
	d := &Diff{}

	n := max(len(left.Steps), len(right.Steps))
	for i := 0; i < n; i++ {
		var l, r *scenario.Step
		if i < len(left.Steps) {
			l = &left.Steps[i]
		}
		if i < len(right.Steps) {
			r = &right.Steps[i]
		}
		fields, err := diffValues(l, r)
		if err != nil {
			return nil, err
		}
		if len(fields) > 0 {
			d.Steps = append(d.Steps, StepDiff{Index: i, Fields: fields})
		}
	}

	lm, err := buildStateMap(left.Final)
	if err != nil {
		return nil, err
	}
	rm, err := buildStateMap(right.Final)
	if err != nil {
		return nil, err
	}
	for _, key := range sortedKeys(lm, rm) {
		l, inLeft := lm[key]
		r, inRight := rm[key]
		switch {
		case !inLeft:
			d.Added = append(d.Added, Entry{Key: key, Fields: r})
		case !inRight:
			d.Removed = append(d.Removed, Entry{Key: key, Fields: l})
		default:
			if fields := diffFields(l, r); len(fields) > 0 {
				d.Modified = append(d.Modified, Modified{Key: key, Fields: fields})
			}
		}
	}
	return d, nil
}

func buildStateMap(s scenario.Snapshot) (map[string]map[string]any, error) {
	m := make(map[string]map[string]any, len(s.Accounts)+len(s.Lines)+len(s.Offers))
	add := func(key string, v any) error {
		fields, err := toFields(v)
		if err != nil {
			return err
		}
		m[key] = fields
		return nil
	}
	if err := add("header", s.Header); err != nil {
		return nil, err
	}
	for _, a := range s.Accounts {
		if err := add("account/"+string(a.ID), a); err != nil {
			return nil, err
		}
	}
	for _, l := range s.Lines {
		if err := add(fmt.Sprintf("line/%s/%s", l.AccountID, l.Asset), l); err != nil {
			return nil, err
		}
	}
	for _, o := range s.Offers {
		if err := add(fmt.Sprintf("offer/%d", o.OfferID), o); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// toFields flattens v to its JSON object form.
func toFields(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func diffValues(l, r any) ([]FieldDiff, error) {
	lf, err := toFields(l)
	if err != nil {
		return nil, err
	}
	rf, err := toFields(r)
	if err != nil {
		return nil, err
	}
	return diffFields(lf, rf), nil
}

func diffFields(l, r map[string]any) []FieldDiff {
	var out []FieldDiff
	for _, k := range sortedKeys(l, r) {
		if !reflect.DeepEqual(l[k], r[k]) {
			out = append(out, FieldDiff{Field: k, Left: l[k], Right: r[k]})
		}
	}
	return out
}

func sortedKeys[V any](maps ...map[string]V) []string {
	seen := make(map[string]struct{})
	for _, m := range maps {
		for k := range m {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
