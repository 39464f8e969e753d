package auditquery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Field is one projected value keyed by the dot-path that selected it.
// Value is nil when any path segment was absent or the walk hit a scalar
// before the path was exhausted.
type Field struct {
	Path  string
	Value any
}

// FlatRecord is the projection of one raw record: one Field per requested
// path, in the caller's path order.
type FlatRecord []Field

// Get returns the value for path. The second return is false when the
// path was not part of the projection (a projected-but-absent path
// returns nil, true).
func (r FlatRecord) Get(path string) (any, bool) {
	for _, f := range r {
		if f.Path == path {
			return f.Value, true
		}
	}
	return nil, false
}

// MarshalJSON renders the record as a JSON object whose keys appear in
// projection order.
func (r FlatRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Path)
		if err != nil {
			return nil, fmt.Errorf("auditquery.FlatRecord.MarshalJSON: key %q: %w", f.Path, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("auditquery.FlatRecord.MarshalJSON: value for %q: %w", f.Path, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Project resolves each dot-path against record and returns the flat
// result. It is pure: no I/O, no mutation of record, and identical input
// always yields identical output. Records are not required to share a
// schema; traversal failures yield a nil value, never an error.
func Project(record map[string]any, paths []string) FlatRecord {
	out := make(FlatRecord, 0, len(paths))
	for _, path := range paths {
		out = append(out, Field{Path: path, Value: lookupPath(record, path)})
	}
	return out
}

// lookupPath walks record segment by segment. A missing key or a
// non-map value mid-path resolves to nil.
func lookupPath(record map[string]any, path string) any {
	cur := any(record)
	for seg := range strings.SplitSeq(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := m[seg]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}
