package model

import (
	"encoding/json"
	"strconv"
)

// Metadata is the free-form JSON metadata object attached to series and
// tokens. On-chain fields and gateway-resolved fields share one namespace;
// Merge implements the shallow-merge rule (overlay wins on collision).
type Metadata map[string]interface{}

// Reference returns the content-address reference, if any.
func (m Metadata) Reference() string {
	if m == nil {
		return ""
	}
	ref, _ := m["reference"].(string)
	return ref
}

// Copies returns the declared edition count. The chain serializes u64 values
// as JSON strings, but older events carry plain numbers; both are accepted.
func (m Metadata) Copies() (int64, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m["copies"].(type) {
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	case float64:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	case int64:
		return v, true
	}
	return 0, false
}

// SetCopies overwrites the declared edition count in place.
func (m Metadata) SetCopies(copies int64) {
	if m != nil {
		m["copies"] = copies
	}
}

// Merge returns a new Metadata with overlay fields shallow-merged on top of
// the receiver. Neither input is modified.
func (m Metadata) Merge(overlay Metadata) Metadata {
	out := make(Metadata, len(m)+len(overlay))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

// Clone returns a shallow copy.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
