package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// HostMap is an insertion-ordered map of host name to HostRecord.
// Entries are only ever added; iteration follows first-seen order.
type HostMap struct {
	order []string
	hosts map[string]*HostRecord
}

// NewHostMap creates an empty HostMap
func NewHostMap() *HostMap {
	return &HostMap{hosts: make(map[string]*HostRecord)}
}

// Ensure returns the record for name, creating it with zero counters if
// absent. created reports whether a new record was added.
func (m *HostMap) Ensure(name string) (rec *HostRecord, created bool) {
	if m.hosts == nil {
		m.hosts = make(map[string]*HostRecord)
	}
	if existing, ok := m.hosts[name]; ok {
		return existing, false
	}
	rec = newHostRecord(name)
	m.hosts[name] = rec
	m.order = append(m.order, name)
	return rec, true
}

// Get returns the record for name
func (m *HostMap) Get(name string) (*HostRecord, bool) {
	rec, ok := m.hosts[name]
	return rec, ok
}

// Len returns the number of hosts
func (m *HostMap) Len() int {
	return len(m.order)
}

// Names returns host names in first-seen order
func (m *HostMap) Names() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Records returns host records in first-seen order
func (m *HostMap) Records() []*HostRecord {
	out := make([]*HostRecord, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.hosts[name])
	}
	return out
}

// MarshalJSON encodes the map as a JSON object in first-seen order
func (m *HostMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range m.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := Marshal(m.hosts[name])
		if err != nil {
			return nil, fmt.Errorf("marshal host %q: %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping document key order.
// A repeated key keeps its first position and its last value.
func (m *HostMap) UnmarshalJSON(data []byte) error {
	m.order = nil
	m.hosts = make(map[string]*HostRecord)

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("hosts: expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("hosts: expected string key, got %v", tok)
		}
		rec := &HostRecord{}
		if err := dec.Decode(rec); err != nil {
			return fmt.Errorf("hosts: decode %q: %w", name, err)
		}
		if rec.Name == "" {
			rec.Name = name
		}
		if rec.Tasks == nil {
			rec.Tasks = []TaskEntry{}
		}
		if _, seen := m.hosts[name]; !seen {
			m.order = append(m.order, name)
		}
		m.hosts[name] = rec
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
