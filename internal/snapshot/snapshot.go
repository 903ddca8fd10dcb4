// Package snapshot builds flat, human-labeled views of business entities for
// change comparison. Snapshots are ephemeral: providers assemble them on
// demand from read-only queries and they are never persisted.
package snapshot

import "fmt"

// Value is a scalar snapshot value: string, number, boolean, or a
// pre-formatted date string. Providers never put nil here; absent optional
// fields become "-" or "".
type Value = any

// Field is one labeled value. Declaration order in the provider is the order
// fields appear in a change log, so it must be stable.
type Field struct {
	Label string
	Value Value
}

// Snapshot is an ordered mapping of display labels to current values for one
// record. ReferenceLabel/ReferenceName identify the record itself: the label
// names the identifying column ("Bank Name") and the name holds its value
// ("Chase"), used to group several field changes under one logical edit and
// to describe whole-record creates and deletes.
type Snapshot struct {
	// ID is the record's primary key; zero for singleton entities such as
	// the general profile.
	ID int64

	ReferenceLabel string
	ReferenceName  string

	fields []Field
	index  map[string]int
}

// New returns an empty snapshot for the given record.
func New(id int64, referenceLabel, referenceName string) *Snapshot {
	return &Snapshot{
		ID:             id,
		ReferenceLabel: referenceLabel,
		ReferenceName:  referenceName,
		index:          make(map[string]int),
	}
}

// Add appends a labeled value, preserving insertion order. Re-adding a label
// overwrites the value in place without disturbing the order.
func (s *Snapshot) Add(label string, value Value) *Snapshot {
	if i, ok := s.index[label]; ok {
		s.fields[i].Value = value
		return s
	}
	s.index[label] = len(s.fields)
	s.fields = append(s.fields, Field{Label: label, Value: value})
	return s
}

// Get returns the value for a label and whether it is present.
func (s *Snapshot) Get(label string) (Value, bool) {
	if s == nil {
		return nil, false
	}
	i, ok := s.index[label]
	if !ok {
		return nil, false
	}
	return s.fields[i].Value, true
}

// Fields returns the labeled values in declaration order.
func (s *Snapshot) Fields() []Field {
	if s == nil {
		return nil
	}
	return s.fields
}

// Len returns the number of fields.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// Collection is an ordered set of snapshots for a one-to-many child entity
// (bank accounts, dependents), each carrying a stable record id so membership
// changes can be detected.
type Collection []*Snapshot

// ByID indexes the collection by record id.
func (c Collection) ByID() map[int64]*Snapshot {
	m := make(map[int64]*Snapshot, len(c))
	for _, s := range c {
		m[s.ID] = s
	}
	return m
}

// Text normalizes a nullable string column: nil becomes the dash
// placeholder so a change log never shows "null".
func Text(v *string) Value {
	if v == nil || *v == "" {
		return "-"
	}
	return *v
}

// TextOrEmpty normalizes a nullable string column to the empty string.
func TextOrEmpty(v *string) Value {
	if v == nil {
		return ""
	}
	return *v
}

// Number formats a nullable numeric column.
func Number(v *int64) Value {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}
