// Package changelog computes field-level differences between entity snapshots
// and models the resulting change entries. Diffing is a pure function of its
// inputs; persistence belongs to the audit package.
package changelog

// ActionType classifies what happened to a record or field. Values are
// persisted, so they are fixed.
type ActionType int16

const (
	ActionCreated ActionType = 1
	ActionUpdated ActionType = 2
	ActionDeleted ActionType = 3
)

func (a ActionType) String() string {
	switch a {
	case ActionCreated:
		return "created"
	case ActionUpdated:
		return "updated"
	case ActionDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// ChangeEntry is one line of a structured change log: a single field change,
// or a whole-record create/delete.
//
// OldValue/NewValue are set for updates. Value is set for whole-record
// creates and deletes (the record's display value, e.g. "Bank Name": "Chase").
// Slug marks document-related entries so the activity view can render a file
// link instead of a field change.
type ChangeEntry struct {
	LabelName     string     `json:"label_name"`
	OldValue      any        `json:"old_value,omitempty"`
	NewValue      any        `json:"new_value,omitempty"`
	Value         any        `json:"value,omitempty"`
	ActionType    ActionType `json:"action_type"`
	ActionBy      int64      `json:"action_by,omitempty"`
	ReferenceName string     `json:"reference_name,omitempty"`
	Slug          string     `json:"slug,omitempty"`
}
