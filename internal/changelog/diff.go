package changelog

import (
	"hrcore/internal/snapshot"
)

// Option adjusts diff behavior for one call. No state survives a call.
type Option func(*options)

type options struct {
	ignored   map[string]struct{}
	flagRules []FlagRule
}

// WithIgnoredLabels excludes labels from scalar diffing. Providers use this
// for internal flags and identifiers that should never surface as field
// changes.
func WithIgnoredLabels(labels ...string) Option {
	return func(o *options) {
		if o.ignored == nil {
			o.ignored = make(map[string]struct{}, len(labels))
		}
		for _, l := range labels {
			o.ignored[l] = struct{}{}
		}
	}
}

// FlagRule is an explicit document-replacement rule. When the flag label is
// true in the after snapshot, a single entry naming the replaced artifact is
// synthesized instead of an old/new pair; the flag itself never appears in
// the log. The rule is deliberately explicit rather than inferred from the
// generic scalar path because the flag is not the displayed value.
type FlagRule struct {
	// FlagLabel is the boolean field on the snapshot, e.g. "Void Cheque Replaced".
	FlagLabel string
	// Artifact is the display name of the replaced document, e.g. "Void Cheque".
	Artifact string
	// Slug marks the synthesized entry as document-related.
	Slug string
}

// WithFlagRules installs document-replacement rules. Flag labels are also
// excluded from scalar diffing.
func WithFlagRules(rules ...FlagRule) Option {
	return func(o *options) {
		o.flagRules = append(o.flagRules, rules...)
		if o.ignored == nil {
			o.ignored = make(map[string]struct{}, len(rules))
		}
		for _, r := range rules {
			o.ignored[r.FlagLabel] = struct{}{}
		}
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// DiffSnapshots compares two snapshots of the same record and returns one
// entry per changed field, in the after snapshot's field order. A nil before
// means the record is new: every present after field becomes a Created entry
// carrying the value itself.
//
// Comparison is strict and type-aware: "" and "-" placeholders differ from
// real values, and a numeric value never equals its string form.
func DiffSnapshots(before, after *snapshot.Snapshot, opts ...Option) []ChangeEntry {
	o := buildOptions(opts)
	return diffSnapshots(before, after, o)
}

func diffSnapshots(before, after *snapshot.Snapshot, o options) []ChangeEntry {
	if after == nil {
		return nil
	}

	var entries []ChangeEntry

	if before == nil {
		for _, f := range after.Fields() {
			if _, skip := o.ignored[f.Label]; skip {
				continue
			}
			entries = append(entries, ChangeEntry{
				LabelName:     f.Label,
				Value:         f.Value,
				ActionType:    ActionCreated,
				ReferenceName: after.ReferenceName,
			})
		}
		return entries
	}

	reference := before.ReferenceName

	for _, f := range after.Fields() {
		if _, skip := o.ignored[f.Label]; skip {
			continue
		}
		oldValue, had := before.Get(f.Label)
		if had && valuesEqual(oldValue, f.Value) {
			continue
		}
		if !had {
			oldValue = ""
		}
		entries = append(entries, ChangeEntry{
			LabelName:     f.Label,
			OldValue:      oldValue,
			NewValue:      f.Value,
			ActionType:    ActionUpdated,
			ReferenceName: reference,
		})
	}

	entries = append(entries, applyFlagRules(after, reference, o)...)

	return entries
}

// applyFlagRules synthesizes document-replacement entries for true flags.
func applyFlagRules(after *snapshot.Snapshot, reference string, o options) []ChangeEntry {
	var entries []ChangeEntry
	for _, rule := range o.flagRules {
		v, ok := after.Get(rule.FlagLabel)
		if !ok {
			continue
		}
		if replaced, ok := v.(bool); !ok || !replaced {
			continue
		}
		entries = append(entries, ChangeEntry{
			LabelName:     rule.Artifact,
			Value:         "replaced",
			ActionType:    ActionUpdated,
			ReferenceName: reference,
			Slug:          rule.Slug,
		})
	}
	return entries
}

// DiffCollections reconciles two collections of the same child entity by
// record id, not position. Output order: removed records (before order),
// added records (after order), then per-field changes for surviving records
// (after order). A pair with no field differences emits nothing.
func DiffCollections(before, after snapshot.Collection, opts ...Option) []ChangeEntry {
	o := buildOptions(opts)

	beforeByID := before.ByID()
	afterByID := after.ByID()

	var entries []ChangeEntry

	for _, b := range before {
		if _, survives := afterByID[b.ID]; survives {
			continue
		}
		entries = append(entries, ChangeEntry{
			LabelName:     b.ReferenceLabel,
			Value:         b.ReferenceName,
			ActionType:    ActionDeleted,
			ReferenceName: b.ReferenceName,
		})
	}

	for _, a := range after {
		if _, existed := beforeByID[a.ID]; existed {
			continue
		}
		entries = append(entries, ChangeEntry{
			LabelName:     a.ReferenceLabel,
			Value:         a.ReferenceName,
			ActionType:    ActionCreated,
			ReferenceName: a.ReferenceName,
		})
	}

	for _, a := range after {
		b, existed := beforeByID[a.ID]
		if !existed {
			continue
		}
		entries = append(entries, diffSnapshots(b, a, o)...)
	}

	return entries
}

// valuesEqual is strict scalar equality. Scalars of different dynamic types
// are never equal, so "1" does not match 1 and false does not match "".
func valuesEqual(a, b snapshot.Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a == b
}
