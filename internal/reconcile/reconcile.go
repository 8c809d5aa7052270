package reconcile

import "time"

// Timestamped is any record carrying a last-modified timestamp.
type Timestamped interface {
	LastUpdated() time.Time
}

// Decision is the outcome of merging an incoming synced record with
// the currently persisted one.
type Decision[T Timestamped] struct {
	ApplyIncoming bool
	Merged        T
}

// LastWriteWins decides whether an incoming record replaces the
// existing one. A missing existing record always accepts the incoming
// (first write). Otherwise the incoming wins only with a strictly
// newer timestamp; on a tie the existing record is kept and the
// incoming dropped.
//
// When the incoming wins it replaces the existing record wholesale.
// There is no field-level merge: concurrent updates to different
// fields from two sources will lose one source's changes entirely.
// That is a known limitation of this policy, not a bug.
func LastWriteWins[T Timestamped](existing *T, incoming T) Decision[T] {
	if existing == nil {
		return Decision[T]{ApplyIncoming: true, Merged: incoming}
	}
	if incoming.LastUpdated().After((*existing).LastUpdated()) {
		return Decision[T]{ApplyIncoming: true, Merged: incoming}
	}
	return Decision[T]{ApplyIncoming: false, Merged: *existing}
}
