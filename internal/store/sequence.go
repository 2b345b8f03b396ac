package store

import "github.com/eventdesk/eventdesk-client/internal/domain"

const (
	keyOrganized = "organized"
	keyInvited   = "invited"
	keySelected  = "selected"
)

func keyStatus(eventID domain.ID) string {
	return "status:" + eventID.String()
}

// ticket tags a call with the sequence number it was issued under.
type ticket struct {
	key   string
	n     uint64
	epoch uint64
}

// sequencer discards results that resolve after a newer result for the same
// key was applied. Reset starts a new epoch; anything issued in an earlier
// epoch is discarded whether or not the guard is enabled.
// All methods require the store mutex.
type sequencer struct {
	enabled bool
	epoch   uint64
	issued  map[string]uint64
	applied map[string]uint64
}

func newSequencer(enabled bool) *sequencer {
	return &sequencer{
		enabled: enabled,
		issued:  make(map[string]uint64),
		applied: make(map[string]uint64),
	}
}

func (q *sequencer) next(key string) ticket {
	if key == "" {
		return ticket{epoch: q.epoch}
	}
	q.issued[key]++
	return ticket{key: key, n: q.issued[key], epoch: q.epoch}
}

// admit reports whether t may be applied and records it as the latest.
func (q *sequencer) admit(t ticket) bool {
	if t.epoch != q.epoch {
		return false
	}
	if !q.enabled || t.key == "" {
		return true
	}
	if t.n <= q.applied[t.key] {
		return false
	}
	q.applied[t.key] = t.n
	return true
}

// bump records a local write to key, superseding calls still in flight.
func (q *sequencer) bump(key string) {
	q.issued[key]++
	q.applied[key] = q.issued[key]
}

func (q *sequencer) reset() {
	q.epoch++
}
