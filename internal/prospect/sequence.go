package prospect

import (
	"time"

	"github.com/rotisserie/eris"
)

// MaxSequencePosition is the terminal sequence position.
const MaxSequencePosition = 4

// FollowupInterval is the delay scheduled between outreach touches.
const FollowupInterval = 3 * 24 * time.Hour

// ErrSequenceComplete is returned when advancing past the terminal position.
var ErrSequenceComplete = eris.New("prospect: sequence already complete")

// statusByPosition maps a sequence position to its outreach status label.
// Position 1 maps to "sent" rather than "follow_up_1"; the label trails the
// numeric position by one step. Kept for compatibility with existing data.
var statusByPosition = map[int]string{
	0: StatusNew,
	1: StatusSent,
	2: StatusFollowUp1,
	3: StatusFollowUp2,
	4: StatusFollowUp3,
}

// terminalStatuses are outreach states that stop all follow-up scheduling.
var terminalStatuses = map[string]bool{
	StatusResponded:    true,
	StatusConverted:    true,
	StatusDead:         true,
	StatusDisqualified: true,
}

// Advance moves the record one step along the outreach sequence. It schedules
// the next follow-up three days out, except when the new position is terminal,
// in which case the record is marked dead and the schedule is cleared.
func Advance(r *ProspectRecord, now time.Time) error {
	if r.SequencePosition >= MaxSequencePosition {
		return ErrSequenceComplete
	}

	r.SequencePosition++
	r.Status = statusByPosition[r.SequencePosition]

	if r.SequencePosition >= MaxSequencePosition {
		r.Status = StatusDead
		r.NextFollowupDate = nil
	} else {
		next := now.Add(FollowupInterval)
		r.NextFollowupDate = &next
	}

	r.UpdatedAt = now
	return nil
}

// MarkResponded records an inbound response. Reachable from any state and
// terminal afterward.
func MarkResponded(r *ProspectRecord, now time.Time) {
	r.Status = StatusResponded
	r.Responded = true
	r.RespondedAt = &now
	r.NextFollowupDate = nil
	r.UpdatedAt = now
}

// ShouldSendFollowup reports whether the record is due for its next touch.
func ShouldSendFollowup(r *ProspectRecord, now time.Time) bool {
	if r.NextFollowupDate == nil {
		return false
	}
	if r.NextFollowupDate.After(now) {
		return false
	}
	if r.SequencePosition >= MaxSequencePosition {
		return false
	}
	return !terminalStatuses[r.Status]
}
