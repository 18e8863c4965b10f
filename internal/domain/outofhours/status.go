package outofhours

import "time"

// CompleteAll stamps every uncompleted date with now. Earlier stamps are
// kept.
func CompleteAll(dates []ReviewDate, now time.Time) []ReviewDate {
	out := make([]ReviewDate, len(dates))
	for i, d := range dates {
		if d.CompletedAt == nil {
			at := now
			d.CompletedAt = &at
		}
		out[i] = d
	}
	return out
}

// CompleteThrough stamps uncompleted dates on or before today
// (YYYY-MM-DD). Later dates stay pending.
func CompleteThrough(dates []ReviewDate, today string, now time.Time) []ReviewDate {
	out := make([]ReviewDate, len(dates))
	for i, d := range dates {
		if d.CompletedAt == nil && d.Date <= today {
			at := now
			d.CompletedAt = &at
		}
		out[i] = d
	}
	return out
}

// Reopen clears the completion stamp of every date, including ones
// completed before the most recent change.
func Reopen(dates []ReviewDate) []ReviewDate {
	out := make([]ReviewDate, len(dates))
	for i, d := range dates {
		d.CompletedAt = nil
		out[i] = d
	}
	return out
}

// DeriveStatus is Complete only when there is at least one date and all of
// them are stamped.
func DeriveStatus(dates []ReviewDate) Status {
	if len(dates) == 0 {
		return StatusPending
	}
	for _, d := range dates {
		if !d.Completed() {
			return StatusPending
		}
	}
	return StatusComplete
}

// PartiallyComplete reports some, but not all, dates stamped.
func PartiallyComplete(dates []ReviewDate) bool {
	done := 0
	for _, d := range dates {
		if d.Completed() {
			done++
		}
	}
	return done > 0 && done < len(dates)
}

// ApplyStatus moves the entry towards target. Completing with todayOnly
// stamps only dates up to today in now's location (the ward's local day,
// matching shift dates and the dashboard), so the entry stays Pending while
// later dates remain. StatusChangedAt is set to now when the
// result is Complete and cleared otherwise.
func (e *Entry) ApplyStatus(target Status, todayOnly bool, now time.Time) {
	switch target {
	case StatusComplete:
		if todayOnly {
			e.ReviewDates = CompleteThrough(e.ReviewDates, now.Format(DateLayout), now)
		} else {
			e.ReviewDates = CompleteAll(e.ReviewDates, now)
		}
		e.ReviewStatus = DeriveStatus(e.ReviewDates)
	default:
		e.ReviewDates = Reopen(e.ReviewDates)
		e.ReviewStatus = StatusPending
	}

	if e.ReviewStatus == StatusComplete {
		at := now
		e.StatusChangedAt = &at
	} else {
		e.StatusChangedAt = nil
	}
}

// ReconcileStatus re-derives the status from the dates after a generic
// update. A supplied status is ignored. StatusChangedAt keeps its value
// while the entry stays Complete, is set to now when it becomes Complete
// and is cleared otherwise.
func (e *Entry) ReconcileStatus(prev Status, now time.Time) {
	e.ReviewStatus = DeriveStatus(e.ReviewDates)
	switch {
	case e.ReviewStatus != StatusComplete:
		e.StatusChangedAt = nil
	case prev != StatusComplete || e.StatusChangedAt == nil:
		at := now
		e.StatusChangedAt = &at
	}
}
