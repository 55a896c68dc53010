package attendance

import (
	"sort"
	"time"
)

// Classification shift and working day a punch belongs to
type Classification struct {
	Shift      ShiftType
	WorkingDay time.Time
}

// DayOf the calendar date of t (in t's location) as UTC midnight
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ClassifyClock maps a check-in clock time to a shift type. A valid hint wins.
// group is the employee's default shift; canteen staff clocking in at 07:xx
// or 08:xx are put on the early or late canteen shift.
func ClassifyClock(c ClockTime, hint, group ShiftType) ShiftType {
	if hint.Valid() {
		return hint
	}
	if group.IsCanteen() {
		switch c.Hour {
		case 7:
			return CanteenEarly
		case 8:
			return CanteenLate
		}
		return group
	}
	switch {
	case c.Hour >= 5 && c.Hour < 13:
		return Morning
	case c.Hour >= 13 && c.Hour < 21:
		return Evening
	default:
		return Night
	}
}

// classifyCheckOut check-outs are matched against shift ends instead of starts
func classifyCheckOut(c ClockTime, group ShiftType) ShiftType {
	if group.IsCanteen() {
		return group
	}
	switch {
	case c.Hour < 12:
		return Night
	case c.Hour < 18:
		return Morning
	default:
		return Evening
	}
}

// Classify assigns a punch to a shift and a working day. Night check-outs
// before noon, and night check-ins after midnight, belong to the working day
// of the previous calendar date.
func Classify(p Punch, group ShiftType) Classification {
	c := ClockOf(p.At)

	var shift ShiftType
	if p.Direction == CheckOut && !p.ShiftHint.Valid() {
		shift = classifyCheckOut(c, group)
	} else {
		shift = ClassifyClock(c, p.ShiftHint, group)
	}

	day := DayOf(p.At)
	if shift == Night {
		if (p.Direction == CheckOut && c.Hour < 12) || (p.Direction == CheckIn && c.Hour < 5) {
			day = day.AddDate(0, 0, -1)
		}
	}
	return Classification{Shift: shift, WorkingDay: day}
}

// InferDirection guesses the direction of an unlabelled punch: nearer to a
// shift start means check-in, nearer to a shift end means check-out. Ties go
// to check-in.
func InferDirection(c ClockTime, group ShiftType, catalog *Catalog) Direction {
	types := []ShiftType{Morning, Evening, Night}
	if group.IsCanteen() {
		types = []ShiftType{CanteenEarly, CanteenLate}
	}

	bestStart, bestEnd := 1440, 1440
	for _, t := range types {
		def, ok := catalog.Get(t)
		if !ok {
			continue
		}
		if d := circularDistance(c, def.Start); d < bestStart {
			bestStart = d
		}
		if d := circularDistance(c, def.End); d < bestEnd {
			bestEnd = d
		}
	}
	if bestStart <= bestEnd {
		return CheckIn
	}
	return CheckOut
}

const (
	// maxShiftSpan longest check-in to check-out span still read as one shift
	maxShiftSpan = 16 * time.Hour
	// earlyArrivalWindow how long before the morning start a check-in still
	// counts as a morning arrival
	earlyArrivalWindow = 60 * time.Minute
	// repeatWindow repeated punches of one direction this close together are
	// the same clock event
	repeatWindow = 60 * time.Minute
)

// ClassifySequence classifies one employee's punches in time order. A
// check-out joins the shift of the check-in that precedes it within
// maxShiftSpan; clock windows decide only for check-outs with no such
// check-in. A check-in before 05:00 joins the previous day's night shift when
// it follows an open night check-in, counts as a morning arrival when it
// falls within an hour of the morning start, and is a late night arrival
// otherwise. Hinted punches keep their hint. Output follows input order.
func ClassifySequence(punches []Punch, group ShiftType, catalog *Catalog) []Classified {
	if catalog == nil {
		catalog = DefaultCatalog
	}
	idx := make([]int, len(punches))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return punches[idx[a]].At.Before(punches[idx[b]].At) })

	out := make([]Classified, len(punches))
	var (
		in      *Classified // latest check-in
		lastOut *Classified // latest check-out attached to in
	)
	for _, i := range idx {
		p := punches[i]
		cl := Classify(p, group)

		switch p.Direction {
		case CheckIn:
			if !p.ShiftHint.Valid() {
				cl = classifyCheckIn(p, group, catalog, in, lastOut)
			}
			out[i] = Classified{Punch: p, Classification: cl}
			if in == nil || !sameSlot(in.Classification, cl) {
				lastOut = nil
			}
			in = &out[i]
		case CheckOut:
			if !p.ShiftHint.Valid() && attaches(p, in, lastOut) {
				cl = in.Classification
			}
			out[i] = Classified{Punch: p, Classification: cl}
			if in != nil && sameSlot(in.Classification, cl) {
				lastOut = &out[i]
			}
		default:
			out[i] = Classified{Punch: p, Classification: cl}
		}
	}
	return out
}

func classifyCheckIn(p Punch, group ShiftType, catalog *Catalog, in, lastOut *Classified) Classification {
	if in != nil && lastOut == nil {
		gap := p.At.Sub(in.At)
		if gap >= 0 && gap <= repeatWindow {
			return in.Classification
		}
		if in.Shift == Night && gap >= 0 && gap <= maxShiftSpan && p.At.Hour() < 5 {
			return in.Classification
		}
	}

	cl := Classify(p, group)
	if cl.Shift != Night || p.At.Hour() >= 5 {
		return cl
	}
	morning, ok := catalog.Get(Morning)
	if !ok {
		return cl
	}
	start := morning.StartOn(DayOf(p.At), p.At.Location())
	if lead := start.Sub(p.At); lead >= 0 && lead <= earlyArrivalWindow {
		return Classification{Shift: Morning, WorkingDay: DayOf(p.At)}
	}
	return cl
}

// attaches whether check-out p closes the shift opened by in
func attaches(p Punch, in, lastOut *Classified) bool {
	if in == nil {
		return false
	}
	if lastOut != nil {
		gap := p.At.Sub(lastOut.At)
		return gap >= 0 && gap <= repeatWindow
	}
	span := p.At.Sub(in.At)
	return span > 0 && span <= maxShiftSpan
}

func sameSlot(a, b Classification) bool {
	return a.Shift == b.Shift && a.WorkingDay.Equal(b.WorkingDay)
}
