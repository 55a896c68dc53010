package attendance

import (
	"sort"
	"time"
)

// Classified a punch together with its classification
type Classified struct {
	Punch
	Classification
}

// Provisional a paired but not yet computed daily record
type Provisional struct {
	EmployeeID      string
	WorkingDay      time.Time
	Shift           ShiftType
	CheckIn         *time.Time
	CheckOut        *time.Time
	CheckInPunchID  string
	CheckOutPunchID string
	MissingCheckIn  bool
	MissingCheckOut bool
	Corrected       bool
	Manual          bool
	RecordCount     int
}

// correctionWindow how close to the shift start a lone check-out must be to
// be treated as a mis-stamped end of shift
const correctionWindow = 60 * time.Minute

type partitionKey struct {
	employeeID string
	day        string
	shift      ShiftType
}

// Pair groups classified punches by (employee, working day, shift) and picks
// the earliest check-in and latest check-out of each group. Repeated punches
// of the same direction are duplicate clock events and collapse. Output is
// ordered by employee, working day, shift.
func Pair(items []Classified, catalog *Catalog, loc *time.Location) []Provisional {
	groups := make(map[partitionKey][]Classified)
	var order []partitionKey
	for _, it := range items {
		k := partitionKey{
			employeeID: it.EmployeeID,
			day:        it.WorkingDay.Format("2006-01-02"),
			shift:      it.Shift,
		}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], it)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].employeeID != order[j].employeeID {
			return order[i].employeeID < order[j].employeeID
		}
		if order[i].day != order[j].day {
			return order[i].day < order[j].day
		}
		return order[i].shift < order[j].shift
	})

	result := make([]Provisional, 0, len(order))
	for _, k := range order {
		result = append(result, pairPartition(groups[k], catalog, loc))
	}
	return result
}

func pairPartition(punches []Classified, catalog *Catalog, loc *time.Location) Provisional {
	sort.SliceStable(punches, func(i, j int) bool { return punches[i].At.Before(punches[j].At) })

	first := punches[0]
	p := Provisional{
		EmployeeID:  first.EmployeeID,
		WorkingDay:  first.WorkingDay,
		Shift:       first.Shift,
		RecordCount: len(punches),
	}

	for i := range punches {
		pu := punches[i]
		if pu.Manual {
			p.Manual = true
		}
		if pu.Corrected {
			p.Corrected = true
		}
		at := pu.At
		switch pu.Direction {
		case CheckIn:
			if p.CheckIn == nil || at.Before(*p.CheckIn) {
				p.CheckIn = &at
				p.CheckInPunchID = pu.ID
			}
		case CheckOut:
			if p.CheckOut == nil || at.After(*p.CheckOut) {
				p.CheckOut = &at
				p.CheckOutPunchID = pu.ID
			}
		}
	}

	if len(punches) == 1 && first.Direction == CheckOut && !first.Corrected {
		correctStartStampedCheckOut(&p, first, catalog, loc)
	}

	p.MissingCheckIn = p.CheckIn == nil
	p.MissingCheckOut = p.CheckOut == nil
	return p
}

// correctStartStampedCheckOut a lone check-out stamped at the shift's start
// hour is a known capture defect: the real check-out is the shift's end.
func correctStartStampedCheckOut(p *Provisional, pu Classified, catalog *Catalog, loc *time.Location) {
	if catalog == nil {
		return
	}
	def, ok := catalog.Get(pu.Shift)
	if !ok {
		return
	}
	if loc == nil {
		loc = pu.At.Location()
	}
	clock := ClockOf(pu.At.In(loc))
	if time.Duration(circularDistance(clock, def.Start))*time.Minute > correctionWindow {
		return
	}
	end := def.EndOn(pu.WorkingDay, loc)
	p.CheckOut = &end
	p.Corrected = true
}
