package scheduler

import "sort"

// ScheduleStore is the single source of truth for every scheduled session
// across all sections, plus the shared resource occupancy index (spec §4.1).
type ScheduleStore struct {
	AcademicYear string
	Term         TermParity
	Timetables   map[string]*Timetable // keyed by section ID
	Occupancy    *ResourceOccupancy
	sectionOrder []string
}

// NewScheduleStore builds an empty store ready for S1.
func NewScheduleStore(term TermParity, academicYear string) *ScheduleStore {
	return &ScheduleStore{
		AcademicYear: academicYear,
		Term:         term,
		Timetables:   make(map[string]*Timetable),
		Occupancy:    NewResourceOccupancy(),
	}
}

// SectionIDs returns section IDs in the order timetables were created.
func (s *ScheduleStore) SectionIDs() []string {
	out := make([]string, len(s.sectionOrder))
	copy(out, s.sectionOrder)
	return out
}

func (s *ScheduleStore) addTimetable(sec Section) *Timetable {
	tt := newTimetable(sec, s.AcademicYear)
	s.Timetables[sec.ID] = tt
	s.sectionOrder = append(s.sectionOrder, sec.ID)
	return tt
}

// AllTheorySessions returns every theory session across all sections, stable-sorted
// by (section, day, start) for deterministic iteration.
func (s *ScheduleStore) AllTheorySessions() []TheorySession {
	var out []TheorySession
	for _, id := range s.sortedSectionIDs() {
		out = append(out, s.Timetables[id].TheorySessions...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SectionID != out[j].SectionID {
			return out[i].SectionID < out[j].SectionID
		}
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].Start < out[j].Start
	})
	return out
}

// AllLabSessions returns every lab session across all sections, stable-sorted.
func (s *ScheduleStore) AllLabSessions() []LabSession {
	var out []LabSession
	for _, id := range s.sortedSectionIDs() {
		out = append(out, s.Timetables[id].LabSessions...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SectionID != out[j].SectionID {
			return out[i].SectionID < out[j].SectionID
		}
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].Start < out[j].Start
	})
	return out
}

func (s *ScheduleStore) sortedSectionIDs() []string {
	ids := make([]string, len(s.sectionOrder))
	copy(ids, s.sectionOrder)
	sort.Strings(ids)
	return ids
}

// Clone deep-copies the store (timetables + occupancy) for the MetaRefiner,
// which mutates a private copy per population member / food source.
func (s *ScheduleStore) Clone() *ScheduleStore {
	clone := &ScheduleStore{
		AcademicYear: s.AcademicYear,
		Term:         s.Term,
		Timetables:   make(map[string]*Timetable, len(s.Timetables)),
		Occupancy:    s.Occupancy.Clone(),
		sectionOrder: append([]string(nil), s.sectionOrder...),
	}
	for id, tt := range s.Timetables {
		cp := *tt
		cp.TheorySessions = append([]TheorySession(nil), tt.TheorySessions...)
		cp.LabSessions = append([]LabSession(nil), tt.LabSessions...)
		cp.Breaks = append([]Break(nil), tt.Breaks...)
		cp.FlaggedSessions = append([]Flag(nil), tt.FlaggedSessions...)
		clone.Timetables[id] = &cp
	}
	return clone
}
