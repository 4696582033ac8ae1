package scheduler

import (
	"sort"
)

// TheoryScheduler (S4) splits each subject's weekly hours into sessions no
// longer than its daily cap and places them with load-balanced first-fit,
// checking the global teacher occupancy so a teacher's hours in one section
// block their availability in every other section (spec §4.5).
func TheoryScheduler(store *ScheduleStore, snap Snapshot, ids *idCounter) (StageSummary, error) {
	summary := StageSummary{Stage: StageTheoryScheduler}
	subjects := snap.SubjectByID()

	for _, sectionID := range store.sortedSectionIDs() {
		tt := store.Timetables[sectionID]
		assignments := snap.TheoryAssignmentsForSection(sectionID)
		sort.Slice(assignments, func(i, j int) bool {
			hi := subjects[assignments[i].SubjectID].HoursPerWeek
			hj := subjects[assignments[j].SubjectID].HoursPerWeek
			if hi != hj {
				return hi > hj
			}
			return assignments[i].SubjectID < assignments[j].SubjectID
		})

		for _, assignment := range assignments {
			subj, ok := subjects[assignment.SubjectID]
			if !ok || subj.Flags.SkipsTheoryPlacement() {
				continue
			}
			for _, duration := range splitHours(subj.HoursPerWeek, subj.MaxHoursPerDay) {
				session, placed := placeTheorySession(store, tt, assignment, duration, ids)
				if !placed {
					tt.FlaggedSessions = append(tt.FlaggedSessions, Flag{
						Kind:      FlagUnplacedTheorySession,
						SectionID: sectionID,
						SubjectID: subj.ID,
						Message:   "no conflict-free window of the required duration was found",
					})
					summary.Unresolved++
					continue
				}
				tt.TheorySessions = append(tt.TheorySessions, session)
				summary.Placements++
			}
		}
	}

	for _, id := range store.SectionIDs() {
		store.Timetables[id].recordStage(summary)
	}
	return summary, nil
}

// splitHours partitions H hours/week into sessions of length <= cap, greedily
// taking min(remaining, cap) each time (spec §3.3 rule 6).
func splitHours(hoursPerWeek, capPerDay float64) []float64 {
	if hoursPerWeek <= 0 {
		return nil
	}
	if capPerDay <= 0 {
		capPerDay = hoursPerWeek
	}
	var sessions []float64
	remaining := hoursPerWeek
	for remaining > 0 {
		take := remaining
		if take > capPerDay {
			take = capPerDay
		}
		sessions = append(sessions, take)
		remaining -= take
	}
	return sessions
}

func placeTheorySession(store *ScheduleStore, tt *Timetable, assignment TheoryAssignment, duration float64, ids *idCounter) (TheorySession, bool) {
	dayLoad := computeDayLoad(tt)
	days := append([]Weekday(nil), Weekdays...)
	sort.SliceStable(days, func(i, j int) bool { return dayLoad[days[i]] < dayLoad[days[j]] })

	for _, day := range days {
		for _, start := range CanonicalTheoryStarts() {
			if !WithinWorkingWindow(start, duration) {
				continue
			}
			if !store.Occupancy.IsFree(ResourceTeacher, assignment.TeacherID, day, start, duration) {
				continue
			}
			if !store.Occupancy.IsFree(ResourceSection, assignment.SectionID, day, start, duration) {
				continue
			}

			session := TheorySession{
				ID:            ids.next("ts"),
				SectionID:     assignment.SectionID,
				SubjectID:     assignment.SubjectID,
				TeacherID:     &assignment.TeacherID,
				Day:           day,
				Start:         start,
				End:           start + int(duration*60),
				DurationHours: duration,
			}
			_ = store.Occupancy.Reserve(ResourceTeacher, assignment.TeacherID, day, start, duration, session.ID)
			_ = store.Occupancy.Reserve(ResourceSection, assignment.SectionID, day, start, duration, session.ID)
			return session, true
		}
	}
	return TheorySession{}, false
}

func computeDayLoad(tt *Timetable) map[Weekday]int {
	load := make(map[Weekday]int, len(Weekdays))
	for _, s := range tt.TheorySessions {
		load[s.Day] += s.End - s.Start
	}
	for _, s := range tt.LabSessions {
		load[s.Day] += s.End - s.Start
	}
	return load
}
