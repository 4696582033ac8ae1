package scheduler

import "sort"

// FixedSlotBlocker (S2) reserves pre-declared fixed weekly slots (OEC/PEC
// cross-department subjects) before any other placement happens, so they
// never conflict with later stages (spec §4.3).
func FixedSlotBlocker(store *ScheduleStore, snap Snapshot, ids *idCounter) (StageSummary, error) {
	summary := StageSummary{Stage: StageFixedSlotBlocker}

	teachers := make([]Teacher, len(snap.Teachers))
	copy(teachers, snap.Teachers)
	sort.Slice(teachers, func(i, j int) bool { return teachers[i].ID < teachers[j].ID })

	for _, subj := range snap.Subjects {
		if subj.Fixed == nil {
			continue
		}
		start, err := ParseClock12(subj.Fixed.StartText)
		if err != nil {
			return summary, invalidInputError(StageFixedSlotBlocker, err.Error())
		}
		end, err := ParseClock12(subj.Fixed.EndText)
		if err != nil {
			return summary, invalidInputError(StageFixedSlotBlocker, err.Error())
		}
		if end <= start {
			return summary, invalidInputError(StageFixedSlotBlocker, "fixed schedule end must be after start")
		}
		duration := float64(end-start) / 60.0
		if !ValidDuration(duration) {
			return summary, invalidInputError(StageFixedSlotBlocker, "fixed schedule duration must be a multiple of 30 minutes")
		}

		for _, sec := range sectionsForSemester(store, subj.Fixed.Semester) {
			tt := store.Timetables[sec]
			var teacherID *string
			for _, t := range teachers {
				if t.CanTeachSubject(subj.ID) {
					id := t.ID
					teacherID = &id
					break
				}
			}

			session := TheorySession{
				ID:            ids.next("ts-fixed"),
				SectionID:     sec,
				SubjectID:     subj.ID,
				TeacherID:     teacherID,
				Day:           subj.Fixed.Day,
				Start:         start,
				End:           end,
				DurationHours: duration,
				IsFixed:       true,
			}

			if teacherID != nil {
				if err := store.Occupancy.Reserve(ResourceTeacher, *teacherID, session.Day, session.Start, session.DurationHours, session.ID); err != nil {
					// Another fixed slot already claims this teacher's time; leave the
					// session teacherless rather than abort the stage.
					session.TeacherID = nil
				}
			}
			if err := store.Occupancy.Reserve(ResourceSection, sec, session.Day, session.Start, session.DurationHours, session.ID); err != nil {
				continue
			}

			tt.TheorySessions = append(tt.TheorySessions, session)
			summary.Placements++
		}
	}

	for _, id := range store.SectionIDs() {
		store.Timetables[id].recordStage(StageSummary{Stage: StageFixedSlotBlocker})
	}
	return summary, nil
}

func sectionsForSemester(store *ScheduleStore, semester int) []string {
	var out []string
	for _, id := range store.sortedSectionIDs() {
		if store.Timetables[id].Semester == semester {
			out = append(out, id)
		}
	}
	return out
}
