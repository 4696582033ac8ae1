package scheduler

import "sort"

// LabTeacherAssigner (S6) pairs up to two capable teachers with every batch
// of every lab session, preferring teachers with fewer lab batches assigned
// so far in this stage and, among otherwise equal candidates, a partner they have not
// already been paired with this run (spec §4.7).
func LabTeacherAssigner(store *ScheduleStore, snap Snapshot) (StageSummary, error) {
	summary := StageSummary{Stage: StageLabTeacherAssigner}

	teachers := make([]Teacher, len(snap.Teachers))
	copy(teachers, snap.Teachers)
	sort.Slice(teachers, func(i, j int) bool { return teachers[i].ID < teachers[j].ID })

	load := make(map[string]int, len(teachers))
	pairedWith := make(map[string]map[string]struct{}, len(teachers))

	for _, sectionID := range store.sortedSectionIDs() {
		tt := store.Timetables[sectionID]
		sessions := make([]*LabSession, len(tt.LabSessions))
		for i := range tt.LabSessions {
			sessions[i] = &tt.LabSessions[i]
		}
		sort.Slice(sessions, func(i, j int) bool {
			if sessions[i].Day != sessions[j].Day {
				return sessions[i].Day < sessions[j].Day
			}
			return sessions[i].Start < sessions[j].Start
		})

		for _, session := range sessions {
			for b := range session.Batches {
				batch := &session.Batches[b]
				t1, t2 := pickBatchTeachers(store, teachers, load, pairedWith, batch.LabID, session.Day, session.Start, session.DurationHours)

				if t1 == nil {
					tt.FlaggedSessions = append(tt.FlaggedSessions, Flag{
						Kind:      FlagCapabilityShortage,
						SectionID: sectionID,
						LabID:     batch.LabID,
						Round:     session.Round,
						Message:   "no qualified teacher was free for this batch's window",
					})
					summary.Unresolved++
					continue
				}
				batch.Teacher1ID = t1
				if t2 != nil {
					batch.Teacher2ID = t2
				}
				summary.Placements++
			}
		}
	}

	for _, id := range store.SectionIDs() {
		store.Timetables[id].recordStage(summary)
	}
	return summary, nil
}

func pickBatchTeachers(
	store *ScheduleStore,
	teachers []Teacher,
	load map[string]int,
	pairedWith map[string]map[string]struct{},
	labID string,
	day Weekday,
	start int,
	durationHours float64,
) (*string, *string) {
	var candidates []Teacher
	for _, t := range teachers {
		if !t.CanTeachLab(labID) {
			continue
		}
		if !store.Occupancy.IsFree(ResourceTeacher, t.ID, day, start, durationHours) {
			continue
		}
		candidates = append(candidates, t)
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if load[candidates[i].ID] != load[candidates[j].ID] {
			return load[candidates[i].ID] < load[candidates[j].ID]
		}
		return candidates[i].ID < candidates[j].ID
	})

	first := candidates[0].ID
	reserveTeacher(store, load, first, day, start, durationHours)
	t1 := first

	var t2 *string
	remaining := candidates[1:]
	if len(remaining) > 0 {
		sort.SliceStable(remaining, func(i, j int) bool {
			_, iPaired := pairedWith[first][remaining[i].ID]
			_, jPaired := pairedWith[first][remaining[j].ID]
			if iPaired != jPaired {
				return !iPaired
			}
			if load[remaining[i].ID] != load[remaining[j].ID] {
				return load[remaining[i].ID] < load[remaining[j].ID]
			}
			return remaining[i].ID < remaining[j].ID
		})
		second := remaining[0].ID
		reserveTeacher(store, load, second, day, start, durationHours)
		t2 = &second
		recordPair(pairedWith, first, second)
	}
	return &t1, t2
}

func reserveTeacher(store *ScheduleStore, load map[string]int, teacherID string, day Weekday, start int, durationHours float64) {
	_ = store.Occupancy.Reserve(ResourceTeacher, teacherID, day, start, durationHours, "lab:"+teacherID)
	load[teacherID]++
}

func recordPair(pairedWith map[string]map[string]struct{}, a, b string) {
	if pairedWith[a] == nil {
		pairedWith[a] = make(map[string]struct{})
	}
	if pairedWith[b] == nil {
		pairedWith[b] = make(map[string]struct{})
	}
	pairedWith[a][b] = struct{}{}
	pairedWith[b][a] = struct{}{}
}
