package scheduler

import "sort"

// ClassroomAssigner (S5) binds a physical classroom to every theory session
// in two passes: fixed sessions first (so cross-department slots claim rooms
// before the rest of the week fills in), then the remaining non-project
// sessions, each by first-fit over classrooms sorted by ID (spec §4.6).
func ClassroomAssigner(store *ScheduleStore, snap Snapshot) (StageSummary, error) {
	summary := StageSummary{Stage: StageClassroomAssigner}
	subjects := snap.SubjectByID()

	classrooms := make([]Classroom, len(snap.Classrooms))
	copy(classrooms, snap.Classrooms)
	sort.Slice(classrooms, func(i, j int) bool { return classrooms[i].ID < classrooms[j].ID })

	assignPass := func(wantFixed bool) {
		for _, sectionID := range store.sortedSectionIDs() {
			tt := store.Timetables[sectionID]
			for i := range tt.TheorySessions {
				session := &tt.TheorySessions[i]
				if session.IsFixed != wantFixed {
					continue
				}
				if subj, ok := subjects[session.SubjectID]; ok && subj.Flags.IsProject {
					continue
				}
				if session.ClassroomID != nil {
					continue
				}
				if assignClassroom(store, session, classrooms) {
					summary.Placements++
				} else {
					tt.FlaggedSessions = append(tt.FlaggedSessions, Flag{
						Kind:      FlagUnassignedClassroom,
						SectionID: sectionID,
						SubjectID: session.SubjectID,
						Message:   "no classroom was free for this session's window",
					})
					summary.Unresolved++
				}
			}
		}
	}
	// Phase A (fixed) must finish for every section before Phase B (regular)
	// starts for any section, so a later section's fixed cross-department
	// slot never loses a room to an earlier section's regular session
	// (spec §4.6).
	assignPass(true)
	assignPass(false)

	for _, id := range store.SectionIDs() {
		store.Timetables[id].recordStage(summary)
	}
	return summary, nil
}

func assignClassroom(store *ScheduleStore, session *TheorySession, classrooms []Classroom) bool {
	for _, room := range classrooms {
		if !store.Occupancy.IsFree(ResourceClassroom, room.ID, session.Day, session.Start, session.DurationHours) {
			continue
		}
		if err := store.Occupancy.Reserve(ResourceClassroom, room.ID, session.Day, session.Start, session.DurationHours, session.ID); err != nil {
			continue
		}
		id := room.ID
		session.ClassroomID = &id
		return true
	}
	return false
}
