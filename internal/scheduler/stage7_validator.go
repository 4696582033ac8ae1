package scheduler

import "sort"

// occupant names the (section, session) pair holding a resource slot, used
// only by the validator's independent conflict re-derivation.
type occupant struct {
	sectionID string
	sessionID string
}

// Validator (S7) exhaustively re-derives a conflict report from the final
// placed sessions, independent of the occupancy index that produced them, so
// a refiner bug or a future stage that bypasses ResourceOccupancy is still
// caught (spec §4.8). It never aborts the pipeline: every finding becomes a
// Flag and the timetable's ValidationStatus is downgraded accordingly.
func Validator(store *ScheduleStore, snap Snapshot) (StageSummary, error) {
	summary := StageSummary{Stage: StageValidator}
	subjects := snap.SubjectByID()

	teacherSlots := make(map[string][]occupant)
	classroomSlots := make(map[string][]occupant)
	labRoomSlots := make(map[string][]occupant)

	for _, sectionID := range store.sortedSectionIDs() {
		tt := store.Timetables[sectionID]

		for _, s := range tt.TheorySessions {
			for _, seg := range SegmentKeys(s.Start, s.DurationHours) {
				if s.TeacherID != nil {
					key := *s.TeacherID + "|" + s.Day.String() + "|" + seg
					teacherSlots[key] = append(teacherSlots[key], occupant{sectionID, s.ID})
				}
				if s.ClassroomID != nil {
					key := *s.ClassroomID + "|" + s.Day.String() + "|" + seg
					classroomSlots[key] = append(classroomSlots[key], occupant{sectionID, s.ID})
				}
			}
			if s.TeacherID == nil && !subjectIsProject(subjects, s.SubjectID) {
				tt.FlaggedSessions = append(tt.FlaggedSessions, Flag{
					Kind:      FlagMissingTeacher,
					SectionID: sectionID,
					SubjectID: s.SubjectID,
					Message:   "theory session has no assigned teacher",
				})
				summary.Unresolved++
			}
		}

		for _, s := range tt.LabSessions {
			for _, seg := range SegmentKeys(s.Start, s.DurationHours) {
				for _, b := range s.Batches {
					if b.Teacher1ID != nil {
						key := *b.Teacher1ID + "|" + s.Day.String() + "|" + seg
						teacherSlots[key] = append(teacherSlots[key], occupant{sectionID, s.ID})
					}
					if b.Teacher2ID != nil {
						key := *b.Teacher2ID + "|" + s.Day.String() + "|" + seg
						teacherSlots[key] = append(teacherSlots[key], occupant{sectionID, s.ID})
					}
					if b.LabRoomID != nil {
						key := *b.LabRoomID + "|" + s.Day.String() + "|" + seg
						labRoomSlots[key] = append(labRoomSlots[key], occupant{sectionID, s.ID})
					}
				}
			}
		}

		consecutiveLabConflicts(tt, &summary)
		hourCoverageConflicts(tt, snap, subjects, &summary)
	}

	emitResourceConflicts(store, teacherSlots, FlagTeacherConflict, &summary)
	emitResourceConflicts(store, classroomSlots, FlagClassroomConflict, &summary)
	emitResourceConflicts(store, labRoomSlots, FlagLabRoomConflict, &summary)

	for _, id := range store.SectionIDs() {
		tt := store.Timetables[id]
		tt.recordStage(summary)
		tt.Metadata.ValidationStatus = classifyValidation(tt)
		if tt.Metadata.ValidationStatus == ValidationPassed {
			tt.Metadata.IsComplete = true
		}
	}
	return summary, nil
}

func subjectIsProject(subjects map[string]Subject, subjectID string) bool {
	subj, ok := subjects[subjectID]
	return ok && subj.Flags.IsProject
}

// emitResourceConflicts walks every slot with more than one occupant and,
// for each distinct pair of colliding sessions, appends one Flag to each of
// the two sessions' sections and counts the pair once in summary.Unresolved.
func emitResourceConflicts(store *ScheduleStore, slots map[string][]occupant, kind FlagKind, summary *StageSummary) {
	seen := make(map[string]struct{})

	keys := make([]string, 0, len(slots))
	for k := range slots {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		occupants := slots[key]
		if len(occupants) < 2 {
			continue
		}
		for i := 0; i < len(occupants); i++ {
			for j := i + 1; j < len(occupants); j++ {
				a, b := occupants[i], occupants[j]
				if a.sessionID == b.sessionID {
					continue
				}
				pairKey := string(kind) + "|" + a.sessionID + "|" + b.sessionID
				if a.sessionID > b.sessionID {
					pairKey = string(kind) + "|" + b.sessionID + "|" + a.sessionID
				}
				if _, dup := seen[pairKey]; dup {
					continue
				}
				seen[pairKey] = struct{}{}

				for _, sectionID := range []string{a.sectionID, b.sectionID} {
					tt := store.Timetables[sectionID]
					tt.FlaggedSessions = append(tt.FlaggedSessions, Flag{
						Kind:      kind,
						SectionID: sectionID,
						Message:   "resource double-booked: " + a.sessionID + " vs " + b.sessionID,
					})
				}
				summary.Unresolved++
			}
		}
	}
}

// consecutiveLabConflicts re-checks the no-back-to-back-labs rule (spec §3.3
// rule 5) across the final session list, in case the refiner relocated a
// session after S3 enforced it.
func consecutiveLabConflicts(tt *Timetable, summary *StageSummary) {
	for i := 0; i < len(tt.LabSessions); i++ {
		for j := i + 1; j < len(tt.LabSessions); j++ {
			a, b := tt.LabSessions[i], tt.LabSessions[j]
			if a.Day != b.Day {
				continue
			}
			if a.End == b.Start || b.End == a.Start {
				tt.FlaggedSessions = append(tt.FlaggedSessions, Flag{
					Kind:      FlagConsecutiveLabSessions,
					SectionID: tt.SectionID,
					Round:     a.Round,
					Message:   "back-to-back lab sessions on " + a.Day.String(),
				})
				summary.Unresolved++
			}
		}
	}
}

// hourCoverageConflicts compares each subject assigned to this section
// against its placed weekly minutes, flagging any drift. It walks the
// section's theory assignments rather than the placed sessions themselves,
// so a subject left completely unplaced (zero sessions) is still visited and
// flagged instead of silently passing (spec §8 property 8).
func hourCoverageConflicts(tt *Timetable, snap Snapshot, subjects map[string]Subject, summary *StageSummary) {
	placedMinutes := make(map[string]int)
	for _, s := range tt.TheorySessions {
		placedMinutes[s.SubjectID] += s.End - s.Start
	}

	seen := make(map[string]struct{})
	for _, assignment := range snap.TheoryAssignmentsForSection(tt.SectionID) {
		if _, dup := seen[assignment.SubjectID]; dup {
			continue
		}
		seen[assignment.SubjectID] = struct{}{}

		subj, ok := subjects[assignment.SubjectID]
		if !ok || subj.Flags.SkipsTheoryPlacement() {
			continue
		}
		wantMinutes := int(subj.HoursPerWeek * 60)
		if placedMinutes[assignment.SubjectID] != wantMinutes {
			tt.FlaggedSessions = append(tt.FlaggedSessions, Flag{
				Kind:      FlagHourCoverageMismatch,
				SectionID: tt.SectionID,
				SubjectID: assignment.SubjectID,
				Message:   "placed hours do not match the subject's weekly target",
			})
			summary.Unresolved++
		}
	}
}

func classifyValidation(tt *Timetable) ValidationStatus {
	hasFailure := false
	hasWarning := false
	for _, f := range tt.FlaggedSessions {
		switch f.Kind {
		case FlagTeacherConflict, FlagClassroomConflict, FlagLabRoomConflict, FlagConsecutiveLabSessions:
			hasFailure = true
		default:
			hasWarning = true
		}
	}
	switch {
	case hasFailure:
		return ValidationFailed
	case hasWarning:
		return ValidationWarnings
	default:
		return ValidationPassed
	}
}
