package scheduler

import "sort"

const labDurationHours = 2.0

// LabScheduler (S3) places synchronized multi-batch lab sessions with batch
// rotation and dynamic lab-room selection. It is the hardest subsystem in
// the pipeline (spec §4.4): unresolved rounds are recorded as flags, never
// raised, so a single starved section never blocks the rest of the run.
func LabScheduler(store *ScheduleStore, snap Snapshot, rng *Rand, ids *idCounter) (StageSummary, error) {
	summary := StageSummary{Stage: StageLabScheduler}

	labRooms := make([]LabRoom, len(snap.LabRooms))
	copy(labRooms, snap.LabRooms)
	sort.Slice(labRooms, func(i, j int) bool { return labRooms[i].ID < labRooms[j].ID })

	for _, sectionID := range interleaveByLetterThenSemester(store) {
		sec := sectionOf(store, sectionID)
		tt := store.Timetables[sectionID]
		labs := snap.LabsForSemester(sec.Semester, sec.Term)
		n := len(labs)
		if n == 0 {
			continue
		}

		windows := allLabWindows()
		rng.ShuffleWindows(windows)

		for round := 0; round < n; round++ {
			if !placeLabRound(store, tt, sec, labs, round, n, windows, labRooms, ids) {
				tt.FlaggedSessions = append(tt.FlaggedSessions, Flag{
					Kind:      FlagUnresolvedLabRound,
					SectionID: sectionID,
					Round:     round,
					Message:   "no window admitted all three batches for this round",
				})
				summary.Unresolved++
				continue
			}
			summary.Placements++
		}
	}

	for _, id := range store.SectionIDs() {
		store.Timetables[id].recordStage(summary)
	}
	return summary, nil
}

func allLabWindows() []Window {
	starts := CanonicalLabStarts()
	windows := make([]Window, 0, len(Weekdays)*len(starts))
	for _, day := range Weekdays {
		for _, start := range starts {
			windows = append(windows, Window{Day: day, Start: start, DurationHours: labDurationHours})
		}
	}
	return windows
}

func placeLabRound(store *ScheduleStore, tt *Timetable, sec Section, labs []Lab, round, numLabs int, windows []Window, labRooms []LabRoom, ids *idCounter) bool {
	for _, w := range windows {
		if !store.Occupancy.IsFree(ResourceSection, sec.ID, w.Day, w.Start, w.DurationHours) {
			continue
		}
		if adjacentToExistingLab(tt, w) {
			continue
		}
		if !dailyLabLimitOK(tt, w.Day, numLabs) {
			continue
		}

		batches, usedRooms, ok := assignBatches(store, labs, round, numLabs, labRooms, w)
		if !ok {
			continue
		}

		session := LabSession{
			ID:            ids.next("ls"),
			SectionID:     sec.ID,
			Day:           w.Day,
			Start:         w.Start,
			End:           w.End(),
			DurationHours: w.DurationHours,
			Round:         round,
			Batches:       batches,
		}
		for roomID := range usedRooms {
			_ = store.Occupancy.Reserve(ResourceLabRoom, roomID, w.Day, w.Start, w.DurationHours, session.ID)
		}
		_ = store.Occupancy.Reserve(ResourceSection, sec.ID, w.Day, w.Start, w.DurationHours, session.ID)
		tt.LabSessions = append(tt.LabSessions, session)
		return true
	}
	return false
}

// assignBatches performs steps 3a-3d of spec §4.4 against a single candidate
// window, without mutating occupancy until every batch has a room.
func assignBatches(store *ScheduleStore, labs []Lab, round, numLabs int, labRooms []LabRoom, w Window) ([3]BatchAssignment, map[string]struct{}, bool) {
	var batches [3]BatchAssignment
	usedRooms := make(map[string]struct{}, 3)

	for b := 1; b <= 3; b++ {
		labIndex := (round + b - 1) % numLabs
		lab := labs[labIndex]

		var chosenRoom *string
		for _, room := range labRooms {
			if !room.SupportsLab(lab) {
				continue
			}
			if _, taken := usedRooms[room.ID]; taken {
				continue
			}
			if !store.Occupancy.IsFree(ResourceLabRoom, room.ID, w.Day, w.Start, w.DurationHours) {
				continue
			}
			id := room.ID
			chosenRoom = &id
			break
		}
		if chosenRoom == nil {
			return batches, nil, false
		}
		usedRooms[*chosenRoom] = struct{}{}
		batches[b-1] = BatchAssignment{BatchNumber: b, LabID: lab.ID, LabRoomID: chosenRoom}
	}
	return batches, usedRooms, true
}

func adjacentToExistingLab(tt *Timetable, w Window) bool {
	for _, existing := range tt.LabSessions {
		if existing.Adjacent(w.Day, w.Start, w.End()) {
			return true
		}
	}
	return false
}

// dailyLabLimitOK enforces spec §3.3 rule 4: sections needing >=3 labs total
// may place at most 2 per day; sections needing exactly 2 must place them on
// distinct days.
func dailyLabLimitOK(tt *Timetable, day Weekday, numLabs int) bool {
	countOnDay := 0
	for _, existing := range tt.LabSessions {
		if existing.Day == day {
			countOnDay++
		}
	}
	switch {
	case numLabs >= 3:
		return countOnDay < 2
	case numLabs == 2:
		return countOnDay == 0
	default:
		return true
	}
}

func sectionOf(store *ScheduleStore, sectionID string) Section {
	tt := store.Timetables[sectionID]
	return Section{ID: tt.SectionID, Name: tt.SectionName, Semester: tt.Semester, Term: tt.Term}
}

// interleaveByLetterThenSemester orders sections "3A,5A,7A,3B,5B,7B,..." so
// that no single section letter starves another of popular lab rooms
// (spec §4.4 processing order).
func interleaveByLetterThenSemester(store *ScheduleStore) []string {
	byLetter := make(map[string][]string)
	var letters []string
	for _, id := range store.sortedSectionIDs() {
		tt := store.Timetables[id]
		letter := sectionLetter(tt.SectionName)
		if _, seen := byLetter[letter]; !seen {
			letters = append(letters, letter)
		}
		byLetter[letter] = append(byLetter[letter], id)
	}
	sort.Strings(letters)
	for _, letter := range letters {
		ids := byLetter[letter]
		sort.Slice(ids, func(i, j int) bool {
			return store.Timetables[ids[i]].Semester < store.Timetables[ids[j]].Semester
		})
	}

	var ordered []string
	for _, letter := range letters {
		ordered = append(ordered, byLetter[letter]...)
	}
	return ordered
}

func sectionLetter(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		c := name[i]
		if c < '0' || c > '9' {
			return name[i:]
		}
	}
	return name
}
