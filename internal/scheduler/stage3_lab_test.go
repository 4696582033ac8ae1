package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeARoom(id string, tags ...string) LabRoom {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		set[tag] = struct{}{}
	}
	return LabRoom{ID: id, Number: id, EquipmentTags: set}
}

// Sc-A: a single lab with only one compatible room can never seat all three
// batches simultaneously, so the round is flagged unresolved and nothing is
// scheduled.
func TestLabScheduler_Sc_A_SingleRoomUnsatisfiable(t *testing.T) {
	store := NewScheduleStore(TermOdd, "2026")
	section := Section{ID: "3A", Name: "3A", Semester: 3, Term: TermOdd}
	_, err := SectionInit(store, []Section{section})
	require.NoError(t, err)

	snap := Snapshot{
		Labs:     []Lab{{ID: "L1", Semester: 3, Term: TermOdd, RequiredEquipmentTag: "eq"}},
		LabRooms: []LabRoom{threeARoom("R1", "eq")},
	}

	summary, err := LabScheduler(store, snap, NewRand(1), newIDCounter())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Placements)
	assert.Equal(t, 1, summary.Unresolved)
	assert.Empty(t, store.Timetables["3A"].LabSessions)
	require.Len(t, store.Timetables["3A"].FlaggedSessions, 1)
	assert.Equal(t, FlagUnresolvedLabRound, store.Timetables["3A"].FlaggedSessions[0].Kind)
}

// Sc-B: three labs over three rooms rotate batches across three rounds with
// no room double-booked, exercising properties 1 (synchronization) and 2
// (batch rotation).
func TestLabScheduler_Sc_B_ThreeLabRotation(t *testing.T) {
	store := NewScheduleStore(TermOdd, "2026")
	section := Section{ID: "3A", Name: "3A", Semester: 3, Term: TermOdd}
	_, err := SectionInit(store, []Section{section})
	require.NoError(t, err)

	snap := Snapshot{
		Labs: []Lab{
			{ID: "L1", Semester: 3, Term: TermOdd, RequiredEquipmentTag: "e1"},
			{ID: "L2", Semester: 3, Term: TermOdd, RequiredEquipmentTag: "e2"},
			{ID: "L3", Semester: 3, Term: TermOdd, RequiredEquipmentTag: "e3"},
		},
		LabRooms: []LabRoom{
			threeARoom("R1", "e1"),
			threeARoom("R2", "e2"),
			threeARoom("R3", "e3"),
		},
	}

	summary, err := LabScheduler(store, snap, NewRand(1), newIDCounter())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Unresolved)
	require.Equal(t, 3, summary.Placements)

	sessions := store.Timetables["3A"].LabSessions
	require.Len(t, sessions, 3)

	days := make(map[Weekday]struct{})
	roomsByDay := make(map[Weekday]map[string]struct{})
	for _, s := range sessions {
		// Property 1: synchronization - all three batches share one window.
		require.Len(t, s.Batches, 3)
		for _, b := range s.Batches {
			require.NotNil(t, b.LabRoomID)
		}
		days[s.Day] = struct{}{}

		used := make(map[string]struct{}, 3)
		for _, b := range s.Batches {
			_, dup := used[*b.LabRoomID]
			assert.False(t, dup, "a room cannot host two batches of the same round")
			used[*b.LabRoomID] = struct{}{}
		}
		roomsByDay[s.Day] = used

		// Property 2: batch rotation - lab index for batch b at this round is
		// (round + b - 1) mod numLabs.
		for _, b := range s.Batches {
			wantIndex := (s.Round + b.BatchNumber - 1) % 3
			wantLab := snap.Labs[wantIndex].ID
			assert.Equal(t, wantLab, b.LabID)
		}
	}

	// Property 6 (daily lab limits): with 3 labs total, no day holds more
	// than 2 of this section's rounds.
	perDay := make(map[Weekday]int)
	for _, s := range sessions {
		perDay[s.Day]++
	}
	for day, count := range perDay {
		assert.LessOrEqual(t, count, 2, "day %v exceeds the 2-lab daily cap", day)
	}
}
