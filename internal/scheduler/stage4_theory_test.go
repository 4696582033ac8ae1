package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func theoryTeacher(id string, subjects ...string) Teacher {
	set := make(map[string]struct{}, len(subjects))
	for _, s := range subjects {
		set[s] = struct{}{}
	}
	return Teacher{ID: id, Shortform: id, SubjectsTaught: set, LabsTaught: map[string]struct{}{}}
}

// Sc-C: two sections sharing one teacher for the same subject must never
// double-book that teacher, even though each section is scheduled
// independently against the same global occupancy index.
func TestTheoryScheduler_Sc_C_GlobalTeacherConflictAvoided(t *testing.T) {
	store := NewScheduleStore(TermOdd, "2026")
	sections := []Section{
		{ID: "3A", Name: "3A", Semester: 3, Term: TermOdd},
		{ID: "3B", Name: "3B", Semester: 3, Term: TermOdd},
	}
	_, err := SectionInit(store, sections)
	require.NoError(t, err)

	snap := Snapshot{
		Subjects: []Subject{{ID: "S", HoursPerWeek: 2, MaxHoursPerDay: 1}},
		Teachers: []Teacher{theoryTeacher("T")},
		TheoryAssignments: []TheoryAssignment{
			{SectionID: "3A", SubjectID: "S", TeacherID: "T"},
			{SectionID: "3B", SubjectID: "S", TeacherID: "T"},
		},
	}

	summary, err := TheoryScheduler(store, snap, newIDCounter())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Unresolved)
	require.Equal(t, 4, summary.Placements)

	var all []TheorySession
	all = append(all, store.Timetables["3A"].TheorySessions...)
	all = append(all, store.Timetables["3B"].TheorySessions...)
	require.Len(t, all, 4)

	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			a, b := all[i], all[j]
			assert.False(t, a.Overlaps(b.Day, b.Start, b.End), "teacher T double-booked: %+v vs %+v", a, b)
		}
	}
}

func TestSplitHours(t *testing.T) {
	assert.Equal(t, []float64{1, 1}, splitHours(2, 1))
	assert.Equal(t, []float64{2}, splitHours(2, 3))
	assert.Nil(t, splitHours(0, 1))
}
