package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionInit_EmptyTermFails(t *testing.T) {
	store := NewScheduleStore(TermOdd, "2026")
	_, err := SectionInit(store, nil)
	require.Error(t, err)
}

func TestSectionInit_AddsOneTimetablePerSection(t *testing.T) {
	store := NewScheduleStore(TermOdd, "2026")
	sections := []Section{
		{ID: "3A", Name: "3A", Semester: 3, Term: TermOdd},
		{ID: "3B", Name: "3B", Semester: 3, Term: TermOdd},
	}

	summary, err := SectionInit(store, sections)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Placements)
	assert.Len(t, store.SectionIDs(), 2)
	assert.Equal(t, "3A", store.Timetables["3A"].SectionName)
}
