package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedScenarioSnapshot() Snapshot {
	return Snapshot{
		Subjects: []Subject{
			{
				ID:           "OEC",
				HoursPerWeek: 1.5,
				Flags:        SubjectFlags{IsOpenElective: true},
				Fixed: &FixedSchedule{
					Semester:  7,
					Day:       Monday,
					StartText: "09:30 AM",
					EndText:   "11:00 AM",
				},
			},
		},
	}
}

// Sc-D: a fixed theory slot survives the full pipeline plus the refiner
// unchanged, because mutate()/crossover() never touch IsFixed sessions.
func TestGenerateAll_Sc_D_FixedSlotImmovable(t *testing.T) {
	snap := fixedScenarioSnapshot()
	opts := PipelineOptions{
		Sections:     []Section{{ID: "7A", Name: "7A", Semester: 7, Term: TermOdd}},
		Term:         TermOdd,
		AcademicYear: "2026",
		Seed:         7,
		Refine: &RefinerConfig{
			PopulationSize: 4,
			TournamentSize: 2,
			ElitismCount:   1,
			MutationRate:   1.0,
			CrossoverRate:  1.0,
			Generations:    5,
			SwarmCycles:    5,
		},
	}

	result, err := GenerateAll(snap, opts)
	require.NoError(t, err)

	tt := result.Store.Timetables["7A"]
	require.Len(t, tt.TheorySessions, 1)
	fixed := tt.TheorySessions[0]
	assert.True(t, fixed.IsFixed)
	assert.Equal(t, Monday, fixed.Day)
	assert.Equal(t, 9*60+30, fixed.Start)
	assert.Equal(t, 11*60, fixed.End)
	assert.Equal(t, "OEC", fixed.SubjectID)
	assert.Equal(t, "7A", fixed.SectionID)
}

// Property 10 (determinism): two runs against an identical snapshot and
// seed produce byte-identical output.
func TestGenerateAll_Determinism(t *testing.T) {
	snap := Snapshot{
		Subjects: []Subject{{ID: "S", HoursPerWeek: 2, MaxHoursPerDay: 1}},
		Labs: []Lab{
			{ID: "L1", Semester: 3, Term: TermOdd, RequiredEquipmentTag: "e1"},
			{ID: "L2", Semester: 3, Term: TermOdd, RequiredEquipmentTag: "e2"},
		},
		LabRooms: []LabRoom{
			threeARoom("R1", "e1"),
			threeARoom("R2", "e2"),
		},
		Teachers: []Teacher{theoryTeacher("T", "S")},
		TheoryAssignments: []TheoryAssignment{
			{SectionID: "3A", SubjectID: "S", TeacherID: "T"},
		},
	}
	opts := PipelineOptions{
		Sections:     []Section{{ID: "3A", Name: "3A", Semester: 3, Term: TermOdd}},
		Term:         TermOdd,
		AcademicYear: "2026",
		Seed:         42,
	}

	r1, err := GenerateAll(snap, opts)
	require.NoError(t, err)
	r2, err := GenerateAll(snap, opts)
	require.NoError(t, err)

	assert.Equal(t, r1.Store.AllTheorySessions(), r2.Store.AllTheorySessions())
	assert.Equal(t, r1.Store.AllLabSessions(), r2.Store.AllLabSessions())
}

func TestGenerateAll_NoSectionsFails(t *testing.T) {
	_, err := GenerateAll(Snapshot{}, PipelineOptions{Term: TermOdd, AcademicYear: "2026", Seed: 1})
	assert.Error(t, err)
}
