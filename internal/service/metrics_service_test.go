package service

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-adp-api/internal/scheduler"
)

func TestMetricsService_RecordSchedulerRun(t *testing.T) {
	m := NewMetricsService()

	store := scheduler.NewScheduleStore(scheduler.TermOdd, "2026")
	_, err := scheduler.SectionInit(store, []scheduler.Section{{ID: "3A", Name: "3A", Semester: 3, Term: scheduler.TermOdd}})
	assert.NoError(t, err)
	store.Timetables["3A"].FlaggedSessions = append(store.Timetables["3A"].FlaggedSessions, scheduler.Flag{
		Kind:      scheduler.FlagTeacherConflict,
		SectionID: "3A",
	})

	result := &scheduler.PipelineResult{
		Store: store,
		Summaries: []scheduler.StageSummary{
			{Stage: scheduler.StageValidator, Unresolved: 1},
		},
		Refined: &scheduler.RefinerResult{BestFitness: -42.5},
	}

	m.RecordSchedulerRun(result)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.schedulerUnresolved.WithLabelValues(string(scheduler.StageValidator))))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.schedulerConflicts.WithLabelValues(string(scheduler.FlagTeacherConflict))))
	assert.Equal(t, -42.5, testutil.ToFloat64(m.schedulerRefinerFitness))
}

func TestMetricsService_RecordSchedulerRun_NilSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() { m.RecordSchedulerRun(nil) })
}
