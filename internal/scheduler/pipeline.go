package scheduler

import "time"

// PipelineResult is the full output of a generation run: one store holding
// every section's timetable, plus the ordered stage summaries (spec §6.1).
type PipelineResult struct {
	Store     *ScheduleStore
	Summaries []StageSummary
	Refined   *RefinerResult
}

// PipelineOptions configures a single generate_all invocation.
type PipelineOptions struct {
	Sections     []Section
	Term         TermParity
	AcademicYear string
	Seed         int64
	Refine       *RefinerConfig // nil skips MetaRefiner entirely
}

// GenerateAll runs S1 through S7 in order against snap and, if opts.Refine is
// set, hands the result to MetaRefiner for local-search improvement. It is
// the single entry point the service layer calls for a full run; individual
// stages are exported separately for callers that want step-by-step control
// (spec §6.1/§6.2).
func GenerateAll(snap Snapshot, opts PipelineOptions) (*PipelineResult, error) {
	store := NewScheduleStore(opts.Term, opts.AcademicYear)
	rng := NewRand(opts.Seed)
	ids := newIDCounter()
	result := &PipelineResult{Store: store}

	run := func(name StageName, fn func() (StageSummary, error)) error {
		started := time.Now()
		summary, err := fn()
		summary.Duration = time.Since(started)
		result.Summaries = append(result.Summaries, summary)
		return err
	}

	if err := run(StageSectionInit, func() (StageSummary, error) {
		return SectionInit(store, opts.Sections)
	}); err != nil {
		return result, err
	}
	if err := run(StageFixedSlotBlocker, func() (StageSummary, error) {
		return FixedSlotBlocker(store, snap, ids)
	}); err != nil {
		return result, err
	}
	if err := run(StageLabScheduler, func() (StageSummary, error) {
		return LabScheduler(store, snap, rng, ids)
	}); err != nil {
		return result, err
	}
	if err := run(StageTheoryScheduler, func() (StageSummary, error) {
		return TheoryScheduler(store, snap, ids)
	}); err != nil {
		return result, err
	}
	if err := run(StageClassroomAssigner, func() (StageSummary, error) {
		return ClassroomAssigner(store, snap)
	}); err != nil {
		return result, err
	}
	if err := run(StageLabTeacherAssigner, func() (StageSummary, error) {
		return LabTeacherAssigner(store, snap)
	}); err != nil {
		return result, err
	}
	if err := run(StageValidator, func() (StageSummary, error) {
		return Validator(store, snap)
	}); err != nil {
		return result, err
	}

	if opts.Refine != nil {
		refined, err := RunMetaRefiner(store, snap, opts.Seed, *opts.Refine)
		if err != nil {
			return result, err
		}
		result.Refined = refined
		result.Store = refined.Store
		if _, verr := Validator(result.Store, snap); verr != nil {
			return result, verr
		}
	}

	return result, nil
}
