package scheduler

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"
)

// RefinerConfig tunes MetaRefiner's two local-search drivers. Field names are
// descriptive; PopulationSize, TournamentSize, ElitismCount, MutationRate,
// Generations and ScoutLimit correspond to the P, T, E, M, G and L knobs.
// CrossoverRate and SwarmCycles have no letter, and there is no
// stagnation-bound (F) field.
type RefinerConfig struct {
	PopulationSize int
	TournamentSize int
	ElitismCount   int
	MutationRate   float64
	CrossoverRate  float64
	Generations    int
	SwarmCycles    int
	ScoutLimit     int // cycles a food source may stagnate before a scout replaces it
	Workers        int
	Timeout        time.Duration
}

// RefinerResult is the best candidate MetaRefiner found, and bookkeeping
// about how it got there.
type RefinerResult struct {
	Store       *ScheduleStore
	BestFitness float64
	Generations int
	SwarmCycles int
	TimedOut    bool
}

// RunMetaRefiner runs the evolutionary driver followed by the swarm driver,
// both against the shared fitness function, and returns whichever candidate
// scored best. Neither driver ever repositions a fixed theory session
// (spec §4.9 / §9 design notes).
func RunMetaRefiner(base *ScheduleStore, snap Snapshot, seed int64, cfg RefinerConfig) (*RefinerResult, error) {
	normalizeRefinerConfig(&cfg)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	rng := NewRand(seed)
	workers := cfg.Workers
	if max := runtime.NumCPU(); workers > max {
		workers = max
	}
	if workers < 1 {
		workers = 1
	}

	population := seedPopulation(base, snap, rng, cfg.PopulationSize)
	best, bestFitness := population[0], fitness(population[0], snap)

	gensRun := 0
	for gen := 0; gen < cfg.Generations; gen++ {
		if ctx.Err() != nil {
			break
		}
		scores := evaluatePopulation(ctx, population, snap, workers)
		order := rankByFitness(scores)

		if scores[order[0]] > bestFitness {
			bestFitness = scores[order[0]]
			best = population[order[0]]
		}

		population = nextGeneration(population, order, scores, snap, rng, cfg)
		gensRun++
	}

	foodSources := seedFoodSources(best, snap, rng, cfg.PopulationSize)
	trialCounts := make([]int, len(foodSources))
	cyclesRun := 0

	for cycle := 0; cycle < cfg.SwarmCycles; cycle++ {
		if ctx.Err() != nil {
			break
		}
		employedBeesPhase(foodSources, trialCounts, snap, rng)
		onlookerBeesPhase(foodSources, trialCounts, snap, rng)
		scoutBeesPhase(foodSources, trialCounts, best, snap, rng, cfg.ScoutLimit)

		for i, fs := range foodSources {
			if f := fitness(fs, snap); f > bestFitness {
				bestFitness = f
				best = fs
				trialCounts[i] = 0
			}
		}
		cyclesRun++
	}

	return &RefinerResult{
		Store:       best,
		BestFitness: bestFitness,
		Generations: gensRun,
		SwarmCycles: cyclesRun,
		TimedOut:    ctx.Err() != nil,
	}, nil
}

func normalizeRefinerConfig(cfg *RefinerConfig) {
	if cfg.PopulationSize < 2 {
		cfg.PopulationSize = 2
	}
	if cfg.TournamentSize < 2 {
		cfg.TournamentSize = 2
	}
	if cfg.Generations < 0 {
		cfg.Generations = 0
	}
	if cfg.SwarmCycles < 0 {
		cfg.SwarmCycles = 0
	}
	if cfg.ScoutLimit < 1 {
		cfg.ScoutLimit = 3
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
}

// fitness is the single objective both drivers optimize: -(100*teacher
// conflicts + 100*room conflicts). Zero is a conflict-free candidate.
func fitness(store *ScheduleStore, snap Snapshot) float64 {
	teacherConflicts, roomConflicts := countConflicts(store)
	return -(100*float64(teacherConflicts) + 100*float64(roomConflicts))
}

func countConflicts(store *ScheduleStore) (teacherConflicts, roomConflicts int) {
	teacherSlots := make(map[string]int)
	roomSlots := make(map[string]int)

	for _, sectionID := range store.sortedSectionIDs() {
		tt := store.Timetables[sectionID]
		for _, s := range tt.TheorySessions {
			for _, seg := range SegmentKeys(s.Start, s.DurationHours) {
				if s.TeacherID != nil {
					teacherSlots[*s.TeacherID+"|"+s.Day.String()+"|"+seg]++
				}
				if s.ClassroomID != nil {
					roomSlots["room|"+*s.ClassroomID+"|"+s.Day.String()+"|"+seg]++
				}
			}
		}
		for _, s := range tt.LabSessions {
			for _, seg := range SegmentKeys(s.Start, s.DurationHours) {
				for _, b := range s.Batches {
					if b.Teacher1ID != nil {
						teacherSlots[*b.Teacher1ID+"|"+s.Day.String()+"|"+seg]++
					}
					if b.Teacher2ID != nil {
						teacherSlots[*b.Teacher2ID+"|"+s.Day.String()+"|"+seg]++
					}
					if b.LabRoomID != nil {
						roomSlots["room|"+*b.LabRoomID+"|"+s.Day.String()+"|"+seg]++
					}
				}
			}
		}
	}

	for _, count := range teacherSlots {
		if count > 1 {
			teacherConflicts += count - 1
		}
	}
	for _, count := range roomSlots {
		if count > 1 {
			roomConflicts += count - 1
		}
	}
	return teacherConflicts, roomConflicts
}

func seedPopulation(base *ScheduleStore, snap Snapshot, rng *Rand, size int) []*ScheduleStore {
	population := make([]*ScheduleStore, size)
	population[0] = base.Clone()
	for i := 1; i < size; i++ {
		candidate := base.Clone()
		mutations := 1 + rng.Intn(3)
		for m := 0; m < mutations; m++ {
			mutate(candidate, rng)
		}
		population[i] = candidate
	}
	return population
}

func seedFoodSources(base *ScheduleStore, snap Snapshot, rng *Rand, size int) []*ScheduleStore {
	return seedPopulation(base, snap, rng, size)
}

// evaluatePopulation scores every candidate, spreading the work over a
// bounded worker pool since fitness evaluation is read-only per candidate.
func evaluatePopulation(ctx context.Context, population []*ScheduleStore, snap Snapshot, workers int) []float64 {
	scores := make([]float64, len(population))
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)

	for i, candidate := range population {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, candidate *ScheduleStore) {
			defer wg.Done()
			defer func() { <-sem }()
			scores[i] = fitness(candidate, snap)
		}(i, candidate)
	}
	wg.Wait()
	return scores
}

func rankByFitness(scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return scores[order[i]] > scores[order[j]] })
	return order
}

func nextGeneration(population []*ScheduleStore, order []int, scores []float64, snap Snapshot, rng *Rand, cfg RefinerConfig) []*ScheduleStore {
	next := make([]*ScheduleStore, 0, len(population))
	for i := 0; i < cfg.ElitismCount && i < len(order); i++ {
		next = append(next, population[order[i]])
	}

	for len(next) < len(population) {
		parentA := tournamentSelect(population, scores, rng, cfg.TournamentSize)
		parentB := tournamentSelect(population, scores, rng, cfg.TournamentSize)
		child := parentA.Clone()
		if rng.Float64() < cfg.CrossoverRate {
			crossover(child, parentB, rng)
		}
		if rng.Float64() < cfg.MutationRate {
			mutate(child, rng)
		}
		next = append(next, child)
	}
	return next
}

func tournamentSelect(population []*ScheduleStore, scores []float64, rng *Rand, size int) *ScheduleStore {
	bestIdx := rng.Intn(len(population))
	for i := 1; i < size; i++ {
		candidate := rng.Intn(len(population))
		if scores[candidate] > scores[bestIdx] {
			bestIdx = candidate
		}
	}
	return population[bestIdx]
}

// mutate tries, in order: (a) resolve a concrete teacher conflict by moving
// one of the two conflicting sessions to a window free for that teacher,
// (b) resolve a classroom conflict the same way, (c) resolve a lab room
// conflict the same way, and only once none of those apply, (d) a random
// time shift of one non-fixed session. Every relocation goes through
// ResourceOccupancy.Move so the index never drifts from what the
// timetables actually hold.
func mutate(store *ScheduleStore, rng *Rand) {
	if relocateConflictingSession(store, rng, ResourceTeacher) {
		return
	}
	if relocateConflictingSession(store, rng, ResourceClassroom) {
		return
	}
	if relocateConflictingSession(store, rng, ResourceLabRoom) {
		return
	}
	randomRelocate(store, rng)
}

// relocationCandidate identifies one session (or lab round) competing for a
// resource, scoped to the refiner's own conflict scan (distinct from the
// validator's identically-shaped occupant record).
type relocationCandidate struct {
	sectionID string
	isLab     bool
	idx       int
}

// relocateConflictingSession scans every session for the given resource kind,
// finds the first (day, 30-minute segment) double-booked by that resource,
// and relocates the later of the two occupants to a free window. Reports
// whether a conflict was found and resolved.
func relocateConflictingSession(store *ScheduleStore, rng *Rand, kind ResourceKind) bool {
	slots := make(map[string][]relocationCandidate)
	record := func(resourceID *string, day Weekday, start int, duration float64, occ relocationCandidate) {
		if resourceID == nil || *resourceID == "" {
			return
		}
		for _, seg := range SegmentKeys(start, duration) {
			key := *resourceID + "|" + day.String() + "|" + seg
			slots[key] = append(slots[key], occ)
		}
	}

	for _, sectionID := range store.sortedSectionIDs() {
		tt := store.Timetables[sectionID]
		for i, s := range tt.TheorySessions {
			if kind == ResourceTeacher {
				record(s.TeacherID, s.Day, s.Start, s.DurationHours, relocationCandidate{sectionID, false, i})
			} else if kind == ResourceClassroom {
				record(s.ClassroomID, s.Day, s.Start, s.DurationHours, relocationCandidate{sectionID, false, i})
			}
		}
		for i, s := range tt.LabSessions {
			for _, b := range s.Batches {
				switch kind {
				case ResourceTeacher:
					record(b.Teacher1ID, s.Day, s.Start, s.DurationHours, relocationCandidate{sectionID, true, i})
					record(b.Teacher2ID, s.Day, s.Start, s.DurationHours, relocationCandidate{sectionID, true, i})
				case ResourceLabRoom:
					record(b.LabRoomID, s.Day, s.Start, s.DurationHours, relocationCandidate{sectionID, true, i})
				}
			}
		}
	}

	keys := make([]string, 0, len(slots))
	for k := range slots {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		occs := slots[k]
		if len(occs) < 2 {
			continue
		}
		target := occs[len(occs)-1]
		tt := store.Timetables[target.sectionID]
		if target.isLab {
			return relocateLabSession(store, tt, target.idx, rng)
		}
		return relocateTheorySession(store, tt, target.idx, rng)
	}
	return false
}

func randomRelocate(store *ScheduleStore, rng *Rand) {
	ids := store.SectionIDs()
	if len(ids) == 0 {
		return
	}
	tt := store.Timetables[ids[rng.Intn(len(ids))]]

	movable := len(tt.TheorySessions) + len(tt.LabSessions)
	if movable == 0 {
		return
	}
	pick := rng.Intn(movable)
	if pick < len(tt.TheorySessions) {
		relocateTheorySession(store, tt, pick, rng)
		return
	}
	relocateLabSession(store, tt, pick-len(tt.TheorySessions), rng)
}

// theoryLegs lists the resources a theory session occupies, for ResourceOccupancy.Move.
func theoryLegs(sectionID string, session *TheorySession) []ReservationMove {
	legs := []ReservationMove{{Kind: ResourceSection, ResourceID: sectionID}}
	if session.TeacherID != nil {
		legs = append(legs, ReservationMove{Kind: ResourceTeacher, ResourceID: *session.TeacherID})
	}
	if session.ClassroomID != nil {
		legs = append(legs, ReservationMove{Kind: ResourceClassroom, ResourceID: *session.ClassroomID})
	}
	return legs
}

// labLegs lists the resources a lab session occupies across its batches,
// deduplicated since parallel batches may share a room or teacher.
func labLegs(sectionID string, session *LabSession) []ReservationMove {
	legs := []ReservationMove{{Kind: ResourceSection, ResourceID: sectionID}}
	seen := map[ResourceKind]map[string]bool{ResourceLabRoom: {}, ResourceTeacher: {}}
	add := func(kind ResourceKind, id *string) {
		if id == nil || *id == "" || seen[kind][*id] {
			return
		}
		seen[kind][*id] = true
		legs = append(legs, ReservationMove{Kind: kind, ResourceID: *id})
	}
	for _, b := range session.Batches {
		add(ResourceLabRoom, b.LabRoomID)
		add(ResourceTeacher, b.Teacher1ID)
		add(ResourceTeacher, b.Teacher2ID)
	}
	return legs
}

// relocateTheorySession retries bounded random candidate windows, moving the
// session's resources atomically via ResourceOccupancy.Move. Reports whether
// a free window was found.
func relocateTheorySession(store *ScheduleStore, tt *Timetable, idx int, rng *Rand) bool {
	if idx < 0 || idx >= len(tt.TheorySessions) {
		return false
	}
	session := &tt.TheorySessions[idx]
	if session.IsFixed {
		return false
	}
	var valid []int
	for _, s := range CanonicalTheoryStarts() {
		if WithinWorkingWindow(s, session.DurationHours) {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 {
		return false
	}
	legs := theoryLegs(tt.SectionID, session)
	oldDay, oldStart := session.Day, session.Start

	const maxAttempts = 12
	for attempt := 0; attempt < maxAttempts; attempt++ {
		day := Weekdays[rng.Intn(len(Weekdays))]
		start := valid[rng.Intn(len(valid))]
		if day == oldDay && start == oldStart {
			continue
		}
		if err := store.Occupancy.Move(legs, session.ID, oldDay, oldStart, day, start, session.DurationHours); err != nil {
			continue
		}
		session.Day = day
		session.Start = start
		session.End = start + int(session.DurationHours*60)
		return true
	}
	return false
}

// relocateLabSession retries bounded random candidate windows for a lab
// round, moving every batch's resources atomically via ResourceOccupancy.Move.
func relocateLabSession(store *ScheduleStore, tt *Timetable, idx int, rng *Rand) bool {
	if idx < 0 || idx >= len(tt.LabSessions) {
		return false
	}
	session := &tt.LabSessions[idx]
	starts := CanonicalLabStarts()
	legs := labLegs(tt.SectionID, session)
	oldDay, oldStart := session.Day, session.Start

	const maxAttempts = 12
	for attempt := 0; attempt < maxAttempts; attempt++ {
		day := Weekdays[rng.Intn(len(Weekdays))]
		start := starts[rng.Intn(len(starts))]
		if day == oldDay && start == oldStart {
			continue
		}
		if err := store.Occupancy.Move(legs, session.ID, oldDay, oldStart, day, start, session.DurationHours); err != nil {
			continue
		}
		session.Day = day
		session.Start = start
		session.End = start + int(session.DurationHours*60)
		return true
	}
	return false
}

// crossover overwrites a random subset of child's sections with donor's
// sessions for the same sections, recombining two candidates' placements.
func crossover(child, donor *ScheduleStore, rng *Rand) {
	ids := child.SectionIDs()
	for _, id := range ids {
		if rng.Float64() >= 0.5 {
			continue
		}
		donorTT, ok := donor.Timetables[id]
		if !ok {
			continue
		}
		childTT := child.Timetables[id]
		childTT.TheorySessions = append([]TheorySession(nil), donorTT.TheorySessions...)
		childTT.LabSessions = append([]LabSession(nil), donorTT.LabSessions...)
	}
}

// employedBeesPhase lets each food source explore one neighbor, keeping the
// neighbor only if it strictly improves fitness (greedy local search).
func employedBeesPhase(foodSources []*ScheduleStore, trialCounts []int, snap Snapshot, rng *Rand) {
	for i, fs := range foodSources {
		neighbor := fs.Clone()
		mutate(neighbor, rng)
		if fitness(neighbor, snap) > fitness(fs, snap) {
			foodSources[i] = neighbor
			trialCounts[i] = 0
		} else {
			trialCounts[i]++
		}
	}
}

// onlookerBeesPhase selects food sources with probability proportional to
// their fitness rank and gives the fitter ones another chance to improve.
func onlookerBeesPhase(foodSources []*ScheduleStore, trialCounts []int, snap Snapshot, rng *Rand) {
	scores := make([]float64, len(foodSources))
	minScore := 0.0
	for i, fs := range foodSources {
		scores[i] = fitness(fs, snap)
		if scores[i] < minScore {
			minScore = scores[i]
		}
	}
	weights := make([]float64, len(scores))
	total := 0.0
	for i, s := range scores {
		weights[i] = s - minScore + 1
		total += weights[i]
	}

	for range foodSources {
		target := rng.Float64() * total
		idx := 0
		cum := 0.0
		for i, w := range weights {
			cum += w
			if target <= cum {
				idx = i
				break
			}
		}
		neighbor := foodSources[idx].Clone()
		mutate(neighbor, rng)
		if fitness(neighbor, snap) > scores[idx] {
			foodSources[idx] = neighbor
			trialCounts[idx] = 0
		} else {
			trialCounts[idx]++
		}
	}
}

// scoutBeesPhase replaces any food source that has stagnated past the scout
// limit with a fresh, heavily mutated copy of the best known candidate.
func scoutBeesPhase(foodSources []*ScheduleStore, trialCounts []int, best *ScheduleStore, snap Snapshot, rng *Rand, limit int) {
	for i, trials := range trialCounts {
		if trials < limit {
			continue
		}
		scout := best.Clone()
		for m := 0; m < 2+rng.Intn(3); m++ {
			mutate(scout, rng)
		}
		foodSources[i] = scout
		trialCounts[i] = 0
	}
}
