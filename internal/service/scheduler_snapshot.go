package service

import (
	"context"
	"fmt"

	"github.com/noah-isme/sma-adp-api/internal/models"
	"github.com/noah-isme/sma-adp-api/internal/scheduler"
)

type snapshotSectionRepo interface {
	ListByTerm(ctx context.Context, term models.TermParity) ([]models.Section, error)
}

type snapshotSubjectRepo interface {
	ListAll(ctx context.Context) ([]models.Subject, error)
}

type snapshotLabRepo interface {
	ListAll(ctx context.Context) ([]models.Lab, error)
}

type snapshotClassroomRepo interface {
	ListAll(ctx context.Context) ([]models.Classroom, error)
}

type snapshotLabRoomRepo interface {
	ListAll(ctx context.Context) ([]models.LabRoom, error)
	ListEquipment(ctx context.Context, labRoomID string) ([]models.LabRoomEquipment, error)
}

type snapshotTeacherRepo interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
	ListSubjectCapabilities(ctx context.Context, teacherID string) ([]models.TeacherSubjectCapability, error)
	ListLabCapabilities(ctx context.Context, teacherID string) ([]models.TeacherLabCapability, error)
}

type snapshotTeacherAssignmentRepo interface {
	ListBySection(ctx context.Context, sectionID string) ([]models.TeacherAssignment, error)
}

type snapshotLabBatchPreferenceRepo interface {
	ListAll(ctx context.Context) ([]models.LabBatchPreference, error)
}

// snapshotLoader assembles a scheduler.Snapshot from the persistence layer,
// translating DB-row models into the scheduler package's pure domain types
// (spec §5 snapshot assembly).
type snapshotLoader struct {
	sections     snapshotSectionRepo
	subjects     snapshotSubjectRepo
	labs         snapshotLabRepo
	classrooms   snapshotClassroomRepo
	labRooms     snapshotLabRoomRepo
	teachers     snapshotTeacherRepo
	assignments  snapshotTeacherAssignmentRepo
	labBatchPref snapshotLabBatchPreferenceRepo
}

func newSnapshotLoader(
	sections snapshotSectionRepo,
	subjects snapshotSubjectRepo,
	labs snapshotLabRepo,
	classrooms snapshotClassroomRepo,
	labRooms snapshotLabRoomRepo,
	teachers snapshotTeacherRepo,
	assignments snapshotTeacherAssignmentRepo,
	labBatchPref snapshotLabBatchPreferenceRepo,
) *snapshotLoader {
	return &snapshotLoader{
		sections:     sections,
		subjects:     subjects,
		labs:         labs,
		classrooms:   classrooms,
		labRooms:     labRooms,
		teachers:     teachers,
		assignments:  assignments,
		labBatchPref: labBatchPref,
	}
}

// Load builds the full Snapshot and the Section list for a single term,
// ready to hand to scheduler.GenerateAll.
func (l *snapshotLoader) Load(ctx context.Context, term models.TermParity) (scheduler.Snapshot, []scheduler.Section, error) {
	dbSections, err := l.sections.ListByTerm(ctx, term)
	if err != nil {
		return scheduler.Snapshot{}, nil, fmt.Errorf("load sections: %w", err)
	}

	dbSubjects, err := l.subjects.ListAll(ctx)
	if err != nil {
		return scheduler.Snapshot{}, nil, fmt.Errorf("load subjects: %w", err)
	}
	dbLabs, err := l.labs.ListAll(ctx)
	if err != nil {
		return scheduler.Snapshot{}, nil, fmt.Errorf("load labs: %w", err)
	}
	dbClassrooms, err := l.classrooms.ListAll(ctx)
	if err != nil {
		return scheduler.Snapshot{}, nil, fmt.Errorf("load classrooms: %w", err)
	}
	dbLabRooms, err := l.labRooms.ListAll(ctx)
	if err != nil {
		return scheduler.Snapshot{}, nil, fmt.Errorf("load lab rooms: %w", err)
	}
	dbTeachers, err := l.teachers.ListActive(ctx)
	if err != nil {
		return scheduler.Snapshot{}, nil, fmt.Errorf("load teachers: %w", err)
	}
	labBatchPrefs, err := l.labBatchPref.ListAll(ctx)
	if err != nil {
		return scheduler.Snapshot{}, nil, fmt.Errorf("load lab batch preferences: %w", err)
	}

	sections := make([]scheduler.Section, 0, len(dbSections))
	for _, s := range dbSections {
		sections = append(sections, scheduler.Section{
			ID:         s.ID,
			Name:       s.Name,
			Letter:     s.Letter,
			Semester:   s.Semester,
			Term:       scheduler.TermParity(s.Term),
			BatchCount: s.BatchCount,
		})
	}

	subjects := make([]scheduler.Subject, 0, len(dbSubjects))
	for _, s := range dbSubjects {
		subjects = append(subjects, scheduler.Subject{
			ID:             s.ID,
			Shortform:      s.Shortform,
			HoursPerWeek:   s.HoursPerWeek,
			MaxHoursPerDay: s.MaxHoursPerDay,
			Flags: scheduler.SubjectFlags{
				RequiresTeacher:        s.RequiresTeacher,
				IsProject:              s.IsProject,
				IsOpenElective:         s.IsOpenElective,
				IsProfessionalElective: s.IsProfessionalElective,
				IsExternalDept:         s.IsExternalDept,
			},
			Fixed: toFixedSchedule(s),
		})
	}

	labs := make([]scheduler.Lab, 0, len(dbLabs))
	for _, l := range dbLabs {
		labs = append(labs, scheduler.Lab{
			ID:                   l.ID,
			Shortform:            l.Shortform,
			Semester:             l.Semester,
			Term:                 scheduler.TermParity(l.Term),
			RequiredEquipmentTag: l.RequiredEquipmentTag,
		})
	}

	classrooms := make([]scheduler.Classroom, 0, len(dbClassrooms))
	for _, c := range dbClassrooms {
		classrooms = append(classrooms, scheduler.Classroom{ID: c.ID, Number: c.Number})
	}

	labRooms := make([]scheduler.LabRoom, 0, len(dbLabRooms))
	for _, r := range dbLabRooms {
		equipment, err := l.labRooms.ListEquipment(ctx, r.ID)
		if err != nil {
			return scheduler.Snapshot{}, nil, fmt.Errorf("load lab room equipment: %w", err)
		}
		tags := make(map[string]struct{}, len(equipment))
		for _, e := range equipment {
			tags[e.EquipmentTag] = struct{}{}
		}
		labRooms = append(labRooms, scheduler.LabRoom{ID: r.ID, Number: r.Number, EquipmentTags: tags})
	}

	teachers := make([]scheduler.Teacher, 0, len(dbTeachers))
	for _, t := range dbTeachers {
		subjectCaps, err := l.teachers.ListSubjectCapabilities(ctx, t.ID)
		if err != nil {
			return scheduler.Snapshot{}, nil, fmt.Errorf("load teacher subject capabilities: %w", err)
		}
		labCaps, err := l.teachers.ListLabCapabilities(ctx, t.ID)
		if err != nil {
			return scheduler.Snapshot{}, nil, fmt.Errorf("load teacher lab capabilities: %w", err)
		}
		subjectsTaught := make(map[string]struct{}, len(subjectCaps))
		for _, c := range subjectCaps {
			subjectsTaught[c.SubjectID] = struct{}{}
		}
		labsTaught := make(map[string]struct{}, len(labCaps))
		for _, c := range labCaps {
			labsTaught[c.LabID] = struct{}{}
		}
		teachers = append(teachers, scheduler.Teacher{
			ID:             t.ID,
			Shortform:      t.Shortform,
			SubjectsTaught: subjectsTaught,
			LabsTaught:     labsTaught,
		})
	}

	var theoryAssignments []scheduler.TheoryAssignment
	for _, sec := range dbSections {
		assignments, err := l.assignments.ListBySection(ctx, sec.ID)
		if err != nil {
			return scheduler.Snapshot{}, nil, fmt.Errorf("load teacher assignments: %w", err)
		}
		for _, a := range assignments {
			theoryAssignments = append(theoryAssignments, scheduler.TheoryAssignment{
				SectionID: a.SectionID,
				SubjectID: a.SubjectID,
				TeacherID: a.TeacherID,
			})
		}
	}

	labAssignments := make([]scheduler.LabAssignment, 0, len(labBatchPrefs))
	for _, p := range labBatchPrefs {
		var pair *[2]string
		if p.Teacher1ID != nil && p.Teacher2ID != nil {
			pair = &[2]string{*p.Teacher1ID, *p.Teacher2ID}
		}
		labAssignments = append(labAssignments, scheduler.LabAssignment{
			SectionID:            p.SectionID,
			BatchNumber:          p.BatchNumber,
			LabID:                p.LabID,
			PreferredTeacherPair: pair,
		})
	}

	snap := scheduler.Snapshot{
		Sections:          sections,
		Subjects:          subjects,
		Labs:              labs,
		Teachers:          teachers,
		Classrooms:        classrooms,
		LabRooms:          labRooms,
		TheoryAssignments: theoryAssignments,
		LabAssignments:    labAssignments,
	}
	return snap, sections, nil
}

func toFixedSchedule(s models.Subject) *scheduler.FixedSchedule {
	if !s.IsFixed() {
		return nil
	}
	semester := 0
	if s.FixedSemester != nil {
		semester = *s.FixedSemester
	}
	return &scheduler.FixedSchedule{
		Semester:  semester,
		Day:       scheduler.Weekday(*s.FixedDay),
		StartText: *s.FixedStartText,
		EndText:   *s.FixedEndText,
	}
}
