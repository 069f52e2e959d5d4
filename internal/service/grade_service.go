package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusgrid/school-portal-api/internal/models"
	appErrors "github.com/campusgrid/school-portal-api/pkg/errors"
)

type assignmentResolver interface {
	Resolve(ctx context.Context, teacherID, schoolID string) (*models.AssignmentContext, error)
}

type subjectBatchReader interface {
	ListByIDs(ctx context.Context, ids []string, schoolID string) ([]models.Subject, error)
}

type studentBatchReader interface {
	ListByIDs(ctx context.Context, ids []string, schoolID string) ([]models.Student, error)
}

type gradeWriter interface {
	BulkInsert(ctx context.Context, grades []models.Grade) error
	List(ctx context.Context, schoolID string, filter models.GradeFilter) ([]models.Grade, error)
}

// GradeEntry is one candidate grade within a bulk submission.
type GradeEntry struct {
	StudentID string  `json:"student_id" validate:"required"`
	SubjectID string  `json:"subject_id" validate:"required"`
	Score     float64 `json:"score"`
	MaxScore  float64 `json:"max_score" validate:"required,gt=0"`
	Category  string  `json:"category" validate:"required"`
	Note      *string `json:"note"`
	Date      string  `json:"date" validate:"required"`
}

// BulkGradesRequest is the full batch submitted by one recording teacher.
type BulkGradesRequest struct {
	Entries []GradeEntry `json:"entries" validate:"required,min=1,dive"`
}

// BulkGradesResult reports a successful batch.
type BulkGradesResult struct {
	Persisted int            `json:"persisted"`
	Grades    []models.Grade `json:"grades"`
}

// GradeService validates and persists grade batches against the
// teacher's resolved authority. Validation is completed for the whole
// batch before any row is written; a rejected batch persists nothing.
type GradeService struct {
	resolver  assignmentResolver
	subjects  subjectBatchReader
	students  studentBatchReader
	grades    gradeWriter
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewGradeService constructs the service.
func NewGradeService(resolver assignmentResolver, subjects subjectBatchReader, students studentBatchReader, grades gradeWriter, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		resolver:  resolver,
		subjects:  subjects,
		students:  students,
		grades:    grades,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
	}
}

// BulkSubmit persists the whole batch or nothing.
func (s *GradeService) BulkSubmit(ctx context.Context, teacherID, schoolID string, req BulkGradesRequest) (*BulkGradesResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade batch")
	}

	dates := make([]time.Time, len(req.Entries))
	for i, entry := range req.Entries {
		date, err := time.Parse("2006-01-02", entry.Date)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("entry %d: invalid date format, expected YYYY-MM-DD", i))
		}
		dates[i] = date
	}

	resolved, err := s.resolver.Resolve(ctx, teacherID, schoolID)
	if err != nil {
		return nil, err
	}

	subjectIDs := distinctSubjectIDs(req.Entries)
	studentIDs := distinctStudentIDs(req.Entries)

	subjects, err := s.subjects.ListByIDs(ctx, subjectIDs, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to load subjects")
	}
	subjectMap := make(map[string]models.Subject, len(subjects))
	for _, subject := range subjects {
		subjectMap[subject.ID] = subject
	}

	students, err := s.students.ListByIDs(ctx, studentIDs, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to load students")
	}
	studentMap := make(map[string]models.Student, len(students))
	for _, student := range students {
		studentMap[student.ID] = student
	}

	// Every referenced subject must be visible to the school and held by
	// the teacher, either for a specific class or through a wildcard.
	for _, subjectID := range subjectIDs {
		subject, ok := subjectMap[subjectID]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("subject %s not found", subjectID))
		}
		if !resolved.HasSubject(subjectID) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("not authorized to grade subject %s", subject.Name))
		}
	}

	// Students missing from the scoped fetch are rejected as not found;
	// a student from another school must never be silently scoped away.
	for i, entry := range req.Entries {
		student, ok := studentMap[entry.StudentID]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("entry %d: student %s not found", i, entry.StudentID))
		}
		wildcard, classes := resolved.SubjectScope(entry.SubjectID)
		if !wildcard {
			// Pinned grants only cover students sitting in a granted
			// class; the same subject taught in a sibling class does
			// not transfer.
			if student.ClassID == nil || !classes[*student.ClassID] {
				subjectName := subjectMap[entry.SubjectID].Name
				return nil, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("entry %d: student %s is not in an authorized class for subject %s", i, student.FullName, subjectName))
			}
		}
	}

	for i, entry := range req.Entries {
		if entry.Score < 0 || entry.Score > entry.MaxScore {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("entry %d: score %.2f outside allowed range 0..%.2f", i, entry.Score, entry.MaxScore))
		}
	}

	grades := make([]models.Grade, len(req.Entries))
	for i, entry := range req.Entries {
		grades[i] = models.Grade{
			SchoolID:  schoolID,
			StudentID: entry.StudentID,
			SubjectID: entry.SubjectID,
			TeacherID: teacherID,
			Score:     entry.Score,
			MaxScore:  entry.MaxScore,
			Category:  entry.Category,
			Note:      entry.Note,
			Date:      dates[i],
		}
	}

	if err := s.grades.BulkInsert(ctx, grades); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to persist grade batch")
	}

	s.metrics.ObserveBatchSize("grades", len(grades))
	s.logger.Info("grade batch persisted",
		zap.String("teacher_id", teacherID),
		zap.String("school_id", schoolID),
		zap.Int("entries", len(grades)))

	return &BulkGradesResult{Persisted: len(grades), Grades: grades}, nil
}

// List returns grades for verification screens.
func (s *GradeService) List(ctx context.Context, schoolID string, filter models.GradeFilter) ([]models.Grade, error) {
	grades, err := s.grades.List(ctx, schoolID, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to list grades")
	}
	return grades, nil
}

func distinctSubjectIDs(entries []GradeEntry) []string {
	seen := make(map[string]bool, len(entries))
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !seen[entry.SubjectID] {
			seen[entry.SubjectID] = true
			ids = append(ids, entry.SubjectID)
		}
	}
	return ids
}

func distinctStudentIDs(entries []GradeEntry) []string {
	seen := make(map[string]bool, len(entries))
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !seen[entry.StudentID] {
			seen[entry.StudentID] = true
			ids = append(ids, entry.StudentID)
		}
	}
	return ids
}
