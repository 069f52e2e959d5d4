package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusgrid/school-portal-api/internal/models"
	appErrors "github.com/campusgrid/school-portal-api/pkg/errors"
)

type attendanceStore interface {
	ListByClassDate(ctx context.Context, schoolID, classID string, date time.Time) ([]models.AttendanceRecord, error)
	BulkInsert(ctx context.Context, records []models.AttendanceRecord) ([]models.AttendanceRecord, error)
	Update(ctx context.Context, record *models.AttendanceRecord) error
	FindByStudentClassDate(ctx context.Context, schoolID, studentID, classID string, date time.Time) (*models.AttendanceRecord, error)
}

type classFinder interface {
	FindByID(ctx context.Context, id, schoolID string) (*models.Class, error)
}

// AttendanceEntry is one student's mark within a bulk submission. ClassID
// and Date are optional echoes of the batch scope; when present they must
// match it.
type AttendanceEntry struct {
	StudentID string  `json:"student_id" validate:"required"`
	ClassID   string  `json:"class_id"`
	Date      string  `json:"date"`
	Status    string  `json:"status" validate:"required,attendance_status"`
	Note      *string `json:"note"`
}

// BulkAttendanceRequest sets attendance for one class and date.
type BulkAttendanceRequest struct {
	ClassID string            `json:"class_id" validate:"required"`
	Date    string            `json:"date" validate:"required"`
	Entries []AttendanceEntry `json:"entries" validate:"required,min=1,dive"`
}

// BulkAttendanceResult summarises the reconciliation outcome.
type BulkAttendanceResult struct {
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Recovered int `json:"recovered"`
}

// AttendanceService reconciles a roster's marks for one (class, date)
// against any pre-existing rows, making the operation idempotent for
// both first-time marking and correction. It never deletes: students
// absent from the batch keep whatever state they had.
type AttendanceService struct {
	resolver  assignmentResolver
	records   attendanceStore
	classes   classFinder
	students  studentBatchReader
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewAttendanceService constructs the service.
func NewAttendanceService(resolver assignmentResolver, records attendanceStore, classes classFinder, students studentBatchReader, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AttendanceService{
		resolver:  resolver,
		records:   records,
		classes:   classes,
		students:  students,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
	}
	svc.validator.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(strings.ToUpper(fl.Field().String())).Valid()
	})
	return svc
}

// BulkSubmit sets attendance for the submitted students on one class and
// date. Existing rows are updated in place; new rows are inserted; an
// insert losing the uniqueness race is recovered by retrying as an
// update rather than surfacing the conflict.
func (s *AttendanceService) BulkSubmit(ctx context.Context, claims *models.JWTClaims, req BulkAttendanceRequest) (*BulkAttendanceResult, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance batch")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
	}

	seen := make(map[string]bool, len(req.Entries))
	for i, entry := range req.Entries {
		// A batch naming more than one class or date is a caller error,
		// as is the same student twice.
		if entry.ClassID != "" && entry.ClassID != req.ClassID {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("entry %d: class %s does not match batch class %s", i, entry.ClassID, req.ClassID))
		}
		if entry.Date != "" && entry.Date != req.Date {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("entry %d: date %s does not match batch date %s", i, entry.Date, req.Date))
		}
		if seen[entry.StudentID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("entry %d: duplicate student %s in batch", i, entry.StudentID))
		}
		seen[entry.StudentID] = true
	}

	if err := s.authorizeClass(ctx, claims, req.ClassID); err != nil {
		return nil, err
	}

	studentIDs := make([]string, 0, len(req.Entries))
	for _, entry := range req.Entries {
		studentIDs = append(studentIDs, entry.StudentID)
	}
	students, err := s.students.ListByIDs(ctx, studentIDs, claims.SchoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to load students")
	}
	known := make(map[string]bool, len(students))
	for _, student := range students {
		known[student.ID] = true
	}
	for i, entry := range req.Entries {
		if !known[entry.StudentID] {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("entry %d: student %s not found", i, entry.StudentID))
		}
	}

	existing, err := s.records.ListByClassDate(ctx, claims.SchoolID, req.ClassID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to load existing attendance")
	}
	existingByStudent := make(map[string]models.AttendanceRecord, len(existing))
	for _, record := range existing {
		existingByStudent[record.StudentID] = record
	}

	var inserts []models.AttendanceRecord
	var updates []models.AttendanceRecord
	for _, entry := range req.Entries {
		status := models.AttendanceStatus(strings.ToUpper(entry.Status))
		if current, ok := existingByStudent[entry.StudentID]; ok {
			current.Status = status
			current.Note = entry.Note
			current.TeacherID = claims.UserID
			updates = append(updates, current)
			continue
		}
		inserts = append(inserts, models.AttendanceRecord{
			SchoolID:  claims.SchoolID,
			StudentID: entry.StudentID,
			ClassID:   req.ClassID,
			Date:      date,
			Status:    status,
			Note:      entry.Note,
			TeacherID: claims.UserID,
		})
	}

	result := &BulkAttendanceResult{}

	conflicts, err := s.records.BulkInsert(ctx, inserts)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to insert attendance")
	}
	result.Inserted = len(inserts) - len(conflicts)

	// A concurrent submission for the same class/date can win the insert
	// race. The constraint turned our insert into a no-op; re-read the
	// winning row and apply this batch's mark as an update.
	for _, conflict := range conflicts {
		winner, err := s.records.FindByStudentClassDate(ctx, claims.SchoolID, conflict.StudentID, conflict.ClassID, conflict.Date)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("attendance for student %s changed concurrently, retry", conflict.StudentID))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to recover attendance conflict")
		}
		winner.Status = conflict.Status
		winner.Note = conflict.Note
		winner.TeacherID = conflict.TeacherID
		if err := s.records.Update(ctx, winner); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to update recovered attendance")
		}
		result.Recovered++
		s.logger.Info("attendance insert conflict recovered as update",
			zap.String("student_id", conflict.StudentID),
			zap.String("class_id", conflict.ClassID))
	}

	for i := range updates {
		if err := s.records.Update(ctx, &updates[i]); err != nil {
			// The insert phase already committed; surface the failure
			// instead of hiding the partially-updated day.
			return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, fmt.Sprintf("failed to update attendance for student %s", updates[i].StudentID))
		}
		result.Updated++
	}

	s.metrics.ObserveBatchSize("attendance", len(req.Entries))
	s.logger.Info("attendance batch reconciled",
		zap.String("teacher_id", claims.UserID),
		zap.String("class_id", req.ClassID),
		zap.String("date", req.Date),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("recovered", result.Recovered))

	return result, nil
}

// ListByClassDate returns the day's marks for a class, gated by the same
// class access rule as writing.
func (s *AttendanceService) ListByClassDate(ctx context.Context, claims *models.JWTClaims, classID, rawDate string) ([]models.AttendanceRecord, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	date, err := time.Parse("2006-01-02", rawDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
	}
	if err := s.authorizeClass(ctx, claims, classID); err != nil {
		return nil, err
	}
	records, err := s.records.ListByClassDate(ctx, claims.SchoolID, classID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to list attendance")
	}
	return records, nil
}

// authorizeClass admits admins and HR for any class in their school and
// teachers for classes in their resolved class-access set. Homeroom
// authority alone is enough; no subject grant is required.
func (s *AttendanceService) authorizeClass(ctx context.Context, claims *models.JWTClaims, classID string) error {
	switch claims.Role {
	case models.RoleAdmin, models.RoleHR:
		if _, err := s.classes.FindByID(ctx, classID, claims.SchoolID); err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("class %s not found", classID))
			}
			return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to load class")
		}
		return nil
	case models.RoleTeacher:
		resolved, err := s.resolver.Resolve(ctx, claims.UserID, claims.SchoolID)
		if err != nil {
			return err
		}
		if !resolved.HasClassAccess(classID) {
			return appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("no access to class %s", classID))
		}
		return nil
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "role may not record attendance")
	}
}
