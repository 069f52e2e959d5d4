package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgrid/school-portal-api/internal/models"
	appErrors "github.com/campusgrid/school-portal-api/pkg/errors"
)

type stubGrantReader struct {
	grants []models.TeacherSubjectGrantDetail
	err    error
}

func (s *stubGrantReader) ListByTeacher(ctx context.Context, teacherID, schoolID string) ([]models.TeacherSubjectGrantDetail, error) {
	return s.grants, s.err
}

type stubLegacyReader struct {
	subjects []models.Subject
	err      error
}

func (s *stubLegacyReader) ListLegacyByTeacher(ctx context.Context, teacherID, schoolID string) ([]models.Subject, error) {
	return s.subjects, s.err
}

type stubHomeroomReader struct {
	classes []models.Class
	err     error
}

func (s *stubHomeroomReader) ListHomeroomByTeacher(ctx context.Context, teacherID, schoolID string) ([]models.Class, error) {
	return s.classes, s.err
}

type stubCache struct {
	values map[string]*models.AssignmentContext
	sets   int
}

func (s *stubCache) Get(ctx context.Context, key string, dest interface{}) error {
	cached, ok := s.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*dest.(*models.AssignmentContext) = *cached
	return nil
}

func (s *stubCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.values == nil {
		s.values = make(map[string]*models.AssignmentContext)
	}
	resolved := value.(*models.AssignmentContext)
	copied := *resolved
	s.values[key] = &copied
	s.sets++
	return nil
}

func (s *stubCache) DeleteByPattern(ctx context.Context, pattern string) error {
	s.values = nil
	return nil
}

func strPtr(v string) *string { return &v }

func grantRow(subjectID, subjectName string, classID *string) models.TeacherSubjectGrantDetail {
	return models.TeacherSubjectGrantDetail{
		TeacherSubjectGrant: models.TeacherSubjectGrant{
			ID:        "grant-" + subjectID,
			TeacherID: "teacher-1",
			SubjectID: subjectID,
			ClassID:   classID,
			SchoolID:  "school-1",
		},
		SubjectName: subjectName,
	}
}

func legacySubject(id, name string, classID *string) models.Subject {
	return models.Subject{ID: id, Name: name, LegacyTeacherID: strPtr("teacher-1"), LegacyClassID: classID}
}

func TestAssignmentServiceMergeDeduplicates(t *testing.T) {
	// The same (subject, class) pair granted through both sources must
	// appear exactly once.
	grants := &stubGrantReader{grants: []models.TeacherSubjectGrantDetail{
		grantRow("subject-1", "Algebra", strPtr("class-1")),
	}}
	legacy := &stubLegacyReader{subjects: []models.Subject{
		legacySubject("subject-1", "Algebra", strPtr("class-1")),
		legacySubject("subject-2", "Biology", strPtr("class-2")),
	}}
	svc := NewAssignmentService(grants, legacy, &stubHomeroomReader{}, nil, time.Minute, nil, nil)

	resolved, err := svc.Resolve(context.Background(), "teacher-1", "school-1")
	require.NoError(t, err)
	require.Len(t, resolved.Grants, 2)
	assert.Equal(t, "subject-1", resolved.Grants[0].SubjectID)
	assert.Equal(t, "subject-2", resolved.Grants[1].SubjectID)
	assert.True(t, resolved.HasClassAccess("class-1"))
	assert.True(t, resolved.HasClassAccess("class-2"))
}

func TestAssignmentServiceWildcardAndPinnedCoexist(t *testing.T) {
	// A wildcard and a pinned grant for the same subject are distinct
	// entries; the wildcard must not swallow the pin.
	grants := &stubGrantReader{grants: []models.TeacherSubjectGrantDetail{
		grantRow("subject-1", "Algebra", nil),
		grantRow("subject-1", "Algebra", strPtr("class-1")),
	}}
	svc := NewAssignmentService(grants, &stubLegacyReader{}, &stubHomeroomReader{}, nil, time.Minute, nil, nil)

	resolved, err := svc.Resolve(context.Background(), "teacher-1", "school-1")
	require.NoError(t, err)
	require.Len(t, resolved.Grants, 2)

	wildcard, classes := resolved.SubjectScope("subject-1")
	assert.True(t, wildcard)
	assert.True(t, classes["class-1"])
	assert.True(t, resolved.AllowsSubjectForClass("subject-1", "class-99"))
}

func TestAssignmentServiceHomeroomOnlyTeacher(t *testing.T) {
	homerooms := &stubHomeroomReader{classes: []models.Class{
		{ID: "class-7", SchoolID: "school-1", Name: "7A", MainTeacherID: strPtr("teacher-1")},
	}}
	svc := NewAssignmentService(&stubGrantReader{}, &stubLegacyReader{}, homerooms, nil, time.Minute, nil, nil)

	resolved, err := svc.Resolve(context.Background(), "teacher-1", "school-1")
	require.NoError(t, err)
	assert.Empty(t, resolved.Grants)
	assert.True(t, resolved.HasClassAccess("class-7"))
	assert.True(t, resolved.IsHomeroom("class-7"))
	assert.False(t, resolved.HasSubject("subject-1"))
}

func TestAssignmentServiceLegacyWithoutClassIgnored(t *testing.T) {
	legacy := &stubLegacyReader{subjects: []models.Subject{
		{ID: "subject-1", Name: "Algebra", LegacyTeacherID: strPtr("teacher-1")},
	}}
	svc := NewAssignmentService(&stubGrantReader{}, legacy, &stubHomeroomReader{}, nil, time.Minute, nil, nil)

	resolved, err := svc.Resolve(context.Background(), "teacher-1", "school-1")
	require.NoError(t, err)
	assert.Empty(t, resolved.Grants)
}

func TestAssignmentServiceDegradesFailedSource(t *testing.T) {
	grants := &stubGrantReader{err: errors.New("connection refused")}
	legacy := &stubLegacyReader{subjects: []models.Subject{
		legacySubject("subject-2", "Biology", strPtr("class-2")),
	}}
	cache := &stubCache{}
	svc := NewAssignmentService(grants, legacy, &stubHomeroomReader{}, cache, time.Minute, nil, nil)

	resolved, err := svc.Resolve(context.Background(), "teacher-1", "school-1")
	require.NoError(t, err)
	require.Len(t, resolved.Grants, 1)
	assert.Equal(t, "subject-2", resolved.Grants[0].SubjectID)
	require.Len(t, resolved.Warnings, 1)
	assert.Contains(t, resolved.Warnings[0], "subject grants unavailable")

	// Degraded contexts must not be cached; a narrowed view going stale
	// is acceptable, a cached one is not.
	assert.Zero(t, cache.sets)
}

func TestAssignmentServiceCachesCleanResolution(t *testing.T) {
	grants := &stubGrantReader{grants: []models.TeacherSubjectGrantDetail{
		grantRow("subject-1", "Algebra", strPtr("class-1")),
	}}
	cache := &stubCache{}
	svc := NewAssignmentService(grants, &stubLegacyReader{}, &stubHomeroomReader{}, cache, time.Minute, nil, nil)

	first, err := svc.Resolve(context.Background(), "teacher-1", "school-1")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	// Second resolve is served from the cache even after the source
	// changes underneath it.
	grants.grants = nil
	second, err := svc.Resolve(context.Background(), "teacher-1", "school-1")
	require.NoError(t, err)
	assert.Equal(t, first.Grants, second.Grants)
	assert.Equal(t, 1, cache.sets)
}

func TestAssignmentServiceInvalidateTeacher(t *testing.T) {
	grants := &stubGrantReader{grants: []models.TeacherSubjectGrantDetail{
		grantRow("subject-1", "Algebra", strPtr("class-1")),
	}}
	cache := &stubCache{}
	svc := NewAssignmentService(grants, &stubLegacyReader{}, &stubHomeroomReader{}, cache, time.Minute, nil, nil)

	_, err := svc.Resolve(context.Background(), "teacher-1", "school-1")
	require.NoError(t, err)
	require.NoError(t, svc.InvalidateTeacher(context.Background(), "teacher-1"))

	grants.grants = nil
	resolved, err := svc.Resolve(context.Background(), "teacher-1", "school-1")
	require.NoError(t, err)
	assert.Empty(t, resolved.Grants)
}

func TestAssignmentServiceRequiresIdentifiers(t *testing.T) {
	svc := NewAssignmentService(&stubGrantReader{}, &stubLegacyReader{}, &stubHomeroomReader{}, nil, time.Minute, nil, nil)

	_, err := svc.Resolve(context.Background(), "", "school-1")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))

	_, err = svc.Resolve(context.Background(), "teacher-1", "")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}
