package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/campusgrid/school-portal-api/internal/models"
	appErrors "github.com/campusgrid/school-portal-api/pkg/errors"
)

type grantReader interface {
	ListByTeacher(ctx context.Context, teacherID, schoolID string) ([]models.TeacherSubjectGrantDetail, error)
}

type legacySubjectReader interface {
	ListLegacyByTeacher(ctx context.Context, teacherID, schoolID string) ([]models.Subject, error)
}

type homeroomReader interface {
	ListHomeroomByTeacher(ctx context.Context, teacherID, schoolID string) ([]models.Class, error)
}

type contextCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// AssignmentService resolves everything a teacher may act on within one
// school by merging the junction-table grants with the legacy subject
// ownership columns and the homeroom classes. Resolution is a pure read;
// it never mutates store state.
type AssignmentService struct {
	grants   grantReader
	subjects legacySubjectReader
	classes  homeroomReader
	cache    contextCache
	cacheTTL time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewAssignmentService constructs the service. cache may be nil.
func NewAssignmentService(grants grantReader, subjects legacySubjectReader, classes homeroomReader, cache contextCache, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		grants:   grants,
		subjects: subjects,
		classes:  classes,
		cache:    cache,
		cacheTTL: cacheTTL,
		metrics:  metrics,
		logger:   logger,
	}
}

func assignmentCacheKey(schoolID, teacherID string) string {
	return fmt.Sprintf("assignments:%s:%s", schoolID, teacherID)
}

// Resolve computes the teacher's merged authorization view. A failed read
// on any source degrades that source to empty and records a warning; it
// never widens access. Contexts with warnings are not cached.
func (s *AssignmentService) Resolve(ctx context.Context, teacherID, schoolID string) (*models.AssignmentContext, error) {
	if teacherID == "" || schoolID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher and school ids required")
	}

	key := assignmentCacheKey(schoolID, teacherID)
	if s.cache != nil {
		start := time.Now()
		var cached models.AssignmentContext
		err := s.cache.Get(ctx, key, &cached)
		s.metrics.RecordCacheOperation(err == nil, time.Since(start))
		if err == nil {
			return &cached, nil
		}
		if !appErrors.HasCode(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("assignment cache read failed", zap.String("teacher_id", teacherID), zap.Error(err))
		}
	}

	// The three sources are independent reads; issue them concurrently.
	// Correctness only needs all of them done before the merge.
	var (
		wg          sync.WaitGroup
		grants      []models.TeacherSubjectGrantDetail
		grantsErr   error
		legacy      []models.Subject
		legacyErr   error
		homerooms   []models.Class
		homeroomErr error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		grants, grantsErr = s.grants.ListByTeacher(ctx, teacherID, schoolID)
	}()
	go func() {
		defer wg.Done()
		legacy, legacyErr = s.subjects.ListLegacyByTeacher(ctx, teacherID, schoolID)
	}()
	go func() {
		defer wg.Done()
		homerooms, homeroomErr = s.classes.ListHomeroomByTeacher(ctx, teacherID, schoolID)
	}()
	wg.Wait()

	resolved := &models.AssignmentContext{
		TeacherID:        teacherID,
		SchoolID:         schoolID,
		GrantsByClass:    make(map[string][]models.SubjectGrant),
		ClassIDs:         make(map[string]bool),
		HomeroomClassIDs: make(map[string]bool),
	}

	if grantsErr != nil {
		s.logger.Warn("grant source unavailable, resolving without it",
			zap.String("teacher_id", teacherID), zap.Error(grantsErr))
		resolved.Warnings = append(resolved.Warnings, "subject grants unavailable, treated as empty")
	}
	if legacyErr != nil {
		s.logger.Warn("legacy subject source unavailable, resolving without it",
			zap.String("teacher_id", teacherID), zap.Error(legacyErr))
		resolved.Warnings = append(resolved.Warnings, "legacy subject assignments unavailable, treated as empty")
	}
	if homeroomErr != nil {
		s.logger.Warn("homeroom source unavailable, resolving without it",
			zap.String("teacher_id", teacherID), zap.Error(homeroomErr))
		resolved.Warnings = append(resolved.Warnings, "homeroom classes unavailable, treated as empty")
	}

	// Merge both grant sources behind one dedup key so no consumer ever
	// sees the same (subject, class) pair twice.
	seen := make(map[string]bool)
	addGrant := func(grant models.SubjectGrant) {
		dedupKey := grant.SubjectID + "|" + grant.Scope.Key()
		if seen[dedupKey] {
			return
		}
		seen[dedupKey] = true
		resolved.Grants = append(resolved.Grants, grant)
		if !grant.Scope.Wildcard() {
			classID := grant.Scope.ClassID
			resolved.GrantsByClass[classID] = append(resolved.GrantsByClass[classID], grant)
			resolved.ClassIDs[classID] = true
		}
	}

	for _, row := range grants {
		scope := models.ScopeAnyClass()
		if row.ClassID != nil {
			scope = models.ScopeClass(*row.ClassID)
		}
		addGrant(models.SubjectGrant{SubjectID: row.SubjectID, SubjectName: row.SubjectName, Scope: scope})
	}
	for _, subject := range legacy {
		if subject.LegacyClassID == nil {
			continue
		}
		addGrant(models.SubjectGrant{SubjectID: subject.ID, SubjectName: subject.Name, Scope: models.ScopeClass(*subject.LegacyClassID)})
	}

	// Homeroom authority joins the class-access set unconditionally; it
	// does not require any subject grant.
	for _, class := range homerooms {
		resolved.ClassIDs[class.ID] = true
		resolved.HomeroomClassIDs[class.ID] = true
	}

	sortGrants(resolved.Grants)
	for _, grants := range resolved.GrantsByClass {
		sortGrants(grants)
	}

	if s.cache != nil && len(resolved.Warnings) == 0 {
		start := time.Now()
		if err := s.cache.Set(ctx, key, resolved, s.cacheTTL); err != nil {
			s.logger.Warn("assignment cache write failed", zap.String("teacher_id", teacherID), zap.Error(err))
		}
		s.metrics.ObserveCacheWrite(time.Since(start))
	}

	return resolved, nil
}

// InvalidateTeacher drops cached contexts for a teacher across schools.
// Admin tooling calls this after editing grants or homerooms.
func (s *AssignmentService) InvalidateTeacher(ctx context.Context, teacherID string) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("assignments:*:%s", teacherID)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to invalidate assignment cache")
	}
	return nil
}

// Grant ordering is display determinism only; it has no authorization
// meaning. Wildcards sort before pinned classes within a subject.
func sortGrants(grants []models.SubjectGrant) {
	sort.SliceStable(grants, func(i, j int) bool {
		if grants[i].SubjectName != grants[j].SubjectName {
			return grants[i].SubjectName < grants[j].SubjectName
		}
		if grants[i].SubjectID != grants[j].SubjectID {
			return grants[i].SubjectID < grants[j].SubjectID
		}
		return grants[i].Scope.Key() < grants[j].Scope.Key()
	})
}
