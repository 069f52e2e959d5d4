package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassScope(t *testing.T) {
	pinned := ScopeClass("class-1")
	assert.False(t, pinned.Wildcard())
	assert.True(t, pinned.Matches("class-1"))
	assert.False(t, pinned.Matches("class-2"))
	assert.Equal(t, "class-1", pinned.Key())

	wildcard := ScopeAnyClass()
	assert.True(t, wildcard.Wildcard())
	assert.True(t, wildcard.Matches("class-1"))
	assert.True(t, wildcard.Matches("class-2"))
	assert.Equal(t, "*", wildcard.Key())
}

func TestAssignmentContextSubjectScope(t *testing.T) {
	ctx := &AssignmentContext{
		Grants: []SubjectGrant{
			{SubjectID: "math", Scope: ScopeClass("class-1")},
			{SubjectID: "math", Scope: ScopeClass("class-2")},
			{SubjectID: "art", Scope: ScopeAnyClass()},
		},
	}

	wildcard, classes := ctx.SubjectScope("math")
	assert.False(t, wildcard)
	assert.Equal(t, map[string]bool{"class-1": true, "class-2": true}, classes)

	wildcard, classes = ctx.SubjectScope("art")
	assert.True(t, wildcard)
	assert.Empty(t, classes)

	wildcard, classes = ctx.SubjectScope("music")
	assert.False(t, wildcard)
	assert.Empty(t, classes)
}

func TestAssignmentContextAllowsSubjectForClass(t *testing.T) {
	ctx := &AssignmentContext{
		Grants: []SubjectGrant{
			{SubjectID: "math", Scope: ScopeClass("class-1")},
			{SubjectID: "art", Scope: ScopeAnyClass()},
		},
	}

	assert.True(t, ctx.AllowsSubjectForClass("math", "class-1"))
	assert.False(t, ctx.AllowsSubjectForClass("math", "class-2"))
	assert.True(t, ctx.AllowsSubjectForClass("art", "class-2"))
	assert.False(t, ctx.AllowsSubjectForClass("music", "class-1"))
}

func TestAssignmentContextClassAccess(t *testing.T) {
	ctx := &AssignmentContext{
		ClassIDs:         map[string]bool{"class-1": true, "class-9": true},
		HomeroomClassIDs: map[string]bool{"class-9": true},
	}

	assert.True(t, ctx.HasClassAccess("class-1"))
	assert.True(t, ctx.HasClassAccess("class-9"))
	assert.False(t, ctx.HasClassAccess("class-2"))
	assert.True(t, ctx.IsHomeroom("class-9"))
	assert.False(t, ctx.IsHomeroom("class-1"))
}

func TestAttendanceStatusValid(t *testing.T) {
	for _, status := range []AttendanceStatus{AttendanceStatusPresent, AttendanceStatusLate, AttendanceStatusExcused, AttendanceStatusSick, AttendanceStatusAbsent} {
		assert.True(t, status.Valid(), string(status))
	}
	assert.False(t, AttendanceStatus("PARTYING").Valid())
	assert.False(t, AttendanceStatus("").Valid())
}
