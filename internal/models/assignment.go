package models

// ClassScope narrows a subject grant to one class or leaves it open for
// the whole school. Consumers match on the variant instead of checking a
// nullable class id.
type ClassScope struct {
	ClassID  string `json:"class_id,omitempty"`
	AnyClass bool   `json:"any_class,omitempty"`
}

// ScopeClass returns a scope pinned to a single class.
func ScopeClass(classID string) ClassScope {
	return ClassScope{ClassID: classID}
}

// ScopeAnyClass returns the wildcard scope.
func ScopeAnyClass() ClassScope {
	return ClassScope{AnyClass: true}
}

// Wildcard reports whether the scope covers every class in the school.
func (s ClassScope) Wildcard() bool {
	return s.AnyClass
}

// Matches reports whether the scope authorizes the given class.
func (s ClassScope) Matches(classID string) bool {
	return s.AnyClass || s.ClassID == classID
}

// Key returns a stable dedup key for the scope.
func (s ClassScope) Key() string {
	if s.AnyClass {
		return "*"
	}
	return s.ClassID
}

// SubjectGrant is one merged subject authorization held by a teacher.
// Both grant sources (junction rows and legacy subject ownership) are
// normalised into this shape before any consumer sees them.
type SubjectGrant struct {
	SubjectID   string     `json:"subject_id"`
	SubjectName string     `json:"subject_name"`
	Scope       ClassScope `json:"scope"`
}

// AssignmentContext is the resolved view of everything a teacher may act
// on within one school. It is a pure read snapshot; resolving never
// mutates state.
type AssignmentContext struct {
	TeacherID        string                    `json:"teacher_id"`
	SchoolID         string                    `json:"school_id"`
	Grants           []SubjectGrant            `json:"grants"`
	GrantsByClass    map[string][]SubjectGrant `json:"grants_by_class"`
	ClassIDs         map[string]bool           `json:"class_ids"`
	HomeroomClassIDs map[string]bool           `json:"homeroom_class_ids"`
	Warnings         []string                  `json:"warnings,omitempty"`
}

// HasClassAccess reports whether the teacher may touch the class at all,
// through a subject grant or homeroom authority.
func (c *AssignmentContext) HasClassAccess(classID string) bool {
	return c.ClassIDs[classID]
}

// IsHomeroom reports whether the teacher is the class's main teacher.
func (c *AssignmentContext) IsHomeroom(classID string) bool {
	return c.HomeroomClassIDs[classID]
}

// HasSubject reports whether the teacher holds any grant for the subject.
func (c *AssignmentContext) HasSubject(subjectID string) bool {
	for _, grant := range c.Grants {
		if grant.SubjectID == subjectID {
			return true
		}
	}
	return false
}

// SubjectScope returns the class scope for one subject: whether a
// wildcard grant exists and, otherwise, the set of explicitly granted
// class ids.
func (c *AssignmentContext) SubjectScope(subjectID string) (wildcard bool, classes map[string]bool) {
	classes = make(map[string]bool)
	for _, grant := range c.Grants {
		if grant.SubjectID != subjectID {
			continue
		}
		if grant.Scope.Wildcard() {
			wildcard = true
			continue
		}
		classes[grant.Scope.ClassID] = true
	}
	return wildcard, classes
}

// AllowsSubjectForClass reports whether any grant authorizes the subject
// for the given class.
func (c *AssignmentContext) AllowsSubjectForClass(subjectID, classID string) bool {
	for _, grant := range c.Grants {
		if grant.SubjectID == subjectID && grant.Scope.Matches(classID) {
			return true
		}
	}
	return false
}
