package fieldmap

import "time"

// Condition is one resolved filter clause. The concrete types below form a
// closed set; the query builder renders them with a type switch. Conditions
// always combine with AND.
type Condition interface {
	isCondition()
}

// Eq matches rows where Column equals Value.
type Eq struct {
	Column string
	Value  any
}

// In matches rows where Column is any of Values.
type In struct {
	Column string
	Values []any
}

// NullOrEmpty matches rows where Column is NULL or the empty string.
type NullOrEmpty struct {
	Column string
}

// NotNullOrEmpty matches rows where Column has a non-empty value.
type NotNullOrEmpty struct {
	Column string
}

// Like matches rows where Column matches Pattern. The pattern arrives with
// LIKE metacharacters already escaped; see EscapeLike.
type Like struct {
	Column  string
	Pattern string
}

// Range bounds Column between After and Before; either side may be nil.
type Range struct {
	Column string
	After  *time.Time
	Before *time.Time
}

// MatchAny matches rows where any of Columns equals Value, compared
// case-insensitively. Used for user-identifier lookups across the contact
// and assignee name/email columns.
type MatchAny struct {
	Columns []string
	Value   string
}

func (Eq) isCondition()             {}
func (In) isCondition()             {}
func (NullOrEmpty) isCondition()    {}
func (NotNullOrEmpty) isCondition() {}
func (Like) isCondition()           {}
func (Range) isCondition()          {}
func (MatchAny) isCondition()       {}

// Assignment is one resolved update: set Column to Value. A nil Value sets
// the column to NULL.
type Assignment struct {
	Column string
	Value  any
}
