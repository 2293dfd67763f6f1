// Package fieldmap translates caller-facing filter and update keys into
// concrete column conditions. Semantic keys (status, priority, assignee...)
// are resolved first; anything else must name an allowlisted physical column
// or resolution fails with an UnknownFieldError.
package fieldmap

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/helpdesk-io/helpdesk-ce/internal/apperrors"
)

// Column names of the tickets table targeted by semantic keys. Physical
// identifiers are lowercase so queries behave the same under PostgreSQL's
// identifier folding; callers may still pass the wire-cased spellings.
const (
	ColTicketID      = "ticket_id"
	ColSubject       = "subject"
	ColBody          = "ticket_body"
	ColStatusID      = "ticket_status_id"
	ColContactName   = "ticket_contact_name"
	ColContactEmail  = "ticket_contact_email"
	ColAssetID       = "asset_id"
	ColSiteID        = "site_id"
	ColCategoryID    = "ticket_category_id"
	ColCreatedDate   = "created_date"
	ColAssignedName  = "assigned_name"
	ColAssignedEmail = "assigned_email"
	ColPriorityID    = "priority_id"
	ColSeverityID    = "severity_id"
	ColVendorID      = "assigned_vendor_id"
	ColClosedDate    = "closed_date"
	ColLastModified  = "lastmodified"
	ColResolution    = "resolution"
)

// StatusGroups maps semantic status labels to ticket_status_id sets.
// "resolved" is an alias of "closed".
var StatusGroups = map[string][]int{
	"open":        {1, 2, 4, 5, 6, 8},
	"closed":      {3},
	"resolved":    {3},
	"in_progress": {2, 5},
	"waiting":     {4},
	"pending":     {6},
}

// PriorityIDs maps semantic priority labels to severity_id values.
var PriorityIDs = map[string]int{
	"critical": 1,
	"high":     2,
	"medium":   3,
	"low":      4,
}

// PriorityLabels is the reverse of PriorityIDs for display purposes.
// Unknown or absent severities display as Medium.
var PriorityLabels = map[int]string{
	1: "Critical",
	2: "High",
	3: "Medium",
	4: "Low",
}

// PriorityLabel returns the display label for a severity_id pointer.
func PriorityLabel(severityID *int) string {
	if severityID == nil {
		return "Medium"
	}
	if label, ok := PriorityLabels[*severityID]; ok {
		return label
	}
	return "Medium"
}

// filterColumns is the raw-passthrough allowlist for filters, keyed by
// lowercase name.
var filterColumns = buildColumnIndex([]string{
	ColTicketID, ColSubject, ColStatusID, ColContactName, ColContactEmail,
	ColAssetID, ColSiteID, ColCategoryID, ColAssignedName, ColAssignedEmail,
	ColPriorityID, ColSeverityID, ColVendorID, ColResolution,
})

// updateColumns is the allowlist for direct column updates. ticket_id,
// created_date, lastmodified and closed_date are server-managed and excluded.
var updateColumns = buildColumnIndex([]string{
	ColSubject, ColBody, ColStatusID, ColContactName, ColContactEmail,
	ColAssetID, ColSiteID, ColCategoryID, ColAssignedName, ColAssignedEmail,
	ColPriorityID, ColSeverityID, ColVendorID, ColResolution,
})

func buildColumnIndex(cols []string) map[string]string {
	idx := make(map[string]string, len(cols))
	for _, c := range cols {
		idx[strings.ToLower(c)] = c
	}
	return idx
}

// Resolver turns filter and update maps into conditions and assignments.
// It is immutable after construction and safe for concurrent use.
type Resolver struct {
	statusGroups map[string][]int
	priorityIDs  map[string]int
}

// NewResolver builds a resolver over the fixed semantic vocabularies.
func NewResolver() *Resolver {
	return &Resolver{
		statusGroups: StatusGroups,
		priorityIDs:  PriorityIDs,
	}
}

// ResolveFilters resolves a filter map into conditions. Keys are processed
// in sorted order so the emitted conditions (and any SQL built from them)
// are deterministic regardless of map iteration. Resolution is
// all-or-nothing: the first bad key aborts.
func (r *Resolver) ResolveFilters(filters map[string]any) ([]Condition, error) {
	if len(filters) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]Condition, 0, len(keys))
	for _, key := range keys {
		got, err := r.resolveFilter(key, filters[key])
		if err != nil {
			return nil, err
		}
		conds = append(conds, got...)
	}
	return conds, nil
}

func (r *Resolver) resolveFilter(key string, value any) ([]Condition, error) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "status", "ticket_status":
		return r.statusCondition(value)
	case "priority", "priority_level":
		return r.priorityCondition(value)
	case "assignee_email", "assignee":
		s, ok := asString(value)
		s = strings.TrimSpace(s)
		if !ok || s == "" {
			return nil, apperrors.NewValidationError("assignee_email requires a non-empty email", nil)
		}
		return []Condition{Eq{Column: ColAssignedEmail, Value: s}}, nil
	case "unassigned_only":
		b, ok := asBool(value)
		if !ok {
			return nil, apperrors.NewValidationError("unassigned_only must be a boolean", nil)
		}
		if !b {
			return nil, nil
		}
		return []Condition{NullOrEmpty{Column: ColAssignedEmail}}, nil
	case "site_id":
		return intCondition(ColSiteID, "site_id", value)
	case "category", "category_id":
		return intCondition(ColCategoryID, "category", value)
	case "resolution":
		return resolutionCondition(value)
	}
	return r.rawFilter(key, value)
}

func (r *Resolver) statusCondition(value any) ([]Condition, error) {
	if s, ok := asString(value); ok {
		label := strings.ToLower(strings.TrimSpace(s))
		if ids, ok := r.statusGroups[label]; ok {
			return []Condition{In{Column: ColStatusID, Values: intsToAny(ids)}}, nil
		}
		if n, ok := asInt64(s); ok {
			return []Condition{Eq{Column: ColStatusID, Value: n}}, nil
		}
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("unknown status %q", s),
			map[string]any{"allowed": statusLabels(r.statusGroups)},
		)
	}
	if n, ok := asInt64(value); ok {
		return []Condition{Eq{Column: ColStatusID, Value: n}}, nil
	}
	if vals, ok := asInt64Slice(value); ok {
		return []Condition{In{Column: ColStatusID, Values: vals}}, nil
	}
	return nil, apperrors.NewValidationError("status must be a label, id, or id list", nil)
}

func (r *Resolver) priorityCondition(value any) ([]Condition, error) {
	if s, ok := asString(value); ok {
		label := strings.ToLower(strings.TrimSpace(s))
		if id, ok := r.priorityIDs[label]; ok {
			return []Condition{Eq{Column: ColSeverityID, Value: int64(id)}}, nil
		}
		if n, ok := asInt64(s); ok {
			return r.priorityLevel(n)
		}
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("unknown priority %q", s),
			map[string]any{"allowed": []string{"critical", "high", "medium", "low"}},
		)
	}
	if n, ok := asInt64(value); ok {
		return r.priorityLevel(n)
	}
	return nil, apperrors.NewValidationError("priority must be a label or level 1-4", nil)
}

func (r *Resolver) priorityLevel(n int64) ([]Condition, error) {
	if n < 1 || n > 4 {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("priority level %d out of range 1-4", n), nil)
	}
	return []Condition{Eq{Column: ColSeverityID, Value: n}}, nil
}

func intCondition(column, name string, value any) ([]Condition, error) {
	if n, ok := asInt64(value); ok {
		return []Condition{Eq{Column: column, Value: n}}, nil
	}
	if vals, ok := asInt64Slice(value); ok {
		return []Condition{In{Column: column, Values: vals}}, nil
	}
	return nil, apperrors.NewValidationError(name+" must be an integer or integer list", nil)
}

func resolutionCondition(value any) ([]Condition, error) {
	if b, ok := value.(bool); ok {
		if b {
			return []Condition{NotNullOrEmpty{Column: ColResolution}}, nil
		}
		return []Condition{NullOrEmpty{Column: ColResolution}}, nil
	}
	s, ok := asString(value)
	if !ok {
		return nil, apperrors.NewValidationError("resolution must be a boolean or string", nil)
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "has", "true", "any":
		return []Condition{NotNullOrEmpty{Column: ColResolution}}, nil
	case "missing", "false", "none", "empty":
		return []Condition{NullOrEmpty{Column: ColResolution}}, nil
	case "":
		return nil, apperrors.NewValidationError("resolution filter is empty", nil)
	}
	return []Condition{Like{Column: ColResolution, Pattern: "%" + EscapeLike(s) + "%"}}, nil
}

func (r *Resolver) rawFilter(key string, value any) ([]Condition, error) {
	column, ok := lookupColumn(filterColumns, key)
	if !ok {
		return nil, &apperrors.UnknownFieldError{Field: key}
	}
	if vals, ok := asAnySlice(value); ok {
		if len(vals) == 0 {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("%s filter list is empty", key), nil)
		}
		return []Condition{In{Column: column, Values: vals}}, nil
	}
	return []Condition{Eq{Column: column, Value: value}}, nil
}

// ResolveUpdates resolves an update map into column assignments, in sorted
// key order. Each physical column may be assigned once; semantic and raw
// keys landing on the same column is an error.
func (r *Resolver) ResolveUpdates(updates map[string]any) ([]Assignment, error) {
	if len(updates) == 0 {
		return nil, apperrors.NewValidationError("no update fields given", nil)
	}
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	assigns := make([]Assignment, 0, len(keys))
	seen := make(map[string]string, len(keys))
	for _, key := range keys {
		a, err := r.resolveUpdate(key, updates[key])
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[a.Column]; dup {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("keys %q and %q both target column %s", prev, key, a.Column), nil)
		}
		seen[a.Column] = key
		assigns = append(assigns, a)
	}
	return assigns, nil
}

func (r *Resolver) resolveUpdate(key string, value any) (Assignment, error) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "status", "ticket_status":
		id, err := r.statusUpdateID(value)
		if err != nil {
			return Assignment{}, err
		}
		return Assignment{Column: ColStatusID, Value: id}, nil
	case "priority", "priority_level":
		conds, err := r.priorityCondition(value)
		if err != nil {
			return Assignment{}, err
		}
		return Assignment{Column: ColSeverityID, Value: conds[0].(Eq).Value}, nil
	case "assignee_email", "assignee":
		if value == nil {
			return Assignment{Column: ColAssignedEmail, Value: nil}, nil
		}
		s, ok := asString(value)
		if !ok {
			return Assignment{}, apperrors.NewValidationError("assignee_email must be a string or null", nil)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return Assignment{Column: ColAssignedEmail, Value: nil}, nil
		}
		return Assignment{Column: ColAssignedEmail, Value: s}, nil
	case "resolution":
		if value == nil {
			return Assignment{Column: ColResolution, Value: nil}, nil
		}
		s, ok := asString(value)
		if !ok {
			return Assignment{}, apperrors.NewValidationError("resolution must be a string or null", nil)
		}
		return Assignment{Column: ColResolution, Value: s}, nil
	case "site_id":
		n, ok := asInt64(value)
		if !ok {
			return Assignment{}, apperrors.NewValidationError("site_id must be an integer", nil)
		}
		return Assignment{Column: ColSiteID, Value: n}, nil
	case "category", "category_id":
		n, ok := asInt64(value)
		if !ok {
			return Assignment{}, apperrors.NewValidationError("category must be an integer", nil)
		}
		return Assignment{Column: ColCategoryID, Value: n}, nil
	}

	column, ok := lookupColumn(updateColumns, key)
	if !ok {
		return Assignment{}, &apperrors.UnknownFieldError{Field: key}
	}
	return Assignment{Column: column, Value: value}, nil
}

// statusUpdateID resolves a status update value to a single id. Group labels
// spanning several ids (open, in_progress) cannot be update targets.
func (r *Resolver) statusUpdateID(value any) (int64, error) {
	if n, ok := asInt64(value); ok {
		return n, nil
	}
	s, ok := asString(value)
	if !ok {
		return 0, apperrors.NewValidationError("status must be a label or id", nil)
	}
	label := strings.ToLower(strings.TrimSpace(s))
	ids, found := r.statusGroups[label]
	if !found {
		return 0, apperrors.NewValidationError(
			fmt.Sprintf("unknown status %q", s),
			map[string]any{"allowed": statusLabels(r.statusGroups)},
		)
	}
	if len(ids) != 1 {
		return 0, apperrors.NewValidationError(
			fmt.Sprintf("status %q covers several ids; pass a specific status id", s), nil)
	}
	return int64(ids[0]), nil
}

// EscapeLike escapes LIKE metacharacters so user text matches literally.
// The query builder renders Like conditions with an explicit ESCAPE '\'.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `[`, `\[`)
	return r.Replace(s)
}

func lookupColumn(index map[string]string, key string) (string, bool) {
	col, ok := index[strings.ToLower(strings.TrimSpace(key))]
	return col, ok
}

func statusLabels(groups map[string][]int) []string {
	labels := make([]string, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

func intsToAny(ids []int) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, false
		}
		return parsed, true
	}
	return false, false
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int64(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

func asInt64Slice(v any) ([]any, bool) {
	items, ok := asAnySlice(v)
	if !ok {
		return nil, false
	}
	out := make([]any, len(items))
	for i, item := range items {
		n, ok := asInt64(item)
		if !ok {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}

func asAnySlice(v any) ([]any, bool) {
	switch items := v.(type) {
	case []any:
		return items, true
	case []int:
		out := make([]any, len(items))
		for i, n := range items {
			out[i] = int64(n)
		}
		return out, true
	case []int64:
		out := make([]any, len(items))
		for i, n := range items {
			out[i] = n
		}
		return out, true
	case []string:
		out := make([]any, len(items))
		for i, s := range items {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}
