package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Canonical field names. Every imported row is normalized onto this set.
const (
	FieldPlant       = "Plant Name"
	FieldIssue       = "Chronic Issue"
	FieldFailureDesc = "Failures Description"
	FieldActionPlan  = "Action Plan"
	FieldClass       = "Class"
	FieldDuration    = "Duration Loss"
	FieldFrequency   = "Frequency"
	FieldCategory    = "Category"
	FieldProgress    = "Progress"
	FieldCompletion  = "Completion"
	FieldStart       = "Start Time"
	FieldEnd         = "End Time"
)

// Audit annotation column headers used by export and re-import.
const (
	FieldAuditQuestion = "CTO Question"
	FieldAuditArtifact = "The Artifact (Grab)"
	FieldAuditPriority = "Tracking Priority"
)

// CanonicalFields lists the canonical schema in display order.
var CanonicalFields = []string{
	FieldPlant,
	FieldIssue,
	FieldFailureDesc,
	FieldActionPlan,
	FieldClass,
	FieldDuration,
	FieldFrequency,
	FieldCategory,
	FieldProgress,
	FieldCompletion,
	FieldStart,
	FieldEnd,
}

// Defaults applied by Reset and Append.
const (
	Uncategorized   = "Uncategorized"
	ProgressNotDone = "Not Started"
)

// ClassOptions is the fixed class vocabulary.
var ClassOptions = []string{"Mechanical", "Electrical", "Operational", "UPWT", "Safety", "Spares", "Quality"}

// ProgressOptions is the fixed progress vocabulary.
var ProgressOptions = []string{"Not Started", "In Progress", "Completed", "Terminated", "Continuously Works"}

// DateField is a display label plus the parsed calendar date behind it.
// Date is nil when the source cell was blank or unparsable.
type DateField struct {
	Label string
	Date  *time.Time
}

// Audit holds the annotations written back by the audit collaborator.
type Audit struct {
	Question string `json:"question"`
	Artifact string `json:"artifact"`
	Priority string `json:"priority"`
}

// CanonicalRow is one normalized ledger entry. Rows are values: edits
// produce a new row that replaces the old one at the same ID.
type CanonicalRow struct {
	ID string

	Plant       string
	Issue       string
	FailureDesc string
	ActionPlan  string
	Class       string
	Duration    float64
	Frequency   float64
	Category    string
	Progress    string
	Completion  float64
	Start       DateField
	End         DateField

	Quality QualityAssessment
	Audit   Audit
}

// NewRowID returns a fresh row identity.
func NewRowID() string { return uuid.NewString() }

// Text returns the string form of a text facet field, or "" for unknown names.
func (r CanonicalRow) Text(field string) string {
	switch field {
	case FieldPlant:
		return r.Plant
	case FieldIssue:
		return r.Issue
	case FieldFailureDesc:
		return r.FailureDesc
	case FieldActionPlan:
		return r.ActionPlan
	case FieldClass:
		return r.Class
	case FieldCategory:
		return r.Category
	case FieldProgress:
		return r.Progress
	case FieldStart:
		return r.Start.Label
	case FieldEnd:
		return r.End.Label
	}
	return ""
}
