/*
findings.go - Findings, exclusions, and the pipeline's output artifacts

PURPOSE:
  Every record that leaves the main flow does so with a traceable reason:
  exclusions carry an ExclusionReason, rejected calculations carry a finding,
  and validation problems carry severity-tagged findings. Nothing is dropped
  silently.

ARTIFACT LIFECYCLE:
  Finding            created by any stage, accumulated per run
  Exclusion          created by the cleanser, kept for audit only
  CalculationResult  created once by the calculator, then read-only
  ValidationReport   created by the validator, gates the generator
  Report             created by the generator, handed to the export layer

SEE ALSO:
  - errors.go: Fatal errors (a Finding is never fatal)
  - pipeline package: the stages producing these artifacts
*/
package benefit

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FINDINGS - Severity-tagged, accumulated, never swallowed
// =============================================================================

type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Finding codes. Stage prefixes keep the origin obvious in run reports.
const (
	CodeOrphanSecondaryRow = "consolidate/orphan_row"
	CodeConflictingField   = "consolidate/conflicting_field"
	CodeDuplicateID        = "consolidate/duplicate_id"
	CodeUnresolvedUnion    = "cleanse/unresolved_union"
	CodeInconsistentDates  = "calculate/inconsistent_dates"
	CodeDateOutsidePeriod  = "calculate/date_outside_period"
	CodeNegativeAmount     = "validate/negative_amount"
	CodeShareMismatch      = "validate/share_mismatch"
	CodeCountMismatch      = "validate/count_mismatch"
	CodeCategoryLeak       = "validate/excluded_category_leak"
	CodeZeroGross          = "validate/zero_gross"
)

type Finding struct {
	Severity  Severity
	Code      string
	Employees []EmployeeID
	Message   string
}

// SortFindings orders findings by code then first employee for determinism.
func SortFindings(fs []Finding) {
	sort.Slice(fs, func(i, j int) bool {
		if fs[i].Code != fs[j].Code {
			return fs[i].Code < fs[j].Code
		}
		return firstID(fs[i]) < firstID(fs[j])
	})
}

func firstID(f Finding) EmployeeID {
	if len(f.Employees) == 0 {
		return ""
	}
	return f.Employees[0]
}

// =============================================================================
// EXCLUSIONS - Expected business outcomes, not errors
// =============================================================================

type ExclusionReason string

const (
	ExcludedDirector        ExclusionReason = "director"
	ExcludedIntern          ExclusionReason = "intern"
	ExcludedApprentice      ExclusionReason = "apprentice"
	ExcludedOverseas        ExclusionReason = "overseas"
	ExcludedLeaveCategory   ExclusionReason = "ineligible_leave"
	ExcludedVacation        ExclusionReason = "vacation"
	ExcludedDuplicate       ExclusionReason = "duplicate"
	ExcludedUnresolvedUnion ExclusionReason = "unresolved_union"
)

// Exclusion ties a removed record to the single rule that removed it.
// Rules are evaluated first-match-wins, so a record never carries two reasons.
type Exclusion struct {
	Record EmployeeRecord
	Reason ExclusionReason
}

// =============================================================================
// CALCULATION RESULT - Created once, never mutated
// =============================================================================

type ProrationReason string

const (
	ProrationNone                ProrationReason = ""
	ProrationAdmission           ProrationReason = "admission_mid_period"
	ProrationTerminationOnCutoff ProrationReason = "termination_on_or_before_cutoff"
	ProrationTerminationAfter    ProrationReason = "termination_after_cutoff"
	ProrationLeaveReturn         ProrationReason = "leave_return"
)

type CalculationResult struct {
	EmployeeID    EmployeeID
	Union         UnionID
	EligibleDays  int
	DailyRate     decimal.Decimal
	Gross         decimal.Decimal
	EmployerShare decimal.Decimal
	EmployeeShare decimal.Decimal
	Proration     ProrationReason
}

// SortResults orders results by employee ID for deterministic output.
func SortResults(rs []CalculationResult) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].EmployeeID < rs[j].EmployeeID })
}

// =============================================================================
// VALIDATION REPORT - Gates the generator
// =============================================================================

type Verdict string

const (
	VerdictPass Verdict = "pass"
	VerdictFail Verdict = "fail"
)

type ValidationReport struct {
	Verdict  Verdict
	Findings []Finding
}

// Errors returns only the blocking findings.
func (vr ValidationReport) Errors() []Finding {
	var out []Finding
	for _, f := range vr.Findings {
		if f.Severity == SeverityError {
			out = append(out, f)
		}
	}
	return out
}

// Passed reports whether generation may proceed.
func (vr ValidationReport) Passed() bool { return vr.Verdict == VerdictPass }

// =============================================================================
// REPORT - Final distributable structure
// =============================================================================

type ReportRow struct {
	EmployeeID    EmployeeID
	Union         UnionID
	EligibleDays  int
	Gross         decimal.Decimal
	EmployerShare decimal.Decimal
	EmployeeShare decimal.Decimal
}

type UnionSummary struct {
	Union     UnionID
	Employees int
	Gross     decimal.Decimal
}

type ReportSummary struct {
	Competence         string
	TotalEmployees     int
	TotalGross         decimal.Decimal
	TotalEmployerShare decimal.Decimal
	TotalEmployeeShare decimal.Decimal
	ByUnion            []UnionSummary
}

// Report is handed to the external rendering/export collaborator. File byte
// layout is that collaborator's concern, not this engine's.
type Report struct {
	Rows    []ReportRow
	Summary ReportSummary
}
