/*
Package benefit provides the core types for the monthly voucher engine.

PURPOSE:
  This package contains the domain vocabulary shared by every pipeline stage:
  employee records, union rate tables, money arithmetic, findings, and the
  calculation artifacts. Stages in the pipeline package transform these values
  but never define their own copies.

KEY CONCEPTS IN THIS FILE (types.go):
  - EmployeeRecord: The canonical per-employee row after consolidation
  - RateTable: Immutable union -> {daily rate, working days} reference data
  - Role/LeaveCategory classification from free-text payroll labels
  - Union normalization to canonical state keys

DESIGN PRINCIPLES:
  1. Immutability: stages return new collections, never mutate inputs
  2. Precision: uses decimal.Decimal for all currency values
  3. Traceability: every exclusion and rejection carries a reason
  4. Determinism: collections are always ordered by employee ID

SEE ALSO:
  - findings.go: Findings, exclusions, calculation results, reports
  - period.go: Competence periods and working-day calendars
  - errors.go: Error taxonomy
*/
package benefit

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type UnionID string

// =============================================================================
// ROLE - Job category resolved from free-text payroll labels
// =============================================================================

type Role string

const (
	RoleStaff      Role = "staff"
	RoleDirector   Role = "director"
	RoleIntern     Role = "intern"
	RoleApprentice Role = "apprentice"
)

// ClassifyRole maps a raw job title to a role category. Payroll extracts use
// Portuguese labels with inconsistent casing and accents, so matching is
// substring-based on a folded form.
func ClassifyRole(raw string) Role {
	t := FoldLabel(raw)
	switch {
	case strings.Contains(t, "diretor") || strings.Contains(t, "director"):
		return RoleDirector
	case strings.Contains(t, "estagiar") || strings.Contains(t, "intern"):
		return RoleIntern
	case strings.Contains(t, "aprendiz") || strings.Contains(t, "apprentice"):
		return RoleApprentice
	default:
		return RoleStaff
	}
}

// =============================================================================
// UNION NORMALIZATION
// =============================================================================

// Canonical union keys. Free-text union labels from the source extracts are
// collapsed to the state-level keys the rate table is keyed by.
const (
	UnionSaoPaulo       UnionID = "São Paulo"
	UnionRioDeJaneiro   UnionID = "Rio de Janeiro"
	UnionParana         UnionID = "Paraná"
	UnionRioGrandeDoSul UnionID = "Rio Grande do Sul"
)

// NormalizeUnion collapses a raw union label to its canonical key.
// Unrecognized labels are returned trimmed so the rate-table lookup can still
// match exact custom keys (e.g. "SIND-A" in test fixtures).
func NormalizeUnion(raw string) UnionID {
	t := " " + FoldLabel(raw) + " "
	switch {
	case strings.Contains(t, "rio grande do sul") || strings.Contains(t, " rs "):
		return UnionRioGrandeDoSul
	case strings.Contains(t, "rio de janeiro") || strings.Contains(t, " rj "):
		return UnionRioDeJaneiro
	case strings.Contains(t, "curitiba") || strings.Contains(t, "parana") || strings.Contains(t, " pr "):
		return UnionParana
	case strings.Contains(t, "sao paulo") || strings.Contains(t, " sp "):
		return UnionSaoPaulo
	default:
		return UnionID(strings.TrimSpace(raw))
	}
}

// FoldLabel lowercases and strips the accented characters that appear in the
// payroll extracts. Full Unicode folding is not needed for these sources.
func FoldLabel(s string) string {
	t := strings.ToLower(strings.TrimSpace(s))
	replacer := strings.NewReplacer(
		"á", "a", "ã", "a", "â", "a", "à", "a",
		"é", "e", "ê", "e",
		"í", "i",
		"ó", "o", "õ", "o", "ô", "o",
		"ú", "u", "ü", "u",
		"ç", "c",
	)
	return replacer.Replace(t)
}

// =============================================================================
// STATUS - Employment status on the canonical record
// =============================================================================

type Status string

const (
	StatusActive     Status = "active"
	StatusOnLeave    Status = "on_leave"
	StatusTerminated Status = "terminated"
)

// =============================================================================
// EMPLOYEE RECORD - Canonical per-employee entity
// =============================================================================

// EmployeeRecord is the consolidated view of one employee across all source
// feeds. The consolidator produces exactly one record per employee ID; later
// stages read it but never mutate it in place.
type EmployeeRecord struct {
	ID    EmployeeID
	Union UnionID
	Role  Role

	// Raw source values kept for audit.
	RawUnion string
	RawRole  string

	Status        Status
	AdmissionDate Date  // zero = admitted before the period
	Termination   *Date // nil = still employed
	LeaveCategory string
	LeaveReturn   *Date // mid-period return from leave
	OnVacation    bool
	VacationDays  int
	Overseas      bool

	// Resolved from the rate table during consolidation; zero means the
	// union did not resolve and the record must not reach calculation.
	WorkingDays int
	DailyRate   decimal.Decimal

	// Set when the same ID appeared more than once in the active extract.
	// The cleanser turns this into a duplicate exclusion.
	Duplicate bool

	// Feeds that contributed to this record, for audit.
	SeenIn []string
}

// SortRecords orders records by employee ID. Every stage sorts its output so
// re-running the pipeline on identical input is bit-for-bit idempotent.
func SortRecords(records []EmployeeRecord) {
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
}

// =============================================================================
// RATE TABLE - Immutable union reference data
// =============================================================================

// UnionRate is the per-union reference data for one competence period.
type UnionRate struct {
	DailyRate   decimal.Decimal
	WorkingDays int
	Holidays    []Date // union-calendar holidays inside the period
}

// RateTable maps canonical union IDs to their rates. Loaded once per run and
// treated as read-only by every stage.
type RateTable map[UnionID]UnionRate

// Resolve returns the rate entry for a union, or false when the union has no
// mapping. Callers must treat a miss as a data-quality exclusion, not a zero.
func (rt RateTable) Resolve(u UnionID) (UnionRate, bool) {
	r, ok := rt[u]
	return r, ok
}

// Calendar returns the holiday calendar for a union. A union without an entry
// gets the empty calendar (weekends only).
func (rt RateTable) Calendar(u UnionID) HolidayCalendar {
	if r, ok := rt[u]; ok && len(r.Holidays) > 0 {
		return holidaySet(r.Holidays)
	}
	return noHolidays{}
}

// =============================================================================
// MONEY HELPERS
// =============================================================================

var (
	// Exponent used by Round for currency values: cents.
	centPlaces int32 = 2
)

// RoundCents rounds half away from zero at two decimal places. Amounts in
// this engine are non-negative, so this is round-half-up to the smallest
// currency unit. Applied exactly once, on final amounts.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(centPlaces)
}

// MustMoney parses a decimal literal used in configuration and fixtures.
func MustMoney(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
