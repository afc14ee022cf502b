package pipeline

import (
	"strings"

	"github.com/warp/voucher-engine/benefit"
)

// =============================================================================
// CLEANSER - Ordered exclusion rules, first match wins
// =============================================================================

// CleansePolicy carries the configurable parts of the exclusion rules.
type CleansePolicy struct {
	// Leave categories that make the whole competence ineligible.
	IneligibleLeaves []string
}

// DefaultCleansePolicy matches the HR baseline: maternity leave and sickness
// benefit make the month ineligible.
func DefaultCleansePolicy() CleansePolicy {
	return CleansePolicy{
		IneligibleLeaves: []string{"licença maternidade", "auxílio doença"},
	}
}

func (p CleansePolicy) ineligibleLeave(category string) bool {
	if category == "" {
		return false
	}
	cat := benefit.FoldLabel(category)
	for _, l := range p.IneligibleLeaves {
		if strings.Contains(cat, benefit.FoldLabel(l)) {
			return true
		}
	}
	return false
}

// exclusionRule pairs a predicate with the single reason it assigns.
type exclusionRule struct {
	reason benefit.ExclusionReason
	match  func(benefit.EmployeeRecord) bool
}

// rules returns the evaluation order. The order is load-bearing: the first
// matching rule determines the reason, so an overseas intern is recorded as
// an intern, never double-counted.
//
// An ineligible leave excludes the whole competence unless the employee is
// back by period end: a return on or before the last day flows on to
// calculation (prorated when the return falls inside the period), a return
// after it is the same as no return at all.
func (p CleansePolicy) rules(rates benefit.RateTable, period benefit.Period) []exclusionRule {
	return []exclusionRule{
		{benefit.ExcludedDirector, func(r benefit.EmployeeRecord) bool { return r.Role == benefit.RoleDirector }},
		{benefit.ExcludedIntern, func(r benefit.EmployeeRecord) bool { return r.Role == benefit.RoleIntern }},
		{benefit.ExcludedApprentice, func(r benefit.EmployeeRecord) bool { return r.Role == benefit.RoleApprentice }},
		{benefit.ExcludedOverseas, func(r benefit.EmployeeRecord) bool { return r.Overseas }},
		{benefit.ExcludedLeaveCategory, func(r benefit.EmployeeRecord) bool {
			return p.ineligibleLeave(r.LeaveCategory) &&
				(r.LeaveReturn == nil || r.LeaveReturn.After(period.End()))
		}},
		{benefit.ExcludedVacation, func(r benefit.EmployeeRecord) bool { return r.OnVacation }},
		{benefit.ExcludedDuplicate, func(r benefit.EmployeeRecord) bool { return r.Duplicate }},
		{benefit.ExcludedUnresolvedUnion, func(r benefit.EmployeeRecord) bool {
			_, ok := rates.Resolve(r.Union)
			return !ok
		}},
	}
}

// CleanseOutput partitions the consolidated set. The excluded side is kept
// for audit only and is never recombined into calculation.
type CleanseOutput struct {
	Eligible []benefit.EmployeeRecord
	Excluded []benefit.Exclusion
	Findings []benefit.Finding
}

// ExcludedByReason returns per-reason counts for run metrics.
func (o *CleanseOutput) ExcludedByReason() map[benefit.ExclusionReason]int {
	counts := make(map[benefit.ExclusionReason]int)
	for _, ex := range o.Excluded {
		counts[ex.Reason]++
	}
	return counts
}

// Cleanse partitions records into {eligible, excluded}. Business exclusions
// are expected outcomes; an unresolved union additionally raises a
// data-quality finding because it points at broken reference data.
func Cleanse(records []benefit.EmployeeRecord, rates benefit.RateTable, period benefit.Period, policy CleansePolicy) *CleanseOutput {
	out := &CleanseOutput{
		Eligible: make([]benefit.EmployeeRecord, 0, len(records)),
	}
	rules := policy.rules(rates, period)

	for _, rec := range records {
		reason, matched := firstMatch(rules, rec)
		if !matched {
			out.Eligible = append(out.Eligible, rec)
			continue
		}
		out.Excluded = append(out.Excluded, benefit.Exclusion{Record: rec, Reason: reason})
		if reason == benefit.ExcludedUnresolvedUnion {
			out.Findings = append(out.Findings, benefit.Finding{
				Severity:  benefit.SeverityWarning,
				Code:      benefit.CodeUnresolvedUnion,
				Employees: []benefit.EmployeeID{rec.ID},
				Message:   "union " + string(rec.Union) + " has no rate mapping",
			})
		}
	}

	benefit.SortFindings(out.Findings)
	return out
}

func firstMatch(rules []exclusionRule, rec benefit.EmployeeRecord) (benefit.ExclusionReason, bool) {
	for _, rule := range rules {
		if rule.match(rec) {
			return rule.reason, true
		}
	}
	return "", false
}
