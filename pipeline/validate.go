package pipeline

import (
	"fmt"

	"github.com/warp/voucher-engine/benefit"
)

// =============================================================================
// VALIDATOR - Closing invariants before any report is generated
// =============================================================================

// ValidateInput gathers everything the closing checks reconcile against.
type ValidateInput struct {
	Results    []benefit.CalculationResult
	Excluded   []benefit.Exclusion
	Rejections []benefit.Finding

	// Headcount produced by the consolidator. Every consolidated record must
	// end up exactly once in {results, rejections, excluded}.
	ConsolidatedCount int
}

// Validate re-checks the post-calculation set. The verdict is pass only when
// no error-severity finding exists; warnings surface but do not block.
func Validate(in ValidateInput) benefit.ValidationReport {
	var findings []benefit.Finding

	// (a) No negative amounts.
	for _, r := range in.Results {
		if r.Gross.IsNegative() || r.EmployerShare.IsNegative() || r.EmployeeShare.IsNegative() {
			findings = append(findings, benefit.Finding{
				Severity:  benefit.SeverityError,
				Code:      benefit.CodeNegativeAmount,
				Employees: []benefit.EmployeeID{r.EmployeeID},
				Message:   fmt.Sprintf("negative amount: gross %s employer %s employee %s", r.Gross, r.EmployerShare, r.EmployeeShare),
			})
		}
	}

	// (b) Shares reproduce gross within one rounding unit.
	tolerance := benefit.MustMoney("0.01")
	for _, r := range in.Results {
		diff := r.EmployerShare.Add(r.EmployeeShare).Sub(r.Gross).Abs()
		if diff.GreaterThan(tolerance) {
			findings = append(findings, benefit.Finding{
				Severity:  benefit.SeverityError,
				Code:      benefit.CodeShareMismatch,
				Employees: []benefit.EmployeeID{r.EmployeeID},
				Message:   fmt.Sprintf("employer %s + employee %s does not reproduce gross %s", r.EmployerShare, r.EmployeeShare, r.Gross),
			})
		}
	}

	// (c) No identifier on both sides of the partition. An excluded category
	// showing up in the results is a leak through the cleanser.
	excluded := make(map[benefit.EmployeeID]benefit.ExclusionReason, len(in.Excluded))
	for _, ex := range in.Excluded {
		excluded[ex.Record.ID] = ex.Reason
	}
	for _, r := range in.Results {
		if reason, ok := excluded[r.EmployeeID]; ok {
			findings = append(findings, benefit.Finding{
				Severity:  benefit.SeverityError,
				Code:      benefit.CodeCategoryLeak,
				Employees: []benefit.EmployeeID{r.EmployeeID},
				Message:   fmt.Sprintf("excluded employee (%s) present in calculation results", reason),
			})
		}
	}

	// (d) Headcount conservation across stages.
	accounted := len(in.Results) + len(in.Rejections) + len(in.Excluded)
	if accounted != in.ConsolidatedCount {
		findings = append(findings, benefit.Finding{
			Severity: benefit.SeverityError,
			Code:     benefit.CodeCountMismatch,
			Message: fmt.Sprintf("results %d + rejections %d + excluded %d != consolidated %d",
				len(in.Results), len(in.Rejections), len(in.Excluded), in.ConsolidatedCount),
		})
	}

	// Advisory: zero gross is only expected under an explicit proration.
	for _, r := range in.Results {
		if r.Gross.IsZero() && r.Proration == benefit.ProrationNone {
			findings = append(findings, benefit.Finding{
				Severity:  benefit.SeverityWarning,
				Code:      benefit.CodeZeroGross,
				Employees: []benefit.EmployeeID{r.EmployeeID},
				Message:   "zero gross without a proration reason",
			})
		}
	}

	benefit.SortFindings(findings)
	report := benefit.ValidationReport{Verdict: benefit.VerdictPass, Findings: findings}
	for _, f := range findings {
		if f.Severity == benefit.SeverityError {
			report.Verdict = benefit.VerdictFail
			break
		}
	}
	return report
}
