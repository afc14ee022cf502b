package pipeline

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/voucher-engine/benefit"
)

// =============================================================================
// GENERATOR - Final distributable report structure
// =============================================================================

// Generate renders the validated result set into the report handed to the
// export collaborator. It must only be called on a passing verdict; the
// coordinator enforces that, and Generate re-checks it as a last line.
func Generate(results []benefit.CalculationResult, validation benefit.ValidationReport, period benefit.Period) (*benefit.Report, error) {
	if !validation.Passed() {
		return nil, fmt.Errorf("generate invoked on failed validation: %w", benefit.ErrValidationFailed)
	}

	sorted := append([]benefit.CalculationResult(nil), results...)
	benefit.SortResults(sorted)

	rows := make([]benefit.ReportRow, 0, len(sorted))
	byUnion := make(map[benefit.UnionID]*benefit.UnionSummary)
	totalGross := decimal.Zero
	totalEmployer := decimal.Zero
	totalEmployee := decimal.Zero

	for _, r := range sorted {
		rows = append(rows, benefit.ReportRow{
			EmployeeID:    r.EmployeeID,
			Union:         r.Union,
			EligibleDays:  r.EligibleDays,
			Gross:         r.Gross,
			EmployerShare: r.EmployerShare,
			EmployeeShare: r.EmployeeShare,
		})
		totalGross = totalGross.Add(r.Gross)
		totalEmployer = totalEmployer.Add(r.EmployerShare)
		totalEmployee = totalEmployee.Add(r.EmployeeShare)

		us, ok := byUnion[r.Union]
		if !ok {
			us = &benefit.UnionSummary{Union: r.Union, Gross: decimal.Zero}
			byUnion[r.Union] = us
		}
		us.Employees++
		us.Gross = us.Gross.Add(r.Gross)
	}

	unions := make([]benefit.UnionSummary, 0, len(byUnion))
	for _, us := range byUnion {
		unions = append(unions, *us)
	}
	sort.Slice(unions, func(i, j int) bool { return unions[i].Union < unions[j].Union })

	return &benefit.Report{
		Rows: rows,
		Summary: benefit.ReportSummary{
			Competence:         period.Competence(),
			TotalEmployees:     len(rows),
			TotalGross:         totalGross,
			TotalEmployerShare: totalEmployer,
			TotalEmployeeShare: totalEmployee,
			ByUnion:            unions,
		},
	}, nil
}
