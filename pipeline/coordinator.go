package pipeline

import (
	"context"
	"log"

	"github.com/warp/voucher-engine/benefit"
)

// =============================================================================
// COORDINATOR - Owns the end-to-end run
// =============================================================================

// Coordinator sequences the five stages, aborts on unrecoverable failure,
// and aggregates per-stage counts for observability. It holds only immutable
// configuration; all run state flows through stage outputs.
type Coordinator struct {
	Rates    benefit.RateTable
	Period   benefit.Period
	Priority SourcePriority
	Cleanse  CleansePolicy
	Calc     CalcPolicy

	// Logf defaults to the standard logger.
	Logf func(format string, v ...any)
}

// StageCounts is the per-stage observability block returned to the caller.
type StageCounts struct {
	Consolidated     int
	ExcludedByReason map[benefit.ExclusionReason]int
	Eligible         int
	Calculated       int
	Rejected         int

	// Validated counts the results that cleared validation without an
	// error finding; it falls below Calculated when the verdict fails.
	Validated int
}

// RunOutput bundles everything a caller needs: the report on success, the
// validation report always, and the accumulated findings so operators see the
// full picture rather than only the first problem.
type RunOutput struct {
	Period     benefit.Period
	Report     *benefit.Report // nil when validation fails
	Validation benefit.ValidationReport
	Findings   []benefit.Finding // consolidate + cleanse + rejections
	Exclusions []benefit.Exclusion
	Counts     StageCounts
}

// Succeeded reports whether a distributable report was produced.
func (o *RunOutput) Succeeded() bool { return o.Report != nil }

// Run executes the full pipeline over one source set. Fatal source errors
// abort immediately with the stage name attached; everything else accumulates
// into findings. The context is checked once before Calculate, the last point
// where aborting is cheap.
func (c *Coordinator) Run(ctx context.Context, set SourceSet) (*RunOutput, error) {
	logf := c.Logf
	if logf == nil {
		logf = log.Printf
	}
	prio := c.Priority
	if len(prio) == 0 {
		prio = DefaultPriority()
	}

	out := &RunOutput{Period: c.Period}

	consolidated, err := Consolidate(set, c.Rates, prio)
	if err != nil {
		return nil, &benefit.StageError{Stage: "consolidate", Err: err}
	}
	out.Findings = append(out.Findings, consolidated.Findings...)
	out.Counts.Consolidated = consolidated.Count()
	logf("consolidate: %d records, %d findings", consolidated.Count(), len(consolidated.Findings))

	cleansed := Cleanse(consolidated.Records, c.Rates, c.Period, c.Cleanse)
	out.Findings = append(out.Findings, cleansed.Findings...)
	out.Exclusions = cleansed.Excluded
	out.Counts.ExcludedByReason = cleansed.ExcludedByReason()
	out.Counts.Eligible = len(cleansed.Eligible)
	logf("cleanse: %d eligible, %d excluded", len(cleansed.Eligible), len(cleansed.Excluded))

	// Cooperative cancellation point before committing to calculation.
	if err := ctx.Err(); err != nil {
		return nil, &benefit.StageError{Stage: "calculate", Err: err}
	}

	calculated := Calculate(cleansed.Eligible, c.Rates, c.Period, c.Calc)
	out.Findings = append(out.Findings, calculated.Rejections...)
	out.Counts.Calculated = len(calculated.Results)
	out.Counts.Rejected = len(calculated.Rejections)
	logf("calculate: %d results, %d rejections", len(calculated.Results), len(calculated.Rejections))

	out.Validation = Validate(ValidateInput{
		Results:           calculated.Results,
		Excluded:          cleansed.Excluded,
		Rejections:        calculated.Rejections,
		ConsolidatedCount: consolidated.Count(),
	})
	out.Counts.Validated = validatedCount(calculated.Results, out.Validation)
	logf("validate: verdict %s, %d findings", out.Validation.Verdict, len(out.Validation.Findings))

	if !out.Validation.Passed() {
		// No partial report is ever generated; the caller gets the
		// validation report and the full findings trail instead.
		logf("generate skipped: validation failed")
		return out, nil
	}

	report, err := Generate(calculated.Results, out.Validation, c.Period)
	if err != nil {
		return nil, &benefit.StageError{Stage: "generate", Err: err}
	}
	out.Report = report
	logf("generate: %d rows, competence %s", len(report.Rows), report.Summary.Competence)
	return out, nil
}

func validatedCount(results []benefit.CalculationResult, validation benefit.ValidationReport) int {
	errored := make(map[benefit.EmployeeID]bool)
	for _, f := range validation.Findings {
		if f.Severity != benefit.SeverityError {
			continue
		}
		for _, id := range f.Employees {
			errored[id] = true
		}
	}
	count := 0
	for _, r := range results {
		if !errored[r.EmployeeID] {
			count++
		}
	}
	return count
}
