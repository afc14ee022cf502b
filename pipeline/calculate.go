package pipeline

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/voucher-engine/benefit"
)

// =============================================================================
// CALCULATOR - Entitlement arithmetic with proration
// =============================================================================

// CalcPolicy carries the business knobs of the calculation.
type CalcPolicy struct {
	// Termination on or before this day of the month zeroes the entitlement.
	// Day cutoff+1 onward prorates up to the termination date.
	TerminationCutoffDay int

	// Employer fraction of the gross amount; the employee bears the rest.
	EmployerShare decimal.Decimal

	// Prorate from the leave-return date when a record returns mid-period.
	// Kept configurable pending business confirmation of the exact formula.
	ProrateLeaveReturn bool
}

func DefaultCalcPolicy() CalcPolicy {
	return CalcPolicy{
		TerminationCutoffDay: 15,
		EmployerShare:        benefit.MustMoney("0.80"),
		ProrateLeaveReturn:   true,
	}
}

// CalculateOutput is the immutable hand-off to the validator. Rejections are
// per-record data errors: the record is excluded from the results, never
// defaulted to zero, and the run continues.
type CalculateOutput struct {
	Results    []benefit.CalculationResult
	Rejections []benefit.Finding
}

// Calculate computes one CalculationResult per eligible record. Records are
// independent (they only share the read-only rate table), so the per-record
// work runs in parallel; results land in index order, keeping the output
// deterministic.
func Calculate(eligible []benefit.EmployeeRecord, rates benefit.RateTable, period benefit.Period, policy CalcPolicy) *CalculateOutput {
	type slot struct {
		result    *benefit.CalculationResult
		rejection *benefit.Finding
	}
	slots := make([]slot, len(eligible))

	var wg sync.WaitGroup
	for i := range eligible {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, rej := calculateOne(eligible[i], rates, period, policy)
			slots[i] = slot{result: res, rejection: rej}
		}(i)
	}
	wg.Wait()

	out := &CalculateOutput{}
	for _, s := range slots {
		if s.result != nil {
			out.Results = append(out.Results, *s.result)
		}
		if s.rejection != nil {
			out.Rejections = append(out.Rejections, *s.rejection)
		}
	}
	return out
}

func calculateOne(rec benefit.EmployeeRecord, rates benefit.RateTable, period benefit.Period, policy CalcPolicy) (*benefit.CalculationResult, *benefit.Finding) {
	rate, ok := rates.Resolve(rec.Union)
	if !ok {
		// The cleanser removes these; reaching here means a stage contract
		// was bypassed. Reject rather than compute a silent zero.
		return nil, reject(rec.ID, benefit.CodeUnresolvedUnion, "union has no rate mapping")
	}

	adm := rec.AdmissionDate
	term := rec.Termination

	// Date consistency gates. Inconsistent records become findings, not zeros.
	if term != nil && !adm.IsZero() && adm.After(*term) {
		return nil, reject(rec.ID, benefit.CodeInconsistentDates,
			fmt.Sprintf("admission %s after termination %s", adm, *term))
	}
	if term != nil && term.Before(period.Start()) {
		return nil, reject(rec.ID, benefit.CodeDateOutsidePeriod,
			fmt.Sprintf("termination %s predates competence %s", *term, period))
	}
	if !adm.IsZero() && adm.After(period.End()) {
		return nil, reject(rec.ID, benefit.CodeDateOutsidePeriod,
			fmt.Sprintf("admission %s after competence %s", adm, period))
	}

	// The day-cutoff rule is checked first: it zeroes the month outright.
	// Day <= cutoff belongs to the "before" bucket, cutoff+1 onward prorates.
	if term != nil && period.Contains(*term) && term.Day() <= policy.TerminationCutoffDay {
		return zeroResult(rec, benefit.ProrationTerminationOnCutoff), nil
	}

	windowStart := period.Start()
	windowEnd := period.End()
	reason := benefit.ProrationNone

	if !adm.IsZero() && adm.After(windowStart) && period.Contains(adm) {
		windowStart = adm
		reason = benefit.ProrationAdmission
	}
	if policy.ProrateLeaveReturn && rec.LeaveReturn != nil && period.Contains(*rec.LeaveReturn) && rec.LeaveReturn.After(windowStart) {
		windowStart = *rec.LeaveReturn
		reason = benefit.ProrationLeaveReturn
	}
	if term != nil && period.Contains(*term) {
		windowEnd = *term
		reason = benefit.ProrationTerminationAfter
	}

	// Full-window records use the union's configured working-day count; the
	// calendar count only applies to prorated windows, capped at the union
	// count so backfilled records cannot exceed the table.
	days := rec.WorkingDays
	if reason != benefit.ProrationNone {
		days = benefit.WorkdaysBetween(windowStart, windowEnd, rates.Calendar(rec.Union))
		if days > rec.WorkingDays {
			days = rec.WorkingDays
		}
	}

	gross := benefit.RoundCents(rate.DailyRate.Mul(decimal.NewFromInt(int64(days))))
	employer := benefit.RoundCents(gross.Mul(policy.EmployerShare))
	employee := gross.Sub(employer)

	return &benefit.CalculationResult{
		EmployeeID:    rec.ID,
		Union:         rec.Union,
		EligibleDays:  days,
		DailyRate:     rate.DailyRate,
		Gross:         gross,
		EmployerShare: employer,
		EmployeeShare: employee,
		Proration:     reason,
	}, nil
}

func zeroResult(rec benefit.EmployeeRecord, reason benefit.ProrationReason) *benefit.CalculationResult {
	zero := decimal.Zero.Round(2)
	return &benefit.CalculationResult{
		EmployeeID:    rec.ID,
		Union:         rec.Union,
		EligibleDays:  0,
		DailyRate:     rec.DailyRate,
		Gross:         zero,
		EmployerShare: zero,
		EmployeeShare: zero,
		Proration:     reason,
	}
}

func reject(id benefit.EmployeeID, code, msg string) *benefit.Finding {
	return &benefit.Finding{
		Severity:  benefit.SeverityError,
		Code:      code,
		Employees: []benefit.EmployeeID{id},
		Message:   msg,
	}
}
