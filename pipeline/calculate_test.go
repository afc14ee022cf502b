package pipeline_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/voucher-engine/benefit"
	"github.com/warp/voucher-engine/pipeline"
)

func mayPeriod() benefit.Period { return benefit.NewPeriod(2025, time.May) }

func calcOne(t *testing.T, rec benefit.EmployeeRecord) benefit.CalculationResult {
	t.Helper()
	out := pipeline.Calculate([]benefit.EmployeeRecord{rec}, testRates(), mayPeriod(), pipeline.DefaultCalcPolicy())
	require.Len(t, out.Results, 1, "rejections: %v", out.Rejections)
	return out.Results[0]
}

// =============================================================================
// FULL MONTH
// =============================================================================

func TestCalculate_FullMonth(t *testing.T) {
	// GIVEN: An active employee on SIND-A, 30.00/day over 22 working days
	// WHEN: Calculating the competence
	// THEN: 660.00 gross, 528.00 employer, 132.00 employee

	res := calcOne(t, staffRecord("U123"))

	assert.Equal(t, 22, res.EligibleDays)
	assert.True(t, res.Gross.Equal(benefit.MustMoney("660.00")), "gross %s", res.Gross)
	assert.True(t, res.EmployerShare.Equal(benefit.MustMoney("528.00")), "employer %s", res.EmployerShare)
	assert.True(t, res.EmployeeShare.Equal(benefit.MustMoney("132.00")), "employee %s", res.EmployeeShare)
	assert.Equal(t, benefit.ProrationNone, res.Proration)
}

func TestCalculate_SharesReproduceGross(t *testing.T) {
	// Shares must sum back to gross exactly, including on odd-cent amounts.
	rec := staffRecord("U1")
	rec.DailyRate = benefit.MustMoney("30.33")
	rec.Union = "SIND-ODD"

	rates := testRates()
	rates["SIND-ODD"] = benefit.UnionRate{DailyRate: benefit.MustMoney("30.33"), WorkingDays: 21}
	rec.WorkingDays = 21

	out := pipeline.Calculate([]benefit.EmployeeRecord{rec}, rates, mayPeriod(), pipeline.DefaultCalcPolicy())
	require.Len(t, out.Results, 1)
	res := out.Results[0]

	// 21 * 30.33 = 636.93; 80% = 509.544 -> 509.54; employee gets the rest.
	assert.True(t, res.Gross.Equal(benefit.MustMoney("636.93")))
	assert.True(t, res.EmployerShare.Equal(benefit.MustMoney("509.54")))
	assert.True(t, res.EmployeeShare.Equal(benefit.MustMoney("127.39")))
	assert.True(t, res.EmployerShare.Add(res.EmployeeShare).Equal(res.Gross))
}

// =============================================================================
// TERMINATION CUTOFF
// =============================================================================

func TestCalculate_TerminationOnCutoffDayZeroesMonth(t *testing.T) {
	// GIVEN: Termination on day 15, the cutoff itself
	rec := staffRecord("U456")
	rec.Termination = mayPtr(15)
	rec.Status = benefit.StatusTerminated

	// WHEN
	res := calcOne(t, rec)

	// THEN: Zero entitlement, traceable reason
	assert.Equal(t, 0, res.EligibleDays)
	assert.True(t, res.Gross.IsZero())
	assert.True(t, res.EmployerShare.IsZero())
	assert.True(t, res.EmployeeShare.IsZero())
	assert.Equal(t, benefit.ProrationTerminationOnCutoff, res.Proration)
}

func TestCalculate_TerminationDayAfterCutoffProrates(t *testing.T) {
	// GIVEN: Termination on day 16, one past the cutoff (a Friday)
	rec := staffRecord("U1")
	rec.Termination = mayPtr(16)
	rec.Status = benefit.StatusTerminated

	// WHEN
	res := calcOne(t, rec)

	// THEN: Working days May 1-16 = 12; 12 x 30.00 = 360.00
	assert.Equal(t, 12, res.EligibleDays)
	assert.True(t, res.Gross.Equal(benefit.MustMoney("360.00")), "gross %s", res.Gross)
	assert.True(t, res.EmployerShare.Equal(benefit.MustMoney("288.00")))
	assert.True(t, res.EmployeeShare.Equal(benefit.MustMoney("72.00")))
	assert.Equal(t, benefit.ProrationTerminationAfter, res.Proration)
}

func TestCalculate_TerminationBoundaryIsExact(t *testing.T) {
	// The day-15/day-16 boundary must not drift: 15 zeroes, 16 pays.
	onCutoff := staffRecord("U1")
	onCutoff.Termination = mayPtr(15)

	pastCutoff := staffRecord("U2")
	pastCutoff.Termination = mayPtr(16)

	out := pipeline.Calculate([]benefit.EmployeeRecord{onCutoff, pastCutoff}, testRates(), mayPeriod(), pipeline.DefaultCalcPolicy())
	require.Len(t, out.Results, 2)

	assert.True(t, out.Results[0].Gross.IsZero())
	assert.True(t, out.Results[1].Gross.GreaterThan(benefit.MustMoney("0")))
}

// =============================================================================
// ADMISSION AND LEAVE PRORATION
// =============================================================================

func TestCalculate_AdmissionMidPeriodProrates(t *testing.T) {
	// GIVEN: Admission on Monday May 12
	rec := staffRecord("U1")
	rec.AdmissionDate = may(12)

	// WHEN
	res := calcOne(t, rec)

	// THEN: Working days May 12-31 = 15; 15 x 30.00 = 450.00
	assert.Equal(t, 15, res.EligibleDays)
	assert.True(t, res.Gross.Equal(benefit.MustMoney("450.00")))
	assert.Equal(t, benefit.ProrationAdmission, res.Proration)
}

func TestCalculate_AdmissionBeforePeriodIsFullMonth(t *testing.T) {
	rec := staffRecord("U1")
	rec.AdmissionDate = benefit.NewDate(2024, time.November, 3)

	res := calcOne(t, rec)

	assert.Equal(t, 22, res.EligibleDays)
	assert.Equal(t, benefit.ProrationNone, res.Proration)
}

func TestCalculate_LeaveReturnProrates(t *testing.T) {
	// GIVEN: Return from leave on Monday May 19
	rec := staffRecord("U1")
	rec.LeaveCategory = "Licença Maternidade"
	rec.LeaveReturn = mayPtr(19)
	rec.Status = benefit.StatusOnLeave

	// WHEN
	res := calcOne(t, rec)

	// THEN: Working days May 19-31 = 10
	assert.Equal(t, 10, res.EligibleDays)
	assert.True(t, res.Gross.Equal(benefit.MustMoney("300.00")))
	assert.Equal(t, benefit.ProrationLeaveReturn, res.Proration)
}

func TestCalculate_LeaveReturnProrationCanBeDisabled(t *testing.T) {
	rec := staffRecord("U1")
	rec.LeaveReturn = mayPtr(19)

	policy := pipeline.DefaultCalcPolicy()
	policy.ProrateLeaveReturn = false

	out := pipeline.Calculate([]benefit.EmployeeRecord{rec}, testRates(), mayPeriod(), policy)
	require.Len(t, out.Results, 1)
	assert.Equal(t, 22, out.Results[0].EligibleDays)
}

func TestCalculate_AdmissionAndTerminationWindow(t *testing.T) {
	// GIVEN: Admitted May 12, terminated May 23
	rec := staffRecord("U1")
	rec.AdmissionDate = may(12)
	rec.Termination = mayPtr(23)

	// WHEN
	res := calcOne(t, rec)

	// THEN: Working days May 12-23 = 10
	assert.Equal(t, 10, res.EligibleDays)
	assert.Equal(t, benefit.ProrationTerminationAfter, res.Proration)
}

func TestCalculate_ProratedDaysCappedAtUnionCount(t *testing.T) {
	// GIVEN: A record whose configured count is lower than the calendar count
	// of its prorated window
	rec := staffRecord("U1")
	rec.WorkingDays = 5
	rec.Termination = mayPtr(30)

	res := calcOne(t, rec)

	assert.Equal(t, 5, res.EligibleDays)
}

// =============================================================================
// DATE CONSISTENCY REJECTIONS
// =============================================================================

func TestCalculate_AdmissionAfterTerminationRejected(t *testing.T) {
	// GIVEN: Admission after termination (scenario U999)
	rec := staffRecord("U999")
	rec.AdmissionDate = may(20)
	rec.Termination = mayPtr(10)

	// WHEN
	out := pipeline.Calculate([]benefit.EmployeeRecord{rec}, testRates(), mayPeriod(), pipeline.DefaultCalcPolicy())

	// THEN: Rejected with a finding, never a silent zero
	assert.Empty(t, out.Results)
	require.Len(t, out.Rejections, 1)
	assert.Equal(t, benefit.CodeInconsistentDates, out.Rejections[0].Code)
	assert.Equal(t, benefit.SeverityError, out.Rejections[0].Severity)
	assert.Equal(t, benefit.EmployeeID("U999"), out.Rejections[0].Employees[0])
}

func TestCalculate_TerminationBeforePeriodRejected(t *testing.T) {
	rec := staffRecord("U1")
	march10 := benefit.NewDate(2025, time.March, 10)
	rec.Termination = &march10

	out := pipeline.Calculate([]benefit.EmployeeRecord{rec}, testRates(), mayPeriod(), pipeline.DefaultCalcPolicy())

	assert.Empty(t, out.Results)
	require.Len(t, out.Rejections, 1)
	assert.Equal(t, benefit.CodeDateOutsidePeriod, out.Rejections[0].Code)
}

func TestCalculate_AdmissionAfterPeriodRejected(t *testing.T) {
	rec := staffRecord("U1")
	rec.AdmissionDate = benefit.NewDate(2025, time.June, 2)

	out := pipeline.Calculate([]benefit.EmployeeRecord{rec}, testRates(), mayPeriod(), pipeline.DefaultCalcPolicy())

	assert.Empty(t, out.Results)
	require.Len(t, out.Rejections, 1)
	assert.Equal(t, benefit.CodeDateOutsidePeriod, out.Rejections[0].Code)
}

// =============================================================================
// DETERMINISM
// =============================================================================

func TestCalculate_OutputOrderMatchesInput(t *testing.T) {
	// Results land in input order even though the per-record work is parallel.
	records := make([]benefit.EmployeeRecord, 0, 50)
	for i := 0; i < 50; i++ {
		records = append(records, staffRecord(benefit.EmployeeID(fmt.Sprintf("U%03d", i))))
	}

	out := pipeline.Calculate(records, testRates(), mayPeriod(), pipeline.DefaultCalcPolicy())

	require.Len(t, out.Results, len(records))
	for i, res := range out.Results {
		assert.Equal(t, records[i].ID, res.EmployeeID)
	}
}
