package benefit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/voucher-engine/benefit"
)

// =============================================================================
// ROLE CLASSIFICATION TESTS
// =============================================================================

func TestClassifyRole(t *testing.T) {
	cases := []struct {
		raw  string
		want benefit.Role
	}{
		{"DIRETOR FINANCEIRO", benefit.RoleDirector},
		{"Diretor", benefit.RoleDirector},
		{"ESTAGIÁRIO", benefit.RoleIntern},
		{"estagiario de TI", benefit.RoleIntern},
		{"APRENDIZ", benefit.RoleApprentice},
		{"Analista de Sistemas", benefit.RoleStaff},
		{"", benefit.RoleStaff},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, benefit.ClassifyRole(tc.raw), "raw title %q", tc.raw)
	}
}

// =============================================================================
// UNION NORMALIZATION TESTS
// =============================================================================

func TestNormalizeUnion_CanonicalKeys(t *testing.T) {
	cases := []struct {
		raw  string
		want benefit.UnionID
	}{
		{"SINDPD SP - SIND.TRAB.EM PROC DADOS", benefit.UnionSaoPaulo},
		{"São Paulo", benefit.UnionSaoPaulo},
		{"SINDPD RJ", benefit.UnionRioDeJaneiro},
		{"sindicato rio de janeiro", benefit.UnionRioDeJaneiro},
		{"SITEPD PR - CURITIBA", benefit.UnionParana},
		{"Paraná", benefit.UnionParana},
		{"SINDPPD RS", benefit.UnionRioGrandeDoSul},
		{"RIO GRANDE DO SUL", benefit.UnionRioGrandeDoSul},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, benefit.NormalizeUnion(tc.raw), "raw label %q", tc.raw)
	}
}

func TestNormalizeUnion_UnrecognizedKeptVerbatim(t *testing.T) {
	// Custom keys pass through trimmed so exact rate-table entries still match.
	assert.Equal(t, benefit.UnionID("SIND-A"), benefit.NormalizeUnion("  SIND-A "))
}

func TestNormalizeUnion_StateTokenNeedsWordBoundary(t *testing.T) {
	// "PRISMA" contains "pr" but is not the Paraná token.
	assert.Equal(t, benefit.UnionID("PRISMA"), benefit.NormalizeUnion("PRISMA"))
}

// =============================================================================
// RATE TABLE TESTS
// =============================================================================

func TestRateTable_Resolve(t *testing.T) {
	table := benefit.RateTable{
		benefit.UnionSaoPaulo: {DailyRate: benefit.MustMoney("37.50"), WorkingDays: 22},
	}

	rate, ok := table.Resolve(benefit.UnionSaoPaulo)
	assert.True(t, ok)
	assert.Equal(t, "37.5", rate.DailyRate.String())
	assert.Equal(t, 22, rate.WorkingDays)

	_, ok = table.Resolve("SIND-UNKNOWN")
	assert.False(t, ok, "a miss must be reported, never defaulted")
}

// =============================================================================
// MONEY TESTS
// =============================================================================

func TestRoundCents_HalfAwayFromZero(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"10.005", "10.01"},
		{"10.004", "10"},
		{"659.995", "660"},
		{"0.125", "0.13"},
	}
	for _, tc := range cases {
		got := benefit.RoundCents(benefit.MustMoney(tc.in))
		assert.True(t, got.Equal(benefit.MustMoney(tc.want)), "round(%s) = %s, want %s", tc.in, got, tc.want)
	}
}

func TestSortRecords_ByEmployeeID(t *testing.T) {
	records := []benefit.EmployeeRecord{{ID: "U300"}, {ID: "U100"}, {ID: "U200"}}
	benefit.SortRecords(records)
	assert.Equal(t, benefit.EmployeeID("U100"), records[0].ID)
	assert.Equal(t, benefit.EmployeeID("U200"), records[1].ID)
	assert.Equal(t, benefit.EmployeeID("U300"), records[2].ID)
}
