package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/voucher-engine/benefit"
	"github.com/warp/voucher-engine/pipeline"
)

// =============================================================================
// PRIORITY TABLE TESTS
// =============================================================================

func TestSourcePriority_Overrides(t *testing.T) {
	prio := pipeline.DefaultPriority()

	assert.True(t, prio.Overrides(pipeline.SourceTerminations, pipeline.SourceActive))
	assert.True(t, prio.Overrides(pipeline.SourceAdmissions, pipeline.SourceActive))
	assert.False(t, prio.Overrides(pipeline.SourceActive, pipeline.SourceTerminations))
}

func TestSourcePriority_UnknownSourceRanksLast(t *testing.T) {
	prio := pipeline.DefaultPriority()

	assert.True(t, prio.Overrides(pipeline.SourceActive, "made-up-feed"))
	assert.False(t, prio.Overrides("made-up-feed", pipeline.SourceActive))
}

func TestSourcePriority_CustomOrder(t *testing.T) {
	// An operator can invert the default: active wins over terminations.
	prio := pipeline.SourcePriority{pipeline.SourceActive, pipeline.SourceTerminations}

	assert.True(t, prio.Overrides(pipeline.SourceActive, pipeline.SourceTerminations))
}

// =============================================================================
// CONCURRENT LOADING TESTS
// =============================================================================

func TestLoad_AssemblesAllFeeds(t *testing.T) {
	// GIVEN: Loaders for three feeds; the rest are absent
	loaders := pipeline.Loaders{
		Active: func(context.Context) ([]pipeline.ActiveRow, error) {
			return []pipeline.ActiveRow{{ID: "U1", Union: "SIND-A"}}, nil
		},
		Terminations: func(context.Context) ([]pipeline.TerminationRow, error) {
			return []pipeline.TerminationRow{{ID: "U1", Date: may(20)}}, nil
		},
		Interns: func(context.Context) ([]benefit.EmployeeID, error) {
			return []benefit.EmployeeID{"U2"}, nil
		},
	}

	// WHEN
	set, err := pipeline.Load(context.Background(), loaders)
	require.NoError(t, err)

	// THEN
	assert.Len(t, set.Active, 1)
	assert.Len(t, set.Terminations, 1)
	assert.Equal(t, []benefit.EmployeeID{"U2"}, set.Interns)
	assert.Empty(t, set.Vacations)
}

func TestLoad_LoaderFailureIsFatal(t *testing.T) {
	// GIVEN: One feed fails to load
	boom := errors.New("export not found")
	loaders := pipeline.Loaders{
		Active: func(context.Context) ([]pipeline.ActiveRow, error) {
			return []pipeline.ActiveRow{{ID: "U1", Union: "SIND-A"}}, nil
		},
		Vacations: func(context.Context) ([]pipeline.VacationRow, error) {
			return nil, boom
		},
	}

	// WHEN
	set, err := pipeline.Load(context.Background(), loaders)

	// THEN: The failure surfaces as a fatal source error naming the feed
	assert.Empty(t, set.Active)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))

	var srcErr *benefit.SourceDataError
	require.True(t, errors.As(err, &srcErr))
	assert.Equal(t, pipeline.SourceVacations, srcErr.Source)
	assert.Equal(t, "load", srcErr.Stage)
}

func TestLoad_NoLoaders(t *testing.T) {
	set, err := pipeline.Load(context.Background(), pipeline.Loaders{})
	require.NoError(t, err)
	assert.Empty(t, set.Active)
}
