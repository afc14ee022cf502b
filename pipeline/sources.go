/*
Package pipeline implements the five-stage monthly voucher run.

PURPOSE:
  Consolidate -> Cleanse -> Calculate -> Validate -> Generate, sequenced by a
  Coordinator. Each stage takes an input snapshot and returns a new output
  snapshot plus findings; no stage mutates a prior stage's output.

STAGES:
  sources.go      Source feeds, priority table, concurrent loading
  consolidate.go  Merge feeds into canonical records
  cleanse.go      Ordered exclusion rules
  calculate.go    Entitlement arithmetic and proration
  validate.go     Closing invariants
  generate.go     Final report structure
  coordinator.go  End-to-end run

SEE ALSO:
  - benefit package: shared types, findings, errors
*/
package pipeline

import (
	"context"
	"sync"

	"github.com/warp/voucher-engine/benefit"
)

// =============================================================================
// SOURCE NAMES
// =============================================================================

const (
	SourceActive       = "active"
	SourceVacations    = "vacations"
	SourceTerminations = "terminations"
	SourceAdmissions   = "admissions"
	SourceLeaves       = "leaves"
	SourceOverseas     = "overseas"
	SourceInterns      = "interns"
	SourceApprentices  = "apprentices"
)

// =============================================================================
// SOURCE ROWS - One row type per feed
// =============================================================================

// ActiveRow is one row of the primary active-employees extract.
type ActiveRow struct {
	ID          benefit.EmployeeID
	Union       string // raw label, normalized during consolidation
	Role        string // raw job title
	Situation   string // raw status label
	Admission   benefit.Date
	WorkingDays int // 0 = backfill from the union table
}

type VacationRow struct {
	ID   benefit.EmployeeID
	Days int
}

type TerminationRow struct {
	ID     benefit.EmployeeID
	Date   benefit.Date
	Notice string
}

// AdmissionRow introduces a mid-period hire. New hires are not yet on the
// monthly active extract, so the row carries its own union label.
type AdmissionRow struct {
	ID    benefit.EmployeeID
	Date  benefit.Date
	Union string // raw label, normalized during consolidation
	Role  string
}

type LeaveRow struct {
	ID       benefit.EmployeeID
	Category string
	Return   *benefit.Date
}

// SourceSet is the complete input of one run. Feeds other than Active may be
// empty; Active (or Admissions, for a first competence) must not be.
type SourceSet struct {
	Active       []ActiveRow
	Vacations    []VacationRow
	Terminations []TerminationRow
	Admissions   []AdmissionRow
	Leaves       []LeaveRow
	Overseas     []benefit.EmployeeID
	Interns      []benefit.EmployeeID
	Apprentices  []benefit.EmployeeID
}

// =============================================================================
// SOURCE PRIORITY - Declarative conflict resolution
// =============================================================================

// SourcePriority is the ordered override table, strongest source first.
// When two sources disagree on a field, the higher-ranked source wins. This
// replaces ad hoc merge logic: every field conflict consults the same table.
type SourcePriority []string

// DefaultPriority: event feeds override the monthly extract.
func DefaultPriority() SourcePriority {
	return SourcePriority{
		SourceTerminations,
		SourceLeaves,
		SourceAdmissions,
		SourceVacations,
		SourceActive,
	}
}

// Rank returns the position of a source, lower is stronger. Unknown sources
// rank below every listed one.
func (p SourcePriority) Rank(source string) int {
	for i, s := range p {
		if s == source {
			return i
		}
	}
	return len(p)
}

// Overrides reports whether source a wins a field conflict against source b.
func (p SourcePriority) Overrides(a, b string) bool {
	return p.Rank(a) < p.Rank(b)
}

// =============================================================================
// CONCURRENT LOADING - Feeds are disjoint and read-only
// =============================================================================

// Loaders bundles the per-feed load functions supplied by the ingestion
// collaborator. Nil loaders mean the feed is absent for this run.
type Loaders struct {
	Active       func(context.Context) ([]ActiveRow, error)
	Vacations    func(context.Context) ([]VacationRow, error)
	Terminations func(context.Context) ([]TerminationRow, error)
	Admissions   func(context.Context) ([]AdmissionRow, error)
	Leaves       func(context.Context) ([]LeaveRow, error)
	Overseas     func(context.Context) ([]benefit.EmployeeID, error)
	Interns      func(context.Context) ([]benefit.EmployeeID, error)
	Apprentices  func(context.Context) ([]benefit.EmployeeID, error)
}

// Load runs all supplied loaders concurrently and assembles the SourceSet.
// Each feed is disjoint, so no coordination beyond the final join is needed.
// The first loader failure wins and is reported as a fatal SourceDataError.
func Load(ctx context.Context, l Loaders) (SourceSet, error) {
	var (
		set      SourceSet
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	fail := func(source string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = &benefit.SourceDataError{Stage: "load", Source: source, Cause: err}
		}
	}

	run := func(source string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				fail(source, err)
			}
		}()
	}

	if l.Active != nil {
		run(SourceActive, func() error {
			rows, err := l.Active(ctx)
			if err != nil {
				return err
			}
			mu.Lock()
			set.Active = rows
			mu.Unlock()
			return nil
		})
	}
	if l.Vacations != nil {
		run(SourceVacations, func() error {
			rows, err := l.Vacations(ctx)
			if err != nil {
				return err
			}
			mu.Lock()
			set.Vacations = rows
			mu.Unlock()
			return nil
		})
	}
	if l.Terminations != nil {
		run(SourceTerminations, func() error {
			rows, err := l.Terminations(ctx)
			if err != nil {
				return err
			}
			mu.Lock()
			set.Terminations = rows
			mu.Unlock()
			return nil
		})
	}
	if l.Admissions != nil {
		run(SourceAdmissions, func() error {
			rows, err := l.Admissions(ctx)
			if err != nil {
				return err
			}
			mu.Lock()
			set.Admissions = rows
			mu.Unlock()
			return nil
		})
	}
	if l.Leaves != nil {
		run(SourceLeaves, func() error {
			rows, err := l.Leaves(ctx)
			if err != nil {
				return err
			}
			mu.Lock()
			set.Leaves = rows
			mu.Unlock()
			return nil
		})
	}
	if l.Overseas != nil {
		run(SourceOverseas, func() error {
			ids, err := l.Overseas(ctx)
			if err != nil {
				return err
			}
			mu.Lock()
			set.Overseas = ids
			mu.Unlock()
			return nil
		})
	}
	if l.Interns != nil {
		run(SourceInterns, func() error {
			ids, err := l.Interns(ctx)
			if err != nil {
				return err
			}
			mu.Lock()
			set.Interns = ids
			mu.Unlock()
			return nil
		})
	}
	if l.Apprentices != nil {
		run(SourceApprentices, func() error {
			ids, err := l.Apprentices(ctx)
			if err != nil {
				return err
			}
			mu.Lock()
			set.Apprentices = ids
			mu.Unlock()
			return nil
		})
	}

	wg.Wait()
	if firstErr != nil {
		return SourceSet{}, firstErr
	}
	return set, nil
}
