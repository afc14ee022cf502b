package pipeline

import (
	"fmt"
	"sort"

	"github.com/warp/voucher-engine/benefit"
)

// =============================================================================
// CONSOLIDATOR - Merge N source feeds into canonical records
// =============================================================================

// ConsolidateOutput is the immutable hand-off to the cleanser.
type ConsolidateOutput struct {
	Records  []benefit.EmployeeRecord
	Findings []benefit.Finding
}

// Count is the consolidated headcount the validator reconciles against.
func (o *ConsolidateOutput) Count() int { return len(o.Records) }

// Consolidate merges all source feeds into exactly one EmployeeRecord per
// identifier. The active extract is the primary source; the admissions feed
// may introduce employees not yet on it. Every other secondary orphan becomes
// an advisory finding. Field conflicts are resolved by the priority table,
// never ad hoc.
func Consolidate(set SourceSet, rates benefit.RateTable, prio SourcePriority) (*ConsolidateOutput, error) {
	if len(set.Active) == 0 {
		return nil, &benefit.SourceDataError{
			Stage:  "consolidate",
			Source: SourceActive,
			Cause:  benefit.ErrMissingActiveSource,
		}
	}
	if len(rates) == 0 {
		return nil, &benefit.SourceDataError{
			Stage:  "consolidate",
			Source: "union_rates",
			Cause:  benefit.ErrEmptyRateTable,
		}
	}
	if len(prio) == 0 {
		prio = DefaultPriority()
	}

	var findings []benefit.Finding
	records := make(map[benefit.EmployeeID]*benefit.EmployeeRecord, len(set.Active))

	// Primary source.
	for _, row := range set.Active {
		if existing, ok := records[row.ID]; ok {
			existing.Duplicate = true
			findings = append(findings, benefit.Finding{
				Severity:  benefit.SeverityWarning,
				Code:      benefit.CodeDuplicateID,
				Employees: []benefit.EmployeeID{row.ID},
				Message:   "identifier appears more than once in the active extract; first occurrence kept",
			})
			continue
		}
		records[row.ID] = &benefit.EmployeeRecord{
			ID:            row.ID,
			Union:         benefit.NormalizeUnion(row.Union),
			RawUnion:      row.Union,
			Role:          benefit.ClassifyRole(row.Role),
			RawRole:       row.Role,
			Status:        benefit.StatusActive,
			AdmissionDate: row.Admission,
			WorkingDays:   row.WorkingDays,
			SeenIn:        []string{SourceActive},
		}
	}

	// Admission feed: the one secondary source allowed to introduce records.
	for _, row := range set.Admissions {
		rec, ok := records[row.ID]
		if !ok {
			rec = &benefit.EmployeeRecord{
				ID:            row.ID,
				Union:         benefit.NormalizeUnion(row.Union),
				RawUnion:      row.Union,
				Role:          benefit.ClassifyRole(row.Role),
				RawRole:       row.Role,
				Status:        benefit.StatusActive,
				AdmissionDate: row.Date,
			}
			records[row.ID] = rec
			rec.SeenIn = append(rec.SeenIn, SourceAdmissions)
			continue
		}
		rec.SeenIn = append(rec.SeenIn, SourceAdmissions)
		if rec.RawUnion == "" && row.Union != "" {
			rec.Union = benefit.NormalizeUnion(row.Union)
			rec.RawUnion = row.Union
		}
		if !rec.AdmissionDate.IsZero() && !rec.AdmissionDate.Equal(row.Date) {
			findings = append(findings, conflictFinding(row.ID, "admission date", SourceAdmissions))
		}
		if prio.Overrides(SourceAdmissions, SourceActive) || rec.AdmissionDate.IsZero() {
			rec.AdmissionDate = row.Date
		}
	}

	// Termination feed overrides status per the priority table. A second
	// termination row for the same ID is an intra-feed conflict: the first row
	// is kept and the disagreement surfaces as a finding, mirroring the
	// duplicate handling on the active extract.
	for _, row := range set.Terminations {
		rec, ok := records[row.ID]
		if !ok {
			findings = append(findings, orphanFinding(row.ID, SourceTerminations))
			continue
		}
		rec.SeenIn = append(rec.SeenIn, SourceTerminations)
		if rec.Termination != nil {
			if !rec.Termination.Equal(row.Date) {
				findings = append(findings, benefit.Finding{
					Severity:  benefit.SeverityWarning,
					Code:      benefit.CodeConflictingField,
					Employees: []benefit.EmployeeID{row.ID},
					Message:   "conflicting termination date within the terminations feed; first row kept",
				})
			}
			continue
		}
		d := row.Date
		rec.Termination = &d
		rec.Status = benefit.StatusTerminated
	}

	// Leave feed.
	for _, row := range set.Leaves {
		rec, ok := records[row.ID]
		if !ok {
			findings = append(findings, orphanFinding(row.ID, SourceLeaves))
			continue
		}
		rec.SeenIn = append(rec.SeenIn, SourceLeaves)
		rec.LeaveCategory = row.Category
		rec.LeaveReturn = row.Return
		// Termination outranks leave for status.
		if rec.Status != benefit.StatusTerminated || prio.Overrides(SourceLeaves, SourceTerminations) {
			rec.Status = benefit.StatusOnLeave
		}
	}

	// Vacation feed.
	for _, row := range set.Vacations {
		rec, ok := records[row.ID]
		if !ok {
			findings = append(findings, orphanFinding(row.ID, SourceVacations))
			continue
		}
		rec.SeenIn = append(rec.SeenIn, SourceVacations)
		rec.OnVacation = true
		rec.VacationDays = row.Days
	}

	// Roster feeds flag categories; they override the active extract's title.
	applyRoster(records, set.Overseas, SourceOverseas, &findings, func(r *benefit.EmployeeRecord) {
		r.Overseas = true
	})
	applyRoster(records, set.Interns, SourceInterns, &findings, func(r *benefit.EmployeeRecord) {
		r.Role = benefit.RoleIntern
	})
	applyRoster(records, set.Apprentices, SourceApprentices, &findings, func(r *benefit.EmployeeRecord) {
		r.Role = benefit.RoleApprentice
	})

	// Resolve union rate data. A miss leaves WorkingDays zero; the cleanser
	// turns that into a data-quality exclusion rather than a silent zero.
	out := make([]benefit.EmployeeRecord, 0, len(records))
	for _, rec := range records {
		if rate, ok := rates.Resolve(rec.Union); ok {
			rec.DailyRate = rate.DailyRate
			if rec.WorkingDays <= 0 {
				rec.WorkingDays = rate.WorkingDays
			}
		}
		out = append(out, *rec)
	}

	benefit.SortRecords(out)
	benefit.SortFindings(findings)
	return &ConsolidateOutput{Records: out, Findings: findings}, nil
}

func applyRoster(records map[benefit.EmployeeID]*benefit.EmployeeRecord, ids []benefit.EmployeeID, source string, findings *[]benefit.Finding, apply func(*benefit.EmployeeRecord)) {
	// Deterministic order for finding accumulation.
	sorted := append([]benefit.EmployeeID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for _, id := range sorted {
		rec, ok := records[id]
		if !ok {
			*findings = append(*findings, orphanFinding(id, source))
			continue
		}
		rec.SeenIn = append(rec.SeenIn, source)
		apply(rec)
	}
}

func orphanFinding(id benefit.EmployeeID, source string) benefit.Finding {
	return benefit.Finding{
		Severity:  benefit.SeverityWarning,
		Code:      benefit.CodeOrphanSecondaryRow,
		Employees: []benefit.EmployeeID{id},
		Message:   fmt.Sprintf("%s row has no matching active entry", source),
	}
}

func conflictFinding(id benefit.EmployeeID, field, source string) benefit.Finding {
	return benefit.Finding{
		Severity:  benefit.SeverityWarning,
		Code:      benefit.CodeConflictingField,
		Employees: []benefit.EmployeeID{id},
		Message:   fmt.Sprintf("conflicting %s between %s and %s; priority table applied", field, source, SourceActive),
	}
}
