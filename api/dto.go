/*
dto.go - Wire types for the HTTP API

PURPOSE:
  Separates wire format from domain types. Dates travel as YYYY-MM-DD
  strings, money as decimal strings. The handlers convert between these DTOs
  and the pipeline's domain types in one place.
*/
package api

import (
	"fmt"
	"time"

	"github.com/warp/voucher-engine/benefit"
	"github.com/warp/voucher-engine/pipeline"
	"github.com/warp/voucher-engine/store/sqlite"
)

// =============================================================================
// REQUEST DTOs
// =============================================================================

// RunRequest is the payload of POST /api/runs: the full source set for one
// competence, as handed over by the file-ingestion collaborator.
type RunRequest struct {
	// Period overrides the configured competence (YYYY-MM). Optional.
	Period  string         `json:"period,omitempty"`
	Sources SourcesPayload `json:"sources"`
}

type SourcesPayload struct {
	Active       []ActiveRowDTO      `json:"active"`
	Vacations    []VacationRowDTO    `json:"vacations,omitempty"`
	Terminations []TerminationRowDTO `json:"terminations,omitempty"`
	Admissions   []AdmissionRowDTO   `json:"admissions,omitempty"`
	Leaves       []LeaveRowDTO       `json:"leaves,omitempty"`
	Overseas     []string            `json:"overseas,omitempty"`
	Interns      []string            `json:"interns,omitempty"`
	Apprentices  []string            `json:"apprentices,omitempty"`
}

type ActiveRowDTO struct {
	ID          string `json:"id"`
	Union       string `json:"union"`
	Role        string `json:"role,omitempty"`
	Situation   string `json:"situation,omitempty"`
	Admission   string `json:"admission,omitempty"` // YYYY-MM-DD
	WorkingDays int    `json:"working_days,omitempty"`
}

type VacationRowDTO struct {
	ID   string `json:"id"`
	Days int    `json:"days,omitempty"`
}

type TerminationRowDTO struct {
	ID     string `json:"id"`
	Date   string `json:"date"` // YYYY-MM-DD
	Notice string `json:"notice,omitempty"`
}

type AdmissionRowDTO struct {
	ID    string `json:"id"`
	Date  string `json:"date"` // YYYY-MM-DD
	Union string `json:"union,omitempty"`
	Role  string `json:"role,omitempty"`
}

type LeaveRowDTO struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Return   string `json:"return,omitempty"` // YYYY-MM-DD
}

// ToSourceSet converts the wire payload into the pipeline's source set.
// Date parse failures are client errors, reported with the offending feed.
func (p SourcesPayload) ToSourceSet() (pipeline.SourceSet, error) {
	var set pipeline.SourceSet

	for i, row := range p.Active {
		r := pipeline.ActiveRow{
			ID:          benefit.EmployeeID(row.ID),
			Union:       row.Union,
			Role:        row.Role,
			Situation:   row.Situation,
			WorkingDays: row.WorkingDays,
		}
		if row.Admission != "" {
			d, err := benefit.ParseDate(row.Admission)
			if err != nil {
				return set, fmt.Errorf("active[%d].admission: %w", i, err)
			}
			r.Admission = d
		}
		set.Active = append(set.Active, r)
	}

	for _, row := range p.Vacations {
		set.Vacations = append(set.Vacations, pipeline.VacationRow{
			ID:   benefit.EmployeeID(row.ID),
			Days: row.Days,
		})
	}

	for i, row := range p.Terminations {
		d, err := benefit.ParseDate(row.Date)
		if err != nil {
			return set, fmt.Errorf("terminations[%d].date: %w", i, err)
		}
		set.Terminations = append(set.Terminations, pipeline.TerminationRow{
			ID:     benefit.EmployeeID(row.ID),
			Date:   d,
			Notice: row.Notice,
		})
	}

	for i, row := range p.Admissions {
		d, err := benefit.ParseDate(row.Date)
		if err != nil {
			return set, fmt.Errorf("admissions[%d].date: %w", i, err)
		}
		set.Admissions = append(set.Admissions, pipeline.AdmissionRow{
			ID:    benefit.EmployeeID(row.ID),
			Date:  d,
			Union: row.Union,
			Role:  row.Role,
		})
	}

	for i, row := range p.Leaves {
		r := pipeline.LeaveRow{
			ID:       benefit.EmployeeID(row.ID),
			Category: row.Category,
		}
		if row.Return != "" {
			d, err := benefit.ParseDate(row.Return)
			if err != nil {
				return set, fmt.Errorf("leaves[%d].return: %w", i, err)
			}
			r.Return = &d
		}
		set.Leaves = append(set.Leaves, r)
	}

	set.Overseas = toIDs(p.Overseas)
	set.Interns = toIDs(p.Interns)
	set.Apprentices = toIDs(p.Apprentices)
	return set, nil
}

func toIDs(ss []string) []benefit.EmployeeID {
	if len(ss) == 0 {
		return nil
	}
	out := make([]benefit.EmployeeID, len(ss))
	for i, s := range ss {
		out[i] = benefit.EmployeeID(s)
	}
	return out
}

// =============================================================================
// RESPONSE DTOs
// =============================================================================

type FindingDTO struct {
	Severity  string   `json:"severity"`
	Code      string   `json:"code"`
	Employees []string `json:"employees,omitempty"`
	Message   string   `json:"message"`
}

type ExclusionDTO struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type ReportRowDTO struct {
	ID            string `json:"id"`
	Union         string `json:"union"`
	EligibleDays  int    `json:"eligible_days"`
	Gross         string `json:"gross"`
	EmployerShare string `json:"employer_share"`
	EmployeeShare string `json:"employee_share"`
}

type UnionSummaryDTO struct {
	Union     string `json:"union"`
	Employees int    `json:"employees"`
	Gross     string `json:"gross"`
}

type ReportSummaryDTO struct {
	Competence         string            `json:"competence"`
	TotalEmployees     int               `json:"total_employees"`
	TotalGross         string            `json:"total_gross"`
	TotalEmployerShare string            `json:"total_employer_share"`
	TotalEmployeeShare string            `json:"total_employee_share"`
	ByUnion            []UnionSummaryDTO `json:"by_union"`
}

type ReportDTO struct {
	Rows    []ReportRowDTO   `json:"rows"`
	Summary ReportSummaryDTO `json:"summary"`
}

type CountsDTO struct {
	Consolidated     int            `json:"consolidated"`
	ExcludedByReason map[string]int `json:"excluded_by_reason"`
	Eligible         int            `json:"eligible"`
	Calculated       int            `json:"calculated"`
	Rejected         int            `json:"rejected"`
	Validated        int            `json:"validated"`
}

// RunResponse is returned by POST /api/runs and GET /api/runs/{id}.
type RunResponse struct {
	ID         int64          `json:"id,omitempty"`
	Competence string         `json:"competence"`
	Verdict    string         `json:"verdict"`
	Counts     CountsDTO      `json:"counts"`
	Findings   []FindingDTO   `json:"findings,omitempty"`
	Validation []FindingDTO   `json:"validation,omitempty"`
	Exclusions []ExclusionDTO `json:"exclusions,omitempty"`
	Report     *ReportDTO     `json:"report,omitempty"`
}

type RunListItem struct {
	ID         int64  `json:"id"`
	CreatedAt  string `json:"created_at"`
	Competence string `json:"competence"`
	Verdict    string `json:"verdict"`
	Calculated int    `json:"calculated"`
	Rejected   int    `json:"rejected"`
}

// StoredRunDTO is the historical view of a run: what the store keeps, which
// is the summary and findings rather than the full per-employee report.
type StoredRunDTO struct {
	ID         int64             `json:"id"`
	CreatedAt  string            `json:"created_at"`
	Competence string            `json:"competence"`
	Verdict    string            `json:"verdict"`
	Counts     CountsDTO         `json:"counts"`
	Findings   []FindingDTO      `json:"findings,omitempty"`
	Validation []FindingDTO      `json:"validation,omitempty"`
	Summary    *ReportSummaryDTO `json:"summary,omitempty"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Stage   string `json:"stage,omitempty"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// DOMAIN -> DTO CONVERSIONS
// =============================================================================

func toFindingDTOs(fs []benefit.Finding) []FindingDTO {
	if len(fs) == 0 {
		return nil
	}
	out := make([]FindingDTO, len(fs))
	for i, f := range fs {
		var ids []string
		for _, id := range f.Employees {
			ids = append(ids, string(id))
		}
		out[i] = FindingDTO{
			Severity:  string(f.Severity),
			Code:      f.Code,
			Employees: ids,
			Message:   f.Message,
		}
	}
	return out
}

func toExclusionDTOs(exs []benefit.Exclusion) []ExclusionDTO {
	if len(exs) == 0 {
		return nil
	}
	out := make([]ExclusionDTO, len(exs))
	for i, ex := range exs {
		out[i] = ExclusionDTO{ID: string(ex.Record.ID), Reason: string(ex.Reason)}
	}
	return out
}

func toReportDTO(r *benefit.Report) *ReportDTO {
	if r == nil {
		return nil
	}
	dto := &ReportDTO{Summary: toSummaryDTO(r.Summary)}
	for _, row := range r.Rows {
		dto.Rows = append(dto.Rows, ReportRowDTO{
			ID:            string(row.EmployeeID),
			Union:         string(row.Union),
			EligibleDays:  row.EligibleDays,
			Gross:         row.Gross.StringFixed(2),
			EmployerShare: row.EmployerShare.StringFixed(2),
			EmployeeShare: row.EmployeeShare.StringFixed(2),
		})
	}
	return dto
}

func toSummaryDTO(s benefit.ReportSummary) ReportSummaryDTO {
	dto := ReportSummaryDTO{
		Competence:         s.Competence,
		TotalEmployees:     s.TotalEmployees,
		TotalGross:         s.TotalGross.StringFixed(2),
		TotalEmployerShare: s.TotalEmployerShare.StringFixed(2),
		TotalEmployeeShare: s.TotalEmployeeShare.StringFixed(2),
	}
	for _, u := range s.ByUnion {
		dto.ByUnion = append(dto.ByUnion, UnionSummaryDTO{
			Union:     string(u.Union),
			Employees: u.Employees,
			Gross:     u.Gross.StringFixed(2),
		})
	}
	return dto
}

func toCountsDTO(c pipeline.StageCounts) CountsDTO {
	excluded := make(map[string]int, len(c.ExcludedByReason))
	for reason, n := range c.ExcludedByReason {
		excluded[string(reason)] = n
	}
	return CountsDTO{
		Consolidated:     c.Consolidated,
		ExcludedByReason: excluded,
		Eligible:         c.Eligible,
		Calculated:       c.Calculated,
		Rejected:         c.Rejected,
		Validated:        c.Validated,
	}
}

func toStoredRunDTO(rec *sqlite.RunRecord) StoredRunDTO {
	dto := StoredRunDTO{
		ID:         rec.ID,
		CreatedAt:  rec.CreatedAt.Format(time.RFC3339),
		Competence: rec.Competence,
		Verdict:    string(rec.Verdict),
		Counts:     toCountsDTO(rec.Counts),
		Findings:   toFindingDTOs(rec.Findings),
		Validation: toFindingDTOs(rec.Validation),
	}
	if rec.Summary != nil {
		s := toSummaryDTO(*rec.Summary)
		dto.Summary = &s
	}
	return dto
}

func toRunResponse(out *pipeline.RunOutput) RunResponse {
	return RunResponse{
		Competence: out.Period.Competence(),
		Verdict:    string(out.Validation.Verdict),
		Counts:     toCountsDTO(out.Counts),
		Findings:   toFindingDTOs(out.Findings),
		Validation: toFindingDTOs(out.Validation.Findings),
		Exclusions: toExclusionDTOs(out.Exclusions),
		Report:     toReportDTO(out.Report),
	}
}
