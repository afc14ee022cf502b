/*
scenarios.go - Built-in demo source set

PURPOSE:
  A self-contained competence worth of source data that exercises every rule
  in one run: full-month staff, a mid-month admission, a cutoff-day and a
  post-cutoff termination, an intern, an overseas assignee, a maternity
  leave, and a vacation. Useful for manual testing and frontend development
  without real payroll exports.

USAGE:
  GET  /api/scenarios/demo  to inspect the payload
  POST /api/scenarios/demo  to run it through the pipeline
*/
package api

// DemoRequest returns the built-in demo source set for May 2025.
func DemoRequest() RunRequest {
	return RunRequest{
		Period: "2025-05",
		Sources: SourcesPayload{
			Active: []ActiveRowDTO{
				{ID: "U100", Union: "SINDPD SP", Situation: "Trabalhando"},
				{ID: "U101", Union: "SINDPD SP", Situation: "Trabalhando"},
				{ID: "U200", Union: "SINDPD RJ", Situation: "Trabalhando"},
				{ID: "U300", Union: "SITEPD PR", Situation: "Trabalhando"},
				{ID: "U301", Union: "SITEPD PR", Role: "DIRETOR", Situation: "Trabalhando"},
				{ID: "U400", Union: "SINDPPD RS", Situation: "Trabalhando"},
				{ID: "U401", Union: "SINDPPD RS", Situation: "Trabalhando"},
				{ID: "U402", Union: "SINDPD SP", Situation: "Trabalhando"},
				{ID: "U403", Union: "SINDPD SP", Situation: "Trabalhando"},
			},
			Admissions: []AdmissionRowDTO{
				{ID: "U500", Date: "2025-05-19", Union: "SINDPD SP", Role: "ANALISTA"},
			},
			Terminations: []TerminationRowDTO{
				{ID: "U101", Date: "2025-05-15", Notice: "OK"},
				{ID: "U200", Date: "2025-05-23", Notice: "OK"},
			},
			Vacations: []VacationRowDTO{
				{ID: "U402", Days: 30},
			},
			Leaves: []LeaveRowDTO{
				{ID: "U403", Category: "Licença Maternidade"},
			},
			Overseas:    []string{"U400"},
			Interns:     []string{"U401"},
			Apprentices: nil,
		},
	}
}

// DemoConfigYAML is a matching rate table for the demo source set. The server
// falls back to it when started without a configuration file.
const DemoConfigYAML = `
period: "2025-05"
policy:
  termination_cutoff_day: 15
  employer_share: "0.80"
unions:
  "São Paulo":
    daily_rate: "37.50"
    working_days: 22
  "Rio de Janeiro":
    daily_rate: "35.00"
    working_days: 21
  "Paraná":
    daily_rate: "35.00"
    working_days: 22
  "Rio Grande do Sul":
    daily_rate: "35.00"
    working_days: 21
`
