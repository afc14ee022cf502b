// Package config loads the engine configuration file.
//
// One YAML file per competence describes the union rate table, the source
// priority order, and the policy knobs. The pipeline itself never reads
// files; it receives the parsed configuration from here.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/voucher-engine/benefit"
	"github.com/warp/voucher-engine/pipeline"
)

// UnionConfig models one entry of the unions table.
type UnionConfig struct {
	DailyRate   string   `yaml:"daily_rate"`
	WorkingDays int      `yaml:"working_days"`
	Holidays    []string `yaml:"holidays,omitempty"` // YYYY-MM-DD
}

// PolicyConfig models the policy block.
type PolicyConfig struct {
	TerminationCutoffDay int      `yaml:"termination_cutoff_day"`
	EmployerShare        string   `yaml:"employer_share"`
	ProrateLeaveReturn   *bool    `yaml:"prorate_leave_return,omitempty"`
	IneligibleLeaves     []string `yaml:"ineligible_leaves,omitempty"`
}

// Config models the whole engine configuration file.
type Config struct {
	// Competence in YYYY-MM form; empty means the current month.
	Period string `yaml:"period,omitempty"`

	SourcePriority []string               `yaml:"source_priority,omitempty"`
	Policy         PolicyConfig           `yaml:"policy"`
	Unions         map[string]UnionConfig `yaml:"unions"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a configuration document, applies defaults, and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Default returns a configuration with baseline policy and no unions.
// Callers must still provide a rate table before running the pipeline.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Policy.TerminationCutoffDay == 0 {
		c.Policy.TerminationCutoffDay = 15
	}
	if strings.TrimSpace(c.Policy.EmployerShare) == "" {
		c.Policy.EmployerShare = "0.80"
	}
	if c.Policy.ProrateLeaveReturn == nil {
		t := true
		c.Policy.ProrateLeaveReturn = &t
	}
	if len(c.Policy.IneligibleLeaves) == 0 {
		c.Policy.IneligibleLeaves = pipeline.DefaultCleansePolicy().IneligibleLeaves
	}
	if len(c.SourcePriority) == 0 {
		c.SourcePriority = pipeline.DefaultPriority()
	}
}

func (c *Config) validate() error {
	if c.Policy.TerminationCutoffDay < 1 || c.Policy.TerminationCutoffDay > 28 {
		return fmt.Errorf("policy.termination_cutoff_day must be within 1..28, got %d", c.Policy.TerminationCutoffDay)
	}
	share, err := decimal.NewFromString(c.Policy.EmployerShare)
	if err != nil {
		return fmt.Errorf("policy.employer_share: %w", err)
	}
	if share.IsNegative() || share.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("policy.employer_share must be within [0, 1], got %s", share)
	}
	if c.Period != "" {
		if _, err := ParsePeriod(c.Period); err != nil {
			return err
		}
	}
	for name, u := range c.Unions {
		if _, err := decimal.NewFromString(u.DailyRate); err != nil {
			return fmt.Errorf("unions[%s].daily_rate: %w", name, err)
		}
		if u.WorkingDays <= 0 || u.WorkingDays > 31 {
			return fmt.Errorf("unions[%s].working_days must be within 1..31, got %d", name, u.WorkingDays)
		}
		for _, h := range u.Holidays {
			if _, err := benefit.ParseDate(h); err != nil {
				return fmt.Errorf("unions[%s].holidays: %w", name, err)
			}
		}
	}
	return nil
}

// RateTable builds the immutable reference table from the unions block.
func (c *Config) RateTable() benefit.RateTable {
	table := make(benefit.RateTable, len(c.Unions))
	for name, u := range c.Unions {
		rate := benefit.UnionRate{
			DailyRate:   benefit.MustMoney(u.DailyRate),
			WorkingDays: u.WorkingDays,
		}
		for _, h := range u.Holidays {
			d, err := benefit.ParseDate(h)
			if err != nil {
				continue // rejected by validate; unreachable after Parse
			}
			rate.Holidays = append(rate.Holidays, d)
		}
		table[benefit.UnionID(name)] = rate
	}
	return table
}

// CompetencePeriod resolves the configured period, defaulting to the current
// month when unset.
func (c *Config) CompetencePeriod() benefit.Period {
	if c.Period == "" {
		return benefit.CurrentPeriod()
	}
	p, err := ParsePeriod(c.Period)
	if err != nil {
		return benefit.CurrentPeriod()
	}
	return p
}

// Coordinator assembles a ready-to-run pipeline coordinator.
func (c *Config) Coordinator() *pipeline.Coordinator {
	return &pipeline.Coordinator{
		Rates:    c.RateTable(),
		Period:   c.CompetencePeriod(),
		Priority: pipeline.SourcePriority(c.SourcePriority),
		Cleanse:  pipeline.CleansePolicy{IneligibleLeaves: c.Policy.IneligibleLeaves},
		Calc: pipeline.CalcPolicy{
			TerminationCutoffDay: c.Policy.TerminationCutoffDay,
			EmployerShare:        benefit.MustMoney(c.Policy.EmployerShare),
			ProrateLeaveReturn:   *c.Policy.ProrateLeaveReturn,
		},
	}
}

// ParsePeriod parses a YYYY-MM competence label.
func ParsePeriod(s string) (benefit.Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return benefit.Period{}, fmt.Errorf("period must be YYYY-MM: %w", err)
	}
	return benefit.NewPeriod(t.Year(), t.Month()), nil
}
