package optimizer

import "time"

// Config bounds a single optimization run and the decision gates applied
// to each candidate.
type Config struct {
	Interval            time.Duration `yaml:"interval"`
	BatchSize           int           `yaml:"batch_size"`
	MinLeadDays         int           `yaml:"min_lead_days"`
	MaxLeadDays         int           `yaml:"max_lead_days"`
	StaleAfterHours     int           `yaml:"stale_after_hours"`
	MinChangePct        float64       `yaml:"min_change_pct"`
	AutoApplyConfidence float64       `yaml:"auto_apply_confidence"`
	AutoApplyMinLead    int           `yaml:"auto_apply_min_lead"`
	MaxIncreasePct      float64       `yaml:"max_increase_pct"`
	ABTestProbability   float64       `yaml:"ab_test_probability"`
	ItemPacing          time.Duration `yaml:"item_pacing"`
}

// DefaultConfig returns the production defaults
func DefaultConfig() Config {
	return Config{
		Interval:            2 * time.Hour,
		BatchSize:           50,
		MinLeadDays:         3,
		MaxLeadDays:         90,
		StaleAfterHours:     6,
		MinChangePct:        0.05,
		AutoApplyConfidence: 0.80,
		AutoApplyMinLead:    5,
		MaxIncreasePct:      0.15,
		ABTestProbability:   0.20,
		ItemPacing:          200 * time.Millisecond,
	}
}
