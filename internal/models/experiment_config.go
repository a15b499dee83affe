package models

// ExperimentConfig controls which model variant serves each request.
//
// single: primary always serves. ab: a stable percentage of requests is
// routed to secondary by request ID. shadow: primary serves while the
// shadow targets run fire-and-forget for comparison logging.
type ExperimentConfig struct {
	Mode           ExperimentMode `yaml:"mode" json:"mode"`
	PrimaryModel   string         `yaml:"primary_model" json:"primary_model"`
	SecondaryModel string         `yaml:"secondary_model,omitempty" json:"secondary_model,omitzero"`
	TertiaryModel  string         `yaml:"tertiary_model,omitempty" json:"tertiary_model,omitzero"`
	ABSplitPct     int            `yaml:"ab_split_pct,omitempty" json:"ab_split_pct,omitzero"`
	ShadowTargets  []string       `yaml:"shadow_targets,omitempty" json:"shadow_targets,omitzero"`

	// ShadowBudgetCounted debits shadow generations against the daily
	// budget when true. Default false: shadow spend is observational.
	ShadowBudgetCounted bool `yaml:"shadow_budget_counted,omitempty" json:"shadow_budget_counted,omitzero"`
}

// ActiveModels returns every model the current mode can invoke.
func (c ExperimentConfig) ActiveModels() []string {
	active := []string{c.PrimaryModel}
	switch c.Mode {
	case ExperimentAB:
		if c.SecondaryModel != "" {
			active = append(active, c.SecondaryModel)
		}
	case ExperimentShadow:
		active = append(active, c.ShadowTargets...)
	}
	return active
}
