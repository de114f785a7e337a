package config

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadScoringRules reads a YAML scoring-rules file and overlays any value
// present in it onto base. Missing keys keep the base value, so a rules file
// can override a single bonus without restating the whole table.
func LoadScoringRules(path string, base ScoringConfig) (ScoringConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, eris.Wrapf(err, "config: read rules file %s", path)
	}

	// The YAML has a top-level "scoring" key.
	var wrapper struct {
		Scoring map[string]float64 `yaml:"scoring"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return base, eris.Wrap(err, "config: parse rules file")
	}

	out := base
	for key, val := range wrapper.Scoring {
		switch key {
		case "base_score":
			out.BaseScore = val
		case "max_score":
			out.MaxScore = val
		case "carbon_report_bonus":
			out.CarbonReportBonus = val
		case "iso14001_bonus":
			out.ISO14001Bonus = val
		case "renewable_bonus":
			out.RenewableBonus = val
		case "renewable_threshold_pct":
			out.RenewableThresholdPc = val
		case "equality_index_bonus":
			out.EqualityIndexBonus = val
		case "equality_index_threshold":
			out.EqualityIndexThreshold = val
		case "training_bonus":
			out.TrainingBonus = val
		case "diversity_bonus":
			out.DiversityBonus = val
		case "accounts_publication_bonus":
			out.AccountsPublicationBonus = val
		case "certification_bonus":
			out.CertificationBonus = val
		case "ethics_code_bonus":
			out.EthicsCodeBonus = val
		case "anti_corruption_bonus":
			out.AntiCorruptionBonus = val
		default:
			return base, eris.Errorf("config: unknown scoring rule %q", key)
		}
	}

	return out, nil
}
