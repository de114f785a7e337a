// Package scoring derives category scores, the global score, and the letter
// rating from raw indicator payloads.
package scoring

import (
	"math"

	"github.com/impactscore/rse-cli/internal/config"
	"github.com/impactscore/rse-cli/internal/model"
	"github.com/impactscore/rse-cli/internal/sources"
)

// ISO14001 is the environmental-management certification that earns the
// environmental certification bonus.
const ISO14001 = "ISO 14001"

// Result is the outcome of scoring one company's raw data. Category scores
// are nil when no contributing source responded for that category.
type Result struct {
	Environmental *float64 `json:"environmental_score"`
	Social        *float64 `json:"social_score"`
	Governance    *float64 `json:"governance_score"`
	Ethics        *float64 `json:"ethics_score"`

	GlobalScore  float64       `json:"global_score"`
	RatingLetter model.Rating  `json:"rating_letter"`
	Metrics      model.Metrics `json:"detailed_metrics"`
	DataSources  []string      `json:"data_sources"`
	QualityScore int           `json:"data_quality_score"`
}

// Calculate scores a company from its raw source payloads. It never fails:
// missing data suppresses bonuses or leaves categories unscored, and an
// entirely empty payload yields a zero global score.
func Calculate(raw sources.RawData, rules config.ScoringConfig) Result {
	r := Result{
		Environmental: environmentalScore(raw, rules),
		Social:        socialScore(raw, rules),
		Governance:    governanceScore(raw, rules),
		Ethics:        ethicsScore(raw, rules),
		Metrics:       extractMetrics(raw),
		DataSources:   raw.Sources(),
		QualityScore:  qualityScore(raw),
	}

	r.GlobalScore = GlobalScore(r.Environmental, r.Social, r.Governance, r.Ethics)
	r.RatingLetter = Rate(r.GlobalScore)
	return r
}

// GlobalScore is the mean of the non-nil category scores, rounded to two
// decimals; zero when every category is nil.
func GlobalScore(categories ...*float64) float64 {
	var sum float64
	var n int
	for _, c := range categories {
		if c != nil {
			sum += *c
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return round2(sum / float64(n))
}

// environmentalScore draws on ADEME carbon data and Portail RSE certifications.
func environmentalScore(raw sources.RawData, rules config.ScoringConfig) *float64 {
	if raw.Environmental == nil && raw.RSE == nil {
		return nil
	}

	score := rules.BaseScore
	if raw.Environmental != nil {
		if raw.Environmental.CarbonReport != nil {
			score += rules.CarbonReportBonus
		}
		if raw.Environmental.RenewablePct != nil && *raw.Environmental.RenewablePct > rules.RenewableThresholdPc {
			score += rules.RenewableBonus
		}
	}
	if raw.RSE != nil && hasCertification(raw.RSE.Certifications, ISO14001) {
		score += rules.ISO14001Bonus
	}

	return clamp(score, rules.MaxScore)
}

// socialScore draws on Portail RSE workplace declarations.
func socialScore(raw sources.RawData, rules config.ScoringConfig) *float64 {
	if raw.RSE == nil {
		return nil
	}

	score := rules.BaseScore
	if raw.RSE.EqualityIndex != nil && *raw.RSE.EqualityIndex > rules.EqualityIndexThreshold {
		score += rules.EqualityIndexBonus
	}
	if raw.RSE.ContinuingEducation != nil && *raw.RSE.ContinuingEducation {
		score += rules.TrainingBonus
	}
	if raw.RSE.DiversityPolicy != nil {
		score += rules.DiversityBonus
	}

	return clamp(score, rules.MaxScore)
}

// governanceScore draws on INSEE filings and Portail RSE certifications.
func governanceScore(raw sources.RawData, rules config.ScoringConfig) *float64 {
	if raw.Basic == nil && raw.RSE == nil {
		return nil
	}

	score := rules.BaseScore
	if raw.Basic != nil && raw.Basic.AccountsPublished != nil && *raw.Basic.AccountsPublished {
		score += rules.AccountsPublicationBonus
	}
	if raw.RSE != nil && len(raw.RSE.Certifications) > 0 {
		score += rules.CertificationBonus
	}

	return clamp(score, rules.MaxScore)
}

// ethicsScore draws on Portail RSE policy declarations.
func ethicsScore(raw sources.RawData, rules config.ScoringConfig) *float64 {
	if raw.RSE == nil {
		return nil
	}

	score := rules.BaseScore
	if raw.RSE.EthicsCode != nil && *raw.RSE.EthicsCode {
		score += rules.EthicsCodeBonus
	}
	if raw.RSE.AntiCorruptionPolicy != nil {
		score += rules.AntiCorruptionBonus
	}

	return clamp(score, rules.MaxScore)
}

// extractMetrics projects named facts out of the raw payloads. This is a
// projection, not a computation: absent facts stay nil.
func extractMetrics(raw sources.RawData) model.Metrics {
	m := model.Metrics{Certifications: []string{}}

	if raw.Environmental != nil {
		m.CO2Emissions = raw.Environmental.CO2Emissions
		m.EnergyConsumption = raw.Environmental.EnergyConsumption
		m.WasteProduction = raw.Environmental.WasteProduction
	}
	if raw.Basic != nil {
		m.EmployeeCount = raw.Basic.EmployeeCount
	}
	if raw.RSE != nil {
		m.GenderEqualityIndex = raw.RSE.EqualityIndex
		if raw.RSE.Certifications != nil {
			m.Certifications = raw.RSE.Certifications
		}
	}

	return m
}

// qualityScore is the percentage of known sources that contributed.
func qualityScore(raw sources.RawData) int {
	return int(math.Round(float64(raw.SourceCount()) / float64(len(sources.KnownSources)) * 100))
}

func hasCertification(certs []string, want string) bool {
	for _, c := range certs {
		if c == want {
			return true
		}
	}
	return false
}

func clamp(score, max float64) *float64 {
	if score > max {
		score = max
	}
	return &score
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
