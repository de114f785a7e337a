package model

import (
	"time"
)

// Rating is a letter grade derived from the global score.
type Rating string

const (
	RatingAPlus Rating = "A+"
	RatingA     Rating = "A"
	RatingB     Rating = "B"
	RatingC     Rating = "C"
	RatingD     Rating = "D"
	RatingE     Rating = "E"
)

// Color returns a UI colour hint for the rating, used by the API layer.
func (r Rating) Color() string {
	switch r {
	case RatingAPlus:
		return "text-green-600"
	case RatingA:
		return "text-green-500"
	case RatingB:
		return "text-yellow-500"
	case RatingC:
		return "text-orange-500"
	case RatingD:
		return "text-red-500"
	case RatingE:
		return "text-red-600"
	default:
		return "text-gray-500"
	}
}

// Metrics is the fixed-shape projection of named facts pulled from raw
// source payloads. Absent facts stay nil.
type Metrics struct {
	CO2Emissions        *float64 `json:"co2_emissions"`
	EnergyConsumption   *float64 `json:"energy_consumption"`
	WasteProduction     *float64 `json:"waste_production"`
	EmployeeCount       *int     `json:"employee_count"`
	GenderEqualityIndex *float64 `json:"gender_equality_index"`
	Certifications      []string `json:"certifications"`
}

// Score is one scoring record for a company. A category score is nil when no
// contributing data existed for it. GlobalScore is always present and derived
// from the non-nil categories.
type Score struct {
	ID        string `json:"id" db:"id"`
	CompanyID int64  `json:"company_id" db:"company_id"`

	Environmental *float64 `json:"environmental_score" db:"environmental_score"`
	Social        *float64 `json:"social_score" db:"social_score"`
	Governance    *float64 `json:"governance_score" db:"governance_score"`
	Ethics        *float64 `json:"ethics_score" db:"ethics_score"`

	GlobalScore  float64 `json:"global_score" db:"global_score"`
	RatingLetter Rating  `json:"rating_letter" db:"rating_letter"`

	Metrics      Metrics   `json:"detailed_metrics" db:"detailed_metrics"`
	DataSources  []string  `json:"data_sources" db:"data_sources"`
	LastUpdated  time.Time `json:"last_updated" db:"last_updated"`
	QualityScore int       `json:"data_quality_score" db:"data_quality_score"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CategoryScores returns the four category scores keyed by display name.
func (s *Score) CategoryScores() map[string]*float64 {
	return map[string]*float64{
		"Environnement": s.Environmental,
		"Social":        s.Social,
		"Gouvernance":   s.Governance,
		"Éthique":       s.Ethics,
	}
}
