// Package model defines the core records shared across the scoring pipeline.
package model

import (
	"time"
)

// SizeClass buckets companies by workforce size.
type SizeClass string

const (
	SizeMicro  SizeClass = "micro"
	SizeSmall  SizeClass = "small"
	SizeMedium SizeClass = "medium"
	SizeLarge  SizeClass = "large"
)

// Label returns the French display label for a size class.
func (s SizeClass) Label() string {
	switch s {
	case SizeMicro:
		return "Micro-entreprise"
	case SizeSmall:
		return "Petite entreprise"
	case SizeMedium:
		return "Moyenne entreprise (ETI)"
	case SizeLarge:
		return "Grande entreprise"
	default:
		if s == "" {
			return "Non défini"
		}
		return string(s)
	}
}

// Valid reports whether the size class is one of the known buckets.
func (s SizeClass) Valid() bool {
	switch s {
	case SizeMicro, SizeSmall, SizeMedium, SizeLarge:
		return true
	}
	return false
}

// Company is a tracked company, keyed by its SIREN registration number.
type Company struct {
	ID          int64             `json:"id" db:"id"`
	SIREN       string            `json:"siren" db:"siren"`
	Name        string            `json:"name" db:"name"`
	Sector      string            `json:"sector,omitempty" db:"sector"`
	Size        SizeClass         `json:"size,omitempty" db:"size"`
	Country     string            `json:"country" db:"country"`
	Description string            `json:"description,omitempty" db:"description"`
	Website     string            `json:"website,omitempty" db:"website"`
	ContactInfo map[string]string `json:"contact_info,omitempty" db:"contact_info"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ScoredCompany joins a company with its current score. Rank is attached by
// the ranking layer, not persisted.
type ScoredCompany struct {
	Company Company `json:"company"`
	Score   Score   `json:"score"`
	Rank    int     `json:"rank,omitempty"`
}
