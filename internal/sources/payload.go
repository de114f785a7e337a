// Package sources fetches raw indicator payloads for a company from the
// public RSE data APIs. Each source is independent: an unreachable source is
// omitted from the result, never surfaced as an error.
package sources

// Source names as they appear in score records.
const (
	SourceInsee      = "insee"
	SourcePortailRSE = "portail_rse"
	SourceAdeme      = "ademe"
	SourceDataGouv   = "data_gouv"
)

// KnownSources lists every source type in presentation order. The data
// quality score is the fraction of these that responded.
var KnownSources = []string{SourceInsee, SourcePortailRSE, SourceAdeme, SourceDataGouv}

// BasicInfo is the company registry payload from the INSEE API.
// Optional fields are pointers; nil means the API did not report the fact.
type BasicInfo struct {
	LegalName         string `json:"denomination"`
	ActivityCode      string `json:"activite_principale"`
	EmployeeCount     *int   `json:"employee_count"`
	AccountsPublished *bool  `json:"publication_comptes"`
}

// RSEInfo is the declared-policy payload from the Portail RSE.
type RSEInfo struct {
	EqualityIndex        *float64 `json:"index_egalite"`
	ContinuingEducation  *bool    `json:"formation_continue"`
	DiversityPolicy      *bool    `json:"politique_diversite"`
	Certifications       []string `json:"certifications"`
	EthicsCode           *bool    `json:"code_ethique"`
	AntiCorruptionPolicy *bool    `json:"politique_anticorruption"`
}

// EnvironmentalInfo is the emissions payload from the ADEME API.
type EnvironmentalInfo struct {
	CarbonReport      *bool    `json:"bilan_carbone"`
	RenewablePct      *float64 `json:"energie_renouvelable"`
	CO2Emissions      *float64 `json:"co2_emissions"`
	EnergyConsumption *float64 `json:"energy_consumption"`
	WasteProduction   *float64 `json:"waste_production"`
}

// OpenDataInfo is the publication payload from data.gouv.fr. It carries no
// scoring signal today but counts toward data quality.
type OpenDataInfo struct {
	OrganizationID string   `json:"organization_id"`
	Datasets       []string `json:"datasets"`
}

// RawData is the per-company payload map handed to the score calculator.
// A nil section means the source was unreachable or returned no data.
type RawData struct {
	Basic         *BasicInfo         `json:"basic_info,omitempty"`
	RSE           *RSEInfo           `json:"rse_info,omitempty"`
	Environmental *EnvironmentalInfo `json:"environmental_info,omitempty"`
	OpenData      *OpenDataInfo      `json:"open_data_info,omitempty"`
}

// Sources returns the names of the sources that contributed, in KnownSources order.
func (r RawData) Sources() []string {
	var out []string
	for _, name := range KnownSources {
		if r.Has(name) {
			out = append(out, name)
		}
	}
	return out
}

// Has reports whether the named source contributed a payload.
func (r RawData) Has(name string) bool {
	switch name {
	case SourceInsee:
		return r.Basic != nil
	case SourcePortailRSE:
		return r.RSE != nil
	case SourceAdeme:
		return r.Environmental != nil
	case SourceDataGouv:
		return r.OpenData != nil
	default:
		return false
	}
}

// SourceCount returns how many known sources contributed.
func (r RawData) SourceCount() int {
	return len(r.Sources())
}

// Empty reports whether no source contributed at all.
func (r RawData) Empty() bool {
	return r.SourceCount() == 0
}
