// Package query filters, sorts and paginates scored companies for the CLI
// and the HTTP API. It operates on an in-memory snapshot; rank must be
// attached from the full population before any filtering happens, so a
// filtered page still shows global ranks.
package query

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/impactscore/rse-cli/internal/model"
)

// PageSize is the default number of companies per page.
const PageSize = 20

// Sort field names accepted by Options.SortBy.
const (
	SortByName   = "name"
	SortBySector = "sector"
	SortByGlobal = "global_score"
	SortByRating = "rating_letter"
	SortByRank   = "rank"
)

// Options narrows and orders the scored population. Zero values mean "no
// constraint"; unknown SortBy or Order values fall back to the default
// (global score, descending).
type Options struct {
	// Search matches case-insensitively against company name or SIREN.
	Search string
	// Sector is an exact match.
	Sector string
	// MinScore / MaxScore bound the global score (inclusive). Nil = unbounded.
	MinScore *float64
	MaxScore *float64

	SortBy string
	Order  string // "asc" or "desc"

	// Page is 1-based. Values below 1 are treated as 1.
	Page int
	// PerPage overrides PageSize when positive.
	PerPage int
}

// Page is one page of results plus pagination metadata.
type Page struct {
	Companies  []model.ScoredCompany `json:"companies"`
	Total      int                   `json:"total"`
	Page       int                   `json:"page"`
	PerPage    int                   `json:"per_page"`
	TotalPages int                   `json:"total_pages"`
}

// Run filters, sorts and paginates in that order. The input slice is not
// modified.
func Run(scored []model.ScoredCompany, opts Options) Page {
	matched := filter(scored, opts)
	sortCompanies(matched, opts.SortBy, opts.Order)
	return paginate(matched, opts.Page, opts.PerPage)
}

func filter(scored []model.ScoredCompany, opts Options) []model.ScoredCompany {
	search := strings.ToLower(strings.TrimSpace(opts.Search))

	out := make([]model.ScoredCompany, 0, len(scored))
	for _, sc := range scored {
		if search != "" &&
			!strings.Contains(strings.ToLower(sc.Company.Name), search) &&
			!strings.Contains(sc.Company.SIREN, search) {
			continue
		}
		if opts.Sector != "" && sc.Company.Sector != opts.Sector {
			continue
		}
		if opts.MinScore != nil && sc.Score.GlobalScore < *opts.MinScore {
			continue
		}
		if opts.MaxScore != nil && sc.Score.GlobalScore > *opts.MaxScore {
			continue
		}
		out = append(out, sc)
	}
	return out
}

// ratingWeight orders rating letters from best to worst for sorting.
var ratingWeight = map[model.Rating]int{
	model.RatingAPlus: 0,
	model.RatingA:     1,
	model.RatingB:     2,
	model.RatingC:     3,
	model.RatingD:     4,
	model.RatingE:     5,
}

func sortCompanies(scored []model.ScoredCompany, field, order string) {
	asc := order == "asc"
	if order != "asc" && order != "desc" {
		// default direction depends on the field: scores, ratings and ranks
		// read best-first, names read alphabetically. Best rating has the
		// lowest weight, so rating ascends like rank does.
		asc = field == SortByName || field == SortBySector || field == SortByRank || field == SortByRating
	}

	var less func(a, b model.ScoredCompany) bool
	switch field {
	case SortByName:
		coll := collate.New(language.French, collate.IgnoreCase)
		less = func(a, b model.ScoredCompany) bool {
			return coll.CompareString(a.Company.Name, b.Company.Name) < 0
		}
	case SortBySector:
		coll := collate.New(language.French, collate.IgnoreCase)
		less = func(a, b model.ScoredCompany) bool {
			return coll.CompareString(a.Company.Sector, b.Company.Sector) < 0
		}
	case SortByRating:
		less = func(a, b model.ScoredCompany) bool {
			return ratingWeight[a.Score.RatingLetter] < ratingWeight[b.Score.RatingLetter]
		}
	case SortByRank:
		less = func(a, b model.ScoredCompany) bool {
			return a.Rank < b.Rank
		}
	case SortByGlobal:
		less = func(a, b model.ScoredCompany) bool {
			return a.Score.GlobalScore < b.Score.GlobalScore
		}
	default:
		// unknown field: global score, best first
		asc = order == "asc"
		less = func(a, b model.ScoredCompany) bool {
			return a.Score.GlobalScore < b.Score.GlobalScore
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if asc {
			return less(scored[i], scored[j])
		}
		return less(scored[j], scored[i])
	})
}

func paginate(scored []model.ScoredCompany, page, perPage int) Page {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = PageSize
	}
	total := len(scored)
	totalPages := (total + perPage - 1) / perPage

	start := (page - 1) * perPage
	if start >= total {
		return Page{
			Companies:  []model.ScoredCompany{},
			Total:      total,
			Page:       page,
			PerPage:    perPage,
			TotalPages: totalPages,
		}
	}
	end := start + perPage
	if end > total {
		end = total
	}

	return Page{
		Companies:  scored[start:end],
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	}
}

// Similar returns up to limit companies from the same sector, excluding the
// company itself, ordered by global score descending.
func Similar(scored []model.ScoredCompany, of model.Company, limit int) []model.ScoredCompany {
	var out []model.ScoredCompany
	for _, sc := range scored {
		if sc.Company.ID == of.ID {
			continue
		}
		if sc.Company.Sector != of.Sector {
			continue
		}
		out = append(out, sc)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score.GlobalScore > out[j].Score.GlobalScore
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
