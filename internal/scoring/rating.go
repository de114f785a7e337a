package scoring

import (
	"github.com/impactscore/rse-cli/internal/model"
)

// Rate maps a global score to a letter grade. Thresholds are inclusive lower
// bounds, highest first.
func Rate(globalScore float64) model.Rating {
	switch {
	case globalScore >= 90:
		return model.RatingAPlus
	case globalScore >= 80:
		return model.RatingA
	case globalScore >= 70:
		return model.RatingB
	case globalScore >= 60:
		return model.RatingC
	case globalScore >= 50:
		return model.RatingD
	default:
		return model.RatingE
	}
}
