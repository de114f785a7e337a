package main

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impactscore/rse-cli/internal/model"
)

func sampleScored() []model.ScoredCompany {
	env := 85.0
	return []model.ScoredCompany{
		{
			Company: model.Company{SIREN: "552120222", Name: "Danone", Sector: "Agroalimentaire"},
			Score: model.Score{
				GlobalScore:   83.25,
				RatingLetter:  model.RatingA,
				Environmental: &env,
				QualityScore:  75,
			},
			Rank: 1,
		},
	}
}

func TestWriteRankedTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRankedTable(&buf, sampleScored()))

	out := buf.String()
	assert.Contains(t, out, "RANK")
	assert.Contains(t, out, "Danone")
	assert.Contains(t, out, "83.25")
	assert.Contains(t, out, "A")
	assert.Contains(t, out, "-") // nil categories render as dashes
}

func TestWriteRankedCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRankedCSV(&buf, sampleScored()))

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "rank", records[0][0])
	assert.Equal(t, []string{"1", "552120222", "Danone", "Agroalimentaire", "83.25", "A", "85.00", "-", "-", "-", "75"}, records[1])
}

func TestWriteRankedUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := writeRanked(&buf, "yaml", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}
