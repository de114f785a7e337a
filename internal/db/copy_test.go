package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFromEmptyRows(t *testing.T) {
	n, err := CopyFrom(context.Background(), nil, "companies", []string{"siren"}, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCopyFrom(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"companies"}, []string{"siren", "name"}).
		WillReturnResult(2)

	rows := [][]any{
		{"552032534", "TotalEnergies"},
		{"552081317", "Danone"},
	}
	n, err := CopyFrom(context.Background(), mock, "companies", []string{"siren", "name"}, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
