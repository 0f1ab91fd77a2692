package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/signalengine/internal/contracts"
)

func TestPostgres_SaveAndRecent(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" || testing.Short() {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	defer pool.Close()

	p := NewPostgres(pool, DefaultTTL)
	require.NoError(t, p.EnsureSchema(ctx))

	generated := time.Now().UTC().Truncate(time.Microsecond)
	symbol := "ZZTEST"
	t.Cleanup(func() {
		pool.Exec(context.Background(), `DELETE FROM signals WHERE symbol = $1`, symbol)
	})

	s := contracts.Signal{
		Symbol:      symbol,
		Date:        time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		Type:        contracts.SignalStrongBuy,
		Confidence:  87.46,
		EntryPrice:  123.456,
		Score:       72.5,
		Reasons:     []string{"Extremely oversold (RSI 18.2)"},
		Features:    contracts.FeatureVector{RSI: 18.2, VolumeRatio: 2.1},
		Profile:     "sentiment",
		GeneratedAt: generated,
	}.WithExecution(false)

	require.NoError(t, p.Save(ctx, s))

	recent, err := p.Recent(ctx, 50)
	require.NoError(t, err)

	var got *contracts.Signal
	for i := range recent {
		if recent[i].Symbol == symbol {
			got = &recent[i]
		}
	}
	require.NotNil(t, got)
	assert.Equal(t, 87.5, got.Confidence)
	assert.Equal(t, 123.46, got.EntryPrice)
	assert.Equal(t, contracts.SignalStrongBuy, got.Type)
	assert.Equal(t, s.Reasons, got.Reasons)
	assert.Equal(t, 18.2, got.Features.RSI)
	require.NotNil(t, got.Execution)
	assert.Equal(t, contracts.ExecutionQueued, got.Execution.Status)
	assert.True(t, got.GeneratedAt.Equal(generated))
}
