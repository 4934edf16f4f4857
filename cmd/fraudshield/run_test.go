package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NgigiN/fraudshield/internal/config"
	"github.com/NgigiN/fraudshield/internal/ledger"
	"github.com/NgigiN/fraudshield/internal/storage"
)

func TestReadOnlyCommandsNeedNoPredictor(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{LedgerBackend: config.BackendMemory, LedgerKey: ledger.DefaultKey}
	kv := storage.NewMemory()

	for _, cmd := range []string{"history", "track", "summary", "clear"} {
		t.Run(cmd, func(t *testing.T) {
			a, err := newApp(cfg, kv, cmd)
			require.NoError(t, err)
			assert.Nil(t, a.client)
			assert.Nil(t, a.analyzer)
		})
	}

	a, err := newApp(cfg, kv, "summary")
	require.NoError(t, err)
	var buf bytes.Buffer
	a.out = &buf
	require.NoError(t, a.runView(ctx, renderSummary))
	assert.Contains(t, buf.String(), "Transactions analyzed: 0")
}

func TestScoringCommandsRequirePredictor(t *testing.T) {
	cfg := &config.Config{LedgerBackend: config.BackendMemory, LedgerKey: ledger.DefaultKey}
	kv := storage.NewMemory()

	for _, cmd := range []string{"bot", "analyze"} {
		t.Run(cmd, func(t *testing.T) {
			_, err := newApp(cfg, kv, cmd)
			assert.ErrorIs(t, err, config.ErrInvalidConfig)

			err = run(context.Background(), cfg, cmd, nil)
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}

	cfg.PredictBaseURL = "http://localhost:8000"
	a, err := newApp(cfg, kv, "analyze")
	require.NoError(t, err)
	assert.NotNil(t, a.analyzer)
}
