package healthcheck

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAllHealthy(t *testing.T) {
	registry := NewRegistry(0,
		CheckFunc{CheckName: "postgres", Fn: func(ctx context.Context) error { return nil }},
		CheckFunc{CheckName: "redis", Fn: func(ctx context.Context) error { return nil }},
	)

	results, healthy := registry.Run(context.Background())

	assert.True(t, healthy)
	require.Len(t, results, 2)
	assert.Equal(t, "postgres", results[0].Name)
	assert.Equal(t, StatusOK, results[0].Status)
	assert.Empty(t, results[0].Detail)
}

func TestRunReportsFailure(t *testing.T) {
	registry := NewRegistry(0,
		CheckFunc{CheckName: "postgres", Fn: func(ctx context.Context) error { return nil }},
		CheckFunc{CheckName: "redis", Fn: func(ctx context.Context) error { return errors.New("connection refused") }},
	)

	results, healthy := registry.Run(context.Background())

	assert.False(t, healthy)
	require.Len(t, results, 2)
	assert.Equal(t, StatusError, results[1].Status)
	assert.Equal(t, "connection refused", results[1].Detail)
}

func TestRunSkipsNilCheckers(t *testing.T) {
	registry := NewRegistry(0, nil,
		CheckFunc{CheckName: "redis", Fn: func(ctx context.Context) error { return nil }},
	)

	results, healthy := registry.Run(context.Background())

	assert.True(t, healthy)
	require.Len(t, results, 1)
}

func TestRunBoundsProbeTime(t *testing.T) {
	registry := NewRegistry(1,
		CheckFunc{CheckName: "slow", Fn: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}},
	)

	results, healthy := registry.Run(context.Background())

	assert.False(t, healthy)
	require.Len(t, results, 1)
	assert.Equal(t, StatusError, results[0].Status)
}
