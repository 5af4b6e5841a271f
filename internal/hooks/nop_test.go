package hooks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/pactl/types"
)

func TestNewNop(t *testing.T) {
	hooks := NewNop()
	ctx := context.Background()

	require.NotNil(t, hooks.OnFormulaEvaluated)
	require.NotNil(t, hooks.OnError)
	require.NoError(t, hooks.OnFormulaEvaluated(ctx, `EF("p")`, time.Second))
	require.NoError(t, hooks.OnError(ctx, errors.New("boom")))
}

func TestComplete(t *testing.T) {
	t.Run("nil hooks", func(t *testing.T) {
		h := Complete(nil)
		require.NotNil(t, h.OnFormulaEvaluated)
		require.NotNil(t, h.OnError)
	})

	t.Run("keeps provided callbacks", func(t *testing.T) {
		var keys []string
		h := Complete(&types.Hooks{
			OnFormulaEvaluated: func(_ context.Context, key string, _ time.Duration) error {
				keys = append(keys, key)
				return nil
			},
		})

		require.NoError(t, h.OnFormulaEvaluated(context.Background(), "true", 0))
		require.NoError(t, h.OnError(context.Background(), errors.New("ignored")))
		require.Equal(t, []string{"true"}, keys)
	})
}
