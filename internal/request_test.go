package internal_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/uggedal/gitoff/internal"
)

func TestRequestID(t *testing.T) {
	t.Run("GenerateRequestID", func(t *testing.T) {
		t.Run("generates unique identifiers", func(t *testing.T) {
			ids := make(map[internal.RequestID]struct{})
			for i := 0; i < 1000; i++ {
				ids[internal.GenerateRequestID()] = struct{}{}
			}

			require.Len(t, ids, 1000)
		})

		t.Run("generates valid UUIDs", func(t *testing.T) {
			id := internal.GenerateRequestID()

			_, err := uuid.Parse(id.String())
			require.NoError(t, err)
		})
	})

	t.Run("Short", func(t *testing.T) {
		require.Equal(t, "01234567", internal.RequestID("0123456789abcdef").Short())
		require.Equal(t, "abc", internal.RequestID("abc").Short())
	})
}
