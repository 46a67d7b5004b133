package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendHistory(t *testing.T) {
	t.Run("preserves order and roles", func(t *testing.T) {
		st, _ := newTestStore()

		st.AppendHistory("p1", "b1", RoleUser, "hi")
		st.AppendHistory("p1", "b1", RoleAssistant, "hello, how can I help?")

		msgs := st.History("p1", "b1")
		require.Len(t, msgs, 2)
		assert.Equal(t, RoleUser, msgs[0].Role)
		assert.Equal(t, "hi", msgs[0].Content)
		assert.Equal(t, RoleAssistant, msgs[1].Role)
	})

	t.Run("caps length with FIFO eviction", func(t *testing.T) {
		st, now := newTestStore()

		for i := 1; i <= 25; i++ {
			role := RoleUser
			if i%2 == 0 {
				role = RoleAssistant
			}
			st.AppendHistory("p1", "b1", role, fmt.Sprintf("message %d", i))
			*now = now.Add(time.Second)
		}

		msgs := st.History("p1", "b1")
		require.Len(t, msgs, 20)
		// Entries 1-5 evicted; the buffer starts at the 6th append.
		assert.Equal(t, "message 6", msgs[0].Content)
		assert.Equal(t, "message 25", msgs[19].Content)
	})

	t.Run("timestamps are monotonically non-decreasing", func(t *testing.T) {
		st, now := newTestStore()

		for i := 0; i < 30; i++ {
			st.AppendHistory("p1", "b1", RoleUser, "m")
			*now = now.Add(time.Millisecond)
		}

		msgs := st.History("p1", "b1")
		for i := 1; i < len(msgs); i++ {
			assert.False(t, msgs[i].Timestamp.Before(msgs[i-1].Timestamp))
		}
	})

	t.Run("histories are isolated per business", func(t *testing.T) {
		st, _ := newTestStore()

		st.AppendHistory("p1", "b1", RoleUser, "for b1")
		st.AppendHistory("p1", "b2", RoleUser, "for b2")

		msgs := st.History("p1", "b1")
		require.Len(t, msgs, 1)
		assert.Equal(t, "for b1", msgs[0].Content)
	})

	t.Run("respects a custom cap", func(t *testing.T) {
		st := NewStore(30*time.Minute, 5, "ZMW")

		for i := 1; i <= 8; i++ {
			st.AppendHistory("p1", "b1", RoleUser, fmt.Sprintf("m%d", i))
		}

		msgs := st.History("p1", "b1")
		require.Len(t, msgs, 5)
		assert.Equal(t, "m4", msgs[0].Content)
	})
}
