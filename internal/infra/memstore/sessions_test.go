package memstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type demoSession struct{ Step string }

func TestSessionsPutGetUpdate(t *testing.T) {
	s := NewSessions[demoSession](time.Minute, nil)
	key := SessionKey("g", "u")
	assert.Equal(t, "g-u", key)

	s.Put(key, demoSession{Step: "intro"})
	ok := s.Update(key, func(d *demoSession) { d.Step = "roles" })
	require.True(t, ok)

	got, ok := s.Get(key)
	require.True(t, ok)
	assert.Equal(t, "roles", got.Step)

	s.Delete(key)
	_, ok = s.Get(key)
	assert.False(t, ok)
	assert.False(t, s.Update(key, func(*demoSession) {}))
}

func TestSessionsExpire(t *testing.T) {
	evicted := make(chan string, 1)
	s := NewSessions[demoSession](20*time.Millisecond, func(k string) { evicted <- k })
	s.Put("g-u", demoSession{})

	select {
	case k := <-evicted:
		assert.Equal(t, "g-u", k)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not expire")
	}
	assert.Equal(t, 0, s.Len())
}
