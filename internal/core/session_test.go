package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source for SessionStore.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(ttl time.Duration, maxEntries int) (*SessionStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewSessionStore(ttl, maxEntries)
	s.now = clock.now
	return s, clock
}

func TestSessionStore_PutGet(t *testing.T) {
	s, _ := newTestStore(time.Minute, 10)
	file := UploadedFile{ID: NewFileID(), Name: "a.csv", Format: FormatCSV, Content: []byte("a\n1\n")}

	s.Put(file)
	got, err := s.Get(file.ID)
	require.NoError(t, err)
	assert.Equal(t, file, got)
	assert.Equal(t, 1, s.Len())
}

func TestSessionStore_UnknownID(t *testing.T) {
	s, _ := newTestStore(time.Minute, 10)

	_, err := s.Get(NewFileID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_SameNameDistinctIDs(t *testing.T) {
	s, _ := newTestStore(time.Minute, 10)
	first := UploadedFile{ID: NewFileID(), Name: "data.csv", Content: []byte("one")}
	second := UploadedFile{ID: NewFileID(), Name: "data.csv", Content: []byte("two")}

	s.Put(first)
	s.Put(second)

	a, err := s.Get(first.ID)
	require.NoError(t, err)
	b, err := s.Get(second.ID)
	require.NoError(t, err)
	assert.Equal(t, "one", string(a.Content))
	assert.Equal(t, "two", string(b.Content))
}

func TestSessionStore_Expiry(t *testing.T) {
	s, clock := newTestStore(time.Minute, 10)
	file := UploadedFile{ID: NewFileID(), Name: "a.csv"}
	s.Put(file)

	clock.advance(50 * time.Second)
	_, err := s.Get(file.ID)
	require.NoError(t, err, "access within ttl")

	// Access slides the expiry forward.
	clock.advance(50 * time.Second)
	_, err = s.Get(file.ID)
	require.NoError(t, err)

	clock.advance(61 * time.Second)
	_, err = s.Get(file.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestSessionStore_Sweep(t *testing.T) {
	s, clock := newTestStore(time.Minute, 10)
	old := UploadedFile{ID: NewFileID()}
	s.Put(old)

	clock.advance(45 * time.Second)
	fresh := UploadedFile{ID: NewFileID()}
	s.Put(fresh)

	clock.advance(30 * time.Second)
	assert.Equal(t, 1, s.Sweep())

	_, err := s.Get(fresh.ID)
	assert.NoError(t, err)
	_, err = s.Get(old.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_EvictsLeastRecentlyUsed(t *testing.T) {
	s, clock := newTestStore(time.Hour, 2)
	a := UploadedFile{ID: NewFileID()}
	b := UploadedFile{ID: NewFileID()}
	c := UploadedFile{ID: NewFileID()}

	s.Put(a)
	clock.advance(time.Second)
	s.Put(b)
	clock.advance(time.Second)
	_, _ = s.Get(a.ID)
	clock.advance(time.Second)
	s.Put(c)

	assert.Equal(t, 2, s.Len())
	_, err := s.Get(b.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = s.Get(a.ID)
	assert.NoError(t, err)
}

func TestSessionStore_Delete(t *testing.T) {
	s, _ := newTestStore(time.Minute, 10)
	file := UploadedFile{ID: NewFileID()}
	s.Put(file)

	assert.True(t, s.Delete(file.ID))
	assert.False(t, s.Delete(file.ID))
	_, err := s.Get(file.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_RunStopsOnCancel(t *testing.T) {
	s := NewSessionStore(time.Millisecond, 10)
	s.Put(UploadedFile{ID: NewFileID()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestParseFileID(t *testing.T) {
	id := NewFileID()
	got, err := ParseFileID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseFileID("../etc/passwd")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
