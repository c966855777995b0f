package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *RejectStore {
	t.Helper()
	s, err := OpenRejectStore("", &pebble.Options{FS: vfs.NewMem()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRejectStore_PutGet(t *testing.T) {
	s := newTestStore(t)

	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	id, err := s.Put(Reject{
		Source:     "payments.txt",
		Layout:     "payment",
		LineNumber: 12,
		Text:       "PAY0004x",
		Reason:     "line 12: truncated line",
		RejectedAt: at,
	})
	require.NoError(t, err)
	assert.NotEqual(t, ksuid.Nil, id)
	assert.True(t, id.Time().Equal(at))

	r, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, id, r.ID)
	assert.Equal(t, "payments.txt", r.Source)
	assert.Equal(t, "payment", r.Layout)
	assert.Equal(t, 12, r.LineNumber)
	assert.Equal(t, "PAY0004x", r.Text)
	assert.True(t, r.RejectedAt.Equal(at))
}

func TestRejectStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(ksuid.New())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRejectStore_ListOrderAndLimit(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := s.Put(Reject{LineNumber: 5 - i, RejectedAt: base.Add(time.Duration(5-i) * time.Minute)})
		require.NoError(t, err)
	}

	all, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, r := range all {
		assert.Equal(t, i+1, r.LineNumber)
	}

	some, err := s.List(2)
	require.NoError(t, err)
	assert.Len(t, some, 2)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestRejectStore_DeleteAndPurge(t *testing.T) {
	s := newTestStore(t)

	first, err := s.Put(Reject{Text: "a"})
	require.NoError(t, err)
	_, err = s.Put(Reject{Text: "b"})
	require.NoError(t, err)
	_, err = s.Put(Reject{Text: "c"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(first))
	_, err = s.Get(first)
	assert.True(t, errors.Is(err, ErrNotFound))

	n, err := s.Purge()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	left, err := s.List(0)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestRejectStore_Reopen(t *testing.T) {
	dir := t.TempDir()

	s, err := NewRejectStore(dir)
	require.NoError(t, err)
	id, err := s.Put(Reject{Text: "kept"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewRejectStore(dir)
	require.NoError(t, err)
	defer s.Close()

	r, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "kept", r.Text)
}
