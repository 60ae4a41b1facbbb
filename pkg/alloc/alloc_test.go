package alloc

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dynstr-go/pkg/log"
)

func TestHeapAllocFree(t *testing.T) {
	h := NewHeap()

	buf, err := h.Alloc(32)
	require.NoError(t, err)
	assert.Len(t, buf, 32)
	assert.Equal(t, Stats{Allocs: 1, BytesInUse: 32}, h.Stats())

	h.Free(buf)
	h.Free(nil)
	assert.Equal(t, Stats{Allocs: 1, Frees: 1}, h.Stats())

	_, err = h.Alloc(-1)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestMustPanicsWithAllocError(t *testing.T) {
	lim := NewLimited(NewHeap(), 8)
	assert.NotPanics(t, func() { Must(lim, 8) })

	defer func() {
		r := recover()
		ae, ok := r.(*AllocError)
		require.True(t, ok, "unexpected panic value %v", r)
		assert.Equal(t, 1, ae.Size)
		assert.True(t, errors.Is(ae, ErrOutOfMemory))
		assert.Contains(t, ae.Error(), "cannot allocate 1 bytes")
	}()
	Must(lim, 1)
}

func TestMustLogsFailure(t *testing.T) {
	require.NoError(t, log.Init(filepath.Join(t.TempDir(), "logs.db")))
	t.Cleanup(func() { log.Close() })

	assert.Panics(t, func() { Must(NewLimited(NewHeap(), 4), 5) })

	entries, err := log.GetLastNLogs(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].LogData, `"alloc: allocation failed"`)
	assert.Contains(t, entries[0].LogData, `"size":5`)
	assert.Contains(t, entries[0].LogData, `"level":"error"`)
}

func TestPoolClasses(t *testing.T) {
	p := NewPool(64, 1024)
	require.Len(t, p.classes, 5) // 64, 128, 256, 512, 1024

	cases := []struct {
		size, class int
	}{
		{0, 64},
		{1, 64},
		{64, 64},
		{65, 128},
		{1000, 1024},
		{1024, 1024},
	}
	for _, tc := range cases {
		buf, err := p.Alloc(tc.size)
		require.NoError(t, err)
		assert.Len(t, buf, tc.size)
		assert.Equal(t, tc.class, cap(buf), "size %d", tc.size)
		p.Free(buf)
	}

	st := p.Stats()
	assert.Equal(t, int64(len(cases)), st.Allocs)
	assert.Equal(t, int64(len(cases)), st.Frees)
	assert.Equal(t, int64(0), st.BytesInUse)
	assert.Equal(t, int64(0), st.Oversized)
}

func TestPoolOversized(t *testing.T) {
	p := NewPool(64, 128)
	buf, err := p.Alloc(1000)
	require.NoError(t, err)
	assert.Len(t, buf, 1000)
	assert.Equal(t, int64(1), p.Stats().Oversized)
	assert.Equal(t, int64(1000), p.Stats().BytesInUse)

	p.Free(buf)
	assert.Equal(t, int64(0), p.Stats().BytesInUse)
}

func TestPoolDefaults(t *testing.T) {
	p := NewPool(0, 0)
	buf, err := p.Alloc(DefaultMaxClass)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxClass, cap(buf))
	assert.Equal(t, int64(0), p.Stats().Oversized)
}

func TestArenaBump(t *testing.T) {
	a, err := NewArena(64)
	require.NoError(t, err)

	b1, err := a.Alloc(10)
	require.NoError(t, err)
	b2, err := a.Alloc(20)
	require.NoError(t, err)
	assert.Len(t, b1, 10)
	assert.Equal(t, 10, cap(b1))
	assert.Len(t, b2, 20)

	copy(b1, strings.Repeat("a", 10))
	copy(b2, strings.Repeat("b", 20))
	assert.Equal(t, strings.Repeat("a", 10), string(b1))

	m := a.Metrics()
	assert.Equal(t, 1, m.Chunks)
	assert.Equal(t, 64, m.Capacity)
	assert.Equal(t, 30, m.SizeInUse)

	// does not fit in the remaining 34 bytes
	_, err = a.Alloc(40)
	require.NoError(t, err)
	assert.Equal(t, 2, a.Metrics().Chunks)

	a.Free(b1)
	assert.Equal(t, 70, a.Metrics().SizeInUse)
}

func TestArenaLargeAllocation(t *testing.T) {
	a, err := NewArena(16)
	require.NoError(t, err)

	small, err := a.Alloc(4)
	require.NoError(t, err)
	big, err := a.Alloc(100)
	require.NoError(t, err)
	assert.Len(t, big, 100)

	// the bump chunk is still current
	next, err := a.Alloc(4)
	require.NoError(t, err)
	assert.Equal(t, 2, a.Metrics().Chunks)
	assert.Equal(t, 116, a.Metrics().Capacity)
	_ = small
	_ = next
}

func TestArenaResetAndRelease(t *testing.T) {
	a, err := NewArena(0)
	require.NoError(t, err)

	_, err = a.Alloc(DefaultChunkSize)
	require.NoError(t, err)
	_, err = a.Alloc(DefaultChunkSize * 2)
	require.NoError(t, err)

	a.Reset()
	m := a.Metrics()
	assert.Equal(t, 1, m.Chunks)
	assert.Equal(t, 0, m.SizeInUse)

	a.Release()
	_, err = a.Alloc(1)
	assert.ErrorIs(t, err, ErrArenaReleased)

	_, err = NewArena(-1)
	assert.ErrorIs(t, err, ErrChunkSize)
}

func TestLimited(t *testing.T) {
	h := NewHeap()
	lim := NewLimited(h, 100)

	b1, err := lim.Alloc(60)
	require.NoError(t, err)
	_, err = lim.Alloc(41)
	assert.ErrorIs(t, err, ErrOutOfMemory)
	assert.Equal(t, 60, lim.Live())

	lim.Free(b1)
	assert.Equal(t, 0, lim.Live())
	_, err = lim.Alloc(100)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), h.Stats().Allocs)
}

func TestLimitedPropagatesInnerFailure(t *testing.T) {
	a, err := NewArena(8)
	require.NoError(t, err)
	a.Release()

	lim := NewLimited(a, 100)
	_, err = lim.Alloc(4)
	assert.ErrorIs(t, err, ErrArenaReleased)
	assert.Equal(t, 0, lim.Live())
}

func TestInstrumented(t *testing.T) {
	reg := prometheus.NewRegistry()
	in := NewInstrumented(NewLimited(NewHeap(), 64), reg, "heap")

	b, err := in.Alloc(48)
	require.NoError(t, err)
	_, err = in.Alloc(48)
	require.Error(t, err)
	in.Free(b)

	assert.Equal(t, 1.0, testutil.ToFloat64(in.allocs))
	assert.Equal(t, 1.0, testutil.ToFloat64(in.failures))
	assert.Equal(t, 1.0, testutil.ToFloat64(in.frees))
	assert.Equal(t, 48.0, testutil.ToFloat64(in.bytes))
	assert.Equal(t, 0.0, testutil.ToFloat64(in.liveBytes))

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}
