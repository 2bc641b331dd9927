package profiler

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStats struct {
	stats  renderer.FrameStats
	resets int
}

func (f *fakeStats) Stats() renderer.FrameStats { return f.stats }
func (f *fakeStats) ResetStats()                { f.resets++; f.stats = renderer.FrameStats{} }

func TestTickReportsEachInterval(t *testing.T) {
	clock := time.Unix(100, 0)
	p := NewProfiler(WithInterval(500 * time.Millisecond))
	p.now = func() time.Time { return clock }
	p.lastTime = clock

	src := &fakeStats{stats: renderer.FrameStats{Frames: 30, DrawCalls: 120}}
	for i := 0; i < 29; i++ {
		clock = clock.Add(10 * time.Millisecond)
		assert.False(t, p.Tick(src))
	}
	assert.Zero(t, src.resets)

	clock = clock.Add(210 * time.Millisecond)
	require.True(t, p.Tick(src))
	r := p.Last()
	assert.Equal(t, 30, r.FramesTicked)
	assert.Equal(t, 500*time.Millisecond, r.Interval)
	assert.InDelta(t, 60.0, r.FPS, 0.001)
	assert.Equal(t, uint64(120), r.Frame.DrawCalls)
	assert.Equal(t, 1, src.resets)
	assert.Positive(t, r.SysMB)

	clock = clock.Add(10 * time.Millisecond)
	assert.False(t, p.Tick(src))
}

func TestTickWithoutStatsSource(t *testing.T) {
	clock := time.Unix(0, 0)
	p := NewProfiler(WithInterval(-1))
	assert.Equal(t, time.Second, p.updateInterval)
	p.now = func() time.Time { return clock }
	p.lastTime = clock

	clock = clock.Add(2 * time.Second)
	require.True(t, p.Tick(nil))
	assert.InDelta(t, 0.5, p.Last().FPS, 0.001)
	assert.Equal(t, renderer.FrameStats{}, p.Last().Frame)
}
