package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeQueryDriver struct {
	begins, ends, flushes, polls int
	readyAfter                   int
	value                        uint64
}

func (d *fakeQueryDriver) Begin() { d.begins++ }
func (d *fakeQueryDriver) End()   { d.ends++ }
func (d *fakeQueryDriver) Flush() { d.flushes++ }
func (d *fakeQueryDriver) Result() uint64 {
	return d.value
}
func (d *fakeQueryDriver) Available() bool {
	d.polls++
	return d.polls > d.readyAfter
}

func TestQueryProtocol(t *testing.T) {
	drv := &fakeQueryDriver{readyAfter: 3, value: 1234}
	q := NewQuery(QuerySamplesPassed, Handle{kind: HandleQuery, generation: 1}, drv)

	assert.Equal(t, uint64(0), q.Result(), "idle queries return 0")
	q.End()
	assert.Equal(t, 0, drv.ends, "End is ignored unless running")

	q.Begin()
	q.Begin()
	assert.Equal(t, 1, drv.begins)
	assert.Equal(t, QueryRunning, q.State())
	assert.Equal(t, uint64(0), q.Result(), "running queries return 0 without blocking")

	q.End()
	assert.Equal(t, QueryEnded, q.State())
	assert.Equal(t, uint64(1234), q.Result())
	assert.Equal(t, 1, drv.flushes)
	assert.Equal(t, QueryIdle, q.State())
	assert.Equal(t, uint64(0), q.Result(), "result resets the query")
}

func TestQueryAvailableOnlyWhenEnded(t *testing.T) {
	drv := &fakeQueryDriver{}
	q := NewQuery(QueryTimeElapsed, Handle{kind: HandleQuery, generation: 1}, drv)
	assert.False(t, q.Available())
	q.Begin()
	assert.False(t, q.Available())
	q.End()
	assert.True(t, q.Available())
}

func TestDetachedQueryIsInert(t *testing.T) {
	drv := &fakeQueryDriver{}
	q := NewQuery(QueryAnySamplesPassed, Handle{kind: HandleQuery, generation: 1}, drv)
	DetachQuery(q)

	q.Begin()
	q.End()
	assert.Equal(t, 0, drv.begins)
	assert.False(t, q.Handle().Valid())
	assert.Equal(t, uint64(0), q.Result())
}
