package renderer

import "time"

// QueryType selects what a Query measures.
type QueryType int

const (
	// QuerySamplesPassed counts the samples that passed the depth and stencil tests.
	QuerySamplesPassed QueryType = iota
	// QueryAnySamplesPassed reports 1 if any sample passed, 0 otherwise.
	QueryAnySamplesPassed
	// QueryPrimitivesGenerated counts the primitives emitted by the geometry stage.
	QueryPrimitivesGenerated
	// QueryTimeElapsed measures GPU time in nanoseconds.
	QueryTimeElapsed
)

// QueryState is the protocol state of a Query.
type QueryState int

const (
	QueryIdle QueryState = iota
	QueryRunning
	QueryEnded
)

// QueryDriver is the native half of a query, supplied by a backend. Implementations resolve their
// native object on every call so that a released or deleted query degrades to no-ops.
type QueryDriver interface {
	// Begin starts recording.
	Begin()

	// End stops recording.
	End()

	// Flush pushes pending commands to the GPU so the result becomes available.
	Flush()

	// Available reports whether the result can be read without blocking.
	Available() bool

	// Result reads the result. Only called after Available returned true.
	Result() uint64
}

// Query is a GPU query object following the protocol idle → running → ended → idle.
type Query interface {
	// Type returns the query type.
	Type() QueryType

	// Handle returns the native query handle. It is invalid after DeleteQuery.
	Handle() Handle

	// State returns the protocol state.
	State() QueryState

	// Begin starts the query. It is a no-op unless the query is idle.
	Begin()

	// End stops the query. It is a no-op unless the query is running.
	End()

	// Available reports, without blocking, whether Result would return immediately. It is false
	// unless the query is ended.
	Available() bool

	// Result returns 0 immediately unless the query is ended. Otherwise it flushes, waits for the
	// GPU with bounded backoff, returns the value and resets the query to idle.
	Result() uint64
}

const (
	queryBackoffStart = time.Microsecond
	queryBackoffMax   = time.Millisecond
)

type queryObject struct {
	typ    QueryType
	handle Handle
	driver QueryDriver
	state  QueryState
}

var _ Query = &queryObject{}

// NewQuery creates a query around a backend driver.
//
// Parameters:
//   - typ: the query type
//   - h: the native handle from the backend's query table
//   - driver: the native operations
//
// Returns:
//   - Query: the new query in the idle state
func NewQuery(typ QueryType, h Handle, driver QueryDriver) Query {
	return &queryObject{typ: typ, handle: h, driver: driver}
}

// DetachQuery drops the native part of a query. Backends call it from DeleteQuery; afterwards the
// query's handle is invalid and all operations are no-ops.
func DetachQuery(q Query) {
	if qo, ok := q.(*queryObject); ok {
		qo.handle = InvalidHandle
		qo.driver = nil
		qo.state = QueryIdle
	}
}

func (q *queryObject) Type() QueryType {
	return q.typ
}

func (q *queryObject) Handle() Handle {
	return q.handle
}

func (q *queryObject) State() QueryState {
	return q.state
}

func (q *queryObject) Begin() {
	if q.driver == nil || q.state != QueryIdle {
		return
	}
	q.driver.Begin()
	q.state = QueryRunning
}

func (q *queryObject) End() {
	if q.driver == nil || q.state != QueryRunning {
		return
	}
	q.driver.End()
	q.state = QueryEnded
}

func (q *queryObject) Available() bool {
	if q.driver == nil || q.state != QueryEnded {
		return false
	}
	return q.driver.Available()
}

func (q *queryObject) Result() uint64 {
	if q.driver == nil || q.state != QueryEnded {
		return 0
	}
	q.driver.Flush()
	delay := queryBackoffStart
	for !q.driver.Available() {
		time.Sleep(delay)
		delay = min(delay*2, queryBackoffMax)
	}
	result := q.driver.Result()
	q.state = QueryIdle
	return result
}
