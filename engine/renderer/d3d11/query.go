package d3d11

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
)

// queryDriver resolves its native queries on every call so that a query survives device
// replacement. Elapsed time is measured with two timestamps inside a disjoint query.
type queryDriver struct {
	r *renderSystem
	h renderer.Handle
}

func (d queryDriver) lookup() (d3dQuery, bool) {
	q, ok := d.r.queries.Lookup(d.h)
	return q, ok && q.main != nil
}

func (d queryDriver) Begin() {
	q, ok := d.lookup()
	if !ok {
		return
	}
	if q.typ == renderer.QueryTimeElapsed {
		d.r.dev.Begin(q.disjoint)
		d.r.dev.End(q.main)
		return
	}
	d.r.dev.Begin(q.main)
}

func (d queryDriver) End() {
	q, ok := d.lookup()
	if !ok {
		return
	}
	if q.typ == renderer.QueryTimeElapsed {
		d.r.dev.End(q.end)
		d.r.dev.End(q.disjoint)
		return
	}
	d.r.dev.End(q.main)
}

func (d queryDriver) Flush() {
	d.r.dev.Flush()
}

func (d queryDriver) Available() bool {
	q, ok := d.lookup()
	if !ok {
		return true
	}
	for _, native := range q.parts() {
		if _, available, err := native.Data(); err != nil || !available {
			return err != nil
		}
	}
	return true
}

func (d queryDriver) Result() uint64 {
	q, ok := d.lookup()
	if !ok {
		return 0
	}
	value, _, err := q.main.Data()
	if err != nil {
		return 0
	}
	switch q.typ {
	case renderer.QueryAnySamplesPassed:
		if value > 0 {
			return 1
		}
		return 0
	case renderer.QueryTimeElapsed:
		end, _, errEnd := q.end.Data()
		freq, _, errFreq := q.disjoint.Data()
		// a zero frequency marks a disjoint interval
		if errEnd != nil || errFreq != nil || freq == 0 || end < value {
			return 0
		}
		return (end - value) * 1e9 / freq
	}
	return value
}

func (q d3dQuery) parts() []Query {
	if q.typ == renderer.QueryTimeElapsed {
		return []Query{q.main, q.end, q.disjoint}
	}
	return []Query{q.main}
}

func (q d3dQuery) release() {
	for _, native := range q.parts() {
		if native != nil {
			native.Release()
		}
	}
}

// createNativeQuery allocates the native queries of t.
func (r *renderSystem) createNativeQuery(t renderer.QueryType) (d3dQuery, error) {
	q := d3dQuery{typ: t}
	var err error
	switch t {
	case renderer.QuerySamplesPassed:
		q.main, err = r.dev.CreateQuery(queryOcclusion)
	case renderer.QueryAnySamplesPassed:
		q.main, err = r.dev.CreateQuery(queryOcclusionPredicate)
	case renderer.QueryPrimitivesGenerated:
		q.main, err = r.dev.CreateQuery(querySOStatistics)
	case renderer.QueryTimeElapsed:
		if q.main, err = r.dev.CreateQuery(queryTimestamp); err != nil {
			break
		}
		if q.end, err = r.dev.CreateQuery(queryTimestamp); err != nil {
			break
		}
		q.disjoint, err = r.dev.CreateQuery(queryTimestampDisjoint)
	default:
		return q, fmt.Errorf("query type %d is not supported", t)
	}
	if err != nil {
		q.release()
		return d3dQuery{typ: t}, fmt.Errorf("CreateQuery: %w", err)
	}
	return q, nil
}

func (r *renderSystem) CreateQuery(t renderer.QueryType) renderer.Query {
	if !r.QueryVideoSupport(renderer.FeatureQuery) {
		return nil
	}
	// stream output statistics need a geometry stage
	if t == renderer.QueryPrimitivesGenerated && r.level < FeatureLevel10_0 {
		common.Logger().Warn("query type not supported by this device", "type", t)
		return nil
	}
	q, err := r.createNativeQuery(t)
	if err != nil {
		common.Logger().Error("could not create Direct3D 11 query", "type", t, "error", err)
		return nil
	}
	h := r.queries.Insert(q)
	return renderer.NewQuery(t, h, queryDriver{r: r, h: h})
}

func (r *renderSystem) DeleteQuery(q renderer.Query) {
	if q == nil {
		return
	}
	if native, ok := r.queries.Remove(q.Handle()); ok {
		native.release()
	}
	renderer.DetachQuery(q)
}
