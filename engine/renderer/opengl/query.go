package opengl

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
)

// queryDriver resolves its native query on every call so that a query survives release and
// recreation of the context's objects. A query whose native object is missing reports an
// available result of zero.
type queryDriver struct {
	r *renderSystem
	h renderer.Handle
}

func (d queryDriver) Begin() {
	if q, ok := d.r.queries.Lookup(d.h); ok {
		d.r.gl.BeginQuery(q.target, q.id)
	}
}

func (d queryDriver) End() {
	if q, ok := d.r.queries.Lookup(d.h); ok {
		d.r.gl.EndQuery(q.target)
	}
}

func (d queryDriver) Flush() {
	d.r.gl.Flush()
}

func (d queryDriver) Available() bool {
	q, ok := d.r.queries.Lookup(d.h)
	if !ok {
		return true
	}
	return d.r.gl.GetQueryObjectuiv(q.id, glQueryResultAvailable) != 0
}

func (d queryDriver) Result() uint64 {
	q, ok := d.r.queries.Lookup(d.h)
	if !ok {
		return 0
	}
	return d.r.gl.GetQueryObjectui64v(q.id, glQueryResult)
}

func (r *renderSystem) CreateQuery(t renderer.QueryType) renderer.Query {
	if !r.QueryVideoSupport(renderer.FeatureQuery) {
		return nil
	}
	target, ok := queryTarget(t, r.profile == ProfileES)
	if !ok {
		common.Logger().Warn("query type not supported by this context", "type", t, "profile", r.profile)
		return nil
	}
	id := r.gl.GenQuery()
	if id == 0 {
		common.Logger().Error("could not create OpenGL query", "type", t)
		return nil
	}
	h := r.queries.Insert(glQuery{id: id, target: target})
	return renderer.NewQuery(t, h, queryDriver{r: r, h: h})
}

func (r *renderSystem) DeleteQuery(q renderer.Query) {
	if q == nil {
		return
	}
	if native, ok := r.queries.Remove(q.Handle()); ok && native.id != 0 {
		r.gl.DeleteQuery(native.id)
	}
	renderer.DetachQuery(q)
}
