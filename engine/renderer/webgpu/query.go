package webgpu

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
)

// CreateQuery always fails. The WebGPU binding attaches no occlusion query set to render passes
// and core WebGPU has neither pipeline statistics nor timestamps inside passes.
func (r *renderSystem) CreateQuery(t renderer.QueryType) renderer.Query {
	common.Logger().Warn("queries are not supported by WebGPU", "type", t)
	return nil
}

func (r *renderSystem) DeleteQuery(q renderer.Query) {
	if q != nil {
		renderer.DetachQuery(q)
	}
}
