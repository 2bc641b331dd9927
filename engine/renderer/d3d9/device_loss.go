package d3d9

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

// ReleaseAllResources releases every native object, including the back buffer references, so that
// the device can be reset. Wrappers and handles stay valid and their lookups fail until
// RecreateAllResources.
func (r *renderSystem) ReleaseAllResources() {
	if r.RenderTarget() != nil {
		r.SetRenderTarget(nil)
	}
	r.vertexBuffers.ReleaseAll(func(_ renderer.Handle, b d3dVertexBuffer) d3dVertexBuffer {
		if b.native != nil {
			b.native.Release()
		}
		b.native, b.size = nil, 0
		return b
	})
	r.indexBuffers.ReleaseAll(func(_ renderer.Handle, b d3dIndexBuffer) d3dIndexBuffer {
		if b.native != nil {
			b.native.Release()
		}
		b.native, b.size = nil, 0
		return b
	})
	r.textures.ReleaseAll(func(_ renderer.Handle, t d3dTexture) d3dTexture {
		r.releaseNativeTexture(t)
		return d3dTexture{tex: t.tex}
	})
	r.queries.ReleaseAll(func(_ renderer.Handle, q d3dQuery) d3dQuery {
		q.release()
		return d3dQuery{typ: q.typ}
	})
	r.shaders.ReleaseAll(func(_ renderer.Handle, s d3dShader) d3dShader {
		s.release()
		s.vs, s.ps = nil, nil
		return s
	})
	r.programs.ReleaseAll(func(_ renderer.Handle, p *d3dProgram) *d3dProgram {
		p.decl = nil
		return p
	})
	for format, decl := range r.declarations {
		decl.Release()
		delete(r.declarations, format)
	}
	r.releaseBackBuffer()

	r.state.reset()
	r.bound = nil
	r.boundTextures = 0
	r.inScene = false
	common.Logger().Info("Direct3D 9 resources released",
		"vertexBuffers", r.vertexBuffers.Len(),
		"indexBuffers", r.indexBuffers.Len(),
		"textures", r.textures.Len(),
	)
}

// RecreateAllResources re-creates every released object after the device was reset: buffers from
// their shadow copies, textures from their retained images and shaders from their bytecode.
func (r *renderSystem) RecreateAllResources() error {
	var errs []error
	if err := r.acquireBackBuffer(); err != nil {
		errs = append(errs, err)
	}
	r.restoreState(material.NewMaterial())

	errs = append(errs,
		r.vertexBuffers.RecreateAll(func(_ renderer.Handle, b d3dVertexBuffer, shadow []byte) (d3dVertexBuffer, error) {
			if len(shadow) == 0 {
				return b, nil
			}
			vb, err := r.createVertexBuffer(len(shadow), b.dynamic)
			if err != nil {
				return b, err
			}
			b.native, b.size = vb, len(shadow)
			r.check("VertexBuffer.Write", vb.Write(0, deviceVertices(shadow, b.format)))
			r.CountBufferUpload(len(shadow))
			return b, nil
		}),
		r.indexBuffers.RecreateAll(func(_ renderer.Handle, b d3dIndexBuffer, shadow []byte) (d3dIndexBuffer, error) {
			if len(shadow) == 0 {
				return b, nil
			}
			ib, err := r.createIndexBuffer(len(shadow), b.dynamic, b.format)
			if err != nil {
				return b, err
			}
			b.native, b.size = ib, len(shadow)
			r.check("IndexBuffer.Write", ib.Write(0, shadow))
			r.CountBufferUpload(len(shadow))
			return b, nil
		}),
		r.textures.RecreateAll(func(_ renderer.Handle, t d3dTexture, _ []byte) (d3dTexture, error) {
			return r.createNativeTexture(t.tex)
		}),
		r.queries.RecreateAll(func(_ renderer.Handle, q d3dQuery, _ []byte) (d3dQuery, error) {
			return r.createNativeQuery(q.typ)
		}),
		r.shaders.RecreateAll(func(_ renderer.Handle, s d3dShader, _ []byte) (d3dShader, error) {
			err := r.createShaderObject(&s)
			return s, err
		}),
		r.programs.RecreateAll(func(_ renderer.Handle, p *d3dProgram, _ []byte) (*d3dProgram, error) {
			if !p.class.Linked() {
				return p, nil
			}
			if err := r.linkProgram(p); err != nil {
				p.class.SetLinked(false)
				return p, fmt.Errorf("relink: %w", err)
			}
			return p, nil
		}),
	)
	if class := r.BoundShaderClass(); class != nil {
		r.BindShaderClass(class)
	}

	err := errors.Join(errs...)
	if err != nil {
		common.Logger().Error("Direct3D 9 resources partially recreated", "error", err)
	} else {
		common.Logger().Info("Direct3D 9 resources recreated")
	}
	return err
}
