package d3d11

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

// ReleaseAllResources releases every native object created on the device. Wrappers and handles
// stay valid and their lookups fail until RecreateAllResources, which runs after the render context
// handed over a new device with ReplaceDevice.
func (r *renderSystem) ReleaseAllResources() {
	if r.Drawing2D() {
		r.EndDrawing2D()
	}
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
		if s.native != nil {
			s.native.Release()
		}
		s.native = nil
		return s
	})
	r.programs.ReleaseAll(func(_ renderer.Handle, p *d3dProgram) *d3dProgram {
		if p.layout != nil {
			p.layout.Release()
		}
		p.layout = nil
		return p
	})
	for key, layout := range r.layouts {
		layout.Release()
		delete(r.layouts, key)
	}
	objects := r.objects.len()
	r.objects.release()
	r.releaseBuiltins()
	// the back buffer views belong to the device
	r.backBuffer, r.backDepth = nil, nil

	r.state.reset()
	r.bound = nil
	r.boundTextures = 0
	common.Logger().Info("Direct3D 11 resources released",
		"vertexBuffers", r.vertexBuffers.Len(),
		"indexBuffers", r.indexBuffers.Len(),
		"textures", r.textures.Len(),
		"stateObjects", objects,
	)
}

// RecreateAllResources re-creates every released object on the current device: buffers from their
// shadow copies, textures from their retained images and shaders from their bytecode. State objects
// and input layouts are created again on first use.
func (r *renderSystem) RecreateAllResources() error {
	var errs []error
	r.backBuffer, r.backDepth = r.dev.BackBuffer()
	if err := r.createBuiltins(); err != nil {
		errs = append(errs, err)
	}
	r.restoreState(material.NewMaterial())

	errs = append(errs,
		r.vertexBuffers.RecreateAll(func(_ renderer.Handle, b d3dVertexBuffer, shadow []byte) (d3dVertexBuffer, error) {
			if len(shadow) == 0 {
				return b, nil
			}
			vb, err := r.createBuffer(len(shadow), b.dynamic, bindVertexBuffer)
			if err != nil {
				return b, err
			}
			b.native, b.size = vb, len(shadow)
			r.check("Buffer.Write", vb.Write(0, shadow))
			r.CountBufferUpload(len(shadow))
			return b, nil
		}),
		r.indexBuffers.RecreateAll(func(_ renderer.Handle, b d3dIndexBuffer, shadow []byte) (d3dIndexBuffer, error) {
			if len(shadow) == 0 {
				return b, nil
			}
			ib, err := r.createBuffer(len(shadow), b.dynamic, bindIndexBuffer)
			if err != nil {
				return b, err
			}
			b.native, b.size = ib, len(shadow)
			r.check("Buffer.Write", ib.Write(0, shadow))
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
		common.Logger().Error("Direct3D 11 resources partially recreated", "error", err)
	} else {
		common.Logger().Info("Direct3D 11 resources recreated")
	}
	return err
}
