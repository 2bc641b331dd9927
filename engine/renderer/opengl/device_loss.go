package opengl

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

// ReleaseAllResources deletes every native object. Wrappers and handles stay valid and their
// lookups fail until RecreateAllResources.
func (r *renderSystem) ReleaseAllResources() {
	if r.RenderTarget() != nil {
		r.SetRenderTarget(nil)
	}
	releaseBuffer := func(_ renderer.Handle, b glBuffer) glBuffer {
		r.gl.DeleteBuffer(b.id)
		b.id, b.size = 0, 0
		return b
	}
	r.vertexBuffers.ReleaseAll(releaseBuffer)
	r.indexBuffers.ReleaseAll(releaseBuffer)
	r.textures.ReleaseAll(func(_ renderer.Handle, t glTexture) glTexture {
		r.deleteNativeTexture(t)
		return glTexture{tex: t.tex}
	})
	r.queries.ReleaseAll(func(_ renderer.Handle, q glQuery) glQuery {
		r.gl.DeleteQuery(q.id)
		q.id = 0
		return q
	})
	r.programs.ReleaseAll(func(_ renderer.Handle, p *glProgram) *glProgram {
		r.gl.DeleteProgram(p.id)
		p.id = 0
		return p
	})
	r.shaders.ReleaseAll(func(_ renderer.Handle, s glShader) glShader {
		r.gl.DeleteShader(s.id)
		s.id = 0
		return s
	})
	r.deleteBuiltins()

	r.state.reset()
	r.bound = nil
	r.boundTexture = 0
	r.attribs = 0
	r.clientArrays = 0
	common.Logger().Info("OpenGL resources released",
		"vertexBuffers", r.vertexBuffers.Len(),
		"indexBuffers", r.indexBuffers.Len(),
		"textures", r.textures.Len(),
	)
}

// RecreateAllResources re-creates every released object: buffer content comes from the shadow
// copies, textures are re-uploaded from their retained images, shaders are recompiled before
// their programs are relinked.
func (r *renderSystem) RecreateAllResources() error {
	var errs []error
	if err := r.createBuiltins(); err != nil {
		errs = append(errs, fmt.Errorf("built-in programs: %w", err))
	}
	r.restoreState(material.NewMaterial())

	recreateBuffer := func(_ renderer.Handle, b glBuffer, shadow []byte) (glBuffer, error) {
		id := r.gl.GenBuffer()
		if id == 0 {
			return b, errors.New("glGenBuffers returned no name")
		}
		b.id = id
		r.bindBuffer(b.target, id)
		if len(shadow) > 0 {
			r.gl.BufferData(b.target, shadow, b.usage)
			r.CountBufferUpload(len(shadow))
		}
		b.size = len(shadow)
		return b, nil
	}
	errs = append(errs,
		r.vertexBuffers.RecreateAll(recreateBuffer),
		r.indexBuffers.RecreateAll(recreateBuffer),
		r.textures.RecreateAll(func(_ renderer.Handle, t glTexture, _ []byte) (glTexture, error) {
			return r.createNativeTexture(t.tex)
		}),
		r.queries.RecreateAll(func(_ renderer.Handle, q glQuery, _ []byte) (glQuery, error) {
			if q.id = r.gl.GenQuery(); q.id == 0 {
				return q, errors.New("glGenQueries returned no name")
			}
			return q, nil
		}),
		r.shaders.RecreateAll(func(_ renderer.Handle, s glShader, _ []byte) (glShader, error) {
			id, err := r.compileShader(s.stage, s.source)
			s.id = id
			return s, err
		}),
		r.programs.RecreateAll(func(_ renderer.Handle, p *glProgram, _ []byte) (*glProgram, error) {
			if p.id = r.gl.CreateProgram(); p.id == 0 {
				return p, errors.New("glCreateProgram returned no name")
			}
			if p.class.Linked() {
				if err := r.linkProgram(p); err != nil {
					r.gl.DeleteProgram(p.id)
					p.id = 0
					p.class.SetLinked(false)
					return p, err
				}
			}
			return p, nil
		}),
	)
	if class := r.BoundShaderClass(); class != nil {
		r.BindShaderClass(class)
	}

	err := errors.Join(errs...)
	if err != nil {
		common.Logger().Error("OpenGL resources partially recreated", "error", err)
	} else {
		common.Logger().Info("OpenGL resources recreated")
	}
	return err
}
