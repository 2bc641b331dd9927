package webgpu

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/cogentcore/webgpu/wgpu"
)

// ReleaseAllResources releases every native object created on the device. Wrappers and handles
// stay valid and their lookups fail until RecreateAllResources, which runs after the render context
// handed over a new device with ReplaceDevice. Recorded commands are dropped.
func (r *renderSystem) ReleaseAllResources() {
	if r.Drawing2D() {
		r.EndDrawing2D()
	}
	if r.RenderTarget() != nil {
		r.StoreRenderTarget(nil)
		r.viewport = r.mainViewport
	}
	r.pass = passState{}
	r.frame = frameState{fixedSerial: r.frame.fixedSerial}

	r.vertexBuffers.ReleaseAll(func(_ renderer.Handle, b gpuVertexBuffer) gpuVertexBuffer {
		if b.native != nil {
			b.native.Release()
		}
		b.native, b.size = nil, 0
		return b
	})
	r.indexBuffers.ReleaseAll(func(_ renderer.Handle, b gpuIndexBuffer) gpuIndexBuffer {
		if b.native != nil {
			b.native.Release()
		}
		b.native, b.size = nil, 0
		return b
	})
	r.textures.ReleaseAll(func(_ renderer.Handle, t gpuTexture) gpuTexture {
		r.releaseNativeTexture(t)
		return gpuTexture{tex: t.tex}
	})
	r.programs.ReleaseAll(func(_ renderer.Handle, p *gpuProgram) *gpuProgram {
		r.purgePipelines(p.program)
		p.program = nil
		return p
	})
	r.shaders.ReleaseAll(func(_ renderer.Handle, s gpuShader) gpuShader {
		if s.module != nil {
			s.module.Release()
		}
		s.module = nil
		return s
	})

	pipelines := r.pipelines.Len()
	r.pipelines.Release()
	for key, g := range r.textureGroups {
		if g != r.builtin.whiteGroup {
			g.Release()
		}
		delete(r.textureGroups, key)
	}
	for desc, s := range r.samplers {
		s.Release()
		delete(r.samplers, desc)
	}
	clear(r.layouts)
	r.releaseBuiltins()

	r.bound = nil
	r.boundTextures = 0
	r.slots = textureGroupKey{}
	r.slotTextures = [maxTextureSlots]Texture{}
	common.Logger().Info("WebGPU resources released",
		"vertexBuffers", r.vertexBuffers.Len(),
		"indexBuffers", r.indexBuffers.Len(),
		"textures", r.textures.Len(),
		"pipelines", pipelines,
	)
}

// RecreateAllResources re-creates every released object on the current device: buffers from their
// shadow copies, textures from their retained images and shader modules from their source.
// Pipelines and bind groups are created again on first use.
func (r *renderSystem) RecreateAllResources() error {
	var errs []error
	if err := r.createBuiltins(); err != nil {
		errs = append(errs, err)
	}
	r.restoreState(material.NewMaterial())

	errs = append(errs,
		r.vertexBuffers.RecreateAll(func(_ renderer.Handle, b gpuVertexBuffer, shadow []byte) (gpuVertexBuffer, error) {
			if len(shadow) == 0 {
				return b, nil
			}
			vb, err := r.createBuffer("Vertex Buffer", len(shadow), wgpu.BufferUsageVertex)
			if err != nil {
				return b, err
			}
			b.native, b.size = vb, align4(len(shadow))
			r.writeBuffer(vb, 0, padded(shadow))
			return b, nil
		}),
		r.indexBuffers.RecreateAll(func(_ renderer.Handle, b gpuIndexBuffer, shadow []byte) (gpuIndexBuffer, error) {
			if len(shadow) == 0 {
				return b, nil
			}
			ib, err := r.createBuffer("Index Buffer", len(shadow), wgpu.BufferUsageIndex)
			if err != nil {
				return b, err
			}
			b.native, b.size = ib, align4(len(shadow))
			r.writeBuffer(ib, 0, padded(shadow))
			return b, nil
		}),
		r.textures.RecreateAll(func(_ renderer.Handle, t gpuTexture, _ []byte) (gpuTexture, error) {
			return r.createNativeTexture(t.tex)
		}),
		r.shaders.RecreateAll(func(_ renderer.Handle, s gpuShader, _ []byte) (gpuShader, error) {
			module, err := r.dev.CreateShaderModule(s.stage.String(), s.source)
			if err != nil {
				return s, err
			}
			s.module = module
			return s, nil
		}),
		r.programs.RecreateAll(func(_ renderer.Handle, p *gpuProgram, _ []byte) (*gpuProgram, error) {
			if !p.class.Linked() {
				return p, nil
			}
			if err := r.linkProgram(p); err != nil {
				p.class.SetLinked(false)
				return p, err
			}
			return p, nil
		}),
	)

	err := errors.Join(errs...)
	if err != nil {
		common.Logger().Error("WebGPU resources partially recreated", "error", err)
	} else {
		common.Logger().Info("WebGPU resources recreated")
	}
	return err
}
