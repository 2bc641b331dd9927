package renderer

import (
	"slices"
	"sync"
)

// TextureRegistry tracks the textures created by a RenderSystem. Loader goroutines may register
// textures while the render thread iterates, so access is guarded by a read-write mutex.
type TextureRegistry struct {
	mu       sync.RWMutex
	textures []*Texture
}

// NewTextureRegistry creates an empty registry.
func NewTextureRegistry() *TextureRegistry {
	return &TextureRegistry{}
}

// Add registers a texture.
func (r *TextureRegistry) Add(t *Texture) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.textures = append(r.textures, t)
}

// Remove unregisters a texture.
//
// Returns:
//   - bool: false if the texture was not registered
func (r *TextureRegistry) Remove(t *Texture) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.Index(r.textures, t)
	if i < 0 {
		return false
	}
	r.textures = slices.Delete(r.textures, i, i+1)
	return true
}

// Contains reports whether the texture is registered.
func (r *TextureRegistry) Contains(t *Texture) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Contains(r.textures, t)
}

// Len returns the number of registered textures.
func (r *TextureRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.textures)
}

// Snapshot returns a copy of the registered textures.
func (r *TextureRegistry) Snapshot() []*Texture {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.textures)
}

// Clear unregisters every texture and returns them.
func (r *TextureRegistry) Clear() []*Texture {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.textures
	r.textures = nil
	return all
}
