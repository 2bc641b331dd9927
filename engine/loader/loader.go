package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoRenderSystem is returned when textures are created before a render system was set.
	ErrNoRenderSystem = errors.New("loader has no render system")

	// ErrCreateTexture is returned when the render system rejects a decoded image.
	ErrCreateTexture = errors.New("render system could not create texture")
)

// TextureCreator creates and deletes textures. RenderSystem implementations satisfy it.
type TextureCreator interface {
	CreateTexture(flags renderer.TextureCreationFlags) *renderer.Texture
	DeleteTexture(tex *renderer.Texture)
}

// Result is the outcome of one asynchronous load.
type Result struct {
	Path    string
	Texture *renderer.Texture
	Err     error
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	target TextureCreator

	textureCache map[string]*renderer.Texture
	inFlight     map[string]struct{}
	done         []decoded

	// pool decodes images off the render thread. Idle workers exit after a second, so the pool
	// needs no shutdown.
	pool    worker.DynamicWorkerPool
	workers int
	taskID  int

	sampler renderer.SamplerDesc
	mipMaps bool
}

type decoded struct {
	path string
	img  *renderer.ImageBuffer
	err  error
}

// Loader loads image files into textures. Images are decoded on a worker pool while textures are
// created on the render thread, in Load and Poll.
type Loader interface {
	// Load decodes an image file and creates its texture. A cached texture is returned as is.
	// Must be called on the render thread.
	//
	// Parameters:
	//   - path: the image file path, the format is selected by the extension
	//
	// Returns:
	//   - *renderer.Texture: the texture
	//   - error: error if decoding or texture creation fails
	Load(path string) (*renderer.Texture, error)

	// LoadAsync queues an image file for decoding on the worker pool. The texture is created by a
	// later Poll.
	//
	// Parameters:
	//   - path: the image file path
	//
	// Returns:
	//   - bool: false if the texture is already cached or queued
	LoadAsync(path string) bool

	// Poll creates the textures of all images decoded since the last call and caches them. Must be
	// called on the render thread.
	//
	// Returns:
	//   - []Result: one result per finished load
	Poll() []Result

	// Pending returns the number of queued loads Poll has not reported yet.
	Pending() int

	// DecodeAll decodes image files in parallel without creating textures. It stops at the first
	// error or when ctx is cancelled.
	//
	// Parameters:
	//   - ctx: cancels the remaining decodes
	//   - paths: the image file paths
	//
	// Returns:
	//   - []*renderer.ImageBuffer: the images in the order of paths
	//   - error: the first error
	DecodeAll(ctx context.Context, paths []string) ([]*renderer.ImageBuffer, error)

	// Get returns a cached texture, or nil.
	Get(path string) *renderer.Texture

	// Textures returns a copy of the texture cache.
	Textures() map[string]*renderer.Texture

	// Release deletes a cached texture.
	//
	// Returns:
	//   - bool: false if the path was not cached
	Release(path string) bool

	// SetRenderSystem changes the render system new textures are created with. Changing it drops
	// the cached textures without deleting them, they belong to the previous render system.
	SetRenderSystem(target TextureCreator)
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with the options applied.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new Loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	settings := renderer.DefaultSettings()
	l := &loader{
		textureCache: make(map[string]*renderer.Texture),
		inFlight:     make(map[string]struct{}),
		workers:      max(runtime.NumCPU()-1, 1),
		sampler:      settings.Sampler,
		mipMaps:      settings.MipMaps,
	}
	for _, option := range options {
		option(l)
	}
	l.pool = worker.NewDynamicWorkerPool(l.workers, 256, 1*time.Second)
	return l
}

func decodeFile(path string) (*renderer.ImageBuffer, error) {
	t, err := BackendForPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	img, err := Decode(t, f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return img, nil
}

func (l *loader) Load(path string) (*renderer.Texture, error) {
	l.mu.RLock()
	if cached, ok := l.textureCache[path]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	img, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	return l.createTexture(path, img)
}

func (l *loader) createTexture(path string, img *renderer.ImageBuffer) (*renderer.Texture, error) {
	l.mu.RLock()
	target := l.target
	l.mu.RUnlock()
	if target == nil {
		return nil, ErrNoRenderSystem
	}
	tex := target.CreateTexture(renderer.TextureCreationFlags{
		Filename: path,
		Size:     img.Size(),
		Format:   img.Format(),
		Image:    img,
		MipMaps:  l.mipMaps,
		Sampler:  l.sampler,
	})
	if tex == nil {
		return nil, fmt.Errorf("%w: %s", ErrCreateTexture, path)
	}

	l.mu.Lock()
	l.textureCache[path] = tex
	l.mu.Unlock()
	return tex, nil
}

// submit runs a decode on the pool and hands the result to deliver.
func (l *loader) submit(path string, deliver func(decoded)) {
	l.mu.Lock()
	id := l.taskID
	l.taskID++
	l.mu.Unlock()

	l.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			img, err := decodeFile(path)
			deliver(decoded{path: path, img: img, err: err})
			return img, err
		},
	})
}

func (l *loader) LoadAsync(path string) bool {
	l.mu.Lock()
	_, cached := l.textureCache[path]
	_, queued := l.inFlight[path]
	if cached || queued {
		l.mu.Unlock()
		return false
	}
	l.inFlight[path] = struct{}{}
	l.mu.Unlock()

	l.submit(path, func(d decoded) {
		l.mu.Lock()
		l.done = append(l.done, d)
		l.mu.Unlock()
	})
	return true
}

func (l *loader) Poll() []Result {
	l.mu.Lock()
	done := l.done
	l.done = nil
	for _, d := range done {
		delete(l.inFlight, d.path)
	}
	l.mu.Unlock()

	results := make([]Result, 0, len(done))
	for _, d := range done {
		r := Result{Path: d.path, Err: d.err}
		if d.err == nil {
			r.Texture, r.Err = l.createTexture(d.path, d.img)
		}
		results = append(results, r)
	}
	return results
}

func (l *loader) Pending() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.inFlight)
}

func (l *loader) DecodeAll(ctx context.Context, paths []string) ([]*renderer.ImageBuffer, error) {
	images := make([]*renderer.ImageBuffer, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			ch := make(chan decoded, 1)
			l.submit(path, func(d decoded) { ch <- d })
			select {
			case d := <-ch:
				if d.err != nil {
					return d.err
				}
				images[i] = d.img
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

func (l *loader) Get(path string) *renderer.Texture {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.textureCache[path]
}

func (l *loader) Textures() map[string]*renderer.Texture {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]*renderer.Texture, len(l.textureCache))
	for k, v := range l.textureCache {
		out[k] = v
	}
	return out
}

func (l *loader) Release(path string) bool {
	l.mu.Lock()
	tex, ok := l.textureCache[path]
	delete(l.textureCache, path)
	target := l.target
	l.mu.Unlock()
	if !ok {
		return false
	}
	if target != nil {
		target.DeleteTexture(tex)
	}
	return true
}

func (l *loader) SetRenderSystem(target TextureCreator) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.target != target {
		// cached textures belong to the previous render system
		clear(l.textureCache)
	}
	l.target = target
}
