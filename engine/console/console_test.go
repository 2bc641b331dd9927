package console

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPrinter struct {
	confirmed []string
	errors    []string
}

func (p *recordingPrinter) Confirm(msg string) { p.confirmed = append(p.confirmed, msg) }
func (p *recordingPrinter) Error(msg string)   { p.errors = append(p.errors, msg) }

type fakeRenderSystem struct {
	renderer.RenderSystem
}

func (fakeRenderSystem) Renderer() string  { return "GeForce" }
func (fakeRenderSystem) Vendor() string    { return "NVIDIA" }
func (fakeRenderSystem) Version() string   { return "OpenGL 4.1" }
func (fakeRenderSystem) TextureCount() int { return 7 }
func (fakeRenderSystem) Stats() renderer.FrameStats {
	return renderer.FrameStats{Frames: 3, DrawCalls: 12, NativeStateChanges: 4, ElidedStateChanges: 9}
}

type fakeContext struct {
	fullscreen bool
	vsync      bool
	resolution common.Size2
	rs         renderer.RenderSystem
}

func (c *fakeContext) Fullscreen() bool                    { return c.fullscreen }
func (c *fakeContext) SetFullscreen(fullscreen bool)       { c.fullscreen = fullscreen }
func (c *fakeContext) Vsync() bool                         { return c.vsync }
func (c *fakeContext) SetVsync(enabled bool)               { c.vsync = enabled }
func (c *fakeContext) RenderSystem() renderer.RenderSystem { return c.rs }

func (c *fakeContext) SetResolution(size common.Size2) bool {
	if !size.Valid() {
		return false
	}
	c.resolution = size
	return true
}

func newConsole(ctx *fakeContext) (*Console, *recordingPrinter) {
	p := &recordingPrinter{}
	active := func() RenderContext {
		if ctx == nil {
			return nil
		}
		return ctx
	}
	return New(active, p), p
}

func TestFullscreenAndVsyncToggle(t *testing.T) {
	ctx := &fakeContext{vsync: true, rs: fakeRenderSystem{}}
	c, p := newConsole(ctx)

	require.NoError(t, c.Execute("fullscreen"))
	assert.True(t, ctx.fullscreen)
	require.NoError(t, c.Execute("vsync"))
	assert.False(t, ctx.vsync)
	require.NoError(t, c.Execute("VSYNC"))
	assert.True(t, ctx.vsync)

	assert.Equal(t, []string{
		"switched fullscreen mode",
		"vertical synchronisation disabled",
		"vertical synchronisation enabled",
	}, p.confirmed)
	assert.Empty(t, p.errors)
}

func TestResolution(t *testing.T) {
	ctx := &fakeContext{rs: fakeRenderSystem{}}
	c, p := newConsole(ctx)

	require.NoError(t, c.Execute("resolution 1024x768"))
	assert.Equal(t, common.Size2{Width: 1024, Height: 768}, ctx.resolution)
	assert.Equal(t, []string{"changed resolution: ( 1024 x 768 )"}, p.confirmed)

	require.NoError(t, c.Execute("resolution 1024-768"))
	require.NoError(t, c.Execute("resolution"))
	require.NoError(t, c.Execute("resolution 0x768"))
	assert.Equal(t, []string{
		`missing 'x' separator character in resolution parameter (e.g. "800x600")`,
		"missing parameter for command 'resolution'",
		"invalid resolution: ( 0 x 768 )",
	}, p.errors)
	assert.Equal(t, common.Size2{Width: 1024, Height: 768}, ctx.resolution)
}

func TestRenderSystemCommands(t *testing.T) {
	c, p := newConsole(&fakeContext{rs: fakeRenderSystem{}})

	require.NoError(t, c.Execute("hardware"))
	require.NoError(t, c.Execute("textures"))
	assert.Equal(t, []string{"GeForce: NVIDIA", "version: OpenGL 4.1", "textures: 7"}, p.confirmed)

	p.confirmed = nil
	require.NoError(t, c.Execute("stats"))
	require.Len(t, p.confirmed, 5)
	assert.Equal(t, "frames:        3", p.confirmed[0])
	assert.Equal(t, "state changes: 4 (9 elided)", p.confirmed[3])
}

func TestNoActiveContext(t *testing.T) {
	c, p := newConsole(nil)
	for _, line := range []string{"fullscreen", "vsync", "resolution 800x600", "hardware", "textures", "stats"} {
		require.NoError(t, c.Execute(line))
	}
	assert.Empty(t, p.confirmed)
	require.Len(t, p.errors, 6)
	for _, msg := range p.errors {
		assert.Equal(t, "no active render context", msg)
	}
}

func TestExecuteParsing(t *testing.T) {
	c, p := newConsole(&fakeContext{})

	assert.NoError(t, c.Execute("   "))
	assert.ErrorIs(t, c.Execute("wireframe"), ErrUnknownCommand)
	assert.Error(t, c.Execute(`resolution "800x600`))
	assert.Len(t, p.errors, 2)

	var got []string
	c.Register("echo", "prints its arguments", func(c *Console, args []string) {
		got = args
	})
	require.NoError(t, c.Execute(`echo 'two words' "and more"`))
	assert.Equal(t, []string{"two words", "and more"}, got)

	p.confirmed = nil
	require.NoError(t, c.Execute("help"))
	assert.Len(t, p.confirmed, 8)
}
