// Package config loads and stores the engine configuration as TOML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/rendercontext"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/d3d11"
	"github.com/mitchellh/go-homedir"
)

// FileName is the name of the configuration file inside Dir.
const FileName = "config.toml"

var (
	// ErrInvalidResolution is returned for a resolution that is not of the form "WxH".
	ErrInvalidResolution = errors.New("invalid resolution")

	// ErrInvalidValue is returned by Validate for an out of range setting.
	ErrInvalidValue = errors.New("invalid configuration value")
)

// AntiAliasing configures multisampling.
type AntiAliasing struct {
	Enabled bool `toml:"enabled"`
	Samples int  `toml:"samples"`
}

// VSync configures vertical synchronisation.
type VSync struct {
	Enabled  bool `toml:"enabled"`
	Interval int  `toml:"interval"`
}

// RendererProfile selects the context profile of the OpenGL backends and the highest Direct3D 11
// feature level.
type RendererProfile struct {
	ExtProfile      bool   `toml:"ext_profile"`
	CoreProfile     bool   `toml:"core_profile"`
	GLVersion       string `toml:"gl_version"`
	D3DFeatureLevel string `toml:"d3d_feature_level"`
}

// Textures holds the defaults new textures are created with.
type Textures struct {
	Filter     string `toml:"filter"`
	MipMap     string `toml:"mip_map"`
	MipMaps    bool   `toml:"mip_maps"`
	Anisotropy int    `toml:"anisotropy"`
	Wrap       string `toml:"wrap"`
}

// Config is the engine configuration.
type Config struct {
	Backend    renderer.BackendType `toml:"backend"`
	Title      string               `toml:"title"`
	Resolution string               `toml:"resolution"`
	ColorDepth int                  `toml:"color_depth"`
	Fullscreen bool                 `toml:"fullscreen"`
	Hidden     bool                 `toml:"hidden"`

	AntiAliasing AntiAliasing    `toml:"anti_aliasing"`
	VSync        VSync           `toml:"vsync"`
	Profile      RendererProfile `toml:"renderer_profile"`
	Textures     Textures        `toml:"textures"`

	// TickRate is the number of logic ticks per second.
	TickRate int `toml:"tick_rate"`
	// FrameLimit caps the frames per second, 0 renders as fast as possible.
	FrameLimit int  `toml:"frame_limit"`
	Profiling  bool `toml:"profiling"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Backend:      renderer.BackendOpenGL,
		Title:        "oxy-render",
		Resolution:   "800x600",
		ColorDepth:   32,
		AntiAliasing: AntiAliasing{Samples: 2},
		VSync:        VSync{Enabled: true, Interval: 1},
		Profile:      RendererProfile{GLVersion: "3.3", D3DFeatureLevel: "11_0"},
		Textures:     Textures{Filter: "linear", MipMap: "trilinear", MipMaps: true, Anisotropy: 1, Wrap: "repeat"},
		TickRate:     60,
	}
}

// Dir returns the directory the configuration is stored in by default.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "oxy-render"), nil
	}
	return homedir.Expand(filepath.Join("~", ".config", "oxy-render"))
}

// Load reads a configuration file. Settings missing from the file keep their default value.
//
// Parameters:
//   - path: the file to read, a leading ~ is expanded to the home directory
//
// Returns:
//   - Config: the validated configuration
//   - error: an error if the file cannot be read, decoded or validated
func Load(path string) (Config, error) {
	cfg := Default()
	path, err := homedir.Expand(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to expand config path: %w", err)
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Default(), fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	for _, key := range meta.Undecoded() {
		common.Logger().Warn("unknown configuration key", "file", path, "key", key.String())
	}
	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// LoadOrCreate reads the configuration at path and writes the default configuration there first if
// the file does not exist.
//
// Parameters:
//   - path: the file to read, a leading ~ is expanded to the home directory
//
// Returns:
//   - Config: the configuration
//   - error: an error if the file cannot be created or read
func LoadOrCreate(path string) (Config, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return Default(), fmt.Errorf("failed to expand config path: %w", err)
	}
	if _, err := os.Stat(expanded); errors.Is(err, os.ErrNotExist) {
		common.Logger().Info("writing default configuration", "file", expanded)
		cfg := Default()
		if err := cfg.Save(expanded); err != nil {
			return cfg, err
		}
		return cfg, nil
	}
	return Load(expanded)
}

// Save writes the configuration, creating missing directories.
//
// Parameters:
//   - path: the file to write, a leading ~ is expanded to the home directory
//
// Returns:
//   - error: an error if the file cannot be written
func (c Config) Save(path string) error {
	path, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("failed to expand config path: %w", err)
	}
	var buffer bytes.Buffer
	if err := toml.NewEncoder(&buffer).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, buffer.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// Validate checks every setting.
//
// Returns:
//   - error: the first invalid setting wrapped in ErrInvalidValue or ErrInvalidResolution
func (c Config) Validate() error {
	if _, err := ParseResolution(c.Resolution); err != nil {
		return err
	}
	switch c.ColorDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("%w: color_depth %d", ErrInvalidValue, c.ColorDepth)
	}
	if c.AntiAliasing.Samples < 0 || c.AntiAliasing.Samples > 16 {
		return fmt.Errorf("%w: anti_aliasing.samples %d", ErrInvalidValue, c.AntiAliasing.Samples)
	}
	if c.VSync.Interval < 0 {
		return fmt.Errorf("%w: vsync.interval %d", ErrInvalidValue, c.VSync.Interval)
	}
	if c.Profile.GLVersion != "" {
		if _, err := parseGLVersion(c.Profile.GLVersion); err != nil {
			return err
		}
	}
	if c.Profile.D3DFeatureLevel != "" {
		if _, err := parseFeatureLevel(c.Profile.D3DFeatureLevel); err != nil {
			return err
		}
	}
	if _, err := c.Sampler(); err != nil {
		return err
	}
	if c.TickRate <= 0 {
		return fmt.Errorf("%w: tick_rate %d", ErrInvalidValue, c.TickRate)
	}
	if c.FrameLimit < 0 {
		return fmt.Errorf("%w: frame_limit %d", ErrInvalidValue, c.FrameLimit)
	}
	return nil
}

// ParseResolution parses a resolution of the form "WxH".
//
// Parameters:
//   - s: the resolution, e.g. "800x600"
//
// Returns:
//   - common.Size2: the size in pixels
//   - error: ErrInvalidResolution if s is malformed or not positive
func ParseResolution(s string) (common.Size2, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return common.Size2{}, fmt.Errorf("%w %q: missing 'x' separator", ErrInvalidResolution, s)
	}
	width, errW := strconv.Atoi(strings.TrimSpace(w))
	height, errH := strconv.Atoi(strings.TrimSpace(h))
	size := common.Size2{Width: width, Height: height}
	if errW != nil || errH != nil || !size.Valid() {
		return common.Size2{}, fmt.Errorf("%w %q", ErrInvalidResolution, s)
	}
	return size, nil
}

func parseGLVersion(s string) (rendercontext.Version, error) {
	major, minor, _ := strings.Cut(s, ".")
	maj, errMaj := strconv.Atoi(major)
	mnr, errMin := strconv.Atoi(minor)
	v := rendercontext.Version{Major: maj, Minor: mnr}
	if errMaj != nil || errMin != nil || !v.Valid() {
		return rendercontext.Version{}, fmt.Errorf("%w: gl_version %q", ErrInvalidValue, s)
	}
	return v, nil
}

var featureLevels = map[string]uint32{
	"11_0": d3d11.FeatureLevel11_0,
	"10_1": d3d11.FeatureLevel10_1,
	"10_0": d3d11.FeatureLevel10_0,
	"9_3":  d3d11.FeatureLevel9_3,
}

func parseFeatureLevel(s string) (uint32, error) {
	level, ok := featureLevels[s]
	if !ok {
		return 0, fmt.Errorf("%w: d3d_feature_level %q", ErrInvalidValue, s)
	}
	return level, nil
}

var (
	filters  = map[string]renderer.TextureFilter{"linear": renderer.FilterLinear, "nearest": renderer.FilterNearest}
	mipMaps  = map[string]renderer.MipMapFilter{"bilinear": renderer.MipMapBilinear, "trilinear": renderer.MipMapTrilinear, "anisotropic": renderer.MipMapAnisotropic}
	wrapping = map[string]renderer.TextureWrap{"repeat": renderer.WrapRepeat, "mirror": renderer.WrapMirror, "clamp": renderer.WrapClamp}
)

// Sampler returns the default sampling parameters of new textures.
func (c Config) Sampler() (renderer.SamplerDesc, error) {
	t := c.Textures
	filter, ok := filters[t.Filter]
	if !ok {
		return renderer.SamplerDesc{}, fmt.Errorf("%w: textures.filter %q", ErrInvalidValue, t.Filter)
	}
	mip, ok := mipMaps[t.MipMap]
	if !ok {
		return renderer.SamplerDesc{}, fmt.Errorf("%w: textures.mip_map %q", ErrInvalidValue, t.MipMap)
	}
	wrap, ok := wrapping[t.Wrap]
	if !ok {
		return renderer.SamplerDesc{}, fmt.Errorf("%w: textures.wrap %q", ErrInvalidValue, t.Wrap)
	}
	return renderer.SamplerDesc{Filter: filter, MipMap: mip, Anisotropy: max(t.Anisotropy, 1), Wrap: wrap}, nil
}

// ContextConfig converts the configuration into the configuration of a render context. Invalid
// settings fall back to their defaults.
//
// Returns:
//   - rendercontext.Config: the render context configuration
func (c Config) ContextConfig() rendercontext.Config {
	out := rendercontext.DefaultConfig()
	out.Backend = c.Backend
	out.Title = c.Title
	if size, err := ParseResolution(c.Resolution); err == nil {
		out.Resolution = size
	}
	out.ColorDepth = c.ColorDepth
	out.Fullscreen = c.Fullscreen
	out.Flags = rendercontext.DeviceFlags{
		AntiAliasing: rendercontext.AntiAliasing{Enabled: c.AntiAliasing.Enabled, MultiSamples: c.AntiAliasing.Samples},
		VSync:        rendercontext.VSync{Enabled: c.VSync.Enabled, Interval: c.VSync.Interval},
		RendererProfile: rendercontext.RendererProfile{
			UseExtProfile:    c.Profile.ExtProfile,
			UseGLCoreProfile: c.Profile.CoreProfile,
		},
		Hidden: c.Hidden,
	}
	if v, err := parseGLVersion(c.Profile.GLVersion); err == nil {
		out.Flags.RendererProfile.GLVersion = v
	}
	if level, err := parseFeatureLevel(c.Profile.D3DFeatureLevel); err == nil {
		out.Flags.RendererProfile.D3DFeatureLevel = level
	}
	if sampler, err := c.Sampler(); err == nil {
		out.RenderSystem = append(out.RenderSystem, renderer.WithSampler(sampler))
	}
	out.RenderSystem = append(out.RenderSystem, renderer.WithMipMaps(c.Textures.MipMaps))
	return out
}
