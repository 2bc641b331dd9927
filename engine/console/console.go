// Package console runs text commands against the active render context, e.g. "resolution 800x600".
// Commands must be executed on the render thread.
package console

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/mattn/go-shellwords"
)

const errNoContext = "no active render context"

// ErrUnknownCommand is returned by Execute for a command that was not registered.
var ErrUnknownCommand = errors.New("unknown command")

// Printer receives the output of commands.
type Printer interface {
	// Confirm prints a success or informational message.
	Confirm(msg string)
	// Error prints an error message.
	Error(msg string)
}

// RenderContext is the part of a render context the commands control.
type RenderContext interface {
	Fullscreen() bool
	SetFullscreen(fullscreen bool)
	Vsync() bool
	SetVsync(enabled bool)
	SetResolution(size common.Size2) bool
	RenderSystem() renderer.RenderSystem
}

// Command runs one command. args excludes the command name.
type Command func(c *Console, args []string)

type entry struct {
	help string
	run  Command
}

// Console parses command lines and dispatches them to registered commands.
type Console struct {
	active   func() RenderContext
	printer  Printer
	commands map[string]entry
	parser   *shellwords.Parser
}

// New creates a console with the built-in commands registered.
//
// Parameters:
//   - active: returns the active render context, or nil if there is none
//   - printer: receives the output of commands
//
// Returns:
//   - *Console: the console
func New(active func() RenderContext, printer Printer) *Console {
	if printer == nil {
		printer = LogPrinter{}
	}
	c := &Console{
		active:   active,
		printer:  printer,
		commands: make(map[string]entry),
		parser:   shellwords.NewParser(),
	}
	c.Register("fullscreen", "toggles fullscreen mode", cmdFullscreen)
	c.Register("vsync", "toggles vertical synchronisation", cmdVsync)
	c.Register("resolution", "changes the resolution, e.g. resolution 800x600", cmdResolution)
	c.Register("hardware", "prints the renderer, vendor and version", cmdHardware)
	c.Register("textures", "prints the number of textures", cmdTextures)
	c.Register("stats", "prints the frame statistics", cmdStats)
	c.Register("help", "lists the commands", cmdHelp)
	return c
}

// Register adds or replaces a command.
//
// Parameters:
//   - name: the command name, matched case-insensitively
//   - help: a one line description printed by "help"
//   - run: the command
func (c *Console) Register(name, help string, run Command) {
	c.commands[strings.ToLower(name)] = entry{help: help, run: run}
}

// Execute parses and runs one command line. An empty line does nothing.
//
// Parameters:
//   - line: the command line, arguments are split like a POSIX shell does
//
// Returns:
//   - error: a parse error or ErrUnknownCommand, command failures are reported through the Printer
func (c *Console) Execute(line string) error {
	args, err := c.parser.Parse(line)
	if err != nil {
		c.printer.Error(err.Error())
		return fmt.Errorf("failed to parse command line: %w", err)
	}
	if len(args) == 0 {
		return nil
	}
	name := strings.ToLower(args[0])
	e, ok := c.commands[name]
	if !ok {
		c.printer.Error(fmt.Sprintf("unknown command %q", args[0]))
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
	e.run(c, args[1:])
	return nil
}

// Printer returns the printer commands write to.
func (c *Console) Printer() Printer {
	return c.printer
}

// Context returns the active render context, or nil after printing an error.
func (c *Console) Context() RenderContext {
	if c.active != nil {
		if ctx := c.active(); ctx != nil {
			return ctx
		}
	}
	c.printer.Error(errNoContext)
	return nil
}

func cmdFullscreen(c *Console, _ []string) {
	ctx := c.Context()
	if ctx == nil {
		return
	}
	ctx.SetFullscreen(!ctx.Fullscreen())
	c.printer.Confirm("switched fullscreen mode")
}

func cmdVsync(c *Console, _ []string) {
	ctx := c.Context()
	if ctx == nil {
		return
	}
	ctx.SetVsync(!ctx.Vsync())
	state := "disabled"
	if ctx.Vsync() {
		state = "enabled"
	}
	c.printer.Confirm("vertical synchronisation " + state)
}

func cmdResolution(c *Console, args []string) {
	ctx := c.Context()
	if ctx == nil {
		return
	}
	if len(args) == 0 {
		c.printer.Error("missing parameter for command 'resolution'")
		return
	}
	w, h, ok := strings.Cut(args[0], "x")
	if !ok {
		c.printer.Error(`missing 'x' separator character in resolution parameter (e.g. "800x600")`)
		return
	}
	width, _ := strconv.Atoi(w)
	height, _ := strconv.Atoi(h)
	size := common.Size2{Width: width, Height: height}
	if !ctx.SetResolution(size) {
		c.printer.Error(fmt.Sprintf("invalid resolution: ( %d x %d )", width, height))
		return
	}
	c.printer.Confirm(fmt.Sprintf("changed resolution: ( %d x %d )", width, height))
}

func cmdHardware(c *Console, _ []string) {
	rs := c.renderSystem()
	if rs == nil {
		return
	}
	c.printer.Confirm(rs.Renderer() + ": " + rs.Vendor())
	c.printer.Confirm("version: " + rs.Version())
}

func cmdTextures(c *Console, _ []string) {
	rs := c.renderSystem()
	if rs == nil {
		return
	}
	c.printer.Confirm(fmt.Sprintf("textures: %d", rs.TextureCount()))
}

func cmdStats(c *Console, _ []string) {
	rs := c.renderSystem()
	if rs == nil {
		return
	}
	s := rs.Stats()
	c.printer.Confirm(fmt.Sprintf("frames:        %d", s.Frames))
	c.printer.Confirm(fmt.Sprintf("draw calls:    %d", s.DrawCalls))
	c.printer.Confirm(fmt.Sprintf("primitives:    %d", s.Primitives))
	c.printer.Confirm(fmt.Sprintf("state changes: %d (%d elided)", s.NativeStateChanges, s.ElidedStateChanges))
	c.printer.Confirm(fmt.Sprintf("uploads:       %d buffers, %d bytes, %d textures", s.BufferUploads, s.UploadedBytes, s.TextureUploads))
}

func cmdHelp(c *Console, _ []string) {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		c.printer.Confirm(fmt.Sprintf("%-12s%s", name, c.commands[name].help))
	}
}

func (c *Console) renderSystem() renderer.RenderSystem {
	ctx := c.Context()
	if ctx == nil {
		return nil
	}
	rs := ctx.RenderSystem()
	if rs == nil {
		c.printer.Error(errNoContext)
	}
	return rs
}

// LogPrinter prints command output through the package logger.
type LogPrinter struct{}

func (LogPrinter) Confirm(msg string) {
	common.Logger().Info(msg)
}

func (LogPrinter) Error(msg string) {
	common.Logger().Error(msg)
}
