// Package shader rewrites HLSL-syntax shader source for GLSL targets and inspects WGSL source.
//
// The pre-processor tokenizes the source, validates its brackets and reconstructs it token by
// token. For GLSL targets it solves HLSL type macros (float3 -> vec3, float4x4 -> mat4), renames
// intrinsics, converts [numthreads] into a layout declaration and rewrites the entry point into
// main with its system-value arguments bound to GLSL built-ins.
package shader

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
)

// Options controls the reconstruction of the source.
type Options uint32

const (
	// SkipBlanks drops empty lines and indentation.
	SkipBlanks Options = 1 << iota
	// NoTabs replaces tabs with four spaces.
	NoTabs
	// SolveMacros replaces HLSL types and intrinsics with their GLSL names.
	SolveMacros
)

// ErrInvalidEntryPoint is returned for an empty entry point name.
var ErrInvalidEntryPoint = errors.New("invalid entry point")

const indentMask = "    "

// typeConversion maps an HLSL scalar type to its GLSL scalar, vector and matrix names. scalar is
// empty when the GLSL scalar has the same name.
type typeConversion struct {
	hlsl, scalar, vec, mat string
}

var typeConversions = []typeConversion{
	{"float", "", "vec", "mat"},
	{"double", "", "dvec", "dmat"},
	{"half", "float", "vec", "mat"},
	{"int", "", "ivec", "imat"},
	{"uint", "", "uvec", "umat"},
	{"bool", "", "bvec", "bmat"},
}

var renames = map[string]string{
	"groupshared":        "shared",
	"GroupMemoryBarrier": "groupMemoryBarrier",
	"ddx":                "dFdx",
	"ddy":                "dFdy",
	"frac":               "fract",
	"lerp":               "mix",
}

// builtins are the GLSL variables system-value semantics of compute entry points are bound to.
var builtins = map[string]string{
	"SV_GroupID":          "gl_WorkGroupID",
	"SV_GroupThreadID":    "gl_LocalInvocationID",
	"SV_DispatchThreadID": "gl_GlobalInvocationID",
	"SV_GroupIndex":       "gl_LocalInvocationIndex",
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	tokens  []Token
	pos     int
	tkn     Token
	options Options
	out     []string
	indent  string

	maxVertexCount int
}

// PreProcessor rewrites shader source before it is handed to a compiler.
type PreProcessor interface {
	// Process validates and reconstructs shader source. GLSL versions get the HLSL to GLSL
	// rewriting, all other versions only the reconstruction options. The first structural error
	// stops processing and is logged.
	//
	// Parameters:
	//   - source: the shader source
	//   - t: the shader stage
	//   - version: the target shading language version
	//   - entryPoint: the name of the entry point function
	//   - options: the reconstruction options
	//
	// Returns:
	//   - string: the processed source
	//   - error: ErrInvalidEntryPoint, a *BracketError or a syntax error
	Process(source string, t renderer.ShaderType, version renderer.ShaderVersion, entryPoint string, options Options) (string, error)

	// MaxVertexCount returns the [maxvertexcount] of the last processed geometry shader, or 0.
	MaxVertexCount() int
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor.
//
// Returns:
//   - PreProcessor: a new PreProcessor
func NewPreProcessor() PreProcessor {
	return &preProcessor{}
}

func (p *preProcessor) MaxVertexCount() int {
	return p.maxVertexCount
}

func (p *preProcessor) Process(source string, t renderer.ShaderType, version renderer.ShaderVersion, entryPoint string, options Options) (string, error) {
	out, err := p.process(source, version, entryPoint, options)
	if err != nil {
		common.Logger().Error("could not pre-process shader", "type", t, "version", version, "error", err)
		return "", err
	}
	return out, nil
}

func (p *preProcessor) process(source string, version renderer.ShaderVersion, entryPoint string, options Options) (string, error) {
	*p = preProcessor{options: options}
	if entryPoint == "" {
		return "", ErrInvalidEntryPoint
	}
	p.tokens = Tokenize(source)
	if err := ValidateBrackets(p.tokens); err != nil {
		return "", err
	}
	glsl := version.IsGLSL()

	prevNL := false
	for p.next(false) {
		if options&SkipBlanks != 0 {
			if p.tkn.Type == TokenNewline {
				if prevNL {
					continue
				}
				prevNL = true
			} else if prevNL && p.tkn.IsWhiteSpace() {
				continue
			} else {
				prevNL = false
			}
		}
		if options&NoTabs != 0 && p.tkn.Type == TokenTab {
			p.append(indentMask)
			continue
		}

		if glsl {
			if p.tkn.Type == TokenName {
				if options&SolveMacros != 0 {
					p.tkn.Str = solveMacro(p.tkn.Str)
				}
				if p.tkn.Str == entryPoint {
					if err := p.entryPoint(); err != nil {
						return "", err
					}
					continue
				}
			}
			if p.tkn.Type == TokenSquaredBracketLeft && p.prevSignificant().Type != TokenName {
				if err := p.attribute(); err != nil {
					return "", err
				}
				continue
			}
		}
		p.out = append(p.out, p.tkn.Str)
	}
	return strings.Join(p.out, ""), nil
}

// next advances to the next token, optionally skipping whitespace, newlines and comments.
func (p *preProcessor) next(skipBlanks bool) bool {
	for p.pos < len(p.tokens) {
		p.tkn = p.tokens[p.pos]
		p.pos++
		if skipBlanks && (p.tkn.IsWhiteSpace() || p.tkn.Type == TokenNewline || p.tkn.Type == TokenComment) {
			continue
		}
		return true
	}
	p.tkn = Token{Type: TokenEOF}
	return false
}

// nextOf advances to the next token of type t.
func (p *preProcessor) nextOf(t TokenType) bool {
	for p.next(false) {
		if p.tkn.Type == t {
			return true
		}
	}
	return false
}

// prevSignificant returns the token before the current one, skipping blanks and comments.
func (p *preProcessor) prevSignificant() Token {
	for i := p.pos - 2; i >= 0; i-- {
		t := p.tokens[i]
		if t.IsWhiteSpace() || t.Type == TokenNewline || t.Type == TokenComment {
			continue
		}
		return t
	}
	return Token{Type: TokenEOF}
}

func (p *preProcessor) append(s string) {
	p.out = append(p.out, p.indent+s)
}

func (p *preProcessor) errorAt(msg string) error {
	return fmt.Errorf("%s at %s", msg, p.tkn.Position())
}

// solveMacro returns the GLSL name of an HLSL type or intrinsic, or name itself.
func solveMacro(name string) string {
	for _, conv := range typeConversions {
		if strings.HasPrefix(name, conv.hlsl) {
			if solved, ok := solveVectorMacro(name, conv); ok {
				return solved
			}
		}
	}
	if renamed, ok := renames[name]; ok {
		return renamed
	}
	return name
}

// solveVectorMacro converts scalar, vector (float3) and matrix (float3x4) types.
func solveVectorMacro(name string, conv typeConversion) (string, bool) {
	n := len(conv.hlsl)
	scalar := conv.hlsl
	if conv.scalar != "" {
		scalar = conv.scalar
	}
	if len(name) == n {
		return scalar, true
	}
	rows := name[n]
	if rows < '1' || rows > '4' {
		return "", false
	}
	if len(name) == n+1 {
		if rows == '1' {
			return scalar, true
		}
		return conv.vec + string(rows), true
	}
	if len(name) != n+3 || name[n+1] != 'x' {
		return "", false
	}
	cols := name[n+2]
	if cols < '1' || cols > '4' {
		return "", false
	}
	switch {
	case rows == '1' && cols == '1':
		return scalar, true
	case rows == '1':
		return conv.vec + string(cols), true
	case cols == '1':
		return conv.vec + string(rows), true
	case rows == cols:
		return conv.mat + string(rows), true
	}
	return conv.mat + string(rows) + "x" + string(cols), true
}

// attribute solves an HLSL attribute such as [numthreads(8, 8, 1)] or [unroll]. The current token
// is the opening squared bracket.
func (p *preProcessor) attribute() error {
	if !p.next(true) || p.tkn.Type != TokenName {
		return p.errorAt("unexpected token while processing HLSL attribute")
	}
	switch p.tkn.Str {
	case "numthreads":
		return p.numThreads()
	case "maxvertexcount":
		for p.next(false) && p.tkn.Type != TokenSquaredBracketRight {
			if p.tkn.Type == TokenNumberInt {
				p.maxVertexCount, _ = strconv.Atoi(strings.TrimRight(p.tkn.Str, "uUlL"))
			}
		}
		return nil
	}
	p.nextOf(TokenSquaredBracketRight)
	return nil
}

func (p *preProcessor) numThreads() error {
	p.append("layout")
	coord := byte('x')
	for p.next(false) {
		switch p.tkn.Type {
		case TokenNumberInt:
			if coord > 'z' {
				return p.errorAt(`too many arguments for "numthreads" attribute`)
			}
			p.append("local_size_" + string(coord) + " = ")
			coord++
		case TokenSquaredBracketRight:
			p.append(" in;")
			return nil
		}
		p.append(p.tkn.Str)
	}
	return nil
}

// inputArg is one argument of the entry point.
type inputArg struct {
	dataType, identifier, semantic string
}

// entryPoint rewrites the entry point function header into "void main()" and binds its
// system-value arguments. The current token is the function name.
func (p *preProcessor) entryPoint() error {
	p.dropReturnType()

	var args []inputArg
	for p.next(true) {
		switch p.tkn.Type {
		case TokenBracketLeft, TokenComma:
			if p.tkn.Type == TokenBracketLeft && p.peekSignificant().Type == TokenBracketRight {
				continue
			}
			arg, err := p.inputArg()
			if err != nil {
				return err
			}
			args = append(args, arg)
			continue
		case TokenBracketRight:
		default:
			return p.errorAt("unexpected token in entry-point argument-list")
		}
		break
	}

	p.append("void main()\n{\n")
	p.indent = indentMask
	for _, arg := range args {
		if builtin, ok := builtins[arg.semantic]; ok {
			p.append(arg.dataType + " " + arg.identifier + " = " + builtin + ";\n")
		}
	}
	p.indent = ""
	if !p.nextOf(TokenBraceLeft) {
		return p.errorAt("missing entry-point body")
	}
	return nil
}

// dropReturnType removes the return type already written before the entry point name.
func (p *preProcessor) dropReturnType() {
	i := len(p.out) - 1
	for i >= 0 && strings.TrimSpace(p.out[i]) == "" {
		i--
	}
	if i >= 0 && p.out[i] == "void" {
		p.out = p.out[:i]
	}
}

// peekSignificant returns the next token without consuming it, skipping blanks and comments.
func (p *preProcessor) peekSignificant() Token {
	for i := p.pos; i < len(p.tokens); i++ {
		t := p.tokens[i]
		if t.IsWhiteSpace() || t.Type == TokenNewline || t.Type == TokenComment {
			continue
		}
		return t
	}
	return Token{Type: TokenEOF}
}

func (p *preProcessor) inputArg() (inputArg, error) {
	var arg inputArg
	expect := func(t TokenType, what string) error {
		if !p.next(true) || p.tkn.Type != t {
			return p.errorAt("unexpected token in entry-point argument-list (expected " + what + ")")
		}
		return nil
	}
	if err := expect(TokenName, "data-type"); err != nil {
		return arg, err
	}
	if p.options&SolveMacros != 0 {
		p.tkn.Str = solveMacro(p.tkn.Str)
	}
	arg.dataType = p.tkn.Str
	if err := expect(TokenName, "identifier"); err != nil {
		return arg, err
	}
	arg.identifier = p.tkn.Str
	if err := expect(TokenColon, "':' character"); err != nil {
		return arg, err
	}
	if err := expect(TokenName, "semantic"); err != nil {
		return arg, err
	}
	arg.semantic = p.tkn.Str
	return arg, nil
}
