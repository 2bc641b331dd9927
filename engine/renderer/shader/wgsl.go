package shader

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
)

var (
	// vertexEntryRegex matches the function name following an @vertex attribute.
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	// fragmentEntryRegex matches the function name following an @fragment attribute.
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// computeEntryRegex matches the function name following an @compute attribute.
	computeEntryRegex = regexp.MustCompile(`(?s)@compute\b.*?\bfn\s+(\w+)`)

	// workgroupSizeRegex captures one to three @workgroup_size dimensions.
	workgroupSizeRegex = regexp.MustCompile(`@workgroup_size\(\s*(\d+)\s*(?:,\s*(\d+)\s*(?:,\s*(\d+)\s*)?)?\)`)
)

// WGSLEntryPoint extracts the entry point function name of a stage from WGSL source.
//
// Parameters:
//   - source: the raw WGSL source code string
//   - t: the stage to search for, ShaderVertex, ShaderPixel or ShaderCompute
//
// Returns:
//   - string: the entry point function name, or an empty string if none is declared
func WGSLEntryPoint(source string, t renderer.ShaderType) string {
	var re *regexp.Regexp
	switch t {
	case renderer.ShaderVertex:
		re = vertexEntryRegex
	case renderer.ShaderPixel:
		re = fragmentEntryRegex
	case renderer.ShaderCompute:
		re = computeEntryRegex
	default:
		return ""
	}
	if match := re.FindStringSubmatch(stripComments(source)); match != nil {
		return match[1]
	}
	return ""
}

// WGSLWorkgroupSize extracts the @workgroup_size of a compute shader. Omitted dimensions are 1.
//
// Parameters:
//   - source: the raw WGSL source code string
//
// Returns:
//   - [3]uint32: the workgroup size as [x, y, z], [1, 1, 1] if none is declared
func WGSLWorkgroupSize(source string) [3]uint32 {
	result := [3]uint32{1, 1, 1}
	match := workgroupSizeRegex.FindStringSubmatch(stripComments(source))
	if match == nil {
		return result
	}
	for i, s := range match[1:] {
		if v, err := strconv.ParseUint(s, 10, 32); err == nil {
			result[i] = uint32(v)
		}
	}
	return result
}

// stripComments removes line and block comments from WGSL source.
func stripComments(source string) string {
	return stripLineComments(stripBlockComments(source))
}

func stripLineComments(source string) string {
	var sb strings.Builder
	for line := range strings.SplitSeq(source, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// stripBlockComments removes block comments, which nest in WGSL.
func stripBlockComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			if source[i] == '/' && source[i+1] == '*' {
				depth++
				i++
				continue
			}
			if source[i] == '*' && source[i+1] == '/' && depth > 0 {
				depth--
				i++
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}
