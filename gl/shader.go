// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package gl

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/glsl"
)

// compileWGSL translates one WGSL stage to GLSL for the given entry
// point. GL contexts do not understand WGSL, so naga parses it and
// emits GLSL 4.30 core; 4.30 is required for the layout(binding=N)
// qualifiers naga generates for uniform blocks.
func compileWGSL(source, entryPoint string) (string, error) {
	if source == "" {
		return "", fmt.Errorf("gl: shader has no WGSL source")
	}

	ast, err := naga.Parse(source)
	if err != nil {
		return "", fmt.Errorf("gl: WGSL parse error: %w", err)
	}

	module, err := naga.Lower(ast)
	if err != nil {
		return "", fmt.Errorf("gl: WGSL lower error: %w", err)
	}

	code, _, err := glsl.Compile(module, glsl.Options{
		LangVersion:        glsl.Version430,
		EntryPoint:         entryPoint,
		ForceHighPrecision: true,
	})
	if err != nil {
		return "", fmt.Errorf("gl: GLSL compile error for entry point %q: %w", entryPoint, err)
	}
	return code, nil
}
