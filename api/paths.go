package api

import (
	"path/filepath"
	"slices"
	"strings"

	"converteasy/config"

	"github.com/go-playground/validator/v10"
)

// PathRoots confines the files an HTTP client can name. Request paths are
// relative: inputs resolve under InputDir and outputs under OutputDir.
type PathRoots struct {
	InputDir  string
	OutputDir string
}

// NewPathRoots takes the roots from the configuration. Without input_dir
// the working directory is served; without output_dir outputs land under
// the input root.
func NewPathRoots(cfg *config.Config) PathRoots {
	in := cfg.InputDir
	if in == "" {
		in = "."
	}
	out := cfg.OutputDir
	if out == "" {
		out = in
	}
	return PathRoots{InputDir: in, OutputDir: out}
}

// Input resolves a validated request path under the input root.
func (r PathRoots) Input(p string) string {
	return filepath.Join(r.InputDir, p)
}

// Output resolves a validated request path under the output root. An empty
// path stays empty so the orchestrator derives one next to the input.
func (r PathRoots) Output(p string) string {
	if p == "" {
		return ""
	}
	return filepath.Join(r.OutputDir, p)
}

// isLocalPath backs the "localpath" tag: relative, non-empty and without a
// ".." element anywhere.
func isLocalPath(fl validator.FieldLevel) bool {
	p := fl.Field().String()
	if !filepath.IsLocal(p) || strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\`) {
		return false
	}
	return !slices.Contains(strings.FieldsFunc(p, func(c rune) bool { return c == '/' || c == '\\' }), "..")
}

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("localpath", isLocalPath); err != nil {
		panic(err)
	}
	return v
}
