package convert

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/slink-ws/asciidoc2confluence/pkg/errors"
)

// Asciidoctor renders AsciiDoc by running the asciidoctor executable with
// the source on stdin and reading the embedded XHTML body from stdout.
type Asciidoctor struct {
	Binary  string
	BaseDir string
	Timeout time.Duration
}

// Args returns the command line for env.
func (a *Asciidoctor) Args(env Env) []string {
	base := a.BaseDir
	if base == "" && env.Path != "" {
		base = filepath.Dir(env.Path)
	}
	args := []string{"-b", "xhtml5", "-s", "-a", "confluence-space=" + env.Space}
	if base != "" {
		args = append(args, "-B", base)
	}
	return append(args, "-o", "-", "-")
}

// Render implements Backend.
func (a *Asciidoctor) Render(ctx context.Context, env Env, source []byte) (string, error) {
	parent := ctx
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	args := a.Args(env)
	cmd := exec.CommandContext(ctx, a.Binary, args...)
	cmd.Stdin = bytes.NewReader(source)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	command := a.Binary + " " + strings.Join(args, " ")
	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", errors.NewProcessError("convert", command, "",
				&errors.DependencyError{Dependency: a.Binary, Message: "executable not found in PATH"})
		}
		output := strings.TrimSpace(stderr.String())
		if parent.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", errors.NewProcessError("convert", command, output,
				errors.NewTimeoutError("convert", a.Timeout.String(), "asciidoctor did not finish"))
		}
		pe := errors.NewProcessError("convert", command, output, err)
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			pe.ExitCode = exitErr.ExitCode()
		}
		return "", pe
	}
	return stdout.String(), nil
}
