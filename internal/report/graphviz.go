package report

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Graphviz renders DOT source to SVG.
type Graphviz func(ctx context.Context, dot []byte) ([]byte, error)

// DotBinary is the Graphviz executable used by ExecGraphviz.
var DotBinary = "dot"

// ExecGraphviz pipes dot through the Graphviz binary.
func ExecGraphviz(ctx context.Context, dot []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, DotBinary, "-Tsvg")
	cmd.Stdin = bytes.NewReader(dot)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("failed to execute %q of the Graphviz project: %w: %s", DotBinary, err, msg)
		}
		return nil, fmt.Errorf("failed to execute %q of the Graphviz project: %w", DotBinary, err)
	}
	return stdout.Bytes(), nil
}

func (r *Runner) graphviz() Graphviz {
	if r.Graphviz == nil {
		return ExecGraphviz
	}
	return r.Graphviz
}
