// Package secret resolves credentials referenced from the configuration file.
//
// A secret is declared in exactly one of three forms:
//
//	{string: "literal value"}
//	{program: "pass show jira/token"}      # stdout of `sh -c`, trimmed
//	{gcp_secret: "jira-token"}             # GCP Secret Manager, latest version
package secret

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"unicode/utf8"
)

// ErrEmpty is returned when a secret declares none of its sources.
var ErrEmpty = errors.New("secret has no source")

// Secret is a reference to a credential. Exactly one field must be set.
type Secret struct {
	String    string `mapstructure:"string" yaml:"string,omitempty"`
	Program   string `mapstructure:"program" yaml:"program,omitempty"`
	GCPSecret string `mapstructure:"gcp_secret" yaml:"gcp_secret,omitempty"`
}

// Validate checks that exactly one source is declared.
func (s Secret) Validate() error {
	n := 0
	for _, v := range []string{s.String, s.Program, s.GCPSecret} {
		if v != "" {
			n++
		}
	}
	switch n {
	case 0:
		return ErrEmpty
	case 1:
		return nil
	default:
		return fmt.Errorf("secret must declare only one of string, program or gcp_secret")
	}
}

// IsZero reports whether no source is declared.
func (s Secret) IsZero() bool {
	return s == Secret{}
}

// describe names the secret source without revealing a literal value.
func (s Secret) describe() string {
	switch {
	case s.Program != "":
		return fmt.Sprintf("program %q", s.Program)
	case s.GCPSecret != "":
		return fmt.Sprintf("gcp secret %q", s.GCPSecret)
	case s.String != "":
		return "literal"
	}
	return "empty"
}

// CommandRunner executes a shell command and returns its standard output.
type CommandRunner func(ctx context.Context, command string) ([]byte, error)

// Resolver turns Secret references into values. Resolved values are cached
// for the lifetime of the resolver so a program-backed secret runs once per
// process, not once per HTTP request.
type Resolver struct {
	run    CommandRunner
	newGCP func(ctx context.Context) (Fetcher, error)

	mu    sync.Mutex
	gcp   Fetcher
	cache map[Secret]string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithCommandRunner overrides how program secrets are executed.
func WithCommandRunner(run CommandRunner) ResolverOption {
	return func(r *Resolver) {
		r.run = run
	}
}

// WithFetcher sets the Secret Manager fetcher used for gcp_secret references.
func WithFetcher(f Fetcher) ResolverOption {
	return func(r *Resolver) {
		r.gcp = f
	}
}

// NewResolver creates a resolver. The GCP client is created lazily on the
// first gcp_secret lookup.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		run: runShell,
		newGCP: func(ctx context.Context) (Fetcher, error) {
			return NewSecretManagerClient(ctx)
		},
		cache: make(map[Secret]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the trimmed value of s.
func (r *Resolver) Resolve(ctx context.Context, s Secret) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.cache[s]; ok {
		return v, nil
	}

	var (
		value string
		err   error
	)
	switch {
	case s.String != "":
		value = s.String
	case s.Program != "":
		value, err = r.fromProgram(ctx, s.Program)
	case s.GCPSecret != "":
		value, err = r.fromGCP(ctx, s.GCPSecret)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", s.describe(), err)
	}

	value = strings.TrimSpace(value)
	r.cache[s] = value
	return value, nil
}

// Close releases the Secret Manager client if one was created.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gcp != nil {
		return r.gcp.Close()
	}
	return nil
}

func (r *Resolver) fromProgram(ctx context.Context, command string) (string, error) {
	out, err := r.run(ctx, command)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(out) {
		return "", fmt.Errorf("invalid UTF-8 sequence in command %q output", command)
	}
	return string(out), nil
}

func (r *Resolver) fromGCP(ctx context.Context, path string) (string, error) {
	if r.gcp == nil {
		f, err := r.newGCP(ctx)
		if err != nil {
			return "", err
		}
		r.gcp = f
	}
	return r.gcp.FetchSecret(ctx, path)
}

func runShell(ctx context.Context, command string) ([]byte, error) {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", command)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", command)
	}
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to execute secret command %q: %w", command, err)
	}
	return out, nil
}
