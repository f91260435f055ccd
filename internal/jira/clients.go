package jira

import (
	"context"
	"fmt"
	"sync"

	"github.com/andywolf/uprava/internal/auth"
	"github.com/andywolf/uprava/internal/secret"
)

// Clients lazily builds one Client per instance and routes batch fetches
// to the right one.
type Clients struct {
	resolver *secret.Resolver
	opts     []ClientOption

	mu      sync.Mutex
	clients map[string]*Client
}

// NewClients creates a client registry sharing resolver for credentials.
func NewClients(resolver *secret.Resolver, opts ...ClientOption) *Clients {
	return &Clients{
		resolver: resolver,
		opts:     opts,
		clients:  make(map[string]*Client),
	}
}

// For returns the client of inst.
func (c *Clients) For(inst *Instance) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cl, ok := c.clients[inst.ID()]; ok {
		return cl
	}
	var authn *auth.Authenticator
	if inst.Access.Method() != "" {
		authn = auth.NewAuthenticator(inst.Access, c.resolver, inst.BaseURL.Path)
	}
	cl := NewClient(inst, authn, c.opts...)
	c.clients[inst.ID()] = cl
	return cl
}

// FetchBatch retrieves keys from inst.
func (c *Clients) FetchBatch(ctx context.Context, inst *Instance, keys []string) ([]Issue, error) {
	issues, err := c.For(inst).FetchKeys(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %d issues from %s: %w", len(keys), inst.ID(), err)
	}
	return issues, nil
}

// Search runs a full JQL query against inst.
func (c *Clients) Search(ctx context.Context, inst *Instance, jql string) ([]Issue, error) {
	return c.For(inst).SearchAll(ctx, SearchParams{JQL: jql})
}
