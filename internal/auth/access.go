// Package auth applies configured credentials to outgoing Atlassian REST requests.
package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/andywolf/uprava/internal/secret"
)

// Access declares how requests to one instance are authenticated.
// Exactly one method must be set.
type Access struct {
	Token      *secret.Secret `mapstructure:"token" yaml:"token,omitempty"`
	JSessionID *secret.Secret `mapstructure:"jsessionid" yaml:"jsessionid,omitempty"`
	Basic      *BasicAccess   `mapstructure:"basic" yaml:"basic,omitempty"`
	Connect    *ConnectAccess `mapstructure:"connect" yaml:"connect,omitempty"`
}

// BasicAccess authenticates with a user name and password or API token.
type BasicAccess struct {
	User     string        `mapstructure:"user" yaml:"user"`
	Password secret.Secret `mapstructure:"password" yaml:"password"`
}

// ConnectAccess authenticates as an Atlassian Connect app using a shared secret.
type ConnectAccess struct {
	Issuer       string        `mapstructure:"issuer" yaml:"issuer"`
	SharedSecret secret.Secret `mapstructure:"shared_secret" yaml:"shared_secret"`
}

// Validate checks that exactly one method is configured and that its secret is well formed.
func (a Access) Validate() error {
	methods := 0
	var err error
	if a.Token != nil {
		methods++
		err = a.Token.Validate()
	}
	if a.JSessionID != nil {
		methods++
		err = a.JSessionID.Validate()
	}
	if a.Basic != nil {
		methods++
		if a.Basic.User == "" {
			err = fmt.Errorf("basic access requires a user")
		} else {
			err = a.Basic.Password.Validate()
		}
	}
	if a.Connect != nil {
		methods++
		if a.Connect.Issuer == "" {
			err = fmt.Errorf("connect access requires an issuer")
		} else {
			err = a.Connect.SharedSecret.Validate()
		}
	}

	switch {
	case methods == 0:
		return fmt.Errorf("access method is required (token, jsessionid, basic or connect)")
	case methods > 1:
		return fmt.Errorf("only one access method may be configured")
	case err != nil:
		return fmt.Errorf("invalid access secret: %w", err)
	}
	return nil
}

// Method returns the configured method name.
func (a Access) Method() string {
	switch {
	case a.Token != nil:
		return "token"
	case a.JSessionID != nil:
		return "jsessionid"
	case a.Basic != nil:
		return "basic"
	case a.Connect != nil:
		return "connect"
	}
	return ""
}

// Authenticator signs requests for one instance.
type Authenticator struct {
	access   Access
	resolver *secret.Resolver
	basePath string
}

// NewAuthenticator creates an authenticator. basePath is the context path of
// the instance (e.g. "/jira"), needed to compute Connect query hashes.
func NewAuthenticator(access Access, resolver *secret.Resolver, basePath string) *Authenticator {
	return &Authenticator{
		access:   access,
		resolver: resolver,
		basePath: basePath,
	}
}

// Apply sets the authentication header on req.
func (a *Authenticator) Apply(ctx context.Context, req *http.Request) error {
	switch {
	case a.access.Token != nil:
		token, err := a.resolver.Resolve(ctx, *a.access.Token)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)

	case a.access.JSessionID != nil:
		session, err := a.resolver.Resolve(ctx, *a.access.JSessionID)
		if err != nil {
			return err
		}
		req.Header.Set("Cookie", "JSESSIONID="+session)

	case a.access.Basic != nil:
		password, err := a.resolver.Resolve(ctx, a.access.Basic.Password)
		if err != nil {
			return err
		}
		creds := a.access.Basic.User + ":" + password
		req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(creds)))

	case a.access.Connect != nil:
		key, err := a.resolver.Resolve(ctx, a.access.Connect.SharedSecret)
		if err != nil {
			return err
		}
		gen, err := NewConnectJWT(a.access.Connect.Issuer, []byte(key))
		if err != nil {
			return err
		}
		token, err := gen.TokenFor(req.Method, a.basePath, req.URL)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "JWT "+token)

	default:
		return fmt.Errorf("no access method configured")
	}
	return nil
}
