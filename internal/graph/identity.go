// Package graph assembles issues from one or more Jira instances into a
// de-duplicated relation graph with resolved epics.
package graph

import (
	"strings"

	"github.com/andywolf/uprava/internal/jira"
)

// Identity names an issue across instances. Two issues with the same key
// on different instances are different identities.
type Identity struct {
	Instance string
	Key      string
}

// IdentityOf derives the identity of key on inst.
func IdentityOf(inst *jira.Instance, key string) Identity {
	return Identity{Instance: inst.ID(), Key: key}
}

func (id Identity) String() string {
	return id.Instance + "/" + id.Key
}

// StableString renders the identity as a symbol-safe node name: every rune
// outside [A-Za-z0-9_] becomes an underscore.
func (id Identity) StableString() string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, id.String())
}

func (id Identity) less(o Identity) bool {
	if id.Instance != o.Instance {
		return id.Instance < o.Instance
	}
	return id.Key < o.Key
}

// Subject is an issue reference that can still be fetched.
type Subject struct {
	Instance *jira.Instance
	Key      string
}

func (s Subject) Identity() Identity {
	return IdentityOf(s.Instance, s.Key)
}
