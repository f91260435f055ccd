package config

import (
	"fmt"

	"github.com/andywolf/uprava/internal/confluence"
	"github.com/andywolf/uprava/internal/jira"
)

// Registry resolves instance names to built instances. The empty name is
// the default instance.
type Registry struct {
	jira       map[string]*jira.Instance
	confluence map[string]*confluence.Instance
}

// Registry builds every declared instance.
func (c *Config) Registry() (*Registry, error) {
	r := &Registry{
		jira:       make(map[string]*jira.Instance),
		confluence: make(map[string]*confluence.Instance),
	}

	if err := r.addJira("", c.DefaultJiraInstance); err != nil {
		return nil, err
	}
	for name, inst := range c.ExtraJiraInstances {
		if err := r.addJira(name, inst); err != nil {
			return nil, err
		}
	}

	if c.DefaultConfluenceInstance.BaseURL != "" {
		if err := r.addConfluence("", c.DefaultConfluenceInstance); err != nil {
			return nil, err
		}
	}
	for name, inst := range c.ExtraConfluenceInstances {
		if err := r.addConfluence(name, inst); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) addJira(name string, cfg JiraInstanceConfig) error {
	inst, err := jira.NewInstance(name, cfg.BaseURL)
	if err != nil {
		return err
	}
	inst.Access = cfg.Access
	inst.CustomFields = cfg.CustomFields
	inst.RelationsMap = cfg.RelationsMap
	r.jira[name] = inst
	return nil
}

func (r *Registry) addConfluence(name string, cfg ConfluenceInstanceConfig) error {
	inst, err := confluence.NewInstance(name, cfg.BaseURL)
	if err != nil {
		return err
	}
	inst.Access = cfg.Access
	r.confluence[name] = inst
	return nil
}

// Jira returns the named Jira instance.
func (r *Registry) Jira(name string) (*jira.Instance, error) {
	inst, ok := r.jira[name]
	if !ok {
		return nil, fmt.Errorf("%w: jira %q", ErrUnknownInstance, name)
	}
	return inst, nil
}

// Confluence returns the named Confluence instance.
func (r *Registry) Confluence(name string) (*confluence.Instance, error) {
	inst, ok := r.confluence[name]
	if !ok {
		return nil, fmt.Errorf("%w: confluence %q", ErrUnknownInstance, name)
	}
	return inst, nil
}
