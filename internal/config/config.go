package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/viper"

	"github.com/andywolf/uprava/internal/auth"
	"github.com/andywolf/uprava/internal/jira"
)

// DefaultFile is the config file read when --config is not given.
const DefaultFile = "uprava.yaml"

// Report kinds.
const (
	KindRoadmap           = "roadmap"
	KindDependencyGraph   = "dependency_graph"
	KindConfluenceRoadmap = "confluence_roadmap"
	KindWorklog           = "worklog"
	KindStoryPoints       = "story_points"
)

// Group-by modes of story point reports.
const (
	GroupByReporter = "reporter"
	GroupByAssignee = "assignee"
	GroupByEpic     = "epic"
	GroupByLabel    = "label"
)

var (
	// ErrUnknownInstance is returned for references to undeclared instances.
	ErrUnknownInstance = errors.New("unknown instance")
	// ErrUnknownReport is returned for undeclared report names.
	ErrUnknownReport = errors.New("unknown report")
)

// Config represents the full uprava configuration
type Config struct {
	DefaultJiraInstance       JiraInstanceConfig                  `mapstructure:"default_jira_instance" yaml:"default_jira_instance"`
	ExtraJiraInstances        map[string]JiraInstanceConfig       `mapstructure:"extra_jira_instances" yaml:"extra_jira_instances,omitempty"`
	DefaultConfluenceInstance ConfluenceInstanceConfig            `mapstructure:"default_confluence_instance" yaml:"default_confluence_instance,omitempty"`
	ExtraConfluenceInstances  map[string]ConfluenceInstanceConfig `mapstructure:"extra_confluence_instances" yaml:"extra_confluence_instances,omitempty"`
	Reports                   map[string]ReportConfig             `mapstructure:"reports" yaml:"reports,omitempty"`
}

// JiraInstanceConfig describes one Jira deployment
type JiraInstanceConfig struct {
	BaseURL      string                  `mapstructure:"base_url" yaml:"base_url"`
	Access       auth.Access             `mapstructure:"access" yaml:"access"`
	CustomFields jira.CustomFieldsConfig `mapstructure:"custom_fields" yaml:"custom_fields,omitempty"`
	RelationsMap []jira.RelationAlias    `mapstructure:"relations_map" yaml:"relations_map,omitempty"`
}

// ConfluenceInstanceConfig describes one Confluence deployment
type ConfluenceInstanceConfig struct {
	BaseURL string      `mapstructure:"base_url" yaml:"base_url"`
	Access  auth.Access `mapstructure:"access" yaml:"access"`
}

// QueryConfig is a JQL query against a named Jira instance ("" is the default)
type QueryConfig struct {
	Jira  string `mapstructure:"jira" yaml:"jira,omitempty"`
	Query string `mapstructure:"query" yaml:"query"`
}

// SubjectConfig names one issue of a foreign relation
type SubjectConfig struct {
	Jira  string `mapstructure:"jira" yaml:"jira,omitempty"`
	Issue string `mapstructure:"issue" yaml:"issue"`
}

// ForeignRelationConfig declares a relation Jira itself does not know about
type ForeignRelationConfig struct {
	From SubjectConfig `mapstructure:"from" yaml:"from"`
	To   SubjectConfig `mapstructure:"to" yaml:"to"`
	Kind string        `mapstructure:"kind" yaml:"kind"`
}

// MemberConfig is one section of a worklog or story points report
type MemberConfig struct {
	Name             string        `mapstructure:"name" yaml:"name"`
	Description      string        `mapstructure:"description" yaml:"description,omitempty"`
	StoryPointsField string        `mapstructure:"story_points_field" yaml:"story_points_field,omitempty"`
	GroupBy          string        `mapstructure:"group_by" yaml:"group_by,omitempty"`
	Queries          []QueryConfig `mapstructure:"queries" yaml:"queries"`
}

// ReportConfig declares one report
type ReportConfig struct {
	Kind                 string                  `mapstructure:"kind" yaml:"kind"`
	Queries              []QueryConfig           `mapstructure:"queries" yaml:"queries,omitempty"`
	ForeignRelations     []ForeignRelationConfig `mapstructure:"foreign_relations" yaml:"foreign_relations,omitempty"`
	DependenciesDeepness *int                    `mapstructure:"dependencies_deepness" yaml:"dependencies_deepness,omitempty"`
	IgnoreFetchErrors    bool                    `mapstructure:"ignore_fetch_errors" yaml:"ignore_fetch_errors,omitempty"`
	Confluence           string                  `mapstructure:"confluence" yaml:"confluence,omitempty"`
	Space                string                  `mapstructure:"space" yaml:"space,omitempty"`
	Title                string                  `mapstructure:"title" yaml:"title,omitempty"`
	Description          string                  `mapstructure:"description" yaml:"description,omitempty"`
	Output               string                  `mapstructure:"output" yaml:"output,omitempty"`
	Members              []MemberConfig          `mapstructure:"members" yaml:"members,omitempty"`
}

// Depth is the configured expansion depth.
func (r ReportConfig) Depth() int {
	if r.DependenciesDeepness == nil {
		return 1
	}
	return *r.DependenciesDeepness
}

// Load loads configuration from the global viper instance
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom loads configuration from v
func LoadFrom(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults sets default values for unset fields
func applyDefaults(cfg *Config) {
	if cfg.ExtraJiraInstances == nil {
		cfg.ExtraJiraInstances = map[string]JiraInstanceConfig{}
	}
	if cfg.ExtraConfluenceInstances == nil {
		cfg.ExtraConfluenceInstances = map[string]ConfluenceInstanceConfig{}
	}
	if cfg.Reports == nil {
		cfg.Reports = map[string]ReportConfig{}
	}

	for name, r := range cfg.Reports {
		if r.DependenciesDeepness == nil {
			depth := 1
			r.DependenciesDeepness = &depth
		}
		if r.Kind == KindDependencyGraph && r.Output == "" {
			r.Output = "dependency_graph.dot"
		}
		for i := range r.Members {
			if r.Members[i].GroupBy == "" {
				r.Members[i].GroupBy = GroupByAssignee
			}
		}
		cfg.Reports[name] = r
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validateJira("default_jira_instance", c.DefaultJiraInstance); err != nil {
		return err
	}
	for name, inst := range c.ExtraJiraInstances {
		if err := validateJira("extra_jira_instances."+name, inst); err != nil {
			return err
		}
	}
	if err := c.validateDistinctJira(); err != nil {
		return err
	}

	if c.DefaultConfluenceInstance.BaseURL != "" {
		if err := validateConfluence("default_confluence_instance", c.DefaultConfluenceInstance); err != nil {
			return err
		}
	}
	for name, inst := range c.ExtraConfluenceInstances {
		if err := validateConfluence("extra_confluence_instances."+name, inst); err != nil {
			return err
		}
	}

	for _, name := range c.ReportNames() {
		if err := c.validateReport(c.Reports[name]); err != nil {
			return fmt.Errorf("report %s: %w", name, err)
		}
	}
	return nil
}

func validateJira(path string, inst JiraInstanceConfig) error {
	if inst.BaseURL == "" {
		return fmt.Errorf("%s.base_url is required", path)
	}
	if _, err := jira.NewInstance(path, inst.BaseURL); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := inst.Access.Validate(); err != nil {
		return fmt.Errorf("%s.access: %w", path, err)
	}
	for _, alias := range inst.RelationsMap {
		if alias.Term == "" || alias.As == "" {
			return fmt.Errorf("%s.relations_map entries need both term and as", path)
		}
	}
	return nil
}

// validateDistinctJira rejects two Jira instances with the same base URL.
// Issues are identified by base URL, so the two would share one identity
// space while reading different custom fields.
func (c *Config) validateDistinctJira() error {
	seen := map[string]string{}
	check := func(path, rawURL string) error {
		inst, err := jira.NewInstance(path, rawURL)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if prev, dup := seen[inst.ID()]; dup {
			return fmt.Errorf("%s.base_url duplicates %s.base_url: %s", path, prev, inst.ID())
		}
		seen[inst.ID()] = path
		return nil
	}

	if err := check("default_jira_instance", c.DefaultJiraInstance.BaseURL); err != nil {
		return err
	}
	names := make([]string, 0, len(c.ExtraJiraInstances))
	for name := range c.ExtraJiraInstances {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := check("extra_jira_instances."+name, c.ExtraJiraInstances[name].BaseURL); err != nil {
			return err
		}
	}
	return nil
}

func validateConfluence(path string, inst ConfluenceInstanceConfig) error {
	if inst.BaseURL == "" {
		return fmt.Errorf("%s.base_url is required", path)
	}
	if err := inst.Access.Validate(); err != nil {
		return fmt.Errorf("%s.access: %w", path, err)
	}
	return nil
}

func (c *Config) hasJira(name string) bool {
	if name == "" {
		return true
	}
	_, ok := c.ExtraJiraInstances[name]
	return ok
}

func (c *Config) hasConfluence(name string) bool {
	if name == "" {
		return c.DefaultConfluenceInstance.BaseURL != ""
	}
	_, ok := c.ExtraConfluenceInstances[name]
	return ok
}

func (c *Config) validateQueries(queries []QueryConfig) error {
	for _, q := range queries {
		if q.Query == "" {
			return fmt.Errorf("query must not be empty")
		}
		if !c.hasJira(q.Jira) {
			return fmt.Errorf("%w: jira %q", ErrUnknownInstance, q.Jira)
		}
	}
	return nil
}

func (c *Config) validateReport(r ReportConfig) error {
	if r.DependenciesDeepness != nil && *r.DependenciesDeepness < 0 {
		return fmt.Errorf("dependencies_deepness must not be negative")
	}

	for _, fr := range r.ForeignRelations {
		if fr.From.Issue == "" || fr.To.Issue == "" || fr.Kind == "" {
			return fmt.Errorf("foreign relations need from.issue, to.issue and kind")
		}
		if !c.hasJira(fr.From.Jira) {
			return fmt.Errorf("%w: jira %q", ErrUnknownInstance, fr.From.Jira)
		}
		if !c.hasJira(fr.To.Jira) {
			return fmt.Errorf("%w: jira %q", ErrUnknownInstance, fr.To.Jira)
		}
	}

	switch r.Kind {
	case KindRoadmap, KindDependencyGraph:
		if len(r.Queries) == 0 {
			return fmt.Errorf("at least one query is required")
		}
		return c.validateQueries(r.Queries)

	case KindConfluenceRoadmap:
		if len(r.Queries) == 0 {
			return fmt.Errorf("at least one query is required")
		}
		if err := c.validateQueries(r.Queries); err != nil {
			return err
		}
		return c.validatePage(r)

	case KindWorklog, KindStoryPoints:
		if len(r.Members) == 0 {
			return fmt.Errorf("at least one member is required")
		}
		for _, m := range r.Members {
			if m.Name == "" {
				return fmt.Errorf("member name is required")
			}
			if err := c.validateQueries(m.Queries); err != nil {
				return fmt.Errorf("member %s: %w", m.Name, err)
			}
			if r.Kind != KindStoryPoints {
				continue
			}
			if m.StoryPointsField == "" {
				return fmt.Errorf("member %s: story_points_field is required", m.Name)
			}
			switch m.GroupBy {
			case GroupByReporter, GroupByAssignee, GroupByEpic, GroupByLabel:
			default:
				return fmt.Errorf("member %s: invalid group_by: %s (must be reporter, assignee, epic or label)", m.Name, m.GroupBy)
			}
		}
		return c.validatePage(r)

	case "":
		return fmt.Errorf("kind is required")
	}
	return fmt.Errorf("invalid kind: %s", r.Kind)
}

func (c *Config) validatePage(r ReportConfig) error {
	if !c.hasConfluence(r.Confluence) {
		return fmt.Errorf("%w: confluence %q", ErrUnknownInstance, r.Confluence)
	}
	if r.Space == "" || r.Title == "" {
		return fmt.Errorf("space and title are required")
	}
	return nil
}

// ReportNames lists declared reports in name order.
func (c *Config) ReportNames() []string {
	names := make([]string, 0, len(c.Reports))
	for name := range c.Reports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Report returns the named report.
func (c *Config) Report(name string) (ReportConfig, error) {
	r, ok := c.Reports[name]
	if !ok {
		return ReportConfig{}, fmt.Errorf("%w: %q is not defined in config file", ErrUnknownReport, name)
	}
	return r, nil
}
