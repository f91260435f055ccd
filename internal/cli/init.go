package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/andywolf/uprava/internal/auth"
	"github.com/andywolf/uprava/internal/cli/wizard"
	"github.com/andywolf/uprava/internal/config"
	"github.com/andywolf/uprava/internal/secret"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter configuration file",
	Long: `Create a starter uprava.yaml with one Jira instance and a sample
roadmap report that you can customize.

Example:
  uprava init --interactive
  uprava init --jira-url https://jira.example.com --program 'pass show jira' --project ABC`,
	RunE: initProject,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().String("jira-url", "", "Jira base URL")
	initCmd.Flags().String("access", wizard.AccessToken, "access method (token, jsessionid, basic)")
	initCmd.Flags().String("user", "", "user name for basic access")
	initCmd.Flags().String("program", "", "shell program printing the credential")
	initCmd.Flags().String("project", "", "Jira project key for the sample report")
	initCmd.Flags().String("confluence-url", "", "Confluence base URL")
	initCmd.Flags().String("space", "", "Confluence space key of the roadmap page")
	initCmd.Flags().String("title", "Roadmap", "title of the roadmap page")
	initCmd.Flags().BoolP("interactive", "i", false, "prompt for every value")
	initCmd.Flags().Bool("force", false, "overwrite an existing config file")
}

func initProject(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(cfgFile); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", cfgFile)
	}

	a := wizard.Answers{}
	a.JiraURL, _ = cmd.Flags().GetString("jira-url")
	a.AccessMethod, _ = cmd.Flags().GetString("access")
	a.User, _ = cmd.Flags().GetString("user")
	a.Program, _ = cmd.Flags().GetString("program")
	a.Project, _ = cmd.Flags().GetString("project")
	a.ConfluenceURL, _ = cmd.Flags().GetString("confluence-url")
	a.Space, _ = cmd.Flags().GetString("space")
	a.Title, _ = cmd.Flags().GetString("title")

	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		var err error
		if a, err = wizard.PromptInit(a); err != nil {
			return err
		}
	}

	cfg, err := starterConfig(a)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("generated config is invalid: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := `# Uprava configuration
# Custom field ids are instance specific, look them up with
#   uprava jira get arbitrary rest/api/2/field

`
	if err := os.WriteFile(cfgFile, append([]byte(header), data...), 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s\n\n", cfgFile)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Fill in custom_fields of default_jira_instance")
	fmt.Fprintln(out, "  2. Adjust the queries of the sample report")
	fmt.Fprintln(out, "  3. Run 'uprava report list' and 'uprava report make <name>'")
	return nil
}

// starterConfig builds a config with one Jira instance and a sample
// roadmap report, published to Confluence when a page is given.
func starterConfig(a wizard.Answers) (*config.Config, error) {
	if a.JiraURL == "" {
		return nil, fmt.Errorf("--jira-url is required (or use --interactive)")
	}
	if a.Program == "" {
		return nil, fmt.Errorf("--program is required (or use --interactive)")
	}
	if a.Project == "" {
		return nil, fmt.Errorf("--project is required (or use --interactive)")
	}

	cred := secret.Secret{Program: a.Program}
	var access auth.Access
	switch a.AccessMethod {
	case wizard.AccessToken:
		access.Token = &cred
	case wizard.AccessJSessionID:
		access.JSessionID = &cred
	case wizard.AccessBasic:
		access.Basic = &auth.BasicAccess{User: a.User, Password: cred}
	default:
		return nil, fmt.Errorf("invalid access method: %s (must be token, jsessionid or basic)", a.AccessMethod)
	}

	depth := 1
	query := []config.QueryConfig{{Query: fmt.Sprintf("project = %s AND resolution = Unresolved", a.Project)}}
	cfg := &config.Config{
		DefaultJiraInstance: config.JiraInstanceConfig{BaseURL: a.JiraURL, Access: access},
		Reports: map[string]config.ReportConfig{
			"roadmap": {
				Kind:                 config.KindRoadmap,
				Queries:              query,
				DependenciesDeepness: &depth,
			},
		},
	}

	if a.ConfluenceURL != "" && a.Space != "" {
		cfg.DefaultConfluenceInstance = config.ConfluenceInstanceConfig{BaseURL: a.ConfluenceURL, Access: access}
		cfg.Reports["confluence-roadmap"] = config.ReportConfig{
			Kind:                 config.KindConfluenceRoadmap,
			Queries:              query,
			DependenciesDeepness: &depth,
			Space:                a.Space,
			Title:                a.Title,
		}
	}
	return cfg, nil
}
