// Package wizard provides interactive prompts for CLI commands.
package wizard

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/huh"
)

// Access methods offered by the init wizard.
const (
	AccessToken      = "token"
	AccessJSessionID = "jsessionid"
	AccessBasic      = "basic"
)

// Answers are the values a starter configuration is built from.
type Answers struct {
	JiraURL       string
	AccessMethod  string
	User          string
	Program       string
	Project       string
	ConfluenceURL string
	Space         string
	Title         string
}

// PromptInit asks for the starter configuration, prefilled with defaults.
func PromptInit(defaults Answers) (Answers, error) {
	a := defaults
	if a.AccessMethod == "" {
		a.AccessMethod = AccessToken
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Jira base URL").
				Placeholder("https://jira.example.com").
				Value(&a.JiraURL).
				Validate(validateURL),

			huh.NewSelect[string]().
				Title("Access method").
				Options(
					huh.NewOption("Personal access token", AccessToken),
					huh.NewOption("JSESSIONID cookie", AccessJSessionID),
					huh.NewOption("User and password", AccessBasic),
				).
				Value(&a.AccessMethod),

			huh.NewInput().
				Title("Program printing the credential").
				Description("Run with sh -c, its trimmed output is the token, cookie or password.").
				Value(&a.Program).
				Validate(required("credential program")),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("User name").
				Value(&a.User).
				Validate(required("user name")),
		).WithHideFunc(func() bool { return a.AccessMethod != AccessBasic }),
		huh.NewGroup(
			huh.NewInput().
				Title("Jira project key for the sample roadmap").
				Value(&a.Project).
				Validate(required("project key")),

			huh.NewInput().
				Title("Confluence base URL (optional)").
				Value(&a.ConfluenceURL).
				Validate(optionalURL),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Confluence space key").
				Value(&a.Space).
				Validate(required("space key")),

			huh.NewInput().
				Title("Roadmap page title").
				Value(&a.Title).
				Validate(required("page title")),
		).WithHideFunc(func() bool { return strings.TrimSpace(a.ConfluenceURL) == "" }),
	)

	if err := form.Run(); err != nil {
		return Answers{}, fmt.Errorf("prompt cancelled: %w", err)
	}
	return a.trimmed(), nil
}

func (a Answers) trimmed() Answers {
	for _, s := range []*string{&a.JiraURL, &a.User, &a.Program, &a.Project, &a.ConfluenceURL, &a.Space, &a.Title} {
		*s = strings.TrimSpace(*s)
	}
	return a
}

func required(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}

func validateURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must start with http:// or https://")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must include a host")
	}
	return nil
}

func optionalURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return validateURL(s)
}
