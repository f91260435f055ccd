package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andywolf/uprava/internal/jira"
	"github.com/andywolf/uprava/internal/printer"
)

var jiraCmd = &cobra.Command{
	Use:   "jira",
	Short: "Query the default Jira instance",
}

var jiraGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Fetch Jira resources",
}

var jiraGetIssueCmd = &cobra.Command{
	Use:   "issue KEY",
	Short: "Print one issue",
	Long: `Print one issue of the default Jira instance.

Example:
  uprava jira get issue ABC-123
  uprava jira get issue -f email ABC-123`,
	Args: cobra.ExactArgs(1),
	RunE: getIssue,
}

var jiraGetArbitraryCmd = &cobra.Command{
	Use:   "arbitrary PATH",
	Short: "GET any REST path and print the raw response",
	Long: `GET any REST path of the default Jira instance.

Example:
  uprava jira get arbitrary 'rest/api/2/issue/ABC-1?fields=summary'`,
	Args: cobra.ExactArgs(1),
	RunE: getJiraArbitrary,
}

var jiraSearchCmd = &cobra.Command{
	Use:   "search JQL",
	Short: "Run a JQL search",
	Long: `Run a JQL search on the default Jira instance.

Example:
  uprava jira search -f json 'project = ABC AND status = Open'
  uprava jira search --all 'assignee = currentUser()'`,
	Args: cobra.ExactArgs(1),
	RunE: searchIssues,
}

func init() {
	rootCmd.AddCommand(jiraCmd)
	jiraCmd.AddCommand(jiraGetCmd, jiraSearchCmd)
	jiraGetCmd.AddCommand(jiraGetIssueCmd, jiraGetArbitraryCmd)

	jiraGetIssueCmd.Flags().StringP("format", "f", "yaml", "output format (yaml, json, email)")
	jiraSearchCmd.Flags().StringP("format", "f", "yaml", "output format (yaml, json)")
	jiraSearchCmd.Flags().Bool("all", false, "fetch every page instead of the first")
}

func getIssue(cmd *cobra.Command, args []string) error {
	flag, _ := cmd.Flags().GetString("format")
	format, err := printer.Parse(flag, true)
	if err != nil {
		return err
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	client, err := e.defaultJira()
	if err != nil {
		return err
	}
	issue, err := client.Issue(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get issue %s: %w", args[0], err)
	}

	out, err := jira.FormatIssue(issue, format)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func getJiraArbitrary(cmd *cobra.Command, args []string) error {
	path, params, err := splitRequest(args[0])
	if err != nil {
		return err
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	client, err := e.defaultJira()
	if err != nil {
		return err
	}
	body, err := client.Get(cmd.Context(), path, params)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(body))
	return nil
}

func searchIssues(cmd *cobra.Command, args []string) error {
	flag, _ := cmd.Flags().GetString("format")
	format, err := printer.Parse(flag, false)
	if err != nil {
		return err
	}
	all, _ := cmd.Flags().GetBool("all")

	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	client, err := e.defaultJira()
	if err != nil {
		return err
	}

	var result interface{}
	params := jira.SearchParams{JQL: args[0]}
	if all {
		result, err = client.SearchAll(cmd.Context(), params)
	} else {
		result, err = client.Search(cmd.Context(), params)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out, err := printer.Marshal(result, format)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
