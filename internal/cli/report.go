package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andywolf/uprava/internal/confluence"
	"github.com/andywolf/uprava/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build the reports declared in the config file",
}

var reportMakeCmd = &cobra.Command{
	Use:   "make NAME",
	Short: "Build one report",
	Long: `Build one report declared under "reports" in the config file.

Example:
  uprava report make team-roadmap`,
	Args: cobra.ExactArgs(1),
	RunE: makeReport,
}

var reportMakeAllCmd = &cobra.Command{
	Use:   "make-all",
	Short: "Build every report in name order",
	Args:  cobra.NoArgs,
	RunE:  makeAllReports,
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List declared reports",
	Args:  cobra.NoArgs,
	RunE:  listReports,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportMakeCmd, reportMakeAllCmd, reportListCmd)
}

func newRunner(cmd *cobra.Command, e *env) *report.Runner {
	return &report.Runner{
		Config:   e.cfg,
		Registry: e.registry,
		Tracker:  e.jira,
		Wiki: func(inst *confluence.Instance) report.Wiki {
			return e.confluenceClient(inst)
		},
		Graphviz: report.ExecGraphviz,
		Logger:   e.logger,
		Out:      cmd.OutOrStdout(),
	}
}

func makeReport(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	return newRunner(cmd, e).Run(cmd.Context(), args[0])
}

func makeAllReports(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	return newRunner(cmd, e).RunAll(cmd.Context())
}

func listReports(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	for _, name := range e.cfg.ReportNames() {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}
