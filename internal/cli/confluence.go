package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/andywolf/uprava/internal/confluence"
	"github.com/andywolf/uprava/internal/logging"
	"github.com/andywolf/uprava/internal/printer"
)

var confluenceCmd = &cobra.Command{
	Use:   "confluence",
	Short: "Read and update pages of the default Confluence instance",
}

var confluenceGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Fetch Confluence resources",
}

var confluenceGetContentCmd = &cobra.Command{
	Use:   "content SPACE TITLE",
	Short: "Print a page",
	Long: `Print a page found by space key and title.

Example:
  uprava confluence get content -f email TEAM Roadmap`,
	Args: cobra.ExactArgs(2),
	RunE: getContent,
}

var confluenceGetArbitraryCmd = &cobra.Command{
	Use:   "arbitrary PATH",
	Short: "GET any REST path and print the raw response",
	Args:  cobra.ExactArgs(1),
	RunE:  getConfluenceArbitrary,
}

var confluenceUpdateWikiCmd = &cobra.Command{
	Use:   "update-wiki SPACE TITLE",
	Short: "Replace a page body with wiki markup read from stdin",
	Long: `Replace a page body with wiki markup read from stdin. The page version
is incremented and its title kept.

Example:
  uprava confluence update-wiki TEAM Roadmap < roadmap.wiki`,
	Args: cobra.ExactArgs(2),
	RunE: updateWiki,
}

var confluenceUploadFileCmd = &cobra.Command{
	Use:   "upload-file SPACE TITLE PATH FILENAME",
	Short: "Attach a file to a page, replacing an attachment of the same name",
	Args:  cobra.ExactArgs(4),
	RunE:  uploadFile,
}

func init() {
	rootCmd.AddCommand(confluenceCmd)
	confluenceCmd.AddCommand(confluenceGetCmd, confluenceUpdateWikiCmd, confluenceUploadFileCmd)
	confluenceGetCmd.AddCommand(confluenceGetContentCmd, confluenceGetArbitraryCmd)

	confluenceGetContentCmd.Flags().StringP("format", "f", "yaml", "output format (yaml, json, email)")
}

func getContent(cmd *cobra.Command, args []string) error {
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

	client, err := e.defaultConfluence()
	if err != nil {
		return err
	}
	page, err := client.FindPage(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}

	out, err := confluence.FormatContent(page, format)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func getConfluenceArbitrary(cmd *cobra.Command, args []string) error {
	path, params, err := splitRequest(args[0])
	if err != nil {
		return err
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	client, err := e.defaultConfluence()
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

func updateWiki(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	client, err := e.defaultConfluence()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	page, err := client.FindPage(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	wiki, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}

	updated, err := client.UpdateContent(ctx, page.ID, confluence.WikiUpdate(page, string(wiki)))
	if err != nil {
		return err
	}
	e.logger.Info("Page updated", logging.F("page_id", updated.ID), logging.F("version", updated.Version.Number))
	return nil
}

func uploadFile(cmd *cobra.Command, args []string) error {
	space, title, path, filename := args[0], args[1], args[2], args[3]

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	client, err := e.defaultConfluence()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	page, err := client.FindPage(ctx, space, title)
	if err != nil {
		return err
	}
	if err := client.UploadAttachment(ctx, page.ID, filename, f); err != nil {
		return err
	}
	e.logger.Info("Attachment uploaded", logging.F("page_id", page.ID), logging.F("filename", filename))
	return nil
}
