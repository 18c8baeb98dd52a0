package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	mcpsdk "github.com/mark3labs/mcp-go/mcp"
	"github.com/urfave/cli/v2"

	"github.com/thedatadavis/webgrab/internal/config"
	"github.com/thedatadavis/webgrab/internal/errors"
	"github.com/thedatadavis/webgrab/internal/extract"
	"github.com/thedatadavis/webgrab/internal/mcp"
	"github.com/thedatadavis/webgrab/internal/ops"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config, configs extract.ConfigSet, exportDir string) *cli.App {
	app := &cli.App{
		Name:    "webgrab",
		Usage:   "Local page archive and directory prospect scraper",
		Version: Version,
		Commands: []*cli.Command{
			createBatchCmd(db),
			listBatchesCmd(db),
			savePageCmd(db),
			getPageCountCmd(db),
			exportBatchCmd(db, cfg, exportDir),
			deleteBatchCmd(db),
			extractAndRecordCmd(db, configs),
			exportProspectsCmd(db, cfg, exportDir),
			clearProspectsCmd(db),
			callCmd(db, cfg, configs, exportDir),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// createBatchCmd creates the create-batch command.
func createBatchCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "create-batch",
		Usage:     "Create a new named archive batch",
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewEmptyName())
			}

			output, err := ops.CreateBatch(c.Context, db, ops.CreateBatchInput{
				Name: strings.Join(c.Args().Slice(), " "),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// listBatchesCmd creates the list-batches command.
func listBatchesCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list-batches",
		Usage: "List all batches sorted by name",
		Action: func(c *cli.Context) error {
			output, err := ops.ListBatches(c.Context, db)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// savePageCmd creates the save-page command.
func savePageCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "save-page",
		Usage: "Archive a page snapshot into a batch (reads HTML from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "batch", Aliases: []string{"b"}, Required: true, Usage: "Target batch ID"},
			&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Required: true, Usage: "Page URL"},
		},
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewPageRetrieval(c.String("url")))
			}

			html, err := readStdin()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			output, err := ops.SavePage(c.Context, db, ops.SavePageInput{
				BatchID:     c.String("batch"),
				URL:         c.String("url"),
				HTMLContent: html,
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// getPageCountCmd creates the get-page-count command.
func getPageCountCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "get-page-count",
		Usage: "Count archived pages in one batch, or all pages",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "batch", Aliases: []string{"b"}, Usage: "Batch ID (omit to count all pages)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.PageCountInput{}
			if batchID := c.String("batch"); batchID != "" {
				input.BatchID = &batchID
			}

			output, err := ops.PageCount(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// exportBatchCmd creates the export-batch command.
func exportBatchCmd(db *sql.DB, cfg *config.Config, exportDir string) *cli.Command {
	return &cli.Command{
		Name:      "export-batch",
		Usage:     "Export a batch's pages as newline-delimited JSON",
		ArgsUsage: "<batch-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Usage: "Export directory (defaults to the configured exports dir)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("batch id argument is required"))
			}

			dir := c.String("dir")
			if dir == "" {
				dir = exportDir
			}

			output, err := ops.ExportBatch(c.Context, db, cfg, ops.ExportBatchInput{
				BatchID: c.Args().First(),
				Dir:     dir,
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// deleteBatchCmd creates the delete-batch command.
func deleteBatchCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "delete-batch",
		Usage:     "Delete a batch and all of its pages",
		ArgsUsage: "<batch-id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("batch id argument is required"))
			}

			output, err := ops.DeleteBatch(c.Context, db, ops.DeleteBatchInput{
				BatchID: c.Args().First(),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// extractAndRecordCmd creates the extract-and-record command.
func extractAndRecordCmd(db *sql.DB, configs extract.ConfigSet) *cli.Command {
	return &cli.Command{
		Name:  "extract-and-record",
		Usage: "Extract prospect listings from search-result HTML (stdin) and record them",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "directory", Aliases: []string{"d"}, Required: true, Usage: "Selector configuration name"},
		},
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewPageRetrieval(c.String("directory")))
			}

			html, err := readStdin()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			output, err := ops.ExtractAndRecord(c.Context, db, configs, ops.ExtractAndRecordInput{
				Directory:   c.String("directory"),
				HTMLContent: html,
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// exportProspectsCmd creates the export-prospects command.
func exportProspectsCmd(db *sql.DB, cfg *config.Config, exportDir string) *cli.Command {
	return &cli.Command{
		Name:  "export-prospects",
		Usage: "Export the entire prospect ledger as a JSON array",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Usage: "Export directory (defaults to the configured exports dir)"},
		},
		Action: func(c *cli.Context) error {
			dir := c.String("dir")
			if dir == "" {
				dir = exportDir
			}

			output, err := ops.ExportProspects(c.Context, db, cfg, ops.ExportProspectsInput{Dir: dir})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// clearProspectsCmd creates the clear-prospects command.
func clearProspectsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "clear-prospects",
		Usage: "Empty the prospect ledger",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip the confirmation prompt"},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("yes") {
				return cli.Exit("refusing to clear without --yes", 1)
			}

			output, err := ops.ClearProspects(c.Context, db)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// callCmd creates the call command, which routes one tagged command through
// the dispatcher registry. Arguments are read as a JSON object from stdin.
func callCmd(db *sql.DB, cfg *config.Config, configs extract.ConfigSet, exportDir string) *cli.Command {
	return &cli.Command{
		Name:      "call",
		Usage:     "Issue a single tagged command (JSON arguments from stdin)",
		ArgsUsage: "<command-tag>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("command tag argument is required"))
			}

			args := map[string]any{}
			if stdinHasData() {
				raw, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				if raw != "" {
					if err := json.Unmarshal([]byte(raw), &args); err != nil {
						return outputError(errors.NewInvalidRequest("arguments must be a JSON object"))
					}
				}
			}

			h := mcp.NewHandlers(db, cfg, configs, exportDir)
			result, err := mcp.Dispatch(context.Background(), h, c.Args().First(), args)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			return outputDispatchResult(result)
		},
	}
}

// outputDispatchResult prints a dispatcher result and maps error results to
// a non-zero exit.
func outputDispatchResult(result *mcpsdk.CallToolResult) error {
	for _, content := range result.Content {
		if text, ok := mcpsdk.AsTextContent(content); ok {
			fmt.Fprintln(os.Stdout, text.Text)
		}
	}
	if result.IsError {
		return cli.Exit("", 1)
	}
	return nil
}

// outputJSON prints a value as indented JSON on stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if aErr, ok := err.(*errors.ArchiveError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", aErr.Code, aErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
