package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/thedatadavis/webgrab/internal/config"
	"github.com/thedatadavis/webgrab/internal/db"
	"github.com/thedatadavis/webgrab/internal/extract"
	"github.com/thedatadavis/webgrab/internal/mcp"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"create-batch": true, "list-batches": true, "save-page": true,
	"get-page-count": true, "export-batch": true, "delete-batch": true,
	"extract-and-record": true, "export-prospects": true, "clear-prospects": true,
	"call": true, "help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
                _                       _
  __      _____| |__   __ _ _ __ __ _| |__
  \ \ /\ / / _ \ '_ \ / _' | '__/ _' | '_ \
   \ V  V /  __/ |_) | (_| | | | (_| | |_) |
    \_/\_/ \___|_.__/ \__, |_|  \__,_|_.__/
                      |___/

  Local page archive and prospect scraper

  Usage: webgrab <command> [options]
         webgrab --help

  MCP server mode requires piped input.`)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil, nil, "")
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	baseDir := filepath.Join(homeDir, ".webgrab")

	database, err := db.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	db.ConfigurePool(database, cfg)

	configs, err := extract.LoadConfigs(cfg.SelectorConfigFor(baseDir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load selector configs: %v\n", err)
		os.Exit(1)
	}

	exportDir := cfg.ExportDirFor(baseDir)

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(database, cfg, configs, exportDir)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'webgrab --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(database, cfg, configs, exportDir, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
