// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/enex-migrate/internal/index"
	"github.com/pdiddy/enex-migrate/pkg/types"
)

const defaultDBFile = "audit.db"

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the audit index (store, query, warnings)",
	Long: `Index maintains a SQLite database built from the extraction log, so
large migrations can be audited with filters and full-text search. Use
subcommands to ingest a log, query note outcomes, or list warnings.`,
}

// --- store subcommand ---

var indexStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Ingest the extraction log into the audit index",
	Long: `Store reads the extraction log and populates the audit database with
every note outcome and warning. An unchanged log is skipped on subsequent
runs; a changed one replaces the previous contents.`,
	RunE: runIndexStore,
}

func runIndexStore(cmd *cobra.Command, args []string) error {
	cfg := indexConfig(cmd)
	logFile := settingDefault(cmd, "log", "extract.log_file")

	store, err := index.NewStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = store.Ingest(context.Background(), os.Stdout, logFile)
	return err
}

// --- query subcommand ---

var indexQueryCmd = &cobra.Command{
	Use:   "query [search terms]",
	Short: "Query note outcomes with full-text search and filters",
	Long: `Query searches the audit index using FTS5 full-text search over note
titles and error text, structured filters, or a combination of both.`,
	RunE: runIndexQuery,
}

func runIndexQuery(cmd *cobra.Command, args []string) error {
	store, err := index.NewStore(indexConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	kind, _ := cmd.Flags().GetString("kind")
	notebook, _ := cmd.Flags().GetString("notebook")
	failed, _ := cmd.Flags().GetBool("failed")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	opts := index.QueryOptions{
		Query:      strings.Join(args, " "),
		Notebook:   notebook,
		Kind:       types.ArtifactKind(kind),
		FailedOnly: failed,
		MaxResults: maxResults,
	}
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide search terms, --notebook, --kind, or --failed")
	}

	results, err := store.Query(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(results, jsonOutput)
}

func formatQueryOutput(results []index.NoteRecord, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-20s  %-30s  %-20s  %-7s  %s\n",
		"Notebook", "Note", "Kind", "OK", "Error")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))

	for _, r := range results {
		note := r.Note
		if len(note) > 30 {
			note = note[:27] + "..."
		}
		errText := r.Error
		if len(errText) > 40 {
			errText = errText[:37] + "..."
		}
		ok := "yes"
		if !r.Success {
			ok = "no"
		}
		fmt.Fprintf(os.Stdout, "%-20s  %-30s  %-20s  %-7s  %s\n",
			r.Notebook, note, r.Kind, ok, errText)
	}
	return nil
}

// --- warnings subcommand ---

var indexWarningsCmd = &cobra.Command{
	Use:   "warnings",
	Short: "List indexed warnings, optionally by type",
	RunE:  runIndexWarnings,
}

func runIndexWarnings(cmd *cobra.Command, args []string) error {
	store, err := index.NewStore(indexConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	warnType, _ := cmd.Flags().GetString("type")
	warnings, err := store.Warnings(context.Background(), warnType)
	if err != nil {
		return err
	}

	if len(warnings) == 0 {
		fmt.Println("No warnings.")
		return nil
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stdout, "%-25s  %s\n", w.Type, w.Message)
	}
	return nil
}

func indexConfig(cmd *cobra.Command) types.IndexConfig {
	maxResults, _ := cmd.Flags().GetInt("max-results")
	return types.IndexConfig{
		DBFile:     settingDefault(cmd, "db", "index.db_file"),
		MaxResults: maxResults,
	}
}

func init() {
	for _, cmd := range []*cobra.Command{indexStoreCmd, indexQueryCmd, indexWarningsCmd} {
		cmd.Flags().String("db", defaultDBFile, "audit index database file")
		cmd.Flags().Int("max-results", 0, "maximum results to return (default 50)")
	}
	indexStoreCmd.Flags().String("log", defaultLogFile, "extraction log file to ingest")
	indexQueryCmd.Flags().String("notebook", "", "filter by notebook name")
	indexQueryCmd.Flags().String("kind", "", "filter by artifact kind")
	indexQueryCmd.Flags().Bool("failed", false, "show only failed notes")
	indexQueryCmd.Flags().Bool("json", false, "emit results as JSON")
	indexWarningsCmd.Flags().String("type", "", "filter by warning type")

	indexCmd.AddCommand(indexStoreCmd, indexQueryCmd, indexWarningsCmd)
	rootCmd.AddCommand(indexCmd)
}
