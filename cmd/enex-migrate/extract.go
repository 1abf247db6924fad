// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/enex-migrate/internal/pipeline"
	"github.com/pdiddy/enex-migrate/internal/record"
	"github.com/pdiddy/enex-migrate/pkg/types"
)

const (
	defaultOutputDir = "EverNote Notes"
	defaultLogFile   = "extraction-log.json"
)

var extractCmd = &cobra.Command{
	Use:   "extract [archives...]",
	Short: "Convert .enex archives into per-notebook PDF artifacts",
	Long: `Extract parses Evernote export archives and writes one directory per
notebook. Text notes become PDFs, lone attachments pass through unchanged,
and mixed notes merge into a single document with unmergeable media saved
alongside. Outcomes accumulate in the extraction log, so re-running over
the same log replaces only the notebooks processed this run.

With no arguments, every .enex file under --input-dir is processed.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("input-dir", ".", "directory scanned for .enex archives")
	extractCmd.Flags().String("output-dir", defaultOutputDir, "root directory for notebook output")
	extractCmd.Flags().String("log", defaultLogFile, "extraction log file")
	extractCmd.Flags().Bool("preserve-names", false, "omit identifier prefixes from artifact names")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := types.ExtractConfig{
		InputDir:  settingDefault(cmd, "input-dir", "extract.input_dir"),
		OutputDir: settingDefault(cmd, "output-dir", "extract.output_dir"),
		LogFile:   settingDefault(cmd, "log", "extract.log_file"),
	}
	cfg.PreserveNames, _ = cmd.Flags().GetBool("preserve-names")

	paths := args
	if len(paths) == 0 {
		var err error
		paths, err = findArchives(cfg.InputDir)
		if err != nil {
			return err
		}
	}
	if len(paths) == 0 {
		return fmt.Errorf("no .enex archives found in %s", cfg.InputDir)
	}

	rec := record.New()
	rec.Load(cfg.LogFile)

	p := pipeline.New(rec, pipeline.Options{
		OutputDir:     cfg.OutputDir,
		PreserveNames: cfg.PreserveNames,
	}, os.Stdout)

	result := p.Run(paths)

	if err := rec.Flush(cfg.LogFile); err != nil {
		return fmt.Errorf("writing extraction log: %w", err)
	}

	if result.HasFailures() {
		return fmt.Errorf("%d collection(s) failed extraction", result.Failed)
	}
	return nil
}

// findArchives lists .enex files directly under dir, case-insensitively,
// in name order.
func findArchives(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".enex") {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
