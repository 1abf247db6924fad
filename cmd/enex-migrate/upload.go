// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/enex-migrate/internal/upload"
	"github.com/pdiddy/enex-migrate/pkg/types"
)

const defaultUploadTimeout = 120 * time.Second

var uploadCmd = &cobra.Command{
	Use:   "upload [directory]",
	Short: "Mirror the output tree into Google Drive",
	Long: `Upload recreates the extraction output tree in Google Drive: one Drive
folder per notebook, every artifact uploaded beneath it. Hidden bookkeeping
files stay local.

The first run opens an OAuth consent flow and caches the token; later runs
reuse it. Credentials come from a Google Cloud OAuth client file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().String("credentials", "credentials.json", "OAuth client credentials file")
	uploadCmd.Flags().String("token", "token.json", "cached OAuth token file")
	uploadCmd.Flags().String("parent", "", "Drive folder ID to upload under (default: Drive root)")
	uploadCmd.Flags().Duration("timeout", 0, "per-operation timeout (default 120s)")

	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	dir := defaultOutputDir
	if len(args) == 1 {
		dir = args[0]
	}
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("output directory %s: %w", dir, err)
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultUploadTimeout
	}
	cfg := types.UploadConfig{
		CredentialsFile: settingDefault(cmd, "credentials", "upload.credentials_file"),
		TokenFile:       settingDefault(cmd, "token", "upload.token_file"),
		Timeout:         timeout,
	}
	parentID, _ := cmd.Flags().GetString("parent")

	ctx := context.Background()
	srv, err := upload.Authenticate(ctx, cfg, os.Stdin, os.Stderr)
	if err != nil {
		return err
	}

	uploader := upload.NewUploader(upload.NewService(srv), os.Stdout, cfg.Timeout)
	summary, err := uploader.UploadDirectory(ctx, dir, parentID)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d file(s) failed to upload", summary.Failed)
	}
	return nil
}
