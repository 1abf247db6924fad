// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	drive "google.golang.org/api/drive/v3"
)

const folderMimeType = "application/vnd.google-apps.folder"

// Service is the slice of the Drive API the uploader needs.
type Service interface {
	// CreateFolder creates a folder under parentID ("" for the Drive root)
	// and returns its ID.
	CreateFolder(ctx context.Context, name, parentID string) (string, error)

	// UploadFile streams r into a new file named name under parentID.
	UploadFile(ctx context.Context, name, parentID string, r io.Reader) error
}

// driveService adapts the generated Drive v3 client to Service.
type driveService struct {
	srv *drive.Service
}

// NewService wraps an authorized Drive client.
func NewService(srv *drive.Service) Service {
	return &driveService{srv: srv}
}

func (d *driveService) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	meta := &drive.File{
		Name:     name,
		MimeType: folderMimeType,
	}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}
	folder, err := d.srv.Files.Create(meta).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("creating folder %q: %w", name, err)
	}
	return folder.Id, nil
}

func (d *driveService) UploadFile(ctx context.Context, name, parentID string, r io.Reader) error {
	meta := &drive.File{
		Name:    name,
		Parents: []string{parentID},
	}
	if _, err := d.srv.Files.Create(meta).Media(r).Fields("id").Context(ctx).Do(); err != nil {
		return fmt.Errorf("uploading %q: %w", name, err)
	}
	return nil
}

// Uploader mirrors local directories into Drive.
type Uploader struct {
	svc     Service
	out     io.Writer
	timeout time.Duration
}

// NewUploader returns an Uploader writing progress lines to w. A non-zero
// timeout bounds each individual Drive call.
func NewUploader(svc Service, w io.Writer, timeout time.Duration) *Uploader {
	if w == nil {
		w = io.Discard
	}
	return &Uploader{svc: svc, out: w, timeout: timeout}
}

// Summary counts one upload run.
type Summary struct {
	Folders int
	Files   int
	Failed  int
}

// HasFailures reports whether any file failed to upload.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// UploadDirectory recreates localPath and everything under it in Drive,
// beneath parentID ("" for the Drive root). Hidden entries are skipped so
// local bookkeeping files such as manifests stay local. A failed file
// upload is counted and reported; it never stops the run. A failed folder
// creation skips that subtree, since its children have nowhere to go.
func (u *Uploader) UploadDirectory(ctx context.Context, localPath, parentID string) (Summary, error) {
	var summary Summary
	err := u.uploadDir(ctx, localPath, parentID, &summary)
	fmt.Fprintf(u.out, "\nBatch summary: %d folder(s), %d file(s), %d failed\n",
		summary.Folders, summary.Files, summary.Failed)
	return summary, err
}

func (u *Uploader) uploadDir(ctx context.Context, localPath, parentID string, summary *Summary) error {
	name := filepath.Base(localPath)
	fmt.Fprintf(u.out, "created: %s/ (folder)\n", name)
	folderID, err := u.call(ctx, func(ctx context.Context) (string, error) {
		return u.svc.CreateFolder(ctx, name, parentID)
	})
	if err != nil {
		return fmt.Errorf("creating folder for %s: %w", localPath, err)
	}
	summary.Folders++

	entries, err := os.ReadDir(localPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", localPath, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(localPath, entry.Name())

		if entry.IsDir() {
			if err := u.uploadDir(ctx, path, folderID, summary); err != nil {
				fmt.Fprintf(u.out, "failed:  %s/ (%v)\n", entry.Name(), err)
				summary.Failed++
			}
			continue
		}

		if err := u.uploadFile(ctx, path, folderID); err != nil {
			fmt.Fprintf(u.out, "failed:  %s (%v)\n", entry.Name(), err)
			summary.Failed++
			continue
		}
		summary.Files++
		fmt.Fprintf(u.out, "created: %s\n", entry.Name())
	}
	return nil
}

func (u *Uploader) uploadFile(ctx context.Context, path, parentID string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	_, err = u.call(ctx, func(ctx context.Context) (string, error) {
		return "", u.svc.UploadFile(ctx, filepath.Base(path), parentID, f)
	})
	return err
}

// call applies the per-operation timeout, when configured.
func (u *Uploader) call(ctx context.Context, fn func(ctx context.Context) (string, error)) (string, error) {
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}
	return fn(ctx)
}
