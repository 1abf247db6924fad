package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeService records Drive calls in memory.
type fakeService struct {
	nextID      int
	folders     map[string]fakeFolder // id -> folder
	files       []fakeFile
	failFolders map[string]bool // folder name -> fail creation
	failFiles   map[string]bool // file name -> fail upload
}

type fakeFolder struct {
	name     string
	parentID string
}

type fakeFile struct {
	name     string
	parentID string
	size     int
}

func newFakeService() *fakeService {
	return &fakeService{
		folders:     map[string]fakeFolder{},
		failFolders: map[string]bool{},
		failFiles:   map[string]bool{},
	}
}

func (f *fakeService) CreateFolder(_ context.Context, name, parentID string) (string, error) {
	if f.failFolders[name] {
		return "", fmt.Errorf("quota exceeded")
	}
	f.nextID++
	id := fmt.Sprintf("folder-%d", f.nextID)
	f.folders[id] = fakeFolder{name: name, parentID: parentID}
	return id, nil
}

func (f *fakeService) UploadFile(_ context.Context, name, parentID string, r io.Reader) error {
	if f.failFiles[name] {
		return fmt.Errorf("transport reset")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.files = append(f.files, fakeFile{name: name, parentID: parentID, size: len(data)})
	return nil
}

func (f *fakeService) folderID(name string) string {
	for id, folder := range f.folders {
		if folder.name == name {
			return id
		}
	}
	return ""
}

// writeTree lays out an output directory with two notebooks and a hidden
// manifest in each.
func writeTree(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "out")
	for path, content := range map[string]string{
		"Personal/AB12CD-Recipes.pdf":       "recipe bytes",
		"Personal/.manifest.yaml":           "- note: Recipes",
		"Work/EF34GH-Roadmap-MultiItem.pdf": "roadmap bytes",
		"Work/EF34GH-Roadmap-clip.mp4":      "clip bytes",
		"Work/.manifest.yaml":               "- note: Roadmap",
	} {
		full := filepath.Join(root, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func TestUploadDirectory_RecreatesTree(t *testing.T) {
	svc := newFakeService()
	u := NewUploader(svc, io.Discard, 0)

	summary, err := u.UploadDirectory(context.Background(), writeTree(t), "")
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Folders, "root plus two notebooks")
	assert.Equal(t, 3, summary.Files)
	assert.Equal(t, 0, summary.Failed)
	assert.False(t, summary.HasFailures())

	rootID := svc.folderID("out")
	require.NotEmpty(t, rootID)
	assert.Equal(t, "", svc.folders[rootID].parentID, "root goes to the Drive root")

	workID := svc.folderID("Work")
	require.NotEmpty(t, workID)
	assert.Equal(t, rootID, svc.folders[workID].parentID)

	var workFiles []string
	for _, f := range svc.files {
		if f.parentID == workID {
			workFiles = append(workFiles, f.name)
		}
		assert.Positive(t, f.size, "file bytes must be streamed")
	}
	assert.ElementsMatch(t, []string{"EF34GH-Roadmap-MultiItem.pdf", "EF34GH-Roadmap-clip.mp4"}, workFiles)
}

func TestUploadDirectory_SkipsHiddenEntries(t *testing.T) {
	svc := newFakeService()
	u := NewUploader(svc, io.Discard, 0)

	_, err := u.UploadDirectory(context.Background(), writeTree(t), "")
	require.NoError(t, err)

	for _, f := range svc.files {
		assert.NotContains(t, f.name, "manifest", "hidden bookkeeping files stay local")
	}
}

func TestUploadDirectory_FileFailureContinues(t *testing.T) {
	svc := newFakeService()
	svc.failFiles["EF34GH-Roadmap-clip.mp4"] = true
	var progress strings.Builder
	u := NewUploader(svc, &progress, 0)

	summary, err := u.UploadDirectory(context.Background(), writeTree(t), "")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.Files, "remaining files still upload")
	assert.True(t, summary.HasFailures())
	assert.Contains(t, progress.String(), "failed:  EF34GH-Roadmap-clip.mp4")
	assert.Contains(t, progress.String(), "Batch summary:")
}

func TestUploadDirectory_FolderFailureSkipsSubtree(t *testing.T) {
	svc := newFakeService()
	svc.failFolders["Work"] = true
	u := NewUploader(svc, io.Discard, 0)

	summary, err := u.UploadDirectory(context.Background(), writeTree(t), "")
	require.NoError(t, err, "a failed subtree does not fail the run")

	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.Folders, "root and Personal")
	assert.Equal(t, 1, summary.Files, "nothing under Work uploads")
}

func TestUploadDirectory_RootFolderFailure(t *testing.T) {
	svc := newFakeService()
	svc.failFolders["out"] = true
	u := NewUploader(svc, io.Discard, 0)

	_, err := u.UploadDirectory(context.Background(), writeTree(t), "")
	require.Error(t, err, "no root folder means nowhere to upload")
}

func TestTokenCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	tok := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
	require.NoError(t, saveToken(path, tok))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "tokens are secrets")

	got, err := tokenFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, tok.AccessToken, got.AccessToken)
	assert.Equal(t, tok.RefreshToken, got.RefreshToken)
	assert.True(t, tok.Expiry.Equal(got.Expiry))
}

func TestTokenFromFile_Missing(t *testing.T) {
	_, err := tokenFromFile(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestTokenFromConsent_EmptyInput(t *testing.T) {
	cfg := &oauth2.Config{
		ClientID: "client",
		Endpoint: oauth2.Endpoint{AuthURL: "https://example.test/auth", TokenURL: "https://example.test/token"},
	}
	var out strings.Builder
	_, err := tokenFromConsent(context.Background(), cfg, strings.NewReader(""), &out)
	require.Error(t, err)
	assert.Contains(t, out.String(), "https://example.test/auth", "consent URL must be shown")
}
