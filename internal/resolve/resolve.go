// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve owns output naming: random note identifiers, title
// sanitization, and collision-free path resolution within one output
// directory.
package resolve

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdiddy/enex-migrate/pkg/types"
)

// Resolver maps proposed artifact names to guaranteed-unique paths within a
// single output directory. Names already written to disk and names reserved
// earlier in the run form one namespace, so nothing is ever overwritten or
// silently dropped.
//
// Check-then-reserve runs under a mutex: concurrent callers racing on the
// same proposed name observe each other's reservations.
type Resolver struct {
	dir string

	mu       sync.Mutex
	reserved map[string]bool
}

// NewResolver returns a Resolver for dir. The directory does not need to
// exist yet; resolution then only consults the reservation set.
func NewResolver(dir string) *Resolver {
	return &Resolver{
		dir:      dir,
		reserved: make(map[string]bool),
	}
}

// Dir returns the directory this resolver guards.
func (r *Resolver) Dir() string { return r.dir }

// Resolve reserves and returns a unique file name for proposed. When the
// proposed name is taken it probes "{stem}_1{ext}", "{stem}_2{ext}", ...
// and returns a filename-collision warning carrying the original and the
// finally chosen name. The returned path is dir-joined and ready to write.
func (r *Resolver) Resolve(proposed string) (string, *types.Warning) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.taken(proposed) {
		r.reserved[proposed] = true
		return filepath.Join(r.dir, proposed), nil
	}

	ext := filepath.Ext(proposed)
	stem := strings.TrimSuffix(proposed, ext)
	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, counter, ext)
		if r.taken(candidate) {
			continue
		}
		r.reserved[candidate] = true
		w := &types.Warning{
			Type:     types.WarnFilenameCollision,
			Original: proposed,
			Resolved: candidate,
			Message:  fmt.Sprintf("file collision: %q already exists, using %q", proposed, candidate),
		}
		return filepath.Join(r.dir, candidate), w
	}
}

// taken reports whether name is used either on disk or by an earlier
// reservation in this run. Caller holds r.mu.
func (r *Resolver) taken(name string) bool {
	if r.reserved[name] {
		return true
	}
	_, err := os.Stat(filepath.Join(r.dir, name))
	return err == nil
}
