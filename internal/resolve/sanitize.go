// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import "strings"

// SanitizeTitle makes a note title safe for use as a filename component:
// path separators become hyphens, hyphen runs collapse to one, and
// surrounding whitespace is trimmed. The function is idempotent.
func SanitizeTitle(title string) string {
	s := strings.NewReplacer("/", "-", "\\", "-").Replace(title)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.TrimSpace(s)
}
