// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import "math/rand/v2"

// idAlphabet is uppercase-only for readability in filenames.
const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// idLength gives 36^6 combinations, which makes accidental collisions rare
// but not impossible; the Resolver treats a duplicate draw as an ordinary
// name collision.
const idLength = 6

// NewID returns a random 6-character alphanumeric identifier used to
// namespace artifact filenames. It makes no uniqueness guarantee.
func NewID() string {
	b := make([]byte, idLength)
	for i := range b {
		b[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	return string(b)
}
