// Package collate provides the locale-aware string comparison shared by the
// record store's listing order and the query engine's name/clientCode sorts.
package collate

import (
	"sync"

	textcollate "golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var (
	mu       sync.Mutex
	collator = textcollate.New(language.Und, textcollate.IgnoreCase)
)

// Compare returns -1, 0, or +1 ordering a and b case-insensitively under
// the neutral locale's collation rules.
func Compare(a, b string) int {
	mu.Lock()
	defer mu.Unlock()
	return collator.CompareString(a, b)
}

// Less reports whether a sorts before b.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}
