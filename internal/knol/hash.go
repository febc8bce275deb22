// Package knol derives stable content identifiers for imported cards so a
// re-import of an unchanged deck maps onto the same rows.
package knol

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/part66/internal/domain"
)

// idLength is the number of hex characters of the hash kept in a card ID.
const idLength = 24

// Normalize concatenates the card's module and content after cleaning each
// part. It trims whitespace, lowercases, and normalizes line endings for each
// field before joining them.
func Normalize(card domain.Card) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		p = strings.TrimSpace(p)
		return p
	}

	m := normalizePart(card.ModuleID)
	q := normalizePart(card.Question)
	a := normalizePart(card.Answer)
	c := normalizePart(card.Context)

	// Newline separation keeps "question"+"answer" distinct from "questionanswer".
	return strings.Join([]string{m, q, a, c}, "\n")
}

// Hash takes a card, normalizes it, and returns its SHA-256 hash as a hex string.
func Hash(card domain.Card) string {
	normalized := Normalize(card)
	hashBytes := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", hashBytes)
}

// ID returns the card identifier used for imported cards.
func ID(card domain.Card) string {
	return "card-" + Hash(card)[:idLength]
}

// SourceID returns the identifier of card when it is imported from the
// source with the given id, so two sources carrying the same card own
// separate rows. Source 0 means no source and yields ID(card).
func SourceID(source int64, card domain.Card) string {
	if source == 0 {
		return ID(card)
	}
	hashBytes := sha256.Sum256([]byte(fmt.Sprintf("source-%d\n%s", source, Normalize(card))))
	return fmt.Sprintf("card-%x", hashBytes)[:len("card-")+idLength]
}
