package models

import (
	"strings"
	"time"
	"unicode"
)

// Author represents a row in the 'authors' table. Authors are upserted by
// normalized name, so the same person appearing in several feeds shares a row.
type Author struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	NormalizedName string    `db:"normalized_name" json:"-"`
	ArticleCount   int64     `db:"article_count" json:"article_count"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ArticleAuthor links an article to an author, preserving the 1-based
// authorship order from the original feed item.
type ArticleAuthor struct {
	ArticleID int64 `db:"article_id"`
	AuthorID  int64 `db:"author_id"`
	Position  int   `db:"position"`
}

// NormalizeAuthorName produces the dedup key for an author display name:
// lower-cased, inner whitespace collapsed, punctuation dropped.
func NormalizeAuthorName(name string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || r == '.' || r == '-':
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
