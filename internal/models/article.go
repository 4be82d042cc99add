package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList stores an ordered list of strings as a JSON array column.
// Authors and keywords are kept as structured lists rather than opaque
// delimiter-joined strings.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("marshal string list: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	if src == nil {
		*l = nil
		return nil
	}

	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}

	if len(raw) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(raw, (*[]string)(l))
}

// Article represents a row in the 'articles' table.
// (feed_id, external_id) is unique: an article is created once and its
// title/abstract are never rewritten afterwards. Only category_id may be
// updated by a later classification pass, and views by the reading side.
type Article struct {
	ID          int64          `db:"id" json:"id"`
	FeedID      int64          `db:"feed_id" json:"feed_id"`
	ExternalID  string         `db:"external_id" json:"external_id"`
	Title       string         `db:"title" json:"title"`
	Abstract    string         `db:"abstract" json:"abstract"`
	URL         string         `db:"url" json:"url"`
	DOI         sql.NullString `db:"doi" json:"-"`
	Authors     StringList     `db:"authors" json:"authors"`
	Keywords    StringList     `db:"keywords" json:"keywords"`
	PublishedAt time.Time      `db:"published_at" json:"published_at"`
	CategoryID  sql.NullInt64  `db:"category_id" json:"-"`
	Views       int64          `db:"views" json:"views"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// NewArticle creates a new Article with default values
func NewArticle() *Article {
	return &Article{CreatedAt: time.Now()}
}
