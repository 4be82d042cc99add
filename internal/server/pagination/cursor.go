// Package pagination implements opaque keyset cursors over the
// (created_at, id) ordering of the article list.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const separator = "|"

// RFC3339Nano keeps full timestamp precision so the keyset comparison in SQL
// matches the encoded position exactly.
const timeFormat = time.RFC3339Nano

// Encode builds an opaque cursor from the last row of a page.
func Encode(ts time.Time, id int64) string {
	key := ts.UTC().Format(timeFormat) + separator + strconv.FormatInt(id, 10)
	return base64.URLEncoding.EncodeToString([]byte(key))
}

// Decode parses a cursor back into its timestamp and row id.
func Decode(cursor string) (time.Time, int64, error) {
	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid cursor encoding: %w", err)
	}

	tsPart, idPart, found := strings.Cut(string(raw), separator)
	if !found {
		return time.Time{}, 0, fmt.Errorf("invalid cursor format")
	}

	ts, err := time.Parse(timeFormat, tsPart)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid timestamp in cursor: %w", err)
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid id in cursor: %w", err)
	}
	return ts.UTC(), id, nil
}
