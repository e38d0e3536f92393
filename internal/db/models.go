package db

import (
	"database/sql"
	"time"
)

// Entry describes one stored key
type Entry struct {
	Key       string
	Size      int
	Revision  int64
	Writer    string
	UpdatedAt sql.NullTime
}

// Modified returns when the entry was last written, or the zero time
func (e Entry) Modified() time.Time {
	if !e.UpdatedAt.Valid {
		return time.Time{}
	}
	return e.UpdatedAt.Time
}

// Own reports whether the entry was last written through writer
func (e Entry) Own(writer string) bool {
	return e.Writer == writer
}
