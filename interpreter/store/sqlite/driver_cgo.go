//go:build cgo_sqlite

package sqlite

import (
	_ "github.com/mattn/go-sqlite3"
)

const driverName = "sqlite3"

// dsn renders pragmas the way mattn/go-sqlite3 expects them: one
// _name=value query parameter each.
func dsn(path string, pragmas [][2]string) string {
	q := make([]string, 0, len(pragmas))
	for _, p := range pragmas {
		q = append(q, "_"+p[0]+"="+p[1])
	}
	return withQuery(path, q)
}
