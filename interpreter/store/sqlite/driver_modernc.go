//go:build !cgo_sqlite

package sqlite

import (
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// dsn renders pragmas the way modernc.org/sqlite expects them:
// _pragma=name(value), repeated.
func dsn(path string, pragmas [][2]string) string {
	q := make([]string, 0, len(pragmas))
	for _, p := range pragmas {
		q = append(q, "_pragma="+p[0]+"("+p[1]+")")
	}
	return withQuery(path, q)
}
