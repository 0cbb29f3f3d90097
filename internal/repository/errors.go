// Package repository holds the MySQL-backed stores for courses, their
// provider links and durable bookings.  Handlers and services translate
// the sentinel errors below into HTTP responses.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique key, such as
// a second booking for the same payment reference.
var ErrDuplicate = errors.New("duplicate")

const errDupEntry = 1062

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == errDupEntry
	}
	return strings.Contains(err.Error(), "1062")
}
