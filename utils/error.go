package utils

import (
	"errors"

	mysqlDriver "github.com/go-sql-driver/mysql"
)

var (
	ErrorRecordNotFound = errors.New("record not found")
	ErrorDuplicateValue = errors.New("duplicate value")
)

// IsDuplicateKeyErr reports a MySQL 1062 unique-index violation. Create paths
// pre-check uniqueness, but a concurrent insert can still hit the index; this
// lets callers map the race to ErrorDuplicateValue instead of a 500.
func IsDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}
