package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/yeremiapane/order-platform/utils"
)

// translate converts driver errors into the application's error kinds.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, mongo.ErrNoDocuments) {
		return utils.NotFound("%s not found", what)
	}
	if isTransient(err) {
		return utils.TransientIO(err, "%s store unavailable", what)
	}
	return utils.Internal(err, "%s store failed", what)
}

func isTransient(err error) bool {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.As(err, &netErr):
		return true
	case mongo.IsNetworkError(err), mongo.IsTimeout(err):
		return true
	}
	return false
}
