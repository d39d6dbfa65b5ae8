//go:build !sqlite

package storage

import (
	"errors"

	logx "tymeloop/pkg/logx"
)

func openSQLite(Config, logx.Logger) (Store, error) {
	return nil, errors.New("sqlite journal not built: build with -tags sqlite")
}
