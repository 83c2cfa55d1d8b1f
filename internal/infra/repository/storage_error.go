package repository

import (
	"errors"
	"fmt"

	repo "orderitems/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
)

// DBのエラーをStorageErrorに包む。
// Postgresならdetailもメッセージに足す（FK違反でどの値が原因か分かる）。
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		err = fmt.Errorf("%w: %s", err, pgErr.Detail)
	}
	return &repo.StorageError{Op: op, Err: err}
}
