package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicateKey reports a write that hit a unique constraint.
var ErrDuplicateKey = errors.New("duplicate key")

func wrapErr(op string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("failed to %s: %w: %w", op, ErrDuplicateKey, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// take loads a single row. A missing row is not an error.
func take[T any](ctx context.Context, db *gorm.DB, op string, conds ...interface{}) (*T, error) {
	var row T
	err := db.WithContext(ctx).Take(&row, conds...).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return &row, nil
}

// upsert inserts value or, when its primary key already exists, replaces
// every non-key column with the supplied values. The database resolves the
// conflict atomically, so concurrent writers of one key never both insert.
func upsert(ctx context.Context, db *gorm.DB, op string, value interface{}) error {
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(value).Error
	if err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// ensure inserts value unless its primary key is already taken, in which case
// the stored row is kept as is.
func ensure(ctx context.Context, db *gorm.DB, op string, value interface{}) error {
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(value).Error
	if err != nil {
		return wrapErr(op, err)
	}
	return nil
}
