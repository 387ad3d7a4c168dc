package database

import (
	"context"

	"gorm.io/gorm"
)

// Transact runs fn in a transaction and re-runs the whole transaction when it
// fails on a transient fault. fn must do all of its work through tx.
//
// Postgres runs it at its default READ COMMITTED level; callers that need
// stronger guarantees take row locks.
func Transact(ctx context.Context, db *gorm.DB, policy RetryPolicy, fn func(tx *gorm.DB) error) error {
	return policy.Do(ctx, func(ctx context.Context) error {
		return db.WithContext(ctx).Transaction(fn)
	})
}
