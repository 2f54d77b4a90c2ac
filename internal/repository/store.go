package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Store is the UnitOfWork over a sqlx database.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Repositories() *Repositories {
	return newRepositories(s.db, false)
}

// WithTx runs fn inside a transaction. Repositories passed to fn must be the
// only data access fn performs; on SQLite the transaction owns the single
// connection.
func (s *Store) WithTx(ctx context.Context, fn func(repos *Repositories) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(newRepositories(tx, true)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func newRepositories(ext sqlx.ExtContext, inTx bool) *Repositories {
	return &Repositories{
		Payments:      &paymentRepository{ext: ext, inTx: inTx},
		Allocations:   &allocationRepository{ext: ext},
		Payouts:       &payoutRepository{ext: ext, inTx: inTx},
		Schedules:     &scheduleRepository{ext: ext},
		Beneficiaries: &beneficiaryRepository{ext: ext},
		Fees:          &feeRepository{ext: ext},
		Directory:     &directoryRepository{ext: ext},
		Reminders:     &reminderRepository{ext: ext},
	}
}
