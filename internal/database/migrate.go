package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"shopbot/internal/models"
)

// tables lists every schema entity in dependency order, referenced tables
// first so foreign keys resolve during creation.
var tables = []any{
	&models.User{},
	&models.Product{},
	&models.CartItem{},
	&models.Order{},
}

// Migrate creates any missing tables inside a single transaction. Tables
// that already exist are left untouched, so startup against an existing
// database is a no-op; a failure rolls the whole migration back and must be
// treated as fatal by the caller, since the service cannot run with a
// partial schema.
func (s *Store) Migrate(ctx context.Context) error {
	return s.WithTx(ctx, func(tx *gorm.DB) error {
		for _, table := range tables {
			if tx.Migrator().HasTable(table) {
				continue
			}
			if err := tx.Migrator().CreateTable(table); err != nil {
				return fmt.Errorf("failed to create table for %T: %w", table, err)
			}
			s.log.Info().Str("table", fmt.Sprintf("%T", table)).Msg("created table")
		}
		return nil
	})
}
