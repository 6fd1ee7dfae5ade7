package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/muniworks/backend/internal/domain/incident"
	"github.com/muniworks/backend/internal/domain/inventory"
	"github.com/muniworks/backend/internal/domain/shared"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func stockedItem(t *testing.T) *inventory.InventoryItem {
	t.Helper()
	item, err := inventory.NewInventoryItem("BULB-01", "LED Street Bulb", "pcs",
		decimal.NewFromInt(5), decimal.NewFromFloat(12.50))
	require.NoError(t, err)
	return item
}

func TestGormInventoryItemRepository_SaveWithTransactions(t *testing.T) {
	t.Run("persists stock change and ledger row in one transaction", func(t *testing.T) {
		db, mock, sqlDB := newMockDB(t)
		defer sqlDB.Close()
		repo := NewGormInventoryItemRepository(db)

		item := stockedItem(t)
		ledgerTx, err := item.Receive(decimal.NewFromInt(10), uuid.New(),
			inventory.SourceTypeInitialStock, "SEED")
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "inventory_items" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO "inventory_transactions"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = repo.SaveWithTransactions(context.Background(), item, ledgerTx)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns conflict when version check misses", func(t *testing.T) {
		db, mock, sqlDB := newMockDB(t)
		defer sqlDB.Close()
		repo := NewGormInventoryItemRepository(db)

		item := stockedItem(t)
		ledgerTx, err := item.Receive(decimal.NewFromInt(10), uuid.New(),
			inventory.SourceTypeInitialStock, "SEED")
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "inventory_items" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err = repo.SaveWithTransactions(context.Background(), item, ledgerTx)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no ledger row is written when the update fails", func(t *testing.T) {
		db, mock, sqlDB := newMockDB(t)
		defer sqlDB.Close()
		repo := NewGormInventoryItemRepository(db)

		item := stockedItem(t)
		ledgerTx, err := item.Receive(decimal.NewFromInt(10), uuid.New(),
			inventory.SourceTypeInitialStock, "SEED")
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "inventory_items" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_ = repo.SaveWithTransactions(context.Background(), item, ledgerTx)

		// The INSERT expectation was never registered; any attempt to write
		// the ledger row would fail ExpectationsWereMet.
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormIncidentRepository_SaveWithLock(t *testing.T) {
	t.Run("updates row and appends new approval records", func(t *testing.T) {
		db, mock, sqlDB := newMockDB(t)
		defer sqlDB.Close()
		repo := NewGormIncidentRepository(db)

		inc, err := incident.NewIncident("INC-20260901-ABCD1234", "POLE-042", "Leaning light pole", uuid.New())
		require.NoError(t, err)
		findings := incident.InspectionFindings{
			DamageLevel:       incident.DamageModerate,
			DamageDescription: "Base bolts sheared",
			SafetyRisk:        true,
			DamagedComponents: incident.Components{"base", "bolts"},
			EstimatedCost:     decimal.NewFromInt(400),
		}
		require.NoError(t, inc.Inspect(findings, uuid.New(), "on-site inspection"))

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "incidents" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO "incident_approval_records"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = repo.SaveWithLock(context.Background(), inc)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns conflict when version check misses", func(t *testing.T) {
		db, mock, sqlDB := newMockDB(t)
		defer sqlDB.Close()
		repo := NewGormIncidentRepository(db)

		inc, err := incident.NewIncident("INC-20260901-ABCD1234", "POLE-042", "Leaning light pole", uuid.New())
		require.NoError(t, err)
		inc.IncrementVersion() // simulate a mutation raced by another writer

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "incidents" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err = repo.SaveWithLock(context.Background(), inc)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
