package repository

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"payment-service/internal/domain/payment/model"
	"payment-service/pkg/errs"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (PaymentRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return NewPaymentRepository(gdb), mock
}

func paymentRows(payments ...[]driver.Value) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "created_at", "updated_at", "order_id", "amount", "payment_method", "status"})
	for _, p := range payments {
		rows.AddRow(p...)
	}
	return rows
}

func row(id, orderID, amount, method, status string) []driver.Value {
	now := time.Now()
	return []driver.Value{id, now, now, orderID, amount, method, status}
}

func TestPaymentRepositoryCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("Inserts a new payment", func(t *testing.T) {
		repo, mock := setupMockDB(t)
		mock.ExpectQuery(`INSERT INTO "payments"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("p1"))

		err := repo.Create(ctx, &model.Payment{
			OrderID:       "O1",
			Amount:        decimal.RequireFromString("100.00"),
			PaymentMethod: model.MethodCOD,
			Status:        model.StatusPending,
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate order id maps to a conflict", func(t *testing.T) {
		repo, mock := setupMockDB(t)
		mock.ExpectQuery(`INSERT INTO "payments"`).
			WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

		err := repo.Create(ctx, &model.Payment{
			OrderID:       "O1",
			Amount:        decimal.RequireFromString("100.00"),
			PaymentMethod: model.MethodCOD,
			Status:        model.StatusPending,
		})

		assert.Equal(t, errs.Conflict, errs.KindOf(err))
	})

	t.Run("Infrastructure failure maps to transient", func(t *testing.T) {
		repo, mock := setupMockDB(t)
		mock.ExpectQuery(`INSERT INTO "payments"`).
			WillReturnError(assert.AnError)

		err := repo.Create(ctx, &model.Payment{
			OrderID:       "O1",
			Amount:        decimal.RequireFromString("100.00"),
			PaymentMethod: model.MethodCOD,
			Status:        model.StatusPending,
		})

		assert.True(t, errs.IsTransient(err))
	})
}

func TestPaymentRepositoryGet(t *testing.T) {
	ctx := context.Background()

	t.Run("GetByID returns the payment", func(t *testing.T) {
		repo, mock := setupMockDB(t)
		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE id = \$1`).
			WithArgs("p1", 1).
			WillReturnRows(paymentRows(row("p1", "O1", "100.00", "ONLINE", "PENDING")))

		payment, err := repo.GetByID(ctx, "p1")

		require.NoError(t, err)
		assert.Equal(t, "p1", payment.ID)
		assert.Equal(t, model.StatusPending, payment.Status)
		assert.True(t, payment.Amount.Equal(decimal.RequireFromString("100.00")))
	})

	t.Run("GetByID on a missing payment maps to not found", func(t *testing.T) {
		repo, mock := setupMockDB(t)
		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE id = \$1`).
			WithArgs("missing", 1).
			WillReturnRows(paymentRows())

		_, err := repo.GetByID(ctx, "missing")

		assert.Equal(t, errs.NotFound, errs.KindOf(err))
	})

	t.Run("GetByOrderID returns the payment", func(t *testing.T) {
		repo, mock := setupMockDB(t)
		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE order_id = \$1`).
			WithArgs("O1", 1).
			WillReturnRows(paymentRows(row("p1", "O1", "50.00", "COD", "SUCCESS")))

		payment, err := repo.GetByOrderID(ctx, "O1")

		require.NoError(t, err)
		assert.Equal(t, model.MethodCOD, payment.PaymentMethod)
		assert.Equal(t, model.StatusSuccess, payment.Status)
	})

	t.Run("ListByStatus returns all matching payments", func(t *testing.T) {
		repo, mock := setupMockDB(t)
		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE status = \$1`).
			WithArgs("PENDING").
			WillReturnRows(paymentRows(
				row("p1", "O1", "100.00", "ONLINE", "PENDING"),
				row("p2", "O2", "50.00", "COD", "PENDING"),
			))

		payments, err := repo.ListByStatus(ctx, model.StatusPending)

		require.NoError(t, err)
		assert.Len(t, payments, 2)
	})
}

func TestPaymentRepositoryUpdateStatusIf(t *testing.T) {
	ctx := context.Background()

	t.Run("Guarded update succeeds when status matches", func(t *testing.T) {
		repo, mock := setupMockDB(t)
		mock.ExpectExec(`UPDATE "payments" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatusIf(ctx, "p1", model.StatusPending, map[string]interface{}{"status": model.StatusSuccess})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Lost race reports the current status as a conflict", func(t *testing.T) {
		repo, mock := setupMockDB(t)
		mock.ExpectExec(`UPDATE "payments" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE id = \$1`).
			WithArgs("p1", 1).
			WillReturnRows(paymentRows(row("p1", "O1", "100.00", "ONLINE", "EXPIRED")))

		err := repo.UpdateStatusIf(ctx, "p1", model.StatusPending, map[string]interface{}{"status": model.StatusSuccess})

		assert.Equal(t, errs.Conflict, errs.KindOf(err))
		assert.Contains(t, err.Error(), "EXPIRED")
	})

	t.Run("Missing record maps to not found", func(t *testing.T) {
		repo, mock := setupMockDB(t)
		mock.ExpectExec(`UPDATE "payments" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE id = \$1`).
			WithArgs("missing", 1).
			WillReturnRows(paymentRows())

		err := repo.UpdateStatusIf(ctx, "missing", model.StatusPending, map[string]interface{}{"status": model.StatusExpired})

		assert.Equal(t, errs.NotFound, errs.KindOf(err))
	})
}
