package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vendaslab/salestrack/models"
)

// sqlRecorder captures the SQL each statement would execute
type sqlRecorder struct {
	sqls []string
}

func (r *sqlRecorder) LogMode(logger.LogLevel) logger.Interface      { return r }
func (r *sqlRecorder) Info(context.Context, string, ...interface{})  {}
func (r *sqlRecorder) Warn(context.Context, string, ...interface{})  {}
func (r *sqlRecorder) Error(context.Context, string, ...interface{}) {}

func (r *sqlRecorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	r.sqls = append(r.sqls, sql)
}

func (r *sqlRecorder) last() string {
	if len(r.sqls) == 0 {
		return ""
	}
	return r.sqls[len(r.sqls)-1]
}

func newDryRunDB(t *testing.T) (*gorm.DB, *sqlRecorder) {
	t.Helper()

	rec := &sqlRecorder{}
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=dryrun dbname=dryrun",
	}), &gorm.Config{
		DryRun:                 true,
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		Logger:                 rec,
	})
	require.NoError(t, err)
	return db, rec
}

func TestSaleListUnpaginatedOmitsLimit(t *testing.T) {
	db, rec := newDryRunDB(t)
	repo := NewSaleRepository(db)

	accountID := uint(1)
	_, err := repo.List(context.Background(), models.SaleFilter{AccountID: &accountID}, 0, 0)
	require.NoError(t, err)

	sql := rec.last()
	require.NotEmpty(t, sql)
	assert.Contains(t, sql, "ORDER BY sale_date DESC")
	assert.NotContains(t, sql, "LIMIT")
	assert.NotContains(t, sql, "OFFSET")
}

func TestSaleListAppliesLimitAndOffset(t *testing.T) {
	db, rec := newDryRunDB(t)
	repo := NewSaleRepository(db)

	accountID := uint(1)
	_, err := repo.List(context.Background(), models.SaleFilter{AccountID: &accountID}, 20, 40)
	require.NoError(t, err)

	sql := rec.last()
	assert.Contains(t, sql, "LIMIT 20")
	assert.Contains(t, sql, "OFFSET 40")
}

func TestAccountListUnpaginatedOmitsLimit(t *testing.T) {
	db, rec := newDryRunDB(t)
	repo := NewAccountRepository(db)

	active := true
	_, err := repo.List(context.Background(), models.AccountFilter{IsActive: &active}, 0, 0)
	require.NoError(t, err)

	sql := rec.last()
	require.NotEmpty(t, sql)
	assert.NotContains(t, sql, "LIMIT")
	assert.NotContains(t, sql, "OFFSET")
}

func TestAccountListAppliesLimitAndOffset(t *testing.T) {
	db, rec := newDryRunDB(t)
	repo := NewAccountRepository(db)

	_, err := repo.List(context.Background(), models.AccountFilter{}, 10, 10)
	require.NoError(t, err)

	sql := rec.last()
	assert.Contains(t, sql, "LIMIT 10")
	assert.Contains(t, sql, "OFFSET 10")
}
