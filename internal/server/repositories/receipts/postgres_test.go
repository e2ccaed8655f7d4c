package receipts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO receipts \(transaction_id, user_id, file_name, mime_type, storage_key\)`).
		WithArgs("t1", "u1", "receipt.jpg", "image/jpeg", "receipts/u1/key").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("r1", now))

	got, err := repo.Create(context.Background(), &models.Receipt{
		TransactionID: "t1", UserID: "u1", FileName: "receipt.jpg", MimeType: "image/jpeg", StorageKey: "receipts/u1/key",
	})
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO receipts`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Receipt{})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestListByTransaction(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "transaction_id", "user_id", "file_name", "mime_type", "storage_key", "created_at"}).
		AddRow("r1", "t1", "u1", "a.png", "image/png", "k1", now).
		AddRow("r2", "t1", "u1", "b.png", "image/png", "k2", now)
	mock.ExpectQuery(`FROM receipts\s+WHERE transaction_id = \$1 AND user_id = \$2`).
		WithArgs("t1", "u1").
		WillReturnRows(rows)

	got, err := repo.ListByTransaction(context.Background(), "u1", "t1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "k2", got[1].StorageKey)
}

func TestListByTransaction_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM receipts`).WillReturnError(errors.New("boom"))

	_, err := repo.ListByTransaction(context.Background(), "u1", "t1")
	if err == nil || !regexp.MustCompile(`failed to select receipts: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestGetByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	q := `FROM receipts\s+WHERE id = \$1 AND user_id = \$2`
	mock.ExpectQuery(q).WithArgs("r1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "transaction_id", "user_id", "file_name", "mime_type", "storage_key", "created_at"}).
			AddRow("r1", "t1", "u1", "a.png", "image/png", "receipts/u1/a", now))
	mock.ExpectQuery(q).WithArgs("r1", "u2").WillReturnError(sql.ErrNoRows)

	got, err := repo.GetByID(context.Background(), "u1", "r1")
	require.NoError(t, err)
	assert.Equal(t, "receipts/u1/a", got.StorageKey)

	_, err = repo.GetByID(context.Background(), "u2", "r1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `DELETE FROM receipts WHERE id = \$1 AND user_id = \$2`
	mock.ExpectExec(q).WithArgs("r1", "u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("r1", "u2").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q).WillReturnError(errors.New("db down"))

	require.NoError(t, repo.Delete(context.Background(), "u1", "r1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "u2", "r1"), common.ErrorNotFound)
	require.Error(t, repo.Delete(context.Background(), "u1", "r1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
