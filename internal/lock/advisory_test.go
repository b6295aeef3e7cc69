package lock

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (sqlmock.Sqlmock, *AdvisoryLock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return mock, NewAdvisoryLock(db, "rttidump:catalog:test")
}

func lockRows(v any) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"result"}).AddRow(v)
}

func TestNewAdvisoryLock(t *testing.T) {
	_, l := newMock(t)
	assert.Equal(t, "rttidump:catalog:test", l.LockName())
	assert.False(t, l.IsHeld())
}

func TestAcquireLock(t *testing.T) {
	tests := []struct {
		name     string
		result   any
		acquired bool
		wantErr  string
	}{
		{name: "obtained", result: 1, acquired: true},
		{name: "timeout", result: 0},
		{name: "null", result: nil, wantErr: "returned NULL"},
		{name: "unexpected", result: 7, wantErr: "unexpected GET_LOCK return value: 7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, l := newMock(t)
			mock.ExpectQuery(`SELECT GET_LOCK\(\?, \?\)`).
				WithArgs("rttidump:catalog:test", TimeoutMedium).
				WillReturnRows(lockRows(tt.result))

			acquired, err := l.AcquireLock(context.Background(), TimeoutMedium)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.acquired, acquired)
			assert.Equal(t, tt.acquired, l.IsHeld())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAcquireLock_AlreadyHeld(t *testing.T) {
	mock, l := newMock(t)
	mock.ExpectQuery("SELECT GET_LOCK").WillReturnRows(lockRows(1))

	ok, err := l.TryAcquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	// No second query.
	ok, err = l.TryAcquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquireLock_QueryError(t *testing.T) {
	mock, l := newMock(t)
	mock.ExpectQuery("SELECT GET_LOCK").WillReturnError(errors.New("connection reset"))

	_, err := l.AcquireLock(context.Background(), TimeoutShort)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute GET_LOCK")
	assert.False(t, l.IsHeld())
}

func TestReleaseLock(t *testing.T) {
	tests := []struct {
		name     string
		result   any
		released bool
		wantErr  bool
	}{
		{name: "released", result: 1, released: true},
		{name: "not owner", result: 0},
		{name: "missing", result: nil, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, l := newMock(t)
			mock.ExpectQuery("SELECT GET_LOCK").WillReturnRows(lockRows(1))
			mock.ExpectQuery(`SELECT RELEASE_LOCK\(\?\)`).
				WithArgs("rttidump:catalog:test").
				WillReturnRows(lockRows(tt.result))

			_, err := l.TryAcquire(context.Background())
			require.NoError(t, err)

			released, err := l.ReleaseLock(context.Background())
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.released, released)
			assert.False(t, l.IsHeld())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestReleaseLock_NotHeld(t *testing.T) {
	mock, l := newMock(t)
	released, err := l.ReleaseLock(context.Background())
	require.NoError(t, err)
	assert.False(t, released)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquireOrFail(t *testing.T) {
	mock, l := newMock(t)
	mock.ExpectQuery("SELECT GET_LOCK").
		WithArgs("rttidump:catalog:test", TimeoutShort).
		WillReturnRows(lockRows(0))

	err := l.AcquireOrFail(context.Background())
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.Contains(t, err.Error(), "rttidump:catalog:test")
}

func TestWithLock(t *testing.T) {
	mock, l := newMock(t)
	mock.ExpectQuery("SELECT GET_LOCK").WillReturnRows(lockRows(1))
	mock.ExpectQuery("SELECT RELEASE_LOCK").WillReturnRows(lockRows(1))

	ran := false
	err := l.WithLock(context.Background(), TimeoutShort, func() error {
		ran = true
		assert.True(t, l.IsHeld())
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.False(t, l.IsHeld())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithLock_ReleasesOnError(t *testing.T) {
	mock, l := newMock(t)
	mock.ExpectQuery("SELECT GET_LOCK").WillReturnRows(lockRows(1))
	mock.ExpectQuery("SELECT RELEASE_LOCK").WillReturnRows(lockRows(1))

	boom := errors.New("boom")
	err := l.WithLock(context.Background(), TimeoutShort, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithLock_ReleasesOnPanic(t *testing.T) {
	mock, l := newMock(t)
	mock.ExpectQuery("SELECT GET_LOCK").WillReturnRows(lockRows(1))
	mock.ExpectQuery("SELECT RELEASE_LOCK").WillReturnRows(lockRows(1))

	assert.Panics(t, func() {
		_ = l.WithLock(context.Background(), TimeoutShort, func() error { panic("boom") })
	})
	assert.False(t, l.IsHeld())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithLock_Held(t *testing.T) {
	mock, l := newMock(t)
	mock.ExpectQuery("SELECT GET_LOCK").WillReturnRows(lockRows(0))

	ran := false
	err := l.WithLock(context.Background(), TimeoutImmediate, func() error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.False(t, ran)
}

func TestCatalogLockName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"default", "rttidump:catalog:default"},
		{"hfw-1.5.80", "rttidump:catalog:hfw-1.5.80"},
		{"a b;c'", "rttidump:catalog:a_b_c_"},
		{strings.Repeat("x", 80), "rttidump:catalog:" + strings.Repeat("x", 64-len("rttidump:catalog:"))},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CatalogLockName(tt.input))
		assert.LessOrEqual(t, len(CatalogLockName(tt.input)), 64)
	}
	assert.Equal(t, "rttidump:catalog:default", NewCatalogLock(nil, "default").LockName())
}
