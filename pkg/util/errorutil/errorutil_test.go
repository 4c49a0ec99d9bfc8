package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{
			name:       "domain error passes through",
			err:        NewForbidden("nope"),
			wantCode:   "FORBIDDEN",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "no rows maps to not found",
			err:        pgx.ErrNoRows,
			wantCode:   "NOT_FOUND",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unique violation maps to conflict",
			err:        &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"},
			wantCode:   "CONFLICT",
			wantStatus: http.StatusConflict,
		},
		{
			name:       "wrapped unique violation maps to conflict",
			err:        fmt.Errorf("insert user: %w", &pgconn.PgError{Code: "23505"}),
			wantCode:   "CONFLICT",
			wantStatus: http.StatusConflict,
		},
		{
			name:       "deadline maps to store unavailable",
			err:        context.DeadlineExceeded,
			wantCode:   "STORE_UNAVAILABLE",
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "anything else is internal",
			err:        errors.New("boom"),
			wantCode:   "INTERNAL_ERROR",
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			de := ToDomainError(tc.err)
			require.NotNil(t, de)
			assert.Equal(t, tc.wantCode, de.Code)
			assert.Equal(t, tc.wantStatus, de.HTTPStatus)
		})
	}
}

func TestToDomainError_NilStaysNil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, ToDomainError(nil))
}
