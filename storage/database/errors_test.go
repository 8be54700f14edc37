package database

import (
	"database/sql"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coding7860/sparkminds-backend/core"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantNil    bool
		wantVErr   error
		wantPrefix string
	}{
		{name: "nil", wantNil: true},
		{
			name:     "pq unique violation",
			err:      &pq.Error{Code: "23505", Constraint: "users_email_key"},
			wantVErr: errDuplicate,
		},
		{
			name:     "pgx unique violation, wrapped",
			err:      errors.Wrap(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}, "inserting user"),
			wantVErr: errDuplicate,
		},
		{
			name:     "pq foreign key violation",
			err:      &pq.Error{Code: "23503", Constraint: "course_modules_course_id_fkey"},
			wantVErr: errReferenceNotFound,
		},
		{
			name:     "pgx foreign key violation",
			err:      &pgconn.PgError{Code: "23503"},
			wantVErr: errReferenceNotFound,
		},
		{name: "other pg error", err: &pq.Error{Code: "42P01"}, wantPrefix: "inserting: "},
		{name: "plain error", err: sql.ErrConnDone, wantPrefix: "inserting: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyError(tt.err, "inserting")
			switch {
			case tt.wantNil:
				assert.NoError(t, err)
			case tt.wantVErr != nil:
				vErr, ok := err.(*core.ValidationError)
				require.True(t, ok, "want *core.ValidationError, got %v", err)
				assert.Equal(t, tt.wantVErr, vErr.Err)
				assert.Len(t, vErr.Fields, 1)
			default:
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantPrefix)
				assert.Equal(t, tt.err, errors.Cause(err))
			}
		})
	}
}
