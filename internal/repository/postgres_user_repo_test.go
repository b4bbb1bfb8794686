package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

// PostgresUserRepoはUserRepositoryインターフェースを満たすことを検証
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

// isUniqueViolationがユニーク制約違反コードのみを検出することを検証
func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "ユニーク制約違反",
			err:  &pq.Error{Code: "23505"},
			want: true,
		},
		{
			name: "ラップされたユニーク制約違反",
			err:  fmt.Errorf("failed to insert: %w", &pq.Error{Code: "23505"}),
			want: true,
		},
		{
			name: "別のPostgreSQLエラー",
			err:  &pq.Error{Code: "23503"},
			want: false,
		},
		{
			name: "pq以外のエラー",
			err:  errors.New("connection refused"),
			want: false,
		},
		{
			name: "nil",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
