package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/talkroom/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// GetUser は外部認証IDでユーザーを取得する。
// 存在しない場合はNotAuthFound種別のエラーを返す。
func (r *PostgresUserRepo) GetUser(ctx context.Context, lineID string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT primary_user_id, line_id, display_name, picture_url, created_at, updated_at
		 FROM line_users WHERE line_id = $1`,
		lineID,
	).Scan(&user.PrimaryUserID, &user.LineID, &user.DisplayName, &user.PictureURL, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, model.NewNotAuthFound(lineID)
	}
	if err != nil {
		return nil, model.NewUnexpected("line_users", fmt.Errorf("failed to find user by line ID: %w", err))
	}

	return user, nil
}

// CreateUser はプライマリユーザーIDを採番し、ユーザーレコードを作成する。
// 採番と挿入は同一トランザクションで行う。
// line_idのユニーク制約違反はCouldNotInsert種別で返し、呼び出し元は
// 作成ではなくGetUserからやり直す。
func (r *PostgresUserRepo) CreateUser(ctx context.Context, profile *model.UserProfile) (*model.User, error) {
	if profile == nil || profile.Provider != model.ProviderLine || profile.Line == nil {
		return nil, model.NewUnexpected("line_users", fmt.Errorf("unsupported profile provider"))
	}
	line := profile.Line

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, model.NewUnexpected("line_users", fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	// プライマリユーザーIDを採番
	var primaryUserID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO primary_users DEFAULT VALUES RETURNING id`,
	).Scan(&primaryUserID)
	if err != nil {
		return nil, model.NewUnexpected("primary_users", fmt.Errorf("failed to insert primary user: %w", err))
	}

	// ユーザーレコードを作成
	user := &model.User{
		PrimaryUserID: primaryUserID,
		LineID:        line.UserID,
		DisplayName:   line.DisplayName,
		PictureURL:    line.PictureURL,
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO line_users (primary_user_id, line_id, display_name, picture_url)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		user.PrimaryUserID, user.LineID, user.DisplayName, user.PictureURL,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, model.NewCouldNotInsert("line_users", line.UserID, err)
		}
		return nil, model.NewUnexpected("line_users", fmt.Errorf("failed to insert user: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return nil, model.NewUnexpected("line_users", fmt.Errorf("failed to commit transaction: %w", err))
	}

	return user, nil
}

// isUniqueViolation はPostgreSQLのユニーク制約違反（23505）かどうかを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
