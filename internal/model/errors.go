// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// ErrorKind はリポジトリ層のエラー種別を表す。
// NotFound / NotAuthFound のみが「存在しないので作成する」という
// 制御フローのシグナルとして扱われる。それ以外は呼び出し元へそのまま伝播する。
type ErrorKind string

const (
	// KindNotFound はリソースが存在しないことを示す。
	KindNotFound ErrorKind = "NOT_FOUND"
	// KindNotAuthFound は外部認証IDに対応するユーザーが存在しないことを示す。
	KindNotAuthFound ErrorKind = "NOT_AUTH_FOUND"
	// KindCouldNotInsert は挿入に失敗したことを示す。
	// ドキュメントストアへの書き込み失敗、およびユニーク制約違反で使用する。
	KindCouldNotInsert ErrorKind = "COULD_NOT_INSERT"
	// KindUnexpected は上記以外の予期しない失敗を示す。
	KindUnexpected ErrorKind = "UNEXPECTED"
)

// RepositoryError はリポジトリ層の分類済みエラーを表す。
type RepositoryError struct {
	Kind     ErrorKind
	Resource string // 対象のテーブル名またはコレクション名
	Key      string // 対象を特定するキー
	Err      error  // 元のエラー（存在する場合）
}

// Error はerrorインターフェースを実装する。
func (e *RepositoryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s (key=%s): %v", e.Kind, e.Resource, e.Key, e.Err)
	}
	return fmt.Sprintf("[%s] %s (key=%s)", e.Kind, e.Resource, e.Key)
}

// Unwrap は元のエラーを返す。
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewNotFound はリソース未検出エラーを生成する。
func NewNotFound(resource, key string) *RepositoryError {
	return &RepositoryError{Kind: KindNotFound, Resource: resource, Key: key}
}

// NewNotAuthFound は認証ID未登録エラーを生成する。
func NewNotAuthFound(authID string) *RepositoryError {
	return &RepositoryError{Kind: KindNotAuthFound, Resource: "line_users", Key: authID}
}

// NewCouldNotInsert は挿入失敗エラーを生成する。
func NewCouldNotInsert(resource, key string, err error) *RepositoryError {
	return &RepositoryError{Kind: KindCouldNotInsert, Resource: resource, Key: key, Err: err}
}

// NewUnexpected は予期しない失敗を包むエラーを生成する。
func NewUnexpected(resource string, err error) *RepositoryError {
	return &RepositoryError{Kind: KindUnexpected, Resource: resource, Err: err}
}

// kindOf はerrをRepositoryErrorとして分類し、その種別を返す。
func kindOf(err error) (ErrorKind, bool) {
	var re *RepositoryError
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return "", false
}

// IsNotFound はerrがリソース未検出エラーかどうかを判定する。
func IsNotFound(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindNotFound
}

// IsNotAuthFound はerrが認証ID未登録エラーかどうかを判定する。
func IsNotAuthFound(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindNotAuthFound
}

// IsCouldNotInsert はerrが挿入失敗エラーかどうかを判定する。
// 作成レースの敗者はこの種別を受け取り、getからやり直す。
func IsCouldNotInsert(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindCouldNotInsert
}
