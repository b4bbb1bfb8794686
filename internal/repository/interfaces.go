// Package repository はデータ永続化のインターフェースと実装を提供する。
package repository

import (
	"context"

	"github.com/hitoshi/talkroom/internal/docstore"
	"github.com/hitoshi/talkroom/internal/model"
)

// UserRepository はユーザーidentityの永続化インターフェース。
type UserRepository interface {
	// GetUser は外部認証IDでユーザーを取得する。
	// 存在しない場合はNotAuthFound種別のエラーを返す。
	GetUser(ctx context.Context, lineID string) (*model.User, error)

	// CreateUser はプライマリユーザーIDを採番し、プロフィールからユーザーを作成する。
	// 1つのリレーショナルトランザクションで完結し、補償は不要。
	// 同一認証IDの並行作成に敗れた場合はCouldNotInsert種別のエラーを返す。
	CreateUser(ctx context.Context, profile *model.UserProfile) (*model.User, error)
}

// TalkRoomRepository はtalk roomの永続化インターフェース。
// identity行（リレーショナル）とカード・イベント（ドキュメントストア）に
// またがる整合性をここで守る。
type TalkRoomRepository interface {
	// GetTalkRoom はプライマリユーザーIDでtalk roomのリードモデルを組み立てる。
	// identity行が存在しない場合はNotFound種別のエラーを返す。
	// identity行があるのにカードまたは最新イベントが欠けている場合も
	// 同じNotFound種別で返す（Resourceフィールドでどの読み取りが
	// 欠けたかを区別できる）。
	GetTalkRoom(ctx context.Context, primaryUserID int64) (*model.TalkRoom, error)

	// CreateTalkRoom はidentity行・カード・初回イベントをまとめて作成する。
	// 成功時は3つすべてが同一document_idで存在し、失敗時はidentity行が
	// 観測されないことを保証する（作成saga）。
	//
	// 作成レースの敗北はResource=TalkRoomIdentityResourceの
	// CouldNotInsertとして返し、呼び出し元は取得からやり直せる。
	// ドキュメント書き込みの失敗も同じCouldNotInsert種別だがResourceが
	// コレクション名になり、ロールバック済みのため再取得では回復しない。
	CreateTalkRoom(ctx context.Context, room *model.TalkRoom) (*model.TalkRoom, error)

	// AppendEvent は既存talk roomにイベントを追記し、カードの
	// 最新メッセージポインタを進める。更新後のリードモデルを返す。
	AppendEvent(ctx context.Context, room *model.TalkRoom, event *model.Event) (*model.TalkRoom, error)
}

// DocumentStore はドキュメントストアのCRUDインターフェース。
// 実装はdocstore.Client。ストアの内部的な耐久性・整合性には関知しない。
type DocumentStore interface {
	Insert(ctx context.Context, path Path, doc any) error
	Update(ctx context.Context, path Path, doc any) error
	Get(ctx context.Context, path Path, out any) error
}

// Path はdocstore.Pathの別名。インターフェース定義を読みやすくする。
type Path = docstore.Path
