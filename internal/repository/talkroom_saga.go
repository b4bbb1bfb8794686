package repository

import (
	"context"
	"fmt"

	"github.com/hitoshi/talkroom/internal/model"
)

// txHandle はsagaが所有するトランザクションハンドル。*sql.Txが満たす。
type txHandle interface {
	Commit() error
	Rollback() error
}

// talkRoomCreation はtalk room作成sagaの各フェーズ。
// insertIdentityはトランザクション内のidentity行挿入、
// insertCard / insertEventはドキュメントストアへの書き込み。
type talkRoomCreation struct {
	insertIdentity func(ctx context.Context) error
	insertCard     func(ctx context.Context) error
	insertEvent    func(ctx context.Context) error
}

// runTalkRoomCreation は作成sagaの状態遷移を実行する。
//
//	Absent → IdentityReserved(未コミット) → Committed | Absent(ロールバック)
//
// トランザクションハンドルはこの関数だけが所有し、カードとイベントの
// 書き込みが両方成功するまでcommitには到達しない。いずれかのフェーズが
// 失敗した場合、identity行は外部から観測されないまま破棄される。
func runTalkRoomCreation(ctx context.Context, tx txHandle, c talkRoomCreation) (err error) {
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := c.insertIdentity(ctx); err != nil {
		return err
	}
	if err := c.insertCard(ctx); err != nil {
		return err
	}
	if err := c.insertEvent(ctx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return model.NewUnexpected(TalkRoomIdentityResource, fmt.Errorf("failed to commit talk room transaction: %w", err))
	}
	committed = true
	return nil
}
