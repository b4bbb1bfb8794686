package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/talkroom/internal/model"
)

// fakeTx はコミット/ロールバックの呼び出しを記録するトランザクションハンドル。
type fakeTx struct {
	committed  bool
	rolledBack bool
	commitErr  error
}

func (tx *fakeTx) Commit() error {
	tx.committed = true
	return tx.commitErr
}

func (tx *fakeTx) Rollback() error {
	tx.rolledBack = true
	return nil
}

// creationSteps は各フェーズの呼び出し順を記録するヘルパー。
func creationSteps(calls *[]string, identityErr, cardErr, eventErr error) talkRoomCreation {
	return talkRoomCreation{
		insertIdentity: func(ctx context.Context) error {
			*calls = append(*calls, "identity")
			return identityErr
		},
		insertCard: func(ctx context.Context) error {
			*calls = append(*calls, "card")
			return cardErr
		},
		insertEvent: func(ctx context.Context) error {
			*calls = append(*calls, "event")
			return eventErr
		},
	}
}

// 全フェーズ成功時のみコミットされ、identity→card→eventの順で実行されることを検証
func TestRunTalkRoomCreation_CommitsAfterAllPhases(t *testing.T) {
	tx := &fakeTx{}
	var calls []string

	err := runTalkRoomCreation(context.Background(), tx, creationSteps(&calls, nil, nil, nil))
	if err != nil {
		t.Fatalf("runTalkRoomCreation returned error: %v", err)
	}

	want := []string{"identity", "card", "event"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, calls[i], want[i])
		}
	}

	if !tx.committed {
		t.Error("expected transaction to be committed")
	}
	if tx.rolledBack {
		t.Error("successful creation must not roll back")
	}
}

// カード挿入失敗時はコミットされず、ロールバックされることを検証
func TestRunTalkRoomCreation_CardFailureAbandonsTx(t *testing.T) {
	tx := &fakeTx{}
	var calls []string
	cardErr := model.NewCouldNotInsert("talkRoomCards", "doc-1", errors.New("boom"))

	err := runTalkRoomCreation(context.Background(), tx, creationSteps(&calls, nil, cardErr, nil))
	if err == nil {
		t.Fatal("expected error from card phase")
	}
	if !model.IsCouldNotInsert(err) {
		t.Errorf("expected CouldNotInsert, got %v", err)
	}

	if tx.committed {
		t.Error("transaction must not be committed after card failure")
	}
	if !tx.rolledBack {
		t.Error("expected transaction rollback")
	}

	// イベントフェーズには進まない
	for _, c := range calls {
		if c == "event" {
			t.Error("event phase must not run after card failure")
		}
	}
}

// イベント挿入失敗時もコミットされないことを検証
// （カード挿入成功後でもidentity行は観測されない）
func TestRunTalkRoomCreation_EventFailureAbandonsTx(t *testing.T) {
	tx := &fakeTx{}
	var calls []string
	eventErr := model.NewCouldNotInsert("events", "ev-1", errors.New("boom"))

	err := runTalkRoomCreation(context.Background(), tx, creationSteps(&calls, nil, nil, eventErr))
	if err == nil {
		t.Fatal("expected error from event phase")
	}

	if tx.committed {
		t.Error("transaction must not be committed after event failure")
	}
	if !tx.rolledBack {
		t.Error("expected transaction rollback")
	}
}

// identity挿入失敗時はドキュメントストアへの書き込みに進まないことを検証
func TestRunTalkRoomCreation_IdentityFailureSkipsDocWrites(t *testing.T) {
	tx := &fakeTx{}
	var calls []string
	identityErr := model.NewCouldNotInsert("talk_rooms", "7", errors.New("duplicate key"))

	err := runTalkRoomCreation(context.Background(), tx, creationSteps(&calls, identityErr, nil, nil))
	if err == nil {
		t.Fatal("expected error from identity phase")
	}

	if len(calls) != 1 || calls[0] != "identity" {
		t.Errorf("calls = %v, want only identity", calls)
	}
	if tx.committed {
		t.Error("transaction must not be committed")
	}
	if !tx.rolledBack {
		t.Error("expected transaction rollback")
	}
}

// コミット自体の失敗がUnexpected種別で返ることを検証
func TestRunTalkRoomCreation_CommitFailure(t *testing.T) {
	tx := &fakeTx{commitErr: errors.New("connection lost")}
	var calls []string

	err := runTalkRoomCreation(context.Background(), tx, creationSteps(&calls, nil, nil, nil))
	if err == nil {
		t.Fatal("expected error from commit")
	}
	if model.IsNotFound(err) || model.IsCouldNotInsert(err) {
		t.Errorf("commit failure must be Unexpected, got %v", err)
	}
}
