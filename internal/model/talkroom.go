// Package model はドメインモデルを定義する。
package model

import (
	"time"

	"github.com/google/uuid"
)

// TalkerRole はイベントの発言者区分を表す。
type TalkerRole string

const (
	// TalkerUser はエンドユーザーからのメッセージを示す。
	TalkerUser TalkerRole = "user"
	// TalkerBot はボット側からの送信を示す。
	TalkerBot TalkerRole = "bot"
)

// Event はtalk room配下に追記されるメッセージイベント。
// 作成後に変更されることはない。
type Event struct {
	ID      string
	Message string
	Talker  TalkerRole
	SentAt  time.Time
}

// NewEvent は受信メッセージからイベントを生成する。IDはUUIDで採番する。
func NewEvent(message string, sentAt time.Time) *Event {
	return &Event{
		ID:      uuid.NewString(),
		Message: message,
		Talker:  TalkerUser,
		SentAt:  sentAt,
	}
}

// TalkRoom はtalk roomのリードモデル。
// リレーショナル側のidentity行、ドキュメントストア側のカード、
// カードが指す最新イベントを読み出し時に結合したもので、単体では永続化されない。
type TalkRoom struct {
	DocumentID    string // ドキュメントストア側のキー。作成後は不変
	PrimaryUserID int64
	DisplayName   string
	Rsvp          bool
	Pinned        bool
	Follow        bool
	LatestEvent   *Event
	// LatestMessagedAt / SortTime は新しいイベントのたびに進む
	LatestMessagedAt time.Time
	SortTime         time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewTalkRoom は初回メッセージからtalk roomの初期状態を生成する。
// DocumentIDはここでUUIDとして採番され、以後変更されない。
func NewTalkRoom(user *User, first *Event, now time.Time) *TalkRoom {
	return &TalkRoom{
		DocumentID:       uuid.NewString(),
		PrimaryUserID:    user.PrimaryUserID,
		DisplayName:      user.DisplayName,
		Rsvp:             false,
		Pinned:           false,
		Follow:           true,
		LatestEvent:      first,
		LatestMessagedAt: first.SentAt,
		SortTime:         first.SentAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// WithLatestEvent は最新イベントを差し替えたコピーを返す。
// LatestMessagedAtとSortTimeはイベントの送信時刻に進む。
func (t *TalkRoom) WithLatestEvent(e *Event, now time.Time) *TalkRoom {
	next := *t
	next.LatestEvent = e
	next.LatestMessagedAt = e.SentAt
	next.SortTime = e.SentAt
	next.UpdatedAt = now
	return &next
}
