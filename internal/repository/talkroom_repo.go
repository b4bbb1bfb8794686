package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hitoshi/talkroom/internal/docstore"
	"github.com/hitoshi/talkroom/internal/model"
)

// ドキュメントストアのコレクション名。
// eventはtalkRooms/{documentID}配下の子コレクションに置く。
const (
	talkRoomCollection     = "talkRooms"
	talkRoomCardCollection = "talkRoomCards"
	eventCollection        = "events"
)

// TalkRoomIdentityResource はtalk roomのidentity行（talk_roomsテーブル）の
// リソース名。作成レースの敗北はこのリソースのCouldNotInsertとして届き、
// 呼び出し元はこれを見て取得からやり直す。ドキュメントストア起因の
// CouldNotInsertはResourceが失敗したコレクション名になる。
const TalkRoomIdentityResource = "talk_rooms"

// talkRoomCardDoc はtalkRoomCardsコレクションのドキュメント表現。
type talkRoomCardDoc struct {
	DisplayName      string    `json:"display_name"`
	Rsvp             bool      `json:"rsvp"`
	Pinned           bool      `json:"pinned"`
	Follow           bool      `json:"follow"`
	LatestEventID    string    `json:"latest_event_id"`
	LatestMessagedAt time.Time `json:"latest_messaged_at"`
	SortTime         time.Time `json:"sort_time"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// eventDoc はeventsコレクションのドキュメント表現。
type eventDoc struct {
	Message string    `json:"message"`
	Talker  string    `json:"talker"`
	SentAt  time.Time `json:"sent_at"`
}

// newCardDoc はリードモデルからカードドキュメントを組み立てる。
func newCardDoc(room *model.TalkRoom) talkRoomCardDoc {
	return talkRoomCardDoc{
		DisplayName:      room.DisplayName,
		Rsvp:             room.Rsvp,
		Pinned:           room.Pinned,
		Follow:           room.Follow,
		LatestEventID:    room.LatestEvent.ID,
		LatestMessagedAt: room.LatestMessagedAt,
		SortTime:         room.SortTime,
		CreatedAt:        room.CreatedAt,
		UpdatedAt:        room.UpdatedAt,
	}
}

// newEventDoc はイベントからイベントドキュメントを組み立てる。
func newEventDoc(event *model.Event) eventDoc {
	return eventDoc{
		Message: event.Message,
		Talker:  string(event.Talker),
		SentAt:  event.SentAt,
	}
}

// TalkRoomRepo はPostgreSQL（identity行）とドキュメントストア（カード・イベント）に
// またがるtalk roomリポジトリ。
type TalkRoomRepo struct {
	db   *sql.DB
	docs DocumentStore

	// docTimeout はトランザクションを開いたままドキュメントストアを呼ぶ
	// 区間の上限。リレーショナルロックの保持時間を抑える。
	docTimeout time.Duration

	// findIdentity はidentity行の点検索。既定はqueryIdentityで、
	// テストではDBなしで射影の組み立てを通すために差し替える。
	findIdentity func(ctx context.Context, primaryUserID int64) (string, error)
}

// NewTalkRoomRepo はTalkRoomRepoを生成する。
func NewTalkRoomRepo(db *sql.DB, docs DocumentStore, docTimeout time.Duration) *TalkRoomRepo {
	if docTimeout <= 0 {
		docTimeout = 5 * time.Second
	}
	r := &TalkRoomRepo{db: db, docs: docs, docTimeout: docTimeout}
	r.findIdentity = r.queryIdentity
	return r
}

// GetTalkRoom はプライマリユーザーIDでtalk roomのリードモデルを組み立てる。
// identity行 → カード → 最新イベントの順で読み、どれが欠けてもNotFoundを返す。
// identity行の欠落は「まだ作られていない」、カード・イベントの欠落は
// 射影の破損を意味するが、種別は同じNotFoundでResourceのみが異なる。
func (r *TalkRoomRepo) GetTalkRoom(ctx context.Context, primaryUserID int64) (*model.TalkRoom, error) {
	documentID, err := r.findIdentity(ctx, primaryUserID)
	if err != nil {
		return nil, err
	}

	var card talkRoomCardDoc
	cardPath := docstore.NewPath(talkRoomCardCollection, documentID)
	if err := r.docs.Get(ctx, cardPath, &card); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, model.NewNotFound(talkRoomCardCollection, documentID)
		}
		return nil, model.NewUnexpected(talkRoomCardCollection, fmt.Errorf("failed to get talk room card: %w", err))
	}

	var event eventDoc
	eventPath := docstore.NewPath(talkRoomCollection, documentID).Child(eventCollection, card.LatestEventID)
	if err := r.docs.Get(ctx, eventPath, &event); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, model.NewNotFound(eventCollection, card.LatestEventID)
		}
		return nil, model.NewUnexpected(eventCollection, fmt.Errorf("failed to get latest event: %w", err))
	}

	return &model.TalkRoom{
		DocumentID:    documentID,
		PrimaryUserID: primaryUserID,
		DisplayName:   card.DisplayName,
		Rsvp:          card.Rsvp,
		Pinned:        card.Pinned,
		Follow:        card.Follow,
		LatestEvent: &model.Event{
			ID:      card.LatestEventID,
			Message: event.Message,
			Talker:  model.TalkerRole(event.Talker),
			SentAt:  event.SentAt,
		},
		LatestMessagedAt: card.LatestMessagedAt,
		SortTime:         card.SortTime,
		CreatedAt:        card.CreatedAt,
		UpdatedAt:        card.UpdatedAt,
	}, nil
}

// queryIdentity はtalk_roomsからdocument_idを点検索する。
func (r *TalkRoomRepo) queryIdentity(ctx context.Context, primaryUserID int64) (string, error) {
	var documentID string
	err := r.db.QueryRowContext(ctx,
		`SELECT document_id FROM talk_rooms WHERE primary_user_id = $1`,
		primaryUserID,
	).Scan(&documentID)
	if err == sql.ErrNoRows {
		return "", model.NewNotFound(TalkRoomIdentityResource, strconv.FormatInt(primaryUserID, 10))
	}
	if err != nil {
		return "", model.NewUnexpected(TalkRoomIdentityResource, fmt.Errorf("failed to find talk room: %w", err))
	}
	return documentID, nil
}

// CreateTalkRoom はidentity行・カード・初回イベントをまとめて作成する。
// identity行の挿入は未コミットのトランザクションに載せたまま、
// ドキュメントストアへの2書き込みが両方成功したときだけコミットする。
// 途中で失敗した場合はロールバックされ、半端なtalk roomは観測されない。
func (r *TalkRoomRepo) CreateTalkRoom(ctx context.Context, room *model.TalkRoom) (*model.TalkRoom, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, model.NewUnexpected(TalkRoomIdentityResource, fmt.Errorf("failed to begin transaction: %w", err))
	}

	documentID := room.DocumentID
	cardPath := docstore.NewPath(talkRoomCardCollection, documentID)
	eventPath := docstore.NewPath(talkRoomCollection, documentID).Child(eventCollection, room.LatestEvent.ID)

	creation := talkRoomCreation{
		insertIdentity: func(ctx context.Context) error {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO talk_rooms (document_id, primary_user_id) VALUES ($1, $2)`,
				documentID, room.PrimaryUserID,
			)
			if err != nil {
				if isUniqueViolation(err) {
					return model.NewCouldNotInsert(TalkRoomIdentityResource, strconv.FormatInt(room.PrimaryUserID, 10), err)
				}
				return model.NewUnexpected(TalkRoomIdentityResource, fmt.Errorf("failed to insert talk room identity: %w", err))
			}
			return nil
		},
		insertCard: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, r.docTimeout)
			defer cancel()
			if err := r.docs.Insert(ctx, cardPath, newCardDoc(room)); err != nil {
				return model.NewCouldNotInsert(talkRoomCardCollection, documentID, err)
			}
			return nil
		},
		insertEvent: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, r.docTimeout)
			defer cancel()
			if err := r.docs.Insert(ctx, eventPath, newEventDoc(room.LatestEvent)); err != nil {
				return model.NewCouldNotInsert(eventCollection, room.LatestEvent.ID, err)
			}
			return nil
		},
	}

	if err := runTalkRoomCreation(ctx, tx, creation); err != nil {
		return nil, err
	}
	return room, nil
}

// AppendEvent は既存talk roomにイベントを追記する。
// カード更新 → イベント挿入の2書き込みはリレーショナルトランザクションに
// 包まれず、1つ目の成功後に2つ目が失敗しても補償しない（既知の整合性ギャップ）。
func (r *TalkRoomRepo) AppendEvent(ctx context.Context, room *model.TalkRoom, event *model.Event) (*model.TalkRoom, error) {
	next := room.WithLatestEvent(event, time.Now())

	cardPath := docstore.NewPath(talkRoomCardCollection, next.DocumentID)
	if err := r.docs.Update(ctx, cardPath, newCardDoc(next)); err != nil {
		return nil, model.NewUnexpected(talkRoomCardCollection, fmt.Errorf("failed to update talk room card: %w", err))
	}

	eventPath := docstore.NewPath(talkRoomCollection, next.DocumentID).Child(eventCollection, event.ID)
	if err := r.docs.Insert(ctx, eventPath, newEventDoc(event)); err != nil {
		return nil, model.NewCouldNotInsert(eventCollection, event.ID, err)
	}

	return next, nil
}

// compile-time interface check
var _ TalkRoomRepository = (*TalkRoomRepo)(nil)
