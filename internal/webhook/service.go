// Package webhook は受信メッセージをユーザー・talk room・イベントへ
// 解決するユースケースを提供する。
package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/talkroom/internal/model"
	"github.com/hitoshi/talkroom/internal/repository"
)

// ProfileFetcher はIdPからプロフィールを取得するインターフェース。
type ProfileFetcher interface {
	GetProfile(ctx context.Context, userID string) (*model.UserProfile, error)
}

// MetricsRecorder はユースケースの結果を記録するインターフェース。
type MetricsRecorder interface {
	RecordUserCreated()
	RecordTalkRoomCreated()
	RecordEventAppended()
}

// InboundMessage は受信したメッセージの内容。
type InboundMessage struct {
	Text   string
	SentAt time.Time
}

// Service は受信イベント解決のユースケース。
// 同一ユーザーの並行配送に対しては、作成レースの敗者が取得からやり直す
// ことで外部認証IDごとにUser・talk roomを1つに収束させる。
type Service struct {
	users     repository.UserRepository
	talkRooms repository.TalkRoomRepository
	profiles  ProfileFetcher
	metrics   MetricsRecorder
}

// NewService はServiceを生成する。metricsはnil可。
func NewService(
	users repository.UserRepository,
	talkRooms repository.TalkRoomRepository,
	profiles ProfileFetcher,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		users:     users,
		talkRooms: talkRooms,
		profiles:  profiles,
		metrics:   metrics,
	}
}

// HandleInboundMessage は1つの受信メッセージを処理する。
//  1. ユーザーを取得、なければプロフィールを取得して作成する
//  2. talk roomを取得、なければ初回イベント込みで作成する
//  3. talk roomが既存だった場合のみイベントを追記する
//
// ステップ内の操作は厳密に逐次で、取得の失敗がNotAuthFound / NotFound以外の
// 種別だった場合は作成にフォールバックせずそのまま伝播する。
func (s *Service) HandleInboundMessage(ctx context.Context, lineID string, msg InboundMessage) (*model.TalkRoom, error) {
	user, err := s.resolveUser(ctx, lineID)
	if err != nil {
		return nil, err
	}

	event := model.NewEvent(msg.Text, msg.SentAt)

	room, created, err := s.resolveTalkRoom(ctx, user, event)
	if err != nil {
		return nil, err
	}
	if created {
		// 作成時はevent自体が初回イベントとして書き込み済み
		return room, nil
	}

	updated, err := s.talkRooms.AppendEvent(ctx, room, event)
	if err != nil {
		return nil, fmt.Errorf("failed to append event: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordEventAppended()
	}

	slog.Info("event appended",
		slog.String("line_id", lineID),
		slog.String("document_id", updated.DocumentID),
		slog.String("event_id", event.ID),
	)
	return updated, nil
}

// resolveUser はユーザーを取得し、未登録ならプロフィール取得のうえ作成する。
// 並行作成に敗れた場合（CouldNotInsert）は勝者の行を取得し直す。
func (s *Service) resolveUser(ctx context.Context, lineID string) (*model.User, error) {
	user, err := s.users.GetUser(ctx, lineID)
	if err == nil {
		return user, nil
	}
	if !model.IsNotAuthFound(err) {
		return nil, err
	}

	profile, err := s.profiles.GetProfile(ctx, lineID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user profile: %w", err)
	}

	user, err = s.users.CreateUser(ctx, profile)
	if err != nil {
		if model.IsCouldNotInsert(err) {
			// 同一認証IDの並行配送に敗れた。勝者のレコードを読む
			return s.users.GetUser(ctx, lineID)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordUserCreated()
	}
	slog.Info("new user created",
		slog.String("line_id", lineID),
		slog.Int64("primary_user_id", user.PrimaryUserID),
	)
	return user, nil
}

// resolveTalkRoom はtalk roomを取得し、なければeventを初回イベントとして作成する。
// createdは自分の作成が成立した場合のみtrue。並行作成に敗れた場合は
// 勝者のtalk roomを取得し直し、createdはfalseになる（eventは未記録のため
// 呼び出し元が追記する）。
func (s *Service) resolveTalkRoom(ctx context.Context, user *model.User, event *model.Event) (*model.TalkRoom, bool, error) {
	room, err := s.talkRooms.GetTalkRoom(ctx, user.PrimaryUserID)
	if err == nil {
		return room, false, nil
	}
	if !model.IsNotFound(err) {
		return nil, false, err
	}

	room, err = s.talkRooms.CreateTalkRoom(ctx, model.NewTalkRoom(user, event, time.Now()))
	if err != nil {
		// CouldNotInsertはidentity行のレース敗北とドキュメント書き込みの
		// 失敗の両方で届く。再取得してよいのは前者（勝者の行がコミット済み）
		// だけで、後者はロールバック済みのためそのまま伝播させる
		if isIdentityConflict(err) {
			room, err = s.talkRooms.GetTalkRoom(ctx, user.PrimaryUserID)
			if err != nil {
				return nil, false, err
			}
			return room, false, nil
		}
		return nil, false, err
	}

	if s.metrics != nil {
		s.metrics.RecordTalkRoomCreated()
	}
	slog.Info("talk room created",
		slog.Int64("primary_user_id", user.PrimaryUserID),
		slog.String("document_id", room.DocumentID),
	)
	return room, true, nil
}

// isIdentityConflict はtalk room作成レースの敗北
// （identity行のユニーク制約違反）かどうかを判定する。
func isIdentityConflict(err error) bool {
	var re *model.RepositoryError
	return errors.As(err, &re) &&
		re.Kind == model.KindCouldNotInsert &&
		re.Resource == repository.TalkRoomIdentityResource
}
