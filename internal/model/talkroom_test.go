package model

import (
	"testing"
	"time"
)

// NewTalkRoomが初回イベントを最新イベントとして持つ初期状態を生成することを検証
func TestNewTalkRoom_InitialState(t *testing.T) {
	user := &User{PrimaryUserID: 7, LineID: "U100", DisplayName: "Hitoshi"}
	sentAt := time.Unix(100, 0)
	first := NewEvent("hello", sentAt)
	now := time.Unix(150, 0)

	room := NewTalkRoom(user, first, now)

	if room.DocumentID == "" {
		t.Fatal("expected non-empty document ID")
	}
	if room.PrimaryUserID != 7 {
		t.Errorf("PrimaryUserID = %d, want 7", room.PrimaryUserID)
	}
	if room.DisplayName != "Hitoshi" {
		t.Errorf("DisplayName = %q, want %q", room.DisplayName, "Hitoshi")
	}
	if room.LatestEvent != first {
		t.Error("expected the first event to be the latest event")
	}
	if !room.LatestMessagedAt.Equal(sentAt) {
		t.Errorf("LatestMessagedAt = %v, want %v", room.LatestMessagedAt, sentAt)
	}
	if !room.SortTime.Equal(sentAt) {
		t.Errorf("SortTime = %v, want %v", room.SortTime, sentAt)
	}
	if !room.Follow {
		t.Error("expected a new talk room to start followed")
	}
	if room.Rsvp || room.Pinned {
		t.Error("expected rsvp and pinned to start false")
	}
}

// DocumentIDが呼び出しごとに一意に採番されることを検証
func TestNewTalkRoom_UniqueDocumentID(t *testing.T) {
	user := &User{PrimaryUserID: 1}
	e := NewEvent("hi", time.Now())

	a := NewTalkRoom(user, e, time.Now())
	b := NewTalkRoom(user, e, time.Now())

	if a.DocumentID == b.DocumentID {
		t.Error("expected distinct document IDs")
	}
}

// WithLatestEventが最新ポインタと時刻を進め、元のtalk roomを変更しないことを検証
func TestTalkRoom_WithLatestEvent(t *testing.T) {
	user := &User{PrimaryUserID: 7, DisplayName: "Hitoshi"}
	first := NewEvent("hello", time.Unix(100, 0))
	room := NewTalkRoom(user, first, time.Unix(100, 0))

	second := NewEvent("world", time.Unix(200, 0))
	now := time.Unix(201, 0)
	next := room.WithLatestEvent(second, now)

	if next.LatestEvent != second {
		t.Error("expected latest event to be replaced")
	}
	if !next.LatestMessagedAt.Equal(second.SentAt) {
		t.Errorf("LatestMessagedAt = %v, want %v", next.LatestMessagedAt, second.SentAt)
	}
	if !next.SortTime.After(room.SortTime) {
		t.Errorf("SortTime should advance: %v -> %v", room.SortTime, next.SortTime)
	}
	if !next.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", next.UpdatedAt, now)
	}
	if next.DocumentID != room.DocumentID {
		t.Error("document ID must be immutable")
	}

	// 元のリードモデルは変更されない
	if room.LatestEvent != first {
		t.Error("original talk room must not be mutated")
	}
}

// NewEventが受信内容からユーザー発のイベントを生成することを検証
func TestNewEvent(t *testing.T) {
	sentAt := time.Unix(100, 0)
	e := NewEvent("hello", sentAt)

	if e.ID == "" {
		t.Fatal("expected non-empty event ID")
	}
	if e.Message != "hello" {
		t.Errorf("Message = %q, want %q", e.Message, "hello")
	}
	if e.Talker != TalkerUser {
		t.Errorf("Talker = %q, want %q", e.Talker, TalkerUser)
	}
	if !e.SentAt.Equal(sentAt) {
		t.Errorf("SentAt = %v, want %v", e.SentAt, sentAt)
	}
}
