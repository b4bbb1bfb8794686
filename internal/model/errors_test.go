package model

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// NotFoundエラーが種別判定関数で正しく分類されることを検証
func TestRepositoryError_Kinds(t *testing.T) {
	tests := []struct {
		name             string
		err              error
		isNotFound       bool
		isNotAuthFound   bool
		isCouldNotInsert bool
	}{
		{"not found", NewNotFound("talk_rooms", "42"), true, false, false},
		{"not auth found", NewNotAuthFound("U100"), false, true, false},
		{"could not insert", NewCouldNotInsert("talkRoomCards", "doc-1", errors.New("boom")), false, false, true},
		{"unexpected", NewUnexpected("talk_rooms", errors.New("boom")), false, false, false},
		{"plain error", errors.New("boom"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.isNotFound {
				t.Errorf("IsNotFound = %v, want %v", got, tt.isNotFound)
			}
			if got := IsNotAuthFound(tt.err); got != tt.isNotAuthFound {
				t.Errorf("IsNotAuthFound = %v, want %v", got, tt.isNotAuthFound)
			}
			if got := IsCouldNotInsert(tt.err); got != tt.isCouldNotInsert {
				t.Errorf("IsCouldNotInsert = %v, want %v", got, tt.isCouldNotInsert)
			}
		})
	}
}

// fmt.Errorfでラップしてもerrors.As経由で分類できることを検証
func TestRepositoryError_ClassifiedThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("failed to get talk room: %w", NewNotFound("talk_rooms", "7"))

	if !IsNotFound(wrapped) {
		t.Error("expected wrapped NotFound to be classified as NotFound")
	}
	if IsNotAuthFound(wrapped) {
		t.Error("wrapped NotFound should not be classified as NotAuthFound")
	}
}

// Unwrapが元のエラーを返し、errors.Isで辿れることを検証
func TestRepositoryError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewCouldNotInsert("events", "ev-1", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the underlying cause")
	}
}

// Errorメッセージに種別・リソース・キーが含まれることを検証
func TestRepositoryError_Message(t *testing.T) {
	err := NewNotFound("talkRoomCards", "doc-9")

	msg := err.Error()
	for _, want := range []string{"NOT_FOUND", "talkRoomCards", "doc-9"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message %q should contain %q", msg, want)
		}
	}
}
