// Package model はドメインモデルを定義する。
package model

import "time"

// User はチャットプラットフォーム利用ユーザーを表す。
// PrimaryUserIDはシステムが採番する不変のID、LineIDは外部認証ID。
// 外部認証IDごとにちょうど1人のUserが存在する。
type User struct {
	PrimaryUserID int64
	LineID        string
	DisplayName   string
	PictureURL    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProfileProvider はプロフィールの取得元IdPを表す。
type ProfileProvider string

const (
	// ProviderLine はLINE Messaging APIから取得したプロフィールを示す。
	ProviderLine ProfileProvider = "line"
)

// UserProfile はIdPから取得したプロフィールのタグ付きバリアント。
// プロバイダーごとにペイロードの型が異なるため、Providerで判別する。
type UserProfile struct {
	Provider ProfileProvider
	Line     *LineProfile
}

// LineProfile はLINEのプロフィールAPIレスポンスに対応するペイロード。
type LineProfile struct {
	UserID      string // 外部認証ID
	DisplayName string
	PictureURL  string
}

// NewLineProfile はLINEプロフィールのUserProfileを生成する。
func NewLineProfile(userID, displayName, pictureURL string) *UserProfile {
	return &UserProfile{
		Provider: ProviderLine,
		Line: &LineProfile{
			UserID:      userID,
			DisplayName: displayName,
			PictureURL:  pictureURL,
		},
	}
}
