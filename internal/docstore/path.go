// Package docstore はJSONドキュメントストアへのHTTPクライアントを提供する。
// ストア自体はブラックボックスのCRUDサービスとして扱い、
// コレクション/ドキュメントの階層アドレッシングのみを前提とする。
package docstore

import "net/url"

// Path はドキュメントの階層パスを表す。
// コレクションとドキュメントIDが交互に並び、親ドキュメント配下の
// 子コレクションを表現できる（例: talkRooms/{id}/events/{eventID}）。
type Path struct {
	segments []string
}

// NewPath はトップレベルコレクションのドキュメントパスを生成する。
func NewPath(collection, docID string) Path {
	return Path{segments: []string{collection, docID}}
}

// Child は親ドキュメント配下の子コレクションのドキュメントパスを返す。
func (p Path) Child(collection, docID string) Path {
	segs := make([]string, 0, len(p.segments)+2)
	segs = append(segs, p.segments...)
	return Path{segments: append(segs, collection, docID)}
}

// Collection はパスが指すドキュメントの属するコレクション名を返す。
func (p Path) Collection() string {
	if len(p.segments) < 2 {
		return ""
	}
	return p.segments[len(p.segments)-2]
}

// DocID はパスが指すドキュメントのIDを返す。
func (p Path) DocID() string {
	if len(p.segments) < 2 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// String はAPIのURLパス表現（/documents/col/id/...）を返す。
func (p Path) String() string {
	s := "/documents"
	for _, seg := range p.segments {
		s += "/" + url.PathEscape(seg)
	}
	return s
}
