// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// Profile はユーザーの公開プロフィールを表す。
// IDはusers.IDと同一（1:1）。サインアップ時に暗黙的に作成される。
type Profile struct {
	ID         string
	Nickname   string // 必須。一意性はこの層では強制しない
	FullName   string // 任意
	Tagline    string // 任意。自己紹介の一言
	Biography  string // 任意
	Reputation int    // 0以上。この層からは読み取り専用
	AvatarURL  string // 任意
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Initials はニックネームの先頭2文字を大文字で返す。
// アバター画像がない場合のフォールバック表示に使用する。
func (p *Profile) Initials() string {
	runes := []rune(p.Nickname)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return strings.ToUpper(string(runes))
}
