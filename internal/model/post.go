// Package model はドメインモデルを定義する。
package model

import "time"

// PostKindText はテキスト投稿を表すkind値。kind未指定時のデフォルト。
const PostKindText = "text"

// PostBodyMaxLength は投稿本文の最大文字数。
const PostBodyMaxLength = 1000

// Post はフィードへの追記専用の投稿を表す。
// 更新・削除の操作は存在しない。CreatedAtはサーバー側で付与され不変。
type Post struct {
	ID        string
	AuthorID  string // profiles.IDへの外部キー
	Body      string // トリム後1〜1000文字
	Kind      string // 自由形式のタグ。デフォルトは "text"
	CreatedAt time.Time
}

// PostWithAuthor は投稿と投稿者の現在のプロフィールを結合したモデル。
// 表示される投稿者情報は投稿時点のスナップショットではなく、
// 常に最新のプロフィールを反映する。
type PostWithAuthor struct {
	Post
	Author Profile
}
