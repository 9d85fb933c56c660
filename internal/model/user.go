// Package model はドメインモデルを定義する。
package model

import "time"

// User は認証アカウント（Identity）を表す。
// ソーシャルプロフィールとは独立した存在で、profilesと1:1で対応する。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
