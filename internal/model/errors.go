// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, auth, conflict, not_found, unauthorized, timeout, network, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidEmail       = "INVALID_EMAIL"
	ErrCodePasswordTooShort   = "PASSWORD_TOO_SHORT"
	ErrCodeNicknameRequired   = "NICKNAME_REQUIRED"
	ErrCodeInvalidPostBody    = "INVALID_POST_BODY"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeProfileNotFound    = "PROFILE_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeAuthorMismatch     = "AUTHOR_MISMATCH"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeRequestTimeout     = "REQUEST_TIMEOUT"
	ErrCodeNetworkFailure     = "NETWORK_FAILURE"
)

// NewInvalidEmailError はメールアドレス形式エラーを生成する。
func NewInvalidEmailError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEmail,
		Message:  fmt.Sprintf("メールアドレスの形式が正しくありません: %s", email),
		Category: "validation",
		Action:   "正しい形式のメールアドレスを入力してください。",
	}
}

// NewPasswordTooShortError はパスワード長エラーを生成する。
func NewPasswordTooShortError(minLength int) *APIError {
	return &APIError{
		Code:     ErrCodePasswordTooShort,
		Message:  fmt.Sprintf("パスワードは%d文字以上で入力してください。", minLength),
		Category: "validation",
		Action:   fmt.Sprintf("%d文字以上のパスワードを設定してください。", minLength),
	}
}

// NewNicknameRequiredError はニックネーム未入力エラーを生成する。
func NewNicknameRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeNicknameRequired,
		Message:  "ニックネームは必須です。",
		Category: "validation",
		Action:   "ニックネームを入力してください。",
	}
}

// NewInvalidPostBodyError は投稿本文の検証エラーを生成する。
func NewInvalidPostBodyError(maxLength int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPostBody,
		Message:  fmt.Sprintf("投稿本文は1〜%d文字で入力してください。", maxLength),
		Category: "validation",
		Action:   fmt.Sprintf("本文を1〜%d文字に収めてください。", maxLength),
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// メールアドレスの存在有無を漏らさないよう、原因は区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "conflict",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewProfileNotFoundError はプロフィール未検出エラーを生成する。
// サインアップ直後にプロフィール行が欠落している場合にも返され、
// 呼び出し側は修復（再作成）を案内できる。
func NewProfileNotFoundError(profileID string) *APIError {
	return &APIError{
		Code:     ErrCodeProfileNotFound,
		Message:  fmt.Sprintf("指定されたプロフィールが見つかりません: %s", profileID),
		Category: "not_found",
		Action:   "プロフィールの修復を実行するか、IDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewAuthorMismatchError は投稿者とセッションの不一致エラーを生成する。
func NewAuthorMismatchError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthorMismatch,
		Message:  "投稿者IDが現在のセッションと一致しません。",
		Category: "unauthorized",
		Action:   "自分のアカウントでのみ投稿できます。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewRequestTimeoutError はリクエストタイムアウトエラーを生成する。
func NewRequestTimeoutError() *APIError {
	return &APIError{
		Code:     ErrCodeRequestTimeout,
		Message:  "リクエストがタイムアウトしました。",
		Category: "timeout",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewNetworkFailureError は通信失敗エラーを生成する。
func NewNetworkFailureError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeNetworkFailure,
		Message:  fmt.Sprintf("通信に失敗しました: %s", reason),
		Category: "network",
		Action:   "接続状況を確認して再度お試しください。",
	}
}
