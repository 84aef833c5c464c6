package webhook

import "errors"

var (
	// ErrSignatureInvalid 署名が一致しない（認証失敗）
	ErrSignatureInvalid = errors.New("webhook signature invalid")
	// ErrPayloadInvalid ペイロードがJSONとして解析できない
	ErrPayloadInvalid = errors.New("webhook payload invalid")
	// ErrConfiguration 共有シークレットが設定されていない
	ErrConfiguration = errors.New("webhook secret is not configured")
)
