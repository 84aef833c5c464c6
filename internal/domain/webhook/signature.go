package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Verifier Webhookリクエストの署名検証器
type Verifier struct {
	secret []byte
}

// NewVerifier 共有シークレットからVerifierを作成
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, ErrConfiguration
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Verify 受信したままの生ボディに対するHMAC-SHA256と署名ヘッダーを比較する
// ボディはJSON解析前のバイト列でなければならない
func (v *Verifier) Verify(rawBody []byte, signatureHex string) error {
	if v == nil || len(v.secret) == 0 {
		return ErrConfiguration
	}

	signature, err := hex.DecodeString(strings.TrimSpace(signatureHex))
	if err != nil || len(signature) == 0 {
		return ErrSignatureInvalid
	}

	if !hmac.Equal(v.Sign(rawBody), signature) {
		return ErrSignatureInvalid
	}
	return nil
}

// Sign 生ボディの署名を計算する
func (v *Verifier) Sign(rawBody []byte) []byte {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(rawBody)
	return mac.Sum(nil)
}

// SignHex 生ボディの署名を16進文字列で返す
func (v *Verifier) SignHex(rawBody []byte) string {
	return hex.EncodeToString(v.Sign(rawBody))
}
