// Package security はアプリケーションのセキュリティ機能を提供する。
//
// DescriptionSanitizerService は通知本文を保存前にサニタイズし、
// 後段でそのまま表示するクライアントをXSSから保護する。
// 通知本文はプレーンテキストとして扱うため、bluemondayの
// StrictPolicyで全HTMLタグを除去する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// DescriptionSanitizerService は通知本文サニタイズ機能のインターフェースを定義する。
type DescriptionSanitizerService interface {
	// Sanitize は入力から全HTMLタグを除去したテキストを返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// descriptionSanitizer はDescriptionSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type descriptionSanitizer struct {
	policy *bluemonday.Policy
}

// NewDescriptionSanitizer はDescriptionSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyを使用し、いかなるタグ・属性も許可しない。
func NewDescriptionSanitizer() *descriptionSanitizer {
	return &descriptionSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力から全HTMLタグを除去したテキストを返す。
func (s *descriptionSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}
