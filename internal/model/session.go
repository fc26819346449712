package model

import "time"

// Session はログインセッションを表す。
// IsMainUserはログイン時点の役割から決定され、以後再評価されない。
// 主使用者のセッションはアイドルタイムアウトによる失効の対象外となる。
type Session struct {
	ID         string
	UserID     string
	LastActive time.Time
	IsMainUser bool
}
