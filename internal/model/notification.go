package model

import (
	"strings"
	"time"
)

// NotificationGrade は通知の重要度を表す。
type NotificationGrade string

const (
	GradeInfo NotificationGrade = "INFO"
	GradeWarn NotificationGrade = "WARN"
	GradeCrit NotificationGrade = "CRIT"
)

// ParseNotificationGrade は入力文字列をNotificationGradeに変換する。
// 大文字小文字を区別しない。未知の値の場合はfalseを返す。
func ParseNotificationGrade(s string) (NotificationGrade, bool) {
	switch NotificationGrade(strings.ToUpper(s)) {
	case GradeInfo:
		return GradeInfo, true
	case GradeWarn:
		return GradeWarn, true
	case GradeCrit:
		return GradeCrit, true
	}
	return "", false
}

// Order は一覧取得時の時系列ソート順を表す。
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// ParseOrder は入力文字列をOrderに変換する。空文字列は昇順として扱う。
func ParseOrder(s string) (Order, bool) {
	switch strings.ToLower(s) {
	case "", "asc":
		return OrderAsc, true
	case "desc":
		return OrderDesc, true
	}
	return "", false
}

// Notification は家族グループ宛の通知を表す。
// Indexは作成順に採番される連番で、作成レスポンスとして返される。
type Notification struct {
	Index        int64
	FamilyID     string
	Grade        NotificationGrade
	Descriptions string
	IsRead       bool
	CreatedAt    time.Time
}
