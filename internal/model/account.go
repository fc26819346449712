// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// Role は利用者アカウントの役割を表す。
type Role string

const (
	// RoleTest は開発・検証用の仮アカウント。
	RoleTest Role = "TEST"
	// RoleMain は見守り対象となる主使用者。家族の中心となるアカウント。
	RoleMain Role = "MAIN"
	// RoleSub は主使用者を見守る保護者・補助使用者。
	RoleSub Role = "SUB"
	// RoleSystem はシステム管理用アカウント。全リソースにアクセス可能。
	RoleSystem Role = "SYSTEM"
)

// ParseRole は入力文字列をRoleに変換する。大文字小文字を区別しない。
// 未知の値の場合はfalseを返す。
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(s)) {
	case RoleTest:
		return RoleTest, true
	case RoleMain:
		return RoleMain, true
	case RoleSub:
		return RoleSub, true
	case RoleSystem:
		return RoleSystem, true
	}
	return "", false
}

// Gender は利用者の性別を表す。
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// ParseGender は入力文字列をGenderに変換する。大文字小文字を区別しない。
func ParseGender(s string) (Gender, bool) {
	switch Gender(strings.ToUpper(s)) {
	case GenderMale:
		return GenderMale, true
	case GenderFemale:
		return GenderFemale, true
	case GenderOther:
		return GenderOther, true
	}
	return "", false
}

// Account は利用者アカウントを表す。
// PasswordはbcryptハッシュでありAPIレスポンスには含めない。
type Account struct {
	ID        string
	Email     string
	Password  string
	Role      Role
	UserName  string
	BirthDate *time.Time
	Gender    Gender
	Address   string
	CreatedAt time.Time
}

// IsSystem はシステム管理アカウントかどうかを返す。
func (a *Account) IsSystem() bool {
	return a != nil && a.Role == RoleSystem
}

// IsMain は主使用者アカウントかどうかを返す。
// ログイン時のセッション特権（アイドル失効の免除）の判定に使用する。
func (a *Account) IsMain() bool {
	return a != nil && a.Role == RoleMain
}
