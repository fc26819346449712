package model

// Family は主使用者を中心とする家族グループを表す。
// 主使用者1人につき1つの家族のみ作成できる。
type Family struct {
	ID         string
	MainUser   string
	FamilyName string
}

// Member は家族に所属する補助使用者を表す。
type Member struct {
	ID       string
	FamilyID string
	UserID   string
	Nickname string
}
