package model

import "time"

// NotionIntegration はユーザーとNotionワークスペースの紐付けを表す。
// AccessTokenはDB上では暗号化されて保存される。
// 同一ユーザーに複数レコードが存在する場合はcreated_atが最新のものを有効とする（再認可時に再作成）。
type NotionIntegration struct {
	ID          string
	UserID      string
	AccessToken string
	PageID      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
