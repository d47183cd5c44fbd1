// Package model はドメインモデルを定義する。
package model

import "time"

// JournalMedium はユーザーのジャーナル記録媒体を表す。
type JournalMedium string

const (
	// MediumWeb はWebフォームによるジャーナル記録。
	MediumWeb JournalMedium = "web"
	// MediumNotion はNotion連携によるジャーナル記録。
	MediumNotion JournalMedium = "notion"
)

// User はサービス利用ユーザーを表す。
// UsernameとHashedPasswordはNotion OAuth経由で作成されたユーザーでは空になる。
// InactiveDaysCounterはエントリなしの実行ごとに1ずつ増え、
// 有効なエントリが見つかった実行で0にリセットされる。負になることはない。
type User struct {
	ID                  string
	Email               string
	Username            string
	HashedPassword      string
	IsActive            bool
	InactiveDaysCounter int
	JournalMedium       JournalMedium
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
