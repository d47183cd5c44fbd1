package model

import (
	"strings"
	"time"
)

// JournalEntry はWeb媒体で記録されたジャーナルエントリを表す。
type JournalEntry struct {
	ID        string
	UserID    string
	Content   string
	CreatedAt time.Time
}

// Snapshot は1回の処理パスでNotionから抽出されたジャーナル内容を表す。
// 永続化せず、そのユーザーの処理中のみ存在する。各フィールドは空の場合がある。
type Snapshot struct {
	EntryTitle string
	Gratitude  string
	Highlights string
	Challenges string
	Reflection string
}

// IsEmpty は全フィールドが空（または空白のみ）かどうかを返す。
// 全フィールドが空のスナップショットは「エントリなし」として扱う。
func (s *Snapshot) IsEmpty() bool {
	return strings.TrimSpace(s.EntryTitle) == "" &&
		strings.TrimSpace(s.Gratitude) == "" &&
		strings.TrimSpace(s.Highlights) == "" &&
		strings.TrimSpace(s.Challenges) == "" &&
		strings.TrimSpace(s.Reflection) == ""
}
