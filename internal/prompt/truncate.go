// Package prompt はジャーナルスナップショットからのプロンプト構築を提供する。
// 比例配分による切り詰めと決定的なシリアライズを含む。
package prompt

import (
	"strings"

	"github.com/hitoshi/jurnal/internal/model"
)

const (
	// DefaultMaxLength はプロンプト本文の文字数上限のデフォルト値。
	DefaultMaxLength = 2000
	// truncationPenalty は切り詰め時にフィールドごとに追加で差し引く固定文字数。
	// 末尾に付加するマーカー分を吸収するための値。
	truncationPenalty = 18
	// truncationMarker は切り詰めたフィールドの末尾に付加するマーカー。
	truncationMarker = "... (truncated)"
)

// Field はプロンプトを構成するフィールド名と値のペア。
type Field struct {
	Name  string
	Value string
}

// SnapshotFields はスナップショットを順序固定のフィールドリストに変換する。
// 空のフィールドは含めない。
func SnapshotFields(s *model.Snapshot) []Field {
	candidates := []Field{
		{Name: "Entry Title", Value: s.EntryTitle},
		{Name: "Gratitude", Value: s.Gratitude},
		{Name: "Highlights", Value: s.Highlights},
		{Name: "Challenges", Value: s.Challenges},
		{Name: "Reflection", Value: s.Reflection},
	}

	fields := make([]Field, 0, len(candidates))
	for _, f := range candidates {
		if strings.TrimSpace(f.Value) != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// TruncateFields はフィールド値の合計文字数がmaxLengthに収まるよう切り詰める。
//
// 合計がmaxLength以下の場合は入力をそのまま返す。超過分は各フィールドの
// 文字数比率に応じて比例配分し、さらにフィールドごとに固定ペナルティを加えて
// 削減量とする。削減量がフィールド自体の文字数以上になる短いフィールドは
// 切り詰めずそのまま残す（フィールドを空にはしない）。
// 文字数はルーン単位（rune）で数える。
func TruncateFields(fields []Field, maxLength int) []Field {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	total := 0
	for _, f := range fields {
		total += len([]rune(f.Value))
	}
	if total <= maxLength {
		return fields
	}

	overflow := total - maxLength

	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		length := len([]rune(f.Value))
		removal := overflow*length/total + truncationPenalty
		if removal >= length {
			// 削減量がフィールド全体に及ぶ場合は切り詰め対象としない
			out = append(out, f)
			continue
		}

		runes := []rune(f.Value)
		truncated := strings.TrimRight(string(runes[:length-removal]), " \t\n")
		out = append(out, Field{Name: f.Name, Value: truncated + truncationMarker})
	}
	return out
}

// Serialize はフィールドリストを決定的で順序安定なプロンプト本文に変換する。
// 各フィールドは "<名前> - <値>" の1行として出力する。
func Serialize(fields []Field) string {
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, f.Name+" - "+f.Value)
	}
	return strings.Join(lines, "\n")
}

// Build はスナップショットから切り詰め済みのプロンプト本文を構築する。
func Build(s *model.Snapshot, maxLength int) string {
	return Serialize(TruncateFields(SnapshotFields(s), maxLength))
}
