package allocation

import "strings"

// IsEligible はエンジニアのスキルがプロジェクトの必須スキルを満たすかを判定します。
// 必須スキルが空なら常に true、それ以外は 1 つでも一致すれば true です (any-of)。
// 比較は大文字小文字を区別する完全一致です。
func IsEligible(requiredSkills, engineerSkills []string) bool {
	if len(requiredSkills) == 0 {
		return true
	}

	owned := make(map[string]struct{}, len(engineerSkills))
	for _, s := range engineerSkills {
		owned[s] = struct{}{}
	}

	for _, s := range requiredSkills {
		if _, ok := owned[s]; ok {
			return true
		}
	}
	return false
}

// NormalizeSkills は前後の空白を除去し、重複を取り除いたスキル一覧を返します。
// 並び順は最初の出現順を維持します。空のスキルが含まれる場合は ok=false を返します。
func NormalizeSkills(raw []string) (skills []string, ok bool) {
	skills = make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, s := range raw {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return nil, false
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		skills = append(skills, trimmed)
	}
	return skills, true
}
