package allocation

import (
	"sort"
	"strings"
	"time"
)

// Seniority はエンジニアの職位を表します。
type Seniority string

const (
	SeniorityJunior Seniority = "junior"
	SeniorityMid    Seniority = "mid"
	SenioritySenior Seniority = "senior"
)

// ProjectStatus はプロジェクトの状態を表します。
type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
)

// Engineer は割り当て判定に必要なエンジニア情報です。
// エンジンからは読み取り専用として扱います。
type Engineer struct {
	ID          string
	Name        string
	Email       string
	Skills      []string
	MaxCapacity int
	Seniority   Seniority
	Department  string
}

// Project は割り当て判定に必要なプロジェクト情報です。
type Project struct {
	ID             string
	Name           string
	RequiredSkills []string
	Status         ProjectStatus
}

// Assignment はエンジニアの稼働率に対する期間付きの確保を表します。
// StartDate / EndDate は未設定を nil で表現します。
type Assignment struct {
	ID                   string
	EngineerID           string
	ProjectID            string
	AllocationPercentage int
	Role                 string
	StartDate            *time.Time
	EndDate              *time.Time
}

// CapacityInfo は評価日時点で算出した稼働状況です。保存はしません。
type CapacityInfo struct {
	UsedCapacity      int
	AvailableCapacity int
	ActiveAssignments []Assignment
}

// Field は検証結果のキーとなる入力項目名です。
type Field string

const (
	FieldEngineerID           Field = "engineerId"
	FieldAllocationPercentage Field = "allocationPercentage"
)

// ValidationResult は項目名からエラーメッセージへの対応です。空であれば有効です。
type ValidationResult map[Field]string

// Valid はエラーが 1 件もない場合に true を返します。
func (r ValidationResult) Valid() bool {
	return len(r) == 0
}

// Message は指定項目のエラーメッセージを返します。
func (r ValidationResult) Message(field Field) (string, bool) {
	msg, ok := r[field]
	return msg, ok
}

// Summary は項目名順に "field: message" を "; " で連結した文字列を返します。
func (r ValidationResult) Summary() string {
	fields := make([]string, 0, len(r))
	for f := range r {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+r[Field(f)])
	}
	return strings.Join(parts, "; ")
}

// UtilizationBand は稼働率の表示区分です。
type UtilizationBand string

const (
	UtilizationLow    UtilizationBand = "low"
	UtilizationMedium UtilizationBand = "medium"
	UtilizationHigh   UtilizationBand = "high"
)
