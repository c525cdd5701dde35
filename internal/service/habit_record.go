package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const dateFormat = "2006-01-02"

// SlipUpEntry 记录某一天的失误次数与当天冻结的允许上限。
// MaxAllowed 在该日首次记录失误时取当时的每日上限，此后不随设置变化。
type SlipUpEntry struct {
	Count      int `json:"count"`
	MaxAllowed int `json:"maxAllowed"`
}

// HabitRecord 表示单个安装实例的完整习惯状态。
// 字段与持久化快照一一对应，JSON 布局不可随意调整；
// 历史映射以 ISO 日期（yyyy-MM-dd）为键，缺失的日期视为零失误。
type HabitRecord struct {
	HabitName          string                 `json:"habitName"`
	Description        string                 `json:"description"`
	DailyAllowance     int                    `json:"maxSlipUps"`
	SlipUpHistory      map[string]SlipUpEntry `json:"slipUpHistory"`
	StartDate          string                 `json:"startDate"`
	TrackingStartDate  string                 `json:"trackingStartDate"`
	SimulatedDayOffset int                    `json:"daysOffset"`
	DevelopmentMode    bool                   `json:"developmentMode"`
}

// Configured 判断是否已创建习惯：空名称代表未配置。
func (r HabitRecord) Configured() bool {
	return r.HabitName != ""
}

// Clone 返回带历史深拷贝的副本，防止调用方改动内部映射。
func (r HabitRecord) Clone() HabitRecord {
	history := make(map[string]SlipUpEntry, len(r.SlipUpHistory))
	for date, entry := range r.SlipUpHistory {
		history[date] = entry
	}
	r.SlipUpHistory = history
	return r
}

// defaultRecord 返回未配置习惯的默认记录，起始日期钉在给定的"今天"。
func defaultRecord(today time.Time) HabitRecord {
	key := dateKey(today)
	return HabitRecord{
		SlipUpHistory:     map[string]SlipUpEntry{},
		StartDate:         key,
		TrackingStartDate: key,
	}
}

// dateKey 将时间截断为日期并格式化为历史映射使用的 ISO 键。
// ISO 键可直接按字典序比较先后。
func dateKey(t time.Time) string {
	return t.Format(dateFormat)
}

// normalizeToDate 抹去时分秒，仅保留日期部分。
func normalizeToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ErrInvalidSnapshot 表示持久化快照结构不完整或类型不符。
var ErrInvalidSnapshot = errors.New("invalid habit snapshot")

// snapshotEntry 与 snapshotPayload 使用指针字段区分"缺失"与"零值"，
// 用于加载时的结构校验：任一必填字段缺失即整体拒绝，不做部分恢复。
type snapshotEntry struct {
	Count      *int `json:"count"`
	MaxAllowed *int `json:"maxAllowed"`
}

type snapshotPayload struct {
	HabitName         *string                  `json:"habitName"`
	Description       *string                  `json:"description"`
	MaxSlipUps        *int                     `json:"maxSlipUps"`
	SlipUpHistory     map[string]snapshotEntry `json:"slipUpHistory"`
	StartDate         *string                  `json:"startDate"`
	TrackingStartDate *string                  `json:"trackingStartDate"`
	DaysOffset        *int                     `json:"daysOffset"`
	DevelopmentMode   *bool                    `json:"developmentMode"`
}

// decodeSnapshot 解析并校验持久化快照。
// 旧版历史条目缺少 maxAllowed 时，用快照当时的每日上限回填。
func decodeSnapshot(raw string) (HabitRecord, error) {
	var payload snapshotPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return HabitRecord{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	switch {
	case payload.HabitName == nil,
		payload.Description == nil,
		payload.MaxSlipUps == nil,
		payload.SlipUpHistory == nil,
		payload.StartDate == nil,
		payload.TrackingStartDate == nil,
		payload.DaysOffset == nil,
		payload.DevelopmentMode == nil:
		return HabitRecord{}, fmt.Errorf("%w: missing field", ErrInvalidSnapshot)
	}

	if *payload.MaxSlipUps < 0 {
		return HabitRecord{}, fmt.Errorf("%w: negative maxSlipUps", ErrInvalidSnapshot)
	}

	if _, err := time.Parse(dateFormat, *payload.StartDate); err != nil {
		return HabitRecord{}, fmt.Errorf("%w: bad startDate %q", ErrInvalidSnapshot, *payload.StartDate)
	}
	if _, err := time.Parse(dateFormat, *payload.TrackingStartDate); err != nil {
		return HabitRecord{}, fmt.Errorf("%w: bad trackingStartDate %q", ErrInvalidSnapshot, *payload.TrackingStartDate)
	}

	history := make(map[string]SlipUpEntry, len(payload.SlipUpHistory))
	for date, entry := range payload.SlipUpHistory {
		if _, err := time.Parse(dateFormat, date); err != nil {
			return HabitRecord{}, fmt.Errorf("%w: bad history date %q", ErrInvalidSnapshot, date)
		}
		if entry.Count == nil || *entry.Count < 0 {
			return HabitRecord{}, fmt.Errorf("%w: bad history count for %s", ErrInvalidSnapshot, date)
		}

		maxAllowed := *payload.MaxSlipUps
		if entry.MaxAllowed != nil {
			if *entry.MaxAllowed < 0 {
				return HabitRecord{}, fmt.Errorf("%w: bad history maxAllowed for %s", ErrInvalidSnapshot, date)
			}
			maxAllowed = *entry.MaxAllowed
		}

		history[date] = SlipUpEntry{Count: *entry.Count, MaxAllowed: maxAllowed}
	}

	return HabitRecord{
		HabitName:          *payload.HabitName,
		Description:        *payload.Description,
		DailyAllowance:     *payload.MaxSlipUps,
		SlipUpHistory:      history,
		StartDate:          *payload.StartDate,
		TrackingStartDate:  *payload.TrackingStartDate,
		SimulatedDayOffset: *payload.DaysOffset,
		DevelopmentMode:    *payload.DevelopmentMode,
	}, nil
}

// encodeSnapshot 将记录序列化为持久化快照。
func encodeSnapshot(record HabitRecord) (string, error) {
	if record.SlipUpHistory == nil {
		record.SlipUpHistory = map[string]SlipUpEntry{}
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return string(raw), nil
}
