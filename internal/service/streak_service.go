package service

import (
	"fmt"
	"time"
)

// StreakService 基于习惯记录派生连胜统计。
// 所有查询按需重算，不维护任何缓存计数，保证回溯性修改
// （恢复历史、清空习惯、调整上限）之后立即一致。
// 回扫代价与追踪天数成正比，习惯生命周期以周/月计，可以接受。
type StreakService struct {
	records *RecordService
}

// NewStreakService 构造 StreakService。
func NewStreakService(records *RecordService) *StreakService {
	return &StreakService{records: records}
}

// DayReport 描述报表区间内单日的派生结果，供日历类视图渲染。
type DayReport struct {
	Date             string `json:"date"`
	SlipUpCount      int    `json:"slip_up_count"`
	MaxSlipUpsForDay int    `json:"max_slip_ups_for_day"`
	InCurrentStreak  bool   `json:"in_current_streak"`
}

// snapshot 返回记录副本与对应的"有效今天"，保证单次查询内部视图一致。
func (s *StreakService) snapshot() (HabitRecord, time.Time) {
	s.records.mu.Lock()
	defer s.records.mu.Unlock()
	return s.records.record.Clone(), s.records.effectiveTodayLocked()
}

// EffectiveToday 返回引擎视角下的"今天"。
func (s *StreakService) EffectiveToday() time.Time {
	return s.records.EffectiveToday()
}

// SlipUpsOn 返回某日的失误次数；追踪起始日之前的日期一律视为 0。
func (s *StreakService) SlipUpsOn(date time.Time) int {
	record, _ := s.snapshot()
	return slipUpsOn(record, date)
}

// AllowanceOn 返回某日适用的失误上限。
// 已记录日期使用当日冻结的上限，未记录日期（含今天与未来）使用当前设置。
func (s *StreakService) AllowanceOn(date time.Time) int {
	record, _ := s.snapshot()
	return allowanceOn(record, date)
}

// IsBeforeToday 判断日期是否落在追踪窗口内且早于"有效今天"。
// 追踪起始日之前的日期不算"早于今天"，它们被整体排除在连胜计算之外。
func (s *StreakService) IsBeforeToday(date time.Time) bool {
	record, today := s.snapshot()
	return isBeforeToday(record, today, date)
}

// LastStreakBreakDate 返回最近一次打破连胜的日期。
// 从昨天起逐日回扫，找不到超限日时返回追踪起始日。
func (s *StreakService) LastStreakBreakDate() time.Time {
	record, today := s.snapshot()
	return parseDateKey(lastBreakKey(record, today))
}

// IsInCurrentStreak 判断某日是否属于当前未中断的连胜。
// 打破日自身被排除：它正是最近一次超限的日期。
func (s *StreakService) IsInCurrentStreak(date time.Time) bool {
	record, today := s.snapshot()
	return inCurrentStreak(record, today, lastBreakKey(record, today), date)
}

// Streak 返回紧邻今天之前、失误未超限的连续天数。
func (s *StreakService) Streak() int {
	record, today := s.snapshot()
	return streakLength(record, today)
}

// SuperStreak 返回连胜窗口内最近一段零失误的连续天数。
// 判定条件是恰好零失误，与上限无关；在允许范围内但有失误的日子
// 不会打断连胜，但也不计入超级连胜。
func (s *StreakService) SuperStreak() int {
	record, today := s.snapshot()
	return superStreakLength(record, today)
}

// RecordSlipUp 为"有效今天"追加一次失误并持久化。
// 当天首次记录时将当前每日上限冻结到 maxAllowed。
func (s *StreakService) RecordSlipUp() SlipUpEntry {
	rs := s.records

	rs.mu.Lock()
	key := dateKey(rs.effectiveTodayLocked())
	entry, ok := rs.record.SlipUpHistory[key]
	if !ok {
		entry = SlipUpEntry{MaxAllowed: rs.record.DailyAllowance}
	}
	entry.Count++
	rs.record.SlipUpHistory[key] = entry
	rs.mu.Unlock()

	rs.commit()
	return entry
}

// AdvanceSimulatedDay 将模拟时钟向前推一天并持久化；仅开发模式可用。
func (s *StreakService) AdvanceSimulatedDay() error {
	rs := s.records

	rs.mu.Lock()
	if !rs.record.DevelopmentMode {
		rs.mu.Unlock()
		return ErrDevelopmentModeDisabled
	}
	rs.record.SimulatedDayOffset++
	rs.mu.Unlock()

	rs.commit()
	return nil
}

// Report 枚举 from 到 to（含两端）的逐日派生结果。
// 打破日只计算一次，避免区间内逐日重复回扫。
func (s *StreakService) Report(from, to time.Time) ([]DayReport, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("invalid range: end before start")
	}

	record, today := s.snapshot()
	breakKey := lastBreakKey(record, today)

	fromKey := dateKey(from)
	toKey := dateKey(to)

	var days []DayReport
	for d := normalizeToDate(from); ; d = d.AddDate(0, 0, 1) {
		key := dateKey(d)
		if key < fromKey || key > toKey {
			break
		}
		days = append(days, DayReport{
			Date:             key,
			SlipUpCount:      slipUpsOn(record, d),
			MaxSlipUpsForDay: allowanceOn(record, d),
			InCurrentStreak:  inCurrentStreak(record, today, breakKey, d),
		})
	}

	return days, nil
}

func slipUpsOn(r HabitRecord, date time.Time) int {
	key := dateKey(date)
	if key < r.TrackingStartDate {
		return 0
	}
	if entry, ok := r.SlipUpHistory[key]; ok {
		return entry.Count
	}
	return 0
}

func allowanceOn(r HabitRecord, date time.Time) int {
	if entry, ok := r.SlipUpHistory[dateKey(date)]; ok {
		return entry.MaxAllowed
	}
	return r.DailyAllowance
}

func isBeforeToday(r HabitRecord, today, date time.Time) bool {
	key := dateKey(date)
	return key < dateKey(today) && key >= r.TrackingStartDate
}

// lastBreakKey 从昨天起逐日回扫，返回第一个失误超限的日期键；
// 扫到追踪起始日仍无超限时返回起始日。
func lastBreakKey(r HabitRecord, today time.Time) string {
	for d := today.AddDate(0, 0, -1); dateKey(d) >= r.TrackingStartDate; d = d.AddDate(0, 0, -1) {
		if slipUpsOn(r, d) > allowanceOn(r, d) {
			return dateKey(d)
		}
	}
	return r.TrackingStartDate
}

func inCurrentStreak(r HabitRecord, today time.Time, breakKey string, date time.Time) bool {
	if !isBeforeToday(r, today, date) {
		return false
	}
	key := dateKey(date)
	return key > breakKey && slipUpsOn(r, date) <= allowanceOn(r, date)
}

func streakLength(r HabitRecord, today time.Time) int {
	count := 0
	for d := today.AddDate(0, 0, -1); dateKey(d) >= r.TrackingStartDate; d = d.AddDate(0, 0, -1) {
		if slipUpsOn(r, d) > allowanceOn(r, d) {
			break
		}
		count++
	}
	return count
}

// superStreakLength 在连胜窗口内回扫：跳过有失误但未超限的日子，
// 从遇到的第一个零失误日开始计数，数到下一个非零日或窗口边界为止。
func superStreakLength(r HabitRecord, today time.Time) int {
	count := 0
	for d := today.AddDate(0, 0, -1); dateKey(d) >= r.TrackingStartDate; d = d.AddDate(0, 0, -1) {
		slips := slipUpsOn(r, d)
		if slips > allowanceOn(r, d) {
			break
		}
		if slips == 0 {
			count++
			continue
		}
		if count > 0 {
			break
		}
	}
	return count
}

func parseDateKey(key string) time.Time {
	t, err := time.Parse(dateFormat, key)
	if err != nil {
		return time.Time{}
	}
	return t
}
