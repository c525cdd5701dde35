package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slipstreak/internal/service"
)

const dateFormat = "2006-01-02"

type habitPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	MaxSlipUps  int    `json:"max_slip_ups"`
}

type historyEntryPayload struct {
	Count      int `json:"count"`
	MaxAllowed int `json:"max_allowed"`
}

type historyPayload struct {
	History           map[string]historyEntryPayload `json:"history"`
	TrackingStartDate string                         `json:"tracking_start_date"`
}

// GetHabit 返回当前习惯记录与派生统计，供首页与编辑页渲染。
func (a *API) GetHabit(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"habit": a.serializeHabit()})
}

// SaveHabit 创建或编辑习惯。
// 在未配置的记录上创建时，起始日期重置为"有效今天"并清空历史。
func (a *API) SaveHabit(c *gin.Context) {
	var payload habitPayload
	if !bindJSON(c, &payload, "请求体格式不正确") {
		return
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		respondError(c, http.StatusBadRequest, "习惯名称不能为空")
		return
	}
	if payload.MaxSlipUps < 0 {
		respondError(c, http.StatusBadRequest, "每日失误上限不能为负数")
		return
	}

	if !a.records.Record().Configured() {
		// 新建习惯：钉住起始日期，丢掉可能残留的历史
		a.records.ClearHabit()
	}

	a.records.SetHabitName(name)
	a.records.SetDescription(payload.Description)
	a.records.SetDailyAllowance(payload.MaxSlipUps)

	c.JSON(http.StatusOK, gin.H{"habit": a.serializeHabit()})
}

// DeleteHabit 删除习惯：除追踪起始日外全部回到默认值。
// 需要保留历史的重建流程由客户端随后调用恢复接口完成。
func (a *API) DeleteHabit(c *gin.Context) {
	a.records.ClearHabit()
	c.JSON(http.StatusOK, gin.H{"habit": a.serializeHabit()})
}

// RecordSlipUp 为"有效今天"记一次失误并返回最新统计。
func (a *API) RecordSlipUp(c *gin.Context) {
	if !a.records.Record().Configured() {
		respondError(c, http.StatusConflict, "尚未创建习惯")
		return
	}

	entry := a.streaks.RecordSlipUp()
	c.JSON(http.StatusOK, gin.H{
		"date":         a.streaks.EffectiveToday().Format(dateFormat),
		"count":        entry.Count,
		"max_allowed":  entry.MaxAllowed,
		"streak":       a.streaks.Streak(),
		"super_streak": a.streaks.SuperStreak(),
	})
}

// RestoreHistory 整体替换失误历史与追踪起始日，
// 用于删除后重建且选择保留历史的场景。
func (a *API) RestoreHistory(c *gin.Context) {
	var payload historyPayload
	if !bindJSON(c, &payload, "请求体格式不正确") {
		return
	}

	trackingStart, err := time.Parse(dateFormat, strings.TrimSpace(payload.TrackingStartDate))
	if err != nil {
		respondError(c, http.StatusBadRequest, "追踪起始日格式应为 yyyy-MM-dd")
		return
	}

	history := make(map[string]service.SlipUpEntry, len(payload.History))
	for date, entry := range payload.History {
		if _, err := time.Parse(dateFormat, date); err != nil {
			respondError(c, http.StatusBadRequest, "历史日期格式应为 yyyy-MM-dd")
			return
		}
		if entry.Count < 0 || entry.MaxAllowed < 0 {
			respondError(c, http.StatusBadRequest, "历史条目不能包含负数")
			return
		}
		history[date] = service.SlipUpEntry{Count: entry.Count, MaxAllowed: entry.MaxAllowed}
	}

	a.records.RestoreHistory(history, trackingStart)
	c.JSON(http.StatusOK, gin.H{"habit": a.serializeHabit()})
}

// GetStreakReport 返回逐日报表，默认区间为追踪起始日到"有效今天"。
func (a *API) GetStreakReport(c *gin.Context) {
	record := a.records.Record()
	today := a.streaks.EffectiveToday()

	defaultStart := today
	if start, err := time.Parse(dateFormat, record.TrackingStartDate); err == nil {
		defaultStart = start
	}

	from, ok := parseDateQuery(c, "start", defaultStart)
	if !ok {
		return
	}
	to, ok := parseDateQuery(c, "end", today)
	if !ok {
		return
	}

	days, err := a.streaks.Report(from, to)
	if err != nil {
		respondError(c, http.StatusBadRequest, "区间结束日期不能早于开始日期")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"range": gin.H{
			"start": from.Format(dateFormat),
			"end":   to.Format(dateFormat),
		},
		"days":         days,
		"streak":       a.streaks.Streak(),
		"super_streak": a.streaks.SuperStreak(),
	})
}

// AdvanceDay 将模拟时钟推进一天，仅开发模式可用。
func (a *API) AdvanceDay(c *gin.Context) {
	if err := a.streaks.AdvanceSimulatedDay(); err != nil {
		if errors.Is(err, service.ErrDevelopmentModeDisabled) {
			respondError(c, http.StatusForbidden, "开发模式未启用")
			return
		}
		respondError(c, http.StatusInternalServerError, "推进模拟日期失败")
		return
	}

	record := a.records.Record()
	c.JSON(http.StatusOK, gin.H{
		"effective_today": a.streaks.EffectiveToday().Format(dateFormat),
		"days_offset":     record.SimulatedDayOffset,
	})
}

// StreamHabitEvents 以 SSE 推送变更事件，UI 收到后重新拉取查询接口。
func (a *API) StreamHabitEvents(c *gin.Context) {
	events := make(chan struct{}, 1)
	id := a.records.Subscribe(func() {
		select {
		case events <- struct{}{}:
		default:
		}
	})
	defer a.records.Unsubscribe(id)

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-events:
			c.SSEvent("changed", gin.H{"at": time.Now().Format(time.RFC3339)})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (a *API) serializeHabit() gin.H {
	record := a.records.Record()
	today := a.streaks.EffectiveToday()

	return gin.H{
		"name":                record.HabitName,
		"description":         record.Description,
		"description_html":    service.RenderDescriptionHTML(record.Description),
		"max_slip_ups":        record.DailyAllowance,
		"start_date":          record.StartDate,
		"tracking_start_date": record.TrackingStartDate,
		"configured":          record.Configured(),
		"development_mode":    record.DevelopmentMode,
		"effective_today":     today.Format(dateFormat),
		"slip_ups_today":      a.streaks.SlipUpsOn(today),
		"streak":              a.streaks.Streak(),
		"super_streak":        a.streaks.SuperStreak(),
	}
}
