package service

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/slipstreak/internal/db"
)

// ErrDevelopmentModeDisabled 在非开发模式下调用模拟时钟操作时返回。
var ErrDevelopmentModeDisabled = errors.New("development mode disabled")

// RecordService 持有习惯记录的内存状态，负责持久化与变更通知。
// 内存状态始终是事实来源：落盘异步进行，失败只记录日志不回滚。
type RecordService struct {
	store *db.SnapshotStore
	clock Clock

	mu     sync.Mutex
	record HabitRecord

	subMu       sync.Mutex
	subscribers map[string]func()

	saveCh    chan struct{}
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewRecordService 构造 RecordService 并启动落盘协程。
// clock 为 nil 时使用系统时钟。
func NewRecordService(store *db.SnapshotStore, clock Clock) *RecordService {
	if clock == nil {
		clock = SystemClock()
	}

	s := &RecordService{
		store:       store,
		clock:       clock,
		subscribers: make(map[string]func()),
		saveCh:      make(chan struct{}, 1),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
	s.record = defaultRecord(normalizeToDate(clock.Now()))

	go s.saveLoop()
	return s
}

// Load 启动时从存储读取快照；缺失或校验失败时保留默认记录。
// 任何失败都不会上抛，仅记录日志。
func (s *RecordService) Load() {
	raw, found, err := s.store.Load(db.SnapshotKeyHabitRecord)
	if err != nil {
		logrus.WithError(err).Warn("读取习惯快照失败，使用默认记录")
		return
	}
	if !found {
		return
	}

	record, err := decodeSnapshot(raw)
	if err != nil {
		logrus.WithError(err).Warn("习惯快照校验失败，使用默认记录")
		return
	}

	s.mu.Lock()
	s.record = record
	s.mu.Unlock()
}

// Close 停止落盘协程，退出前冲刷尚未落盘的变更。
func (s *RecordService) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	<-s.stopped
}

// Record 返回当前记录的深拷贝。
func (s *RecordService) Record() HabitRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.Clone()
}

// EffectiveToday 返回"有效今天"：开发模式下叠加模拟天数偏移。
// 所有依赖"今天"的派生查询都必须经由此处，保证模拟推进全局一致。
func (s *RecordService) EffectiveToday() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.effectiveTodayLocked()
}

func (s *RecordService) effectiveTodayLocked() time.Time {
	today := normalizeToDate(s.clock.Now())
	if s.record.DevelopmentMode && s.record.SimulatedDayOffset != 0 {
		today = today.AddDate(0, 0, s.record.SimulatedDayOffset)
	}
	return today
}

// SetHabitName 更新习惯名称。
func (s *RecordService) SetHabitName(name string) {
	s.mu.Lock()
	s.record.HabitName = strings.TrimSpace(name)
	s.mu.Unlock()
	s.commit()
}

// SetDescription 更新习惯描述。
func (s *RecordService) SetDescription(text string) {
	s.mu.Lock()
	s.record.Description = strings.TrimSpace(text)
	s.mu.Unlock()
	s.commit()
}

// SetDailyAllowance 更新每日允许的失误上限，负值按 0 处理。
// 已记录日期冻结的 maxAllowed 不受影响。
func (s *RecordService) SetDailyAllowance(n int) {
	if n < 0 {
		n = 0
	}
	s.mu.Lock()
	s.record.DailyAllowance = n
	s.mu.Unlock()
	s.commit()
}

// SetTrackingStartDate 更新追踪起始日。
func (s *RecordService) SetTrackingStartDate(date time.Time) {
	s.mu.Lock()
	s.record.TrackingStartDate = dateKey(date)
	s.mu.Unlock()
	s.commit()
}

// RestoreHistory 整体替换失误历史与追踪起始日。
// 用于删除习惯后重新创建但选择保留历史的场景。
func (s *RecordService) RestoreHistory(history map[string]SlipUpEntry, trackingStart time.Time) {
	replacement := make(map[string]SlipUpEntry, len(history))
	for date, entry := range history {
		if entry.Count < 0 || entry.MaxAllowed < 0 {
			continue
		}
		replacement[date] = entry
	}

	s.mu.Lock()
	s.record.SlipUpHistory = replacement
	s.record.TrackingStartDate = dateKey(trackingStart)
	s.mu.Unlock()
	s.commit()
}

// ClearHabit 删除习惯：除追踪起始日钉在"有效今天"外，其余字段回到默认值。
// 模拟时钟相关字段保留，避免开发模式下出现起始日晚于今天的状态。
func (s *RecordService) ClearHabit() {
	s.mu.Lock()
	today := s.effectiveTodayLocked()
	offset := s.record.SimulatedDayOffset
	devMode := s.record.DevelopmentMode
	s.record = defaultRecord(today)
	s.record.SimulatedDayOffset = offset
	s.record.DevelopmentMode = devMode
	s.mu.Unlock()
	s.commit()
}

// SetDevelopmentMode 开关开发模式；生产构建在启动时固定为关闭。
func (s *RecordService) SetDevelopmentMode(enabled bool) {
	s.mu.Lock()
	if s.record.DevelopmentMode == enabled {
		s.mu.Unlock()
		return
	}
	s.record.DevelopmentMode = enabled
	s.mu.Unlock()
	s.commit()
}

// Subscribe 注册变更回调，每次成功的内存变更后触发，返回用于退订的标识。
func (s *RecordService) Subscribe(fn func()) string {
	id := uuid.NewString()
	s.subMu.Lock()
	s.subscribers[id] = fn
	s.subMu.Unlock()
	return id
}

// Unsubscribe 取消指定标识的变更回调。
func (s *RecordService) Unsubscribe(id string) {
	s.subMu.Lock()
	delete(s.subscribers, id)
	s.subMu.Unlock()
}

// commit 在内存变更后调度一次异步落盘并通知订阅方。
func (s *RecordService) commit() {
	select {
	case s.saveCh <- struct{}{}:
	default:
		// 已有待处理的落盘信号，合并为一次"最新状态"写入
	}
	s.notify()
}

func (s *RecordService) notify() {
	s.subMu.Lock()
	callbacks := make([]func(), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		callbacks = append(callbacks, fn)
	}
	s.subMu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// saveLoop 串行消费落盘信号，保证任意时刻至多一个在途写入。
func (s *RecordService) saveLoop() {
	defer close(s.stopped)
	for {
		select {
		case <-s.saveCh:
			s.flush()
		case <-s.done:
			select {
			case <-s.saveCh:
				s.flush()
			default:
			}
			return
		}
	}
}

// flush 将当前记录整体写入存储；失败只记录日志。
func (s *RecordService) flush() {
	s.mu.Lock()
	raw, err := encodeSnapshot(s.record)
	s.mu.Unlock()

	if err != nil {
		logrus.WithError(err).Warn("序列化习惯快照失败")
		return
	}

	if err := s.store.Save(db.SnapshotKeyHabitRecord, raw); err != nil {
		logrus.WithError(err).Warn("保存习惯快照失败")
	}
}
