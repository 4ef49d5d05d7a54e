package dispatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"CareAlert/internal/models"
	"CareAlert/pkg/metrics"

	"go.uber.org/zap"
)

// Outcome Submit 的调度结果
type Outcome string

const (
	OutcomeSentImmediately Outcome = "sent-immediately"
	OutcomeQueued          Outcome = "queued"
)

// 推送事件类型
const (
	EventAlertAck      = "alert_ack"      // 回执，推给提交者本人
	EventAlertIncoming = "alert_incoming" // 警报本体，推给其他在线成员
)

// DefaultAttentionWindow 注意力窗口：一条生效警报占据组内唯一名额的时长，
// 到期后由定时器触发队列晋升
const DefaultAttentionWindow = 20 * time.Second

// MemberResolver 组成员解析（外部协作方）
type MemberResolver interface {
	// ResolveMembers 返回组内全部成员；组不存在时返回错误
	ResolveMembers(ctx context.Context, groupID string) ([]string, error)
}

// Notifier 在线状态与推送（外部协作方），推送为尽力而为、无回执
type Notifier interface {
	IsConnected(userID string) bool
	Push(userID string, event string, payload interface{})
}

// AckEvent 推给提交者的回执内容
type AckEvent struct {
	AlertID string `json:"alertId"`
	GroupID string `json:"groupId"`
	Status  string `json:"status"`
}

// groupState 单个组的调度状态，mu 串行化该组的全部状态变更
type groupState struct {
	mu      sync.Mutex
	ongoing *models.Alert
	queue   []*models.Alert
	timer   *time.Timer
	// epoch 随每次定时器重挂递增，旧定时器回调凭 epoch 失效，
	// 避免已被取代的定时器触发多余晋升
	epoch uint64
}

// Dispatcher 警报调度器。每个组同一时刻至多一条生效警报，
// 高优先级可抢占低优先级，其余入队等待窗口到期后晋升。
// 进程内唯一实例由 main 构造后注入各层，组之间状态完全独立。
type Dispatcher struct {
	resolver MemberResolver
	notifier Notifier
	window   time.Duration
	logger   *zap.Logger
	metrics  *metrics.AlertMetrics

	mu     sync.Mutex // 仅保护 groups 映射本身
	groups map[string]*groupState

	ongoingCount atomic.Int64
	queuedCount  atomic.Int64
}

// Option 调度器可选配置
type Option func(*Dispatcher)

// WithAttentionWindow 覆盖默认注意力窗口
func WithAttentionWindow(d time.Duration) Option {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.window = d
		}
	}
}

// WithMetrics 接入调度指标
func WithMetrics(m *metrics.AlertMetrics) Option {
	return func(disp *Dispatcher) { disp.metrics = m }
}

// New 创建调度器
func New(resolver MemberResolver, notifier Notifier, logger *zap.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		resolver: resolver,
		notifier: notifier,
		window:   DefaultAttentionWindow,
		logger:   logger,
		groups:   make(map[string]*groupState),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// AttentionWindow 返回当前生效的注意力窗口
func (d *Dispatcher) AttentionWindow() time.Duration {
	return d.window
}

// Submit 提交警报，核心入口：
//  1. 组内无生效警报、或生效警报已超出注意力窗口时，立即下发
//  2. 新警报优先级严格高于生效警报时抢占下发（被抢占者直接丢弃，不回队）
//  3. 其余入队，队列始终按优先级降序、同级按提交时间升序保持有序
//
// 组不存在时成员解析失败，错误原样抛给调用方，不做重试。
func (d *Dispatcher) Submit(ctx context.Context, alert *models.Alert) (Outcome, error) {
	g := d.group(alert.GroupID)
	g.mu.Lock()
	defer g.mu.Unlock()

	if d.metrics != nil {
		d.metrics.RecordSubmitted(alert.Priority)
	}

	switch {
	case g.ongoing == nil || d.expired(g.ongoing):
		if g.ongoing == nil {
			d.ongoingCount.Add(1)
		} else {
			// 生效警报已超出注意力窗口，提交时惰性丢弃
			d.logger.Info("stale ongoing alert replaced",
				zap.String("group_id", alert.GroupID),
				zap.String("stale_id", g.ongoing.ID),
				zap.String("by_id", alert.ID),
			)
			if d.metrics != nil {
				d.metrics.RecordExpired()
			}
		}
		if err := d.sendNowLocked(ctx, g, alert); err != nil {
			return "", err
		}
		return OutcomeSentImmediately, nil

	case models.ComparePriority(alert.Priority, g.ongoing.Priority) > 0:
		// 抢占：原生效警报直接丢弃（保留既有线上行为，见 DESIGN.md）
		d.logger.Info("alert preempted",
			zap.String("group_id", alert.GroupID),
			zap.String("preempted_id", g.ongoing.ID),
			zap.String("by_id", alert.ID),
			zap.String("by_priority", alert.Priority),
		)
		if d.metrics != nil {
			d.metrics.RecordPreempted()
		}
		if err := d.sendNowLocked(ctx, g, alert); err != nil {
			return "", err
		}
		return OutcomeSentImmediately, nil

	default:
		alert.Status = models.StatusWaiting
		g.queue = append(g.queue, alert)
		sortQueue(g.queue)
		d.queuedCount.Add(1)
		if d.metrics != nil {
			d.metrics.RecordQueued()
		}
		d.updateGauges()
		d.logger.Info("alert queued",
			zap.String("group_id", alert.GroupID),
			zap.String("alert_id", alert.ID),
			zap.String("priority", alert.Priority),
			zap.Int("queue_len", len(g.queue)),
		)
		return OutcomeQueued, nil
	}
}

// sendNowLocked 下发警报，调用方必须持有 g.mu：
// 先同步提交组状态并重挂到期定时器，再解析成员（失败上抛），
// 最后异步推送通知，推送失败不影响本次下发。
func (d *Dispatcher) sendNowLocked(ctx context.Context, g *groupState, alert *models.Alert) error {
	alert.Status = models.StatusOngoing
	g.ongoing = alert
	d.armTimerLocked(g)
	d.updateGauges()

	members, err := d.resolver.ResolveMembers(ctx, alert.GroupID)
	if err != nil {
		d.logger.Error("resolve group members failed",
			zap.String("group_id", alert.GroupID),
			zap.String("alert_id", alert.ID),
			zap.Error(err),
		)
		return fmt.Errorf("resolve members for group %s: %w", alert.GroupID, err)
	}

	d.logger.Info("alert dispatched",
		zap.String("group_id", alert.GroupID),
		zap.String("alert_id", alert.ID),
		zap.String("priority", alert.Priority),
		zap.Int("member_count", len(members)),
	)

	go d.notify(alert, members)
	return nil
}

// notify 向在线成员推送：提交者收到回执，其他成员收到警报本体。
// 单个成员推送失败不影响其他成员。
func (d *Dispatcher) notify(alert *models.Alert, members []string) {
	for _, member := range members {
		if !d.notifier.IsConnected(member) {
			continue
		}
		if member == alert.SenderID {
			d.notifier.Push(member, EventAlertAck, AckEvent{
				AlertID: alert.ID,
				GroupID: alert.GroupID,
				Status:  alert.Status,
			})
			continue
		}
		d.notifier.Push(member, EventAlertIncoming, alert)
	}
}

// armTimerLocked 重挂到期定时器，旧定时器作废。每组至多一个待触发定时器。
func (d *Dispatcher) armTimerLocked(g *groupState) {
	if g.timer != nil {
		g.timer.Stop()
	}
	g.epoch++
	epoch := g.epoch
	g.timer = time.AfterFunc(d.window, func() {
		d.promoteNext(g, epoch)
	})
}

// promoteNext 注意力窗口到期后的晋升：弹出队头（最高优先级且最早提交）
// 并下发；队列为空则组回到空闲。epoch 不匹配说明定时器已被新下发取代。
func (d *Dispatcher) promoteNext(g *groupState, epoch uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.epoch != epoch {
		return
	}

	if len(g.queue) == 0 {
		if g.ongoing != nil {
			d.logger.Info("alert window lapsed, group idle",
				zap.String("group_id", g.ongoing.GroupID),
				zap.String("alert_id", g.ongoing.ID),
			)
			d.ongoingCount.Add(-1)
			if d.metrics != nil {
				d.metrics.RecordExpired()
			}
		}
		g.ongoing = nil
		g.timer = nil
		d.updateGauges()
		return
	}

	next := g.queue[0]
	g.queue = g.queue[1:]
	d.queuedCount.Add(-1)
	if d.metrics != nil {
		d.metrics.RecordPromoted()
	}
	if err := d.sendNowLocked(context.Background(), g, next); err != nil {
		// 无处上抛，只能记日志；该警报仍占据生效槽位，窗口到期后继续轮转
		d.logger.Error("promote next alert failed",
			zap.String("group_id", next.GroupID),
			zap.String("alert_id", next.ID),
			zap.Error(err),
		)
	}
}

// Reset 管理用操作：无条件清空所有组的调度状态，无任何下发副作用
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, g := range d.groups {
		g.mu.Lock()
		if g.timer != nil {
			g.timer.Stop()
			g.timer = nil
		}
		g.epoch++ // 使在途定时器回调失效
		g.ongoing = nil
		g.queue = nil
		g.mu.Unlock()
	}
	d.groups = make(map[string]*groupState)
	d.ongoingCount.Store(0)
	d.queuedCount.Store(0)
	d.updateGauges()
	d.logger.Info("all group alert state cleared")
}

// GroupSnapshot 返回某组当前生效警报与等待队列的拷贝，供只读展示
func (d *Dispatcher) GroupSnapshot(groupID string) (*models.Alert, []*models.Alert) {
	d.mu.Lock()
	g, ok := d.groups[groupID]
	d.mu.Unlock()
	if !ok {
		return nil, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var ongoing *models.Alert
	if g.ongoing != nil {
		cp := *g.ongoing
		ongoing = &cp
	}
	queue := make([]*models.Alert, 0, len(g.queue))
	for _, a := range g.queue {
		cp := *a
		queue = append(queue, &cp)
	}
	return ongoing, queue
}

// Stats 当前整体规模：组数、生效警报数、排队警报数
func (d *Dispatcher) Stats() (groups int, ongoing int64, queued int64) {
	d.mu.Lock()
	groups = len(d.groups)
	d.mu.Unlock()
	return groups, d.ongoingCount.Load(), d.queuedCount.Load()
}

// group 惰性创建组状态，组状态在进程生命周期内不删除
func (d *Dispatcher) group(groupID string) *groupState {
	d.mu.Lock()
	defer d.mu.Unlock()

	g, ok := d.groups[groupID]
	if !ok {
		g = &groupState{}
		d.groups[groupID] = g
	}
	return g
}

// expired 生效警报是否已超出注意力窗口（提交时惰性判定）
func (d *Dispatcher) expired(a *models.Alert) bool {
	return time.Since(a.CreatedAt) > d.window
}

func (d *Dispatcher) updateGauges() {
	if d.metrics == nil {
		return
	}
	d.metrics.SetOngoing(int(d.ongoingCount.Load()))
	d.metrics.SetQueued(int(d.queuedCount.Load()))
}
