package dispatch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"CareAlert/internal/models"
	"CareAlert/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResolver 测试用成员解析
type fakeResolver struct {
	mu      sync.Mutex
	members map[string][]string
	calls   int
}

func (f *fakeResolver) ResolveMembers(_ context.Context, groupID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if m, ok := f.members[groupID]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("group not found: %s", groupID)
}

type pushRecord struct {
	UserID  string
	Event   string
	Payload interface{}
}

// fakeNotifier 测试用在线状态与推送
type fakeNotifier struct {
	mu     sync.Mutex
	online map[string]bool
	pushes []pushRecord
}

func (f *fakeNotifier) IsConnected(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online[userID]
}

func (f *fakeNotifier) Push(userID, event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = append(f.pushes, pushRecord{UserID: userID, Event: event, Payload: payload})
}

func (f *fakeNotifier) records() []pushRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]pushRecord, len(f.pushes))
	copy(out, f.pushes)
	return out
}

func newTestDispatcher(window time.Duration) (*Dispatcher, *fakeResolver, *fakeNotifier) {
	resolver := &fakeResolver{members: map[string][]string{
		"g1": {"sender", "nurse1", "nurse2"},
		"g2": {"sender", "nurse3"},
	}}
	notifier := &fakeNotifier{online: map[string]bool{
		"sender": true,
		"nurse1": true,
		"nurse3": true,
		// nurse2 离线
	}}
	d := New(resolver, notifier, nil, WithAttentionWindow(window))
	return d, resolver, notifier
}

func mustAlert(t *testing.T, id, groupID, priority string) *models.Alert {
	t.Helper()
	a, err := models.NewAlert(id, groupID, "sender", priority)
	require.NoError(t, err)
	return a
}

func TestSubmitIdleGroup(t *testing.T) {
	d, _, notifier := newTestDispatcher(time.Minute)

	alert := mustAlert(t, "a1", "g1", models.PriorityHelp)
	outcome, err := d.Submit(context.Background(), alert)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSentImmediately, outcome)

	ongoing, queue := d.GroupSnapshot("g1")
	require.NotNil(t, ongoing)
	assert.Equal(t, "a1", ongoing.ID)
	assert.Equal(t, models.StatusOngoing, ongoing.Status)
	assert.Empty(t, queue)

	// 推送是异步的，稍等后校验路由：提交者收回执，在线成员收警报，离线成员没有推送
	assert.Eventually(t, func() bool {
		return len(notifier.records()) == 2
	}, time.Second, 10*time.Millisecond)

	byUser := map[string]string{}
	for _, r := range notifier.records() {
		byUser[r.UserID] = r.Event
	}
	assert.Equal(t, EventAlertAck, byUser["sender"])
	assert.Equal(t, EventAlertIncoming, byUser["nurse1"])
	_, pushed := byUser["nurse2"]
	assert.False(t, pushed)
}

func TestHigherPriorityPreempts(t *testing.T) {
	d, _, _ := newTestDispatcher(time.Minute)
	ctx := context.Background()

	_, err := d.Submit(ctx, mustAlert(t, "a1", "g1", models.PriorityUrgent))
	require.NoError(t, err)

	outcome, err := d.Submit(ctx, mustAlert(t, "a2", "g1", models.PriorityEmergency))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSentImmediately, outcome)

	ongoing, queue := d.GroupSnapshot("g1")
	require.NotNil(t, ongoing)
	assert.Equal(t, "a2", ongoing.ID)
	// 被抢占的警报整条丢弃，不回队
	assert.Empty(t, queue)
}

func TestLowerPriorityQueued(t *testing.T) {
	d, _, _ := newTestDispatcher(time.Minute)
	ctx := context.Background()

	_, err := d.Submit(ctx, mustAlert(t, "a1", "g1", models.PriorityEmergency))
	require.NoError(t, err)

	outcome, err := d.Submit(ctx, mustAlert(t, "a2", "g1", models.PriorityHelp))
	require.NoError(t, err)
	assert.Equal(t, OutcomeQueued, outcome)

	ongoing, queue := d.GroupSnapshot("g1")
	require.NotNil(t, ongoing)
	assert.Equal(t, "a1", ongoing.ID)
	require.Len(t, queue, 1)
	assert.Equal(t, "a2", queue[0].ID)
	assert.Equal(t, models.StatusWaiting, queue[0].Status)
}

func TestQueueKeptSorted(t *testing.T) {
	d, _, _ := newTestDispatcher(time.Minute)
	ctx := context.Background()

	_, err := d.Submit(ctx, mustAlert(t, "live", "g1", models.PriorityEmergency))
	require.NoError(t, err)

	base := time.Now()
	h1 := mustAlert(t, "h1", "g1", models.PriorityHelp)
	h1.CreatedAt = base.Add(1 * time.Millisecond)
	h2 := mustAlert(t, "h2", "g1", models.PriorityHelp)
	h2.CreatedAt = base.Add(2 * time.Millisecond)
	u1 := mustAlert(t, "u1", "g1", models.PriorityUrgent)
	u1.CreatedAt = base.Add(3 * time.Millisecond)

	// 故意乱序提交
	for _, a := range []*models.Alert{h2, u1, h1} {
		outcome, err := d.Submit(ctx, a)
		require.NoError(t, err)
		require.Equal(t, OutcomeQueued, outcome)

		// 每次变更后队列都保持有序
		_, queue := d.GroupSnapshot("g1")
		for i := 1; i < len(queue); i++ {
			assert.False(t, alertLess(queue[i], queue[i-1]),
				"queue out of order at %d", i)
		}
	}

	_, queue := d.GroupSnapshot("g1")
	require.Len(t, queue, 3)
	assert.Equal(t, "u1", queue[0].ID) // 优先级降序
	assert.Equal(t, "h1", queue[1].ID) // 同级按提交时间
	assert.Equal(t, "h2", queue[2].ID)
}

func TestPromotionAfterWindow(t *testing.T) {
	d, _, _ := newTestDispatcher(50 * time.Millisecond)
	ctx := context.Background()

	_, err := d.Submit(ctx, mustAlert(t, "live", "g1", models.PriorityEmergency))
	require.NoError(t, err)
	_, err = d.Submit(ctx, mustAlert(t, "h1", "g1", models.PriorityHelp))
	require.NoError(t, err)
	_, err = d.Submit(ctx, mustAlert(t, "u1", "g1", models.PriorityUrgent))
	require.NoError(t, err)

	// 窗口到期后晋升队头：最高优先级、最早提交
	assert.Eventually(t, func() bool {
		ongoing, _ := d.GroupSnapshot("g1")
		return ongoing != nil && ongoing.ID == "u1"
	}, time.Second, 5*time.Millisecond)

	_, queue := d.GroupSnapshot("g1")
	require.Len(t, queue, 1)
	assert.Equal(t, "h1", queue[0].ID)

	// 继续轮转直到队列清空、组回到空闲
	assert.Eventually(t, func() bool {
		ongoing, queue := d.GroupSnapshot("g1")
		return ongoing == nil && len(queue) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestExpiredOngoingReplacedLazily(t *testing.T) {
	d, _, _ := newTestDispatcher(time.Minute)
	ctx := context.Background()

	stale := mustAlert(t, "stale", "g1", models.PriorityEmergency)
	// 回拨提交时间，模拟窗口已过但定时器尚未触发的场景
	stale.CreatedAt = time.Now().Add(-2 * time.Minute)
	_, err := d.Submit(ctx, stale)
	require.NoError(t, err)

	// 低优先级也能顶掉已过期的生效警报
	outcome, err := d.Submit(ctx, mustAlert(t, "fresh", "g1", models.PriorityHelp))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSentImmediately, outcome)

	ongoing, _ := d.GroupSnapshot("g1")
	require.NotNil(t, ongoing)
	assert.Equal(t, "fresh", ongoing.ID)
}

func TestLazyExpiryCountedInMetrics(t *testing.T) {
	resolver := &fakeResolver{members: map[string][]string{"g1": {"sender"}}}
	notifier := &fakeNotifier{online: map[string]bool{"sender": true}}

	reg := prometheus.NewRegistry()
	m := metrics.NewAlertMetrics(reg)
	d := New(resolver, notifier, nil, WithAttentionWindow(time.Minute), WithMetrics(m))
	ctx := context.Background()

	stale := mustAlert(t, "stale", "g1", models.PriorityEmergency)
	stale.CreatedAt = time.Now().Add(-2 * time.Minute)
	_, err := d.Submit(ctx, stale)
	require.NoError(t, err)

	assert.Equal(t, 0.0, counterValue(t, reg, "carealert_alerts_expired_total"))

	// 惰性替换掉过期警报也要计入到期计数
	_, err = d.Submit(ctx, mustAlert(t, "fresh", "g1", models.PriorityHelp))
	require.NoError(t, err)

	assert.Equal(t, 1.0, counterValue(t, reg, "carealert_alerts_expired_total"))
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

func TestGroupsIndependent(t *testing.T) {
	d, _, _ := newTestDispatcher(time.Minute)
	ctx := context.Background()

	_, err := d.Submit(ctx, mustAlert(t, "a1", "g1", models.PriorityEmergency))
	require.NoError(t, err)
	_, err = d.Submit(ctx, mustAlert(t, "b1", "g2", models.PriorityHelp))
	require.NoError(t, err)
	_, err = d.Submit(ctx, mustAlert(t, "a2", "g1", models.PriorityHelp))
	require.NoError(t, err)

	ongoing1, queue1 := d.GroupSnapshot("g1")
	ongoing2, queue2 := d.GroupSnapshot("g2")
	assert.Equal(t, "a1", ongoing1.ID)
	assert.Len(t, queue1, 1)
	assert.Equal(t, "b1", ongoing2.ID)
	assert.Empty(t, queue2)
}

func TestGroupNotFound(t *testing.T) {
	d, _, _ := newTestDispatcher(time.Minute)

	_, err := d.Submit(context.Background(), mustAlert(t, "a1", "nope", models.PriorityHelp))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestReset(t *testing.T) {
	d, _, _ := newTestDispatcher(40 * time.Millisecond)
	ctx := context.Background()

	_, err := d.Submit(ctx, mustAlert(t, "a1", "g1", models.PriorityEmergency))
	require.NoError(t, err)
	_, err = d.Submit(ctx, mustAlert(t, "a2", "g1", models.PriorityHelp))
	require.NoError(t, err)

	d.Reset()

	ongoing, queue := d.GroupSnapshot("g1")
	assert.Nil(t, ongoing)
	assert.Empty(t, queue)
	groups, live, queued := d.Stats()
	assert.Equal(t, 0, groups)
	assert.Zero(t, live)
	assert.Zero(t, queued)

	// 等待旧定时器的触发时刻过去，确认不会复活任何状态
	time.Sleep(100 * time.Millisecond)
	ongoing, queue = d.GroupSnapshot("g1")
	assert.Nil(t, ongoing)
	assert.Empty(t, queue)
}

func TestConcurrentSubmitSingleLiveAlert(t *testing.T) {
	d, _, _ := newTestDispatcher(time.Minute)

	var wg sync.WaitGroup
	var sent tally
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a := mustAlertID(fmt.Sprintf("c%d", i))
			outcome, err := d.Submit(context.Background(), a)
			if err == nil && outcome == OutcomeSentImmediately {
				sent.Inc()
			}
		}(i)
	}
	wg.Wait()

	// 同优先级并发提交，只有第一条能立即下发
	assert.Equal(t, int64(1), sent.Load())
	ongoing, queue := d.GroupSnapshot("g1")
	require.NotNil(t, ongoing)
	assert.Len(t, queue, 19)
}

// mustAlertID 并发测试的简便构造
func mustAlertID(id string) *models.Alert {
	a, _ := models.NewAlert(id, "g1", "sender", models.PriorityHelp)
	return a
}

// tally 简单并发计数
type tally struct {
	mu sync.Mutex
	n  int64
}

func (t *tally) Inc() {
	t.mu.Lock()
	t.n++
	t.mu.Unlock()
}

func (t *tally) Load() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.n
}
