package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHub(t *testing.T) {
	hub := NewHub(nil)
	assert.NotNil(t, hub)
	assert.Equal(t, int64(DefaultMaxConnections), hub.config.MaxConnections)
	assert.Equal(t, 30*time.Second, hub.config.HeartbeatInterval)

	hub.Close()
}

func TestHubConnectionManagement(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	// 测试连接注册
	conn := &Connection{
		ID:      "test_conn_1",
		UserID:  "test_user_1",
		Send:    make(chan []byte, 8),
		Hub:     hub,
		IsAlive: true,
	}

	hub.register <- conn
	time.Sleep(100 * time.Millisecond) // 等待处理

	assert.Equal(t, int64(1), hub.GetConnectionCount())
	assert.Equal(t, 1, hub.GetUserConnections("test_user_1"))
	assert.True(t, hub.IsConnected("test_user_1"))
	assert.False(t, hub.IsConnected("someone_else"))

	// 测试连接注销
	hub.unregister <- conn
	time.Sleep(100 * time.Millisecond) // 等待处理

	assert.Equal(t, int64(0), hub.GetConnectionCount())
	assert.Equal(t, 0, hub.GetUserConnections("test_user_1"))
	assert.False(t, hub.IsConnected("test_user_1"))
}

func TestHubPush(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	conn := &Connection{
		ID:      "test_conn_1",
		UserID:  "nurse1",
		Send:    make(chan []byte, 8),
		Hub:     hub,
		IsAlive: true,
	}
	hub.register <- conn
	time.Sleep(100 * time.Millisecond)

	hub.Push("nurse1", "alert_incoming", map[string]string{"id": "a1"})

	select {
	case raw := <-conn.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "alert_incoming", msg.Type)
		assert.Equal(t, "nurse1", msg.To)
	case <-time.After(time.Second):
		t.Fatal("push not delivered")
	}

	// 推给不在线的用户不会报错，消息直接丢弃
	hub.Push("offline_user", "alert_incoming", nil)
}

func TestHubPushDropOnFull(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MessageBufferSize = 1
	hub := NewHub(cfg)
	defer hub.Close()

	conn := &Connection{
		ID:      "test_conn_1",
		UserID:  "nurse1",
		Send:    make(chan []byte, 1),
		Hub:     hub,
		IsAlive: true,
	}
	hub.register <- conn
	time.Sleep(100 * time.Millisecond)

	// 缓冲区满后继续推送不阻塞
	hub.Push("nurse1", "alert_incoming", "first")
	done := make(chan struct{})
	go func() {
		hub.Push("nurse1", "alert_incoming", "second")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("push blocked on full buffer")
	}
}

func TestHeartbeatTimeoutMarksConnectionDead(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HeartbeatInterval = 10 * time.Millisecond
	cfg.ConnectionTimeout = 30 * time.Millisecond
	hub := NewHub(cfg)
	defer hub.Close()

	conn := &Connection{
		ID:       "test_conn_1",
		UserID:   "nurse1",
		Send:     make(chan []byte, 8),
		Hub:      hub,
		LastPing: time.Now().Add(-time.Minute),
		IsAlive:  true,
	}
	hub.register <- conn
	time.Sleep(50 * time.Millisecond)

	// 心跳早已超时，检查循环应将连接判死
	assert.Eventually(t, func() bool {
		return !hub.IsConnected("nurse1")
	}, time.Second, 10*time.Millisecond)
}

func TestHeartbeatCheckConcurrentWithPings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HeartbeatInterval = 5 * time.Millisecond
	hub := NewHub(cfg)
	defer hub.Close()

	conn := &Connection{
		ID:       "test_conn_1",
		UserID:   "nurse1",
		Send:     make(chan []byte, 64),
		Hub:      hub,
		LastPing: time.Now(),
		IsAlive:  true,
	}
	hub.register <- conn
	time.Sleep(50 * time.Millisecond)

	// 心跳检查、ping 刷新、在线查询并发跑，竞态检测下必须干净
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			conn.handlePing()
		}
		close(done)
	}()
	for i := 0; i < 200; i++ {
		hub.IsConnected("nurse1")
		hub.Push("nurse1", "alert_incoming", i)
		for len(conn.Send) > 0 {
			<-conn.Send
		}
	}
	<-done

	assert.True(t, hub.IsConnected("nurse1"))
}
