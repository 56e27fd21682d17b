// Package realtime maintains the push channel to the backend: one live
// websocket connection, topic subscriptions, per-session event dedup and
// reconnection with exponential backoff.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"taskclient/internal/logger"
	"taskclient/internal/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	TopicTasks         = "/topic/tasks"
	TopicNotifications = "/topic/notifications"
	TopicUserQueue     = "/user/queue/notifications"
)

// seenCap bounds the dedup set; once full, the oldest keys are evicted so a
// long session does not grow without limit.
const seenCap = 512

type EventKind string

const (
	KindTask         EventKind = "task"
	KindNotification EventKind = "notification"
)

// Event is a normalized push message forwarded to consumers.
type Event struct {
	Kind         EventKind
	Action       models.TaskAction
	Task         *models.Task
	TaskID       int64
	Notification *models.Notification
}

// TokenSource supplies the connection credential. It is read once per
// connection attempt, not per message.
type TokenSource interface {
	Get() (string, bool)
}

// envelope is the wire frame for server-pushed messages.
type envelope struct {
	Topic string          `json:"topic"`
	Body  json.RawMessage `json:"body"`
}

// subscribeFrame is sent once per topic after connecting.
type subscribeFrame struct {
	Type        string `json:"type"`
	Destination string `json:"destination"`
}

type Channel struct {
	url    string
	tokens TokenSource
	dialer *websocket.Dialer
	events chan Event

	mu      sync.Mutex
	conn    *websocket.Conn
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	seen    *seenSet
	bo      *backoff.ExponentialBackOff

	// sleep is replaceable in tests to observe reconnect delays.
	sleep func(ctx context.Context, d time.Duration) bool
}

func New(url string, tokens TokenSource, reconnectBase, reconnectMax time.Duration) *Channel {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = reconnectBase
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = reconnectMax
	bo.MaxElapsedTime = 0 // retry for as long as the channel is up
	bo.Reset()

	return &Channel{
		url:    url,
		tokens: tokens,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		events: make(chan Event, 64),
		seen:   newSeenSet(seenCap),
		bo:     bo,
		sleep:  sleepCtx,
	}
}

// Events delivers normalized push messages. The channel is best-effort:
// events are dropped when the consumer falls behind, and arbitrarily long
// gaps (while disconnected) must be tolerated via explicit re-fetches.
func (c *Channel) Events() <-chan Event {
	return c.events
}

// Connect starts the connection loop. Calling it while the channel is live
// is a no-op. Connection failures are never surfaced; the loop keeps
// retrying with exponential backoff until Disconnect.
func (c *Channel) Connect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.running = true
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(ctx, c.done)
}

// Disconnect tears the connection down, clears the dedup set and resets the
// backoff counter. It never triggers a reconnect.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.cancel()
	if c.conn != nil {
		c.conn.Close()
	}
	done := c.done
	c.mu.Unlock()

	<-done

	c.mu.Lock()
	c.seen.clear()
	c.bo.Reset()
	c.mu.Unlock()
	logger.Info("realtime: disconnected")
}

// IsConnected reports whether a live connection is currently established.
func (c *Channel) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *Channel) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		conn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			wait := c.nextBackOff()
			logger.Warn("realtime: connect failed",
				zap.Error(err), zap.Duration("retry_in", wait))
			if !c.sleep(ctx, wait) {
				return
			}
			continue
		}

		c.mu.Lock()
		if ctx.Err() != nil {
			c.mu.Unlock()
			conn.Close()
			return
		}
		c.conn = conn
		// Successful connect resets the attempt counter.
		c.bo.Reset()
		c.mu.Unlock()

		logger.Info("realtime: connected", zap.String("url", c.url))

		if err := c.subscribeAll(conn); err != nil {
			logger.Warn("realtime: subscribe failed", zap.Error(err))
		} else {
			c.readLoop(conn)
		}

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()

		if ctx.Err() != nil {
			return
		}
		wait := c.nextBackOff()
		logger.Warn("realtime: connection lost", zap.Duration("retry_in", wait))
		if !c.sleep(ctx, wait) {
			return
		}
	}
}

// dial establishes one connection attempt, capturing the credential once.
func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if token, ok := c.tokens.Get(); ok {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, resp, err := c.dialer.DialContext(ctx, c.url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

func (c *Channel) subscribeAll(conn *websocket.Conn) error {
	for _, topic := range []string{TopicTasks, TopicNotifications, TopicUserQueue} {
		frame := subscribeFrame{Type: "SUBSCRIBE", Destination: topic}
		if err := conn.WriteJSON(frame); err != nil {
			return err
		}
	}
	return nil
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("realtime: read error", zap.Error(err))
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			logger.Debug("realtime: dropping malformed frame", zap.Error(err))
			continue
		}
		c.dispatch(env)
	}
}

// dispatch normalizes one envelope. Task-shaped bodies are deduplicated by
// task id regardless of the topic they arrived on, so a logical event
// delivered on both the shared and the per-user topic is forwarded once.
// Everything else is forwarded as a notification.
func (c *Channel) dispatch(env envelope) {
	var taskEv models.TaskEvent
	if err := json.Unmarshal(env.Body, &taskEv); err == nil && isTaskAction(taskEv.Action) {
		key := taskEv.Key()
		if key != 0 {
			c.mu.Lock()
			dup := c.seen.observe(key)
			c.mu.Unlock()
			if dup {
				logger.Debug("realtime: duplicate event dropped",
					zap.Int64("task_id", key), zap.String("topic", env.Topic))
				return
			}
		}
		c.emit(Event{Kind: KindTask, Action: taskEv.Action, Task: taskEv.Task, TaskID: key})
		return
	}

	var note models.Notification
	if err := json.Unmarshal(env.Body, &note); err != nil {
		logger.Debug("realtime: dropping unrecognized body", zap.String("topic", env.Topic))
		return
	}
	c.emit(Event{Kind: KindNotification, Notification: &note})
}

func (c *Channel) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		logger.Warn("realtime: consumer slow, dropping event")
	}
}

func (c *Channel) nextBackOff() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bo.NextBackOff()
}

func isTaskAction(a models.TaskAction) bool {
	switch a {
	case models.ActionCreated, models.ActionUpdated, models.ActionDeleted:
		return true
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
