package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"smartpantry/internal/database"
	"smartpantry/internal/models"
	"smartpantry/internal/monitoring"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *database.Store {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return database.NewStore(db)
}

// fakePublisher records published messages
type fakePublisher struct {
	mu       sync.Mutex
	clients  int
	messages []Message
}

func (p *fakePublisher) Publish(msg Message) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.clients == 0 {
		return 0, nil
	}
	p.messages = append(p.messages, msg)
	return p.clients, nil
}

func milk() *models.InventoryItem {
	return &models.InventoryItem{ItemID: "item-1", Name: "Milk"}
}

func TestScheduler_ExpiryReplacesPending(t *testing.T) {
	store := newTestStore(t)
	s := NewScheduler(store, func() time.Time { return testNow }, nil)
	ctx := context.Background()

	require.NoError(t, s.ScheduleExpiryReminder(ctx, milk(), testNow.Add(24*time.Hour)))
	require.NoError(t, s.ScheduleExpiryReminder(ctx, milk(), testNow.Add(48*time.Hour)))

	pending, err := store.PendingReminders(ctx, "item-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.ReminderExpiry, pending[0].Kind)
	assert.True(t, pending[0].FireAt.Equal(testNow.Add(48*time.Hour)))
	assert.Equal(t, "Item Expiring Soon", pending[0].Title)
	assert.Equal(t, "Your Milk expires tomorrow! Use it in a recipe.", pending[0].Body)
}

func TestScheduler_CancelAndLowStock(t *testing.T) {
	store := newTestStore(t)
	s := NewScheduler(store, func() time.Time { return testNow }, nil)
	ctx := context.Background()

	require.NoError(t, s.ScheduleExpiryReminder(ctx, milk(), testNow.Add(24*time.Hour)))
	require.NoError(t, s.CancelReminder(ctx, "item-1"))
	require.NoError(t, s.ScheduleLowStockAlert(ctx, milk()))

	pending, err := store.PendingReminders(ctx, "item-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.ReminderLowStock, pending[0].Kind)
	assert.True(t, pending[0].FireAt.Equal(testNow.Add(LowStockDelay)))
	assert.Contains(t, pending[0].Body, "added to your Shopping List")
}

func TestDispatcher_Tick(t *testing.T) {
	store := newTestStore(t)
	now := testNow
	clock := func() time.Time { return now }
	s := NewScheduler(store, clock, nil)
	pub := &fakePublisher{}
	monitor := monitoring.NewMonitor()
	metrics := monitoring.NewMetrics(monitor)
	d := NewDispatcher(store, pub, DispatcherConfig{Now: clock, Metrics: metrics})
	ctx := context.Background()

	require.NoError(t, s.ScheduleLowStockAlert(ctx, milk()))
	require.NoError(t, s.ScheduleExpiryReminder(ctx, &models.InventoryItem{ItemID: "item-2", Name: "Eggs"}, testNow.Add(time.Hour)))

	// nothing due yet
	sent, err := d.Tick(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)

	// due but nobody listening
	now = testNow.Add(2 * time.Second)
	sent, err = d.Tick(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
	waiting, _ := monitor.GetMetric("reminders_waiting")
	assert.Equal(t, 1, waiting)

	pub.clients = 1
	sent, err = d.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, pub.messages, 1)
	assert.Equal(t, "reminder", pub.messages[0].Type)
	assert.Equal(t, "low_stock", pub.messages[0].Kind)

	// delivered reminders are not sent twice
	sent, err = d.Tick(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)

	now = testNow.Add(2 * time.Hour)
	sent, err = d.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, "item-2", pub.messages[1].ItemID)

	counts := monitor.GetMetrics()
	assert.Equal(t, int64(1), counts["reminders_low_stock"])
	assert.Equal(t, int64(1), counts["reminders_expiry"])
	assert.Equal(t, 0, counts["reminders_waiting"])
}

func TestDispatcher_DailyCheckIn(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2025, 6, 10, 17, 0, 0, 0, time.UTC)
	pub := &fakePublisher{clients: 1}
	d := NewDispatcher(store, pub, DispatcherConfig{
		CheckInAt: 18 * time.Hour,
		Now:       func() time.Time { return now },
	})
	ctx := context.Background()

	_, err := d.Tick(ctx)
	require.NoError(t, err)
	assert.Empty(t, pub.messages)

	now = now.Add(90 * time.Minute)
	_, err = d.Tick(ctx)
	require.NoError(t, err)
	require.Len(t, pub.messages, 1)
	assert.Equal(t, "check_in", pub.messages[0].Type)

	now = now.Add(time.Hour)
	_, err = d.Tick(ctx)
	require.NoError(t, err)
	assert.Len(t, pub.messages, 1)

	now = now.Add(24 * time.Hour)
	_, err = d.Tick(ctx)
	require.NoError(t, err)
	assert.Len(t, pub.messages, 2)
}

func TestDispatcher_RunStopsOnCancel(t *testing.T) {
	store := newTestStore(t)
	d := NewDispatcher(store, &fakePublisher{}, DispatcherConfig{PollInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}

func TestHub_PublishToWebsocketClient(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, hub.ServeWS(w, r))
	}))
	defer srv.Close()
	defer hub.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	n, err := hub.Publish(Message{Type: "reminder", Title: "Item Out of Stock", Body: "You just ran out of Milk."})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var got Message
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "Item Out of Stock", got.Title)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_PublishWithoutClients(t *testing.T) {
	hub := NewHub(nil)
	n, err := hub.Publish(Message{Type: "reminder"})
	require.NoError(t, err)
	assert.Zero(t, n)
}
