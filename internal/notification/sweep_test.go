package notification

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"padaria-club-backend/config"
	"padaria-club-backend/internal/model"
	"padaria-club-backend/internal/store"
)

const testTimezone = "America/Sao_Paulo"

func newSweepTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Padaria{},
		&model.FornadaEvent{},
		&model.PushSubscription{},
		&model.NotificationMessage{},
		&model.Reservation{},
	))
	return db
}

func newTestSweep(t *testing.T, st store.Store, sender Sender) *Sweep {
	d := NewDispatcher(&webpush.Options{VAPIDPublicKey: "pub", VAPIDPrivateKey: "priv"})
	d.sender = sender

	cfg := &config.Config{}
	cfg.Sweep.Timezone = testTimezone
	cfg.Sweep.Interval = 5 * time.Minute
	cfg.Push.BaseURL = "https://padaria.club"
	cfg.Push.IconURL = "https://padaria.club/icons/fornada.png"

	s, err := NewSweep(st, d, cfg)
	require.NoError(t, err)
	s.pick = func(n int) int { return 0 }
	return s
}

// at pins the sweep clock to the given wall-clock time in the test timezone.
func at(t *testing.T, s *Sweep, hour, minute int) {
	loc, err := time.LoadLocation(testTimezone)
	require.NoError(t, err)
	s.now = func() time.Time {
		return time.Date(2026, 8, 28, hour, minute, 0, 0, loc)
	}
}

func seedPadaria(t *testing.T, db *gorm.DB, times ...string) model.Padaria {
	padaria := model.Padaria{Name: "Padaria do Zé"}
	require.NoError(t, db.Create(&padaria).Error)
	for i, clock := range times {
		require.NoError(t, db.Create(&model.FornadaEvent{
			EventID:   fmt.Sprintf("evt-%d-%d", padaria.ID, i),
			PadariaID: padaria.ID,
			Time:      clock,
		}).Error)
	}
	return padaria
}

func seedSubscription(t *testing.T, db *gorm.DB, endpoint string, padaria model.Padaria) {
	sub := model.PushSubscription{
		Endpoint: endpoint,
		P256DH:   "test_p256dh",
		Auth:     "test_auth",
		Padarias: []*model.Padaria{&padaria},
	}
	require.NoError(t, db.Create(&sub).Error)
}

func TestSweep_FiveMinuteWindowSends(t *testing.T) {
	db := newSweepTestDB(t)
	st := store.NewGormStore(db)
	padaria := seedPadaria(t, db, "18:00")
	seedSubscription(t, db, "https://push.example.com/a", padaria)
	seedSubscription(t, db, "https://push.example.com/b", padaria)

	sender := &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			return httpResponse(http.StatusCreated), nil
		},
	}
	s := newTestSweep(t, st, sender)
	at(t, s, 17, 55)

	s.Tick(context.Background())

	require.Len(t, sender.sent, 2)
	body := string(sender.payloads[0])
	assert.Contains(t, body, "saindo agora")
	assert.Contains(t, body, "Padaria do Zé")
	assert.Contains(t, body, fmt.Sprintf("/padarias/%d", padaria.ID))
	// Event has a stable id, so the payload carries a reservation link.
	assert.Contains(t, body, "reservar?evento=")
	// Empty message pool falls back to a body carrying the target time.
	assert.Contains(t, body, "18:00")
}

func TestSweep_OneHourWindowTitle(t *testing.T) {
	db := newSweepTestDB(t)
	st := store.NewGormStore(db)
	padaria := seedPadaria(t, db, "18:00")
	seedSubscription(t, db, "https://push.example.com/a", padaria)

	sender := &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			return httpResponse(http.StatusCreated), nil
		},
	}
	s := newTestSweep(t, st, sender)
	at(t, s, 17, 0)

	s.Tick(context.Background())

	require.Len(t, sender.sent, 1)
	assert.Contains(t, string(sender.payloads[0]), "Fornada em 1 hora")
}

func TestSweep_MessagePoolPick(t *testing.T) {
	db := newSweepTestDB(t)
	st := store.NewGormStore(db)
	padaria := seedPadaria(t, db, "18:00")
	seedSubscription(t, db, "https://push.example.com/a", padaria)
	require.NoError(t, db.Create(&model.NotificationMessage{Body: "Pão quentinho!"}).Error)

	sender := &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			return httpResponse(http.StatusCreated), nil
		},
	}
	s := newTestSweep(t, st, sender)
	at(t, s, 17, 55)

	s.Tick(context.Background())

	require.Len(t, sender.sent, 1)
	assert.Contains(t, string(sender.payloads[0]), "Pão quentinho!")
}

func TestSweep_EventDescriptionOverridesPool(t *testing.T) {
	db := newSweepTestDB(t)
	st := store.NewGormStore(db)
	padaria := model.Padaria{Name: "Padaria da Maria"}
	require.NoError(t, db.Create(&padaria).Error)
	require.NoError(t, db.Create(&model.FornadaEvent{
		EventID:     "evt-croissant",
		PadariaID:   padaria.ID,
		Time:        "18:00",
		Description: "Croissants saindo do forno",
	}).Error)
	seedSubscription(t, db, "https://push.example.com/a", padaria)
	require.NoError(t, db.Create(&model.NotificationMessage{Body: "mensagem genérica"}).Error)

	sender := &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			return httpResponse(http.StatusCreated), nil
		},
	}
	s := newTestSweep(t, st, sender)
	at(t, s, 17, 55)

	s.Tick(context.Background())

	require.Len(t, sender.sent, 1)
	assert.Contains(t, string(sender.payloads[0]), "Croissants saindo do forno")
	assert.NotContains(t, string(sender.payloads[0]), "mensagem genérica")
}

func TestSweep_NoMatchOutsideWindows(t *testing.T) {
	db := newSweepTestDB(t)
	st := store.NewGormStore(db)
	padaria := seedPadaria(t, db, "18:00")
	seedSubscription(t, db, "https://push.example.com/a", padaria)

	sender := &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			return httpResponse(http.StatusCreated), nil
		},
	}
	s := newTestSweep(t, st, sender)
	at(t, s, 12, 0)

	s.Tick(context.Background())
	assert.Empty(t, sender.sent)
}

func TestSweep_SkipsMalformedAndEmptyEvents(t *testing.T) {
	db := newSweepTestDB(t)
	st := store.NewGormStore(db)

	// One padaria with no events at all, one with only unusable times.
	seedPadaria(t, db)
	padaria := seedPadaria(t, db, "N/A", "", "not-a-time")
	seedSubscription(t, db, "https://push.example.com/a", padaria)

	sender := &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			return httpResponse(http.StatusCreated), nil
		},
	}
	s := newTestSweep(t, st, sender)
	at(t, s, 17, 55)

	s.Tick(context.Background())
	assert.Empty(t, sender.sent)
}

func TestSweep_DeletesExpiredSubscription(t *testing.T) {
	db := newSweepTestDB(t)
	st := store.NewGormStore(db)
	padaria := seedPadaria(t, db, "18:00")
	seedSubscription(t, db, "https://push.example.com/alive", padaria)
	seedSubscription(t, db, "https://push.example.com/gone", padaria)

	sender := &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			if sub.Endpoint == "https://push.example.com/gone" {
				return httpResponse(http.StatusGone), nil
			}
			return httpResponse(http.StatusCreated), nil
		},
	}
	s := newTestSweep(t, st, sender)
	at(t, s, 17, 55)

	s.Tick(context.Background())

	var endpoints []string
	require.NoError(t, db.Model(&model.PushSubscription{}).Pluck("endpoint", &endpoints).Error)
	assert.Equal(t, []string{"https://push.example.com/alive"}, endpoints)
}

func TestSweep_SkipsTickWhileRunning(t *testing.T) {
	db := newSweepTestDB(t)
	st := store.NewGormStore(db)
	padaria := seedPadaria(t, db, "18:00")
	seedSubscription(t, db, "https://push.example.com/a", padaria)

	sender := &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			return httpResponse(http.StatusCreated), nil
		},
	}
	s := newTestSweep(t, st, sender)
	at(t, s, 17, 55)

	s.running.Store(true)
	s.Tick(context.Background())
	assert.Empty(t, sender.sent)

	s.running.Store(false)
	s.Tick(context.Background())
	assert.Len(t, sender.sent, 1)
}

// flakyDeleteStore errors deletes for chosen endpoints and records the rest.
// PruneExpired only ever touches DeleteSubscription, so the embedded nil
// Store covers the remaining methods.
type flakyDeleteStore struct {
	store.Store
	failing map[string]bool
	deleted []string
}

func (f *flakyDeleteStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	if f.failing[endpoint] {
		return fmt.Errorf("delete %s: database is locked", endpoint)
	}
	f.deleted = append(f.deleted, endpoint)
	return nil
}

func TestPruneExpired_DeleteFailureDoesNotAbort(t *testing.T) {
	st := &flakyDeleteStore{failing: map[string]bool{"https://push.example.com/b": true}}

	PruneExpired(context.Background(), st, []DeliveryResult{
		{Endpoint: "https://push.example.com/a", Status: StatusExpired},
		{Endpoint: "https://push.example.com/b", Status: StatusExpired},
		{Endpoint: "https://push.example.com/c", Status: StatusDelivered},
		{Endpoint: "https://push.example.com/d", Status: StatusExpired},
	})

	// The failed delete is logged and skipped; later expired endpoints are
	// still pruned and delivered endpoints are left alone.
	assert.Equal(t, []string{
		"https://push.example.com/a",
		"https://push.example.com/d",
	}, st.deleted)
}

func TestSweep_DisabledDispatcherSkipsSending(t *testing.T) {
	db := newSweepTestDB(t)
	st := store.NewGormStore(db)
	padaria := seedPadaria(t, db, "18:00")
	seedSubscription(t, db, "https://push.example.com/a", padaria)

	sender := &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			return httpResponse(http.StatusCreated), nil
		},
	}
	s := newTestSweep(t, st, sender)
	s.dispatcher.options = nil // no VAPID keys configured
	at(t, s, 17, 55)

	s.Tick(context.Background())
	assert.Empty(t, sender.sent)
}
