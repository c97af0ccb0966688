package notification

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync/atomic"
	"time"

	"padaria-club-backend/config"
	"padaria-club-backend/internal/model"
	"padaria-club-backend/internal/store"
)

// Sweep periodically checks every padaria's fornada events and pushes
// "1 hour before" and "5 minutes before" notifications to subscribers.
type Sweep struct {
	store      store.Store
	dispatcher *Dispatcher
	interval   time.Duration
	loc        *time.Location
	baseURL    string
	iconURL    string

	running atomic.Bool // guards against overlapping ticks

	// now and pick are swapped out in tests.
	now  func() time.Time
	pick func(n int) int
}

// NewSweep creates the fornada sweep from configuration.
func NewSweep(s store.Store, d *Dispatcher, cfg *config.Config) (*Sweep, error) {
	loc, err := time.LoadLocation(cfg.Sweep.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid sweep timezone %q: %w", cfg.Sweep.Timezone, err)
	}

	return &Sweep{
		store:      s,
		dispatcher: d,
		interval:   cfg.Sweep.Interval,
		loc:        loc,
		baseURL:    cfg.Push.BaseURL,
		iconURL:    cfg.Push.IconURL,
		now:        time.Now,
		pick:       rand.Intn,
	}, nil
}

// Run starts the sweep loop. Blocks until ctx is cancelled; intended to be
// called with `go`. An in-flight tick is not interrupted on shutdown, the
// loop simply stops scheduling new ones.
func (s *Sweep) Run(ctx context.Context) {
	if !s.dispatcher.Enabled() {
		log.Println("Warning: VAPID keys are not configured; fornada sweep will run but skip dispatch.")
	}
	log.Printf("Starting fornada sweep every %s (timezone %s)", s.interval, s.loc)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick(ctx)
		case <-ctx.Done():
			log.Println("Fornada sweep stopped")
			return
		}
	}
}

// Tick runs one sweep pass. If the previous tick is still running the pass is
// skipped entirely rather than overlapped.
func (s *Sweep) Tick(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		log.Println("Warning: previous sweep tick still running, skipping this tick")
		return
	}
	defer s.running.Store(false)

	padarias, err := s.store.PadariasWithEvents(ctx)
	if err != nil {
		log.Printf("Sweep tick aborted: failed to load padarias: %v", err)
		return
	}

	// Hoisted out of the per-padaria loop; one read per tick.
	pool, err := s.store.MessagePool(ctx)
	if err != nil {
		log.Printf("Sweep tick aborted: failed to load message pool: %v", err)
		return
	}

	now := s.now().In(s.loc)
	nowMinutes := now.Hour()*60 + now.Minute()

	for _, padaria := range padarias {
		s.sweepPadaria(ctx, padaria, nowMinutes, pool)
	}
}

// sweepPadaria evaluates one padaria's events. Failures are logged at this
// scope and never abort the rest of the tick.
func (s *Sweep) sweepPadaria(ctx context.Context, padaria model.Padaria, nowMinutes int, pool []string) {
	for _, event := range padaria.Events {
		targetMinutes, ok := ParseClock(event.Time)
		if !ok {
			continue
		}

		window := EvaluateWindow(nowMinutes, targetMinutes)
		if !window.Match() {
			continue
		}

		if err := s.notify(ctx, padaria, event, window, pool); err != nil {
			log.Printf("Error notifying for padaria %d event %s: %v", padaria.ID, event.EventID, err)
		}
	}
}

// notify fans one fornada notification out to the padaria's subscribers and
// prunes subscriptions the push service reports as gone.
func (s *Sweep) notify(ctx context.Context, padaria model.Padaria, event model.FornadaEvent, window Window, pool []string) error {
	subscriptions, err := s.store.SubscriptionsForPadaria(ctx, padaria.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch subscriptions: %w", err)
	}
	if len(subscriptions) == 0 {
		return nil
	}

	if !s.dispatcher.Enabled() {
		return nil
	}

	payload := s.buildPayload(padaria, event, window, pool)
	log.Printf("Sending %d fornada notifications for padaria %d (%s at %s)", len(subscriptions), padaria.ID, padaria.Name, event.Time)

	results := s.dispatcher.Dispatch(subscriptions, payload)
	PruneExpired(ctx, s.store, results)
	return nil
}

// buildPayload assembles the push payload for one matched event.
func (s *Sweep) buildPayload(padaria model.Padaria, event model.FornadaEvent, window Window, pool []string) Payload {
	var title string
	if window.OneHourBefore {
		title = fmt.Sprintf("Fornada em 1 hora na %s", padaria.Name)
	} else {
		title = fmt.Sprintf("Fornada saindo agora na %s!", padaria.Name)
	}

	payload := Payload{
		Title: title,
		Body:  s.pickMessage(event, pool),
		Icon:  s.iconURL,
		URL:   fmt.Sprintf("%s/padarias/%d", s.baseURL, padaria.ID),
	}
	if event.EventID != "" {
		payload.ReservationURL = fmt.Sprintf("%s/padarias/%d/reservar?evento=%s", s.baseURL, padaria.ID, event.EventID)
	}
	return payload
}

// pickMessage chooses the notification body: the event's own message when set,
// otherwise a uniform random pick from the pool, otherwise a generic fallback
// carrying the target time.
func (s *Sweep) pickMessage(event model.FornadaEvent, pool []string) string {
	if event.Description != "" {
		return event.Description
	}
	if len(pool) > 0 {
		return pool[s.pick(len(pool))]
	}
	return fmt.Sprintf("Fornada fresquinha às %s!", event.Time)
}

// PruneExpired deletes every subscription a batch reported as expired.
// Delete failures are logged, never retried, and never abort the caller.
func PruneExpired(ctx context.Context, st store.Store, results []DeliveryResult) {
	for _, result := range results {
		if result.Status != StatusExpired {
			continue
		}
		log.Printf("Subscription for endpoint %s is expired. Deleting.", result.Endpoint)
		if err := st.DeleteSubscription(ctx, result.Endpoint); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", result.Endpoint, err)
		}
	}
}
