package notification

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/SherClockHolmes/webpush-go"

	"padaria-club-backend/internal/model"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of Sender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// DeliveryStatus classifies the outcome of one delivery attempt.
type DeliveryStatus string

const (
	StatusDelivered DeliveryStatus = "delivered"
	// StatusExpired means the push service reported the destination as
	// permanently gone (HTTP 410); the subscription should be deleted.
	StatusExpired        DeliveryStatus = "expired"
	StatusTransientError DeliveryStatus = "transient_error"
)

// DeliveryResult is the per-subscription outcome of a dispatch batch.
// Results keep the order of the input subscriptions.
type DeliveryResult struct {
	Endpoint string
	Status   DeliveryStatus
	Err      error
}

// Payload is the JSON document delivered to push clients.
type Payload struct {
	Title          string `json:"title"`
	Body           string `json:"body"`
	Icon           string `json:"icon"`
	URL            string `json:"url"`
	ReservationURL string `json:"reservationUrl,omitempty"`
}

// Dispatcher fans a single payload out to many subscriptions concurrently.
type Dispatcher struct {
	options *webpush.Options
	sender  Sender
}

// NewDispatcher creates a dispatcher. Pass nil options (or options without
// keys) to get a disabled dispatcher that reports Enabled() == false.
func NewDispatcher(options *webpush.Options) *Dispatcher {
	return &Dispatcher{
		options: options,
		sender:  &WebPushSender{}, // Use the real sender by default
	}
}

// NewDispatcherWithSender creates a dispatcher with a custom sender, for
// tests that stub out the push transport.
func NewDispatcherWithSender(options *webpush.Options, sender Sender) *Dispatcher {
	return &Dispatcher{options: options, sender: sender}
}

// Enabled reports whether VAPID delivery credentials are configured.
func (d *Dispatcher) Enabled() bool {
	return d.options != nil && d.options.VAPIDPublicKey != "" && d.options.VAPIDPrivateKey != ""
}

// Dispatch attempts delivery to every subscription concurrently and collects
// per-subscription results. Individual failures never fail the batch; the
// caller inspects the results and deletes expired subscriptions.
func (d *Dispatcher) Dispatch(subscriptions []model.PushSubscription, payload Payload) []DeliveryResult {
	results := make([]DeliveryResult, len(subscriptions))
	if len(subscriptions) == 0 {
		return results
	}

	body, err := json.Marshal(payload)
	if err != nil {
		for i, sub := range subscriptions {
			results[i] = DeliveryResult{Endpoint: sub.Endpoint, Status: StatusTransientError, Err: err}
		}
		return results
	}

	var wg sync.WaitGroup
	for i, sub := range subscriptions {
		wg.Add(1)
		go func(i int, sub model.PushSubscription) {
			defer wg.Done()
			results[i] = d.send(sub, body)
		}(i, sub)
	}
	wg.Wait()

	return results
}

// send delivers a single notification and classifies the outcome.
func (d *Dispatcher) send(sub model.PushSubscription, body []byte) DeliveryResult {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := d.sender.Send(body, wpSub, d.options)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return DeliveryResult{Endpoint: sub.Endpoint, Status: StatusTransientError, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone:
		return DeliveryResult{Endpoint: sub.Endpoint, Status: StatusExpired}
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return DeliveryResult{Endpoint: sub.Endpoint, Status: StatusDelivered}
	default:
		log.Printf("Unexpected status %d sending notification to %s", resp.StatusCode, sub.Endpoint)
		return DeliveryResult{Endpoint: sub.Endpoint, Status: StatusTransientError}
	}
}
