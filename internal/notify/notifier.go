package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"drivebid/pkg/logger"
	"drivebid/pkg/model"
)

// BookingNotification is the flat payload pushed to the outbound webhook after
// a booking is committed. The receiver dispatches the actual email or SMS.
type BookingNotification struct {
	BookingID    string    `json:"booking_id"`
	BidID        string    `json:"bid_id"`
	RenterName   string    `json:"renter_name"`
	RenterEmail  string    `json:"renter_email"`
	RenterPhone  string    `json:"renter_phone,omitempty"`
	OwnerName    string    `json:"owner_name"`
	OwnerEmail   string    `json:"owner_email"`
	OwnerPhone   string    `json:"owner_phone,omitempty"`
	VehicleName  string    `json:"vehicle_name"`
	Amount       float64   `json:"amount"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
}

// BidRejection tells a losing renter their bid is out of the running.
type BidRejection struct {
	BidID       string    `json:"bid_id"`
	RenterName  string    `json:"renter_name"`
	RenterEmail string    `json:"renter_email"`
	VehicleName string    `json:"vehicle_name"`
	Amount      float64   `json:"amount"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

// Notifier delivers booking confirmations and bid rejections. Failures must
// never affect the transaction that produced them; callers invoke it post
// commit.
type Notifier interface {
	BookingConfirmed(ctx context.Context, booking *model.Booking) error
	BidRejected(ctx context.Context, bid *model.Bid) error
}

type webhookNotifier struct {
	url    string
	client *http.Client
	log    *logger.Logger
}

// NewWebhookNotifier posts confirmations to url. A zero timeout falls back to
// 5 seconds.
func NewWebhookNotifier(url string, timeout time.Duration, log *logger.Logger) Notifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &webhookNotifier{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

func (n *webhookNotifier) BookingConfirmed(ctx context.Context, booking *model.Booking) error {
	return n.post(ctx, "booking.confirmed", BookingNotification{
		BookingID:   booking.ID,
		BidID:       booking.BidID,
		RenterName:  booking.Renter.Name,
		RenterEmail: booking.Renter.Email,
		RenterPhone: booking.Renter.Phone,
		OwnerName:   booking.Owner.Name,
		OwnerEmail:  booking.Owner.Email,
		OwnerPhone:  booking.Owner.Phone,
		VehicleName: booking.Vehicle.Name,
		Amount:      booking.Amount,
		StartDate:   booking.StartDate,
		EndDate:     booking.EndDate,
	})
}

func (n *webhookNotifier) BidRejected(ctx context.Context, bid *model.Bid) error {
	return n.post(ctx, "bid.rejected", BidRejection{
		BidID:       bid.ID,
		RenterName:  bid.Renter.Name,
		RenterEmail: bid.Renter.Email,
		VehicleName: bid.Vehicle.Name,
		Amount:      bid.Amount,
		StartDate:   bid.StartDate,
		EndDate:     bid.EndDate,
	})
}

func (n *webhookNotifier) post(ctx context.Context, event string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", event)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("notification endpoint returned status %d", resp.StatusCode)
	}

	n.log.Debug("Notification delivered", "event", event, "status", resp.StatusCode)
	return nil
}

type noopNotifier struct{}

// NewNoopNotifier is used when no webhook URL is configured.
func NewNoopNotifier() Notifier {
	return noopNotifier{}
}

func (noopNotifier) BookingConfirmed(context.Context, *model.Booking) error {
	return nil
}

func (noopNotifier) BidRejected(context.Context, *model.Bid) error {
	return nil
}
