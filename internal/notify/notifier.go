package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/donr-app/go-services/internal/apperr"
	"github.com/donr-app/go-services/internal/models"
	"github.com/donr-app/go-services/pkg/logger"
	"github.com/donr-app/go-services/pkg/metrics"
)

// TokenResolver yields the user record holding the delivery token.
// Implemented by the users repository; returns (nil, nil) when the user does
// not exist.
type TokenResolver interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Sender delivers one push message to a device token and returns the
// provider's message id.
type Sender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) (string, error)
}

// Dispatcher resolves recipients and fans out push notifications. A send to
// a user without a delivery token is not a failure; the user is simply
// unreachable.
type Dispatcher struct {
	users  TokenResolver
	sender Sender
	log    *LogStore // optional; nil disables delivery logging
}

func NewDispatcher(users TokenResolver, sender Sender, log *LogStore) *Dispatcher {
	return &Dispatcher{users: users, sender: sender, log: log}
}

// Send delivers a notification to a single user. Returns the provider
// message id, or "" without error when the user carries no delivery token.
func (d *Dispatcher) Send(ctx context.Context, userID, title, body string, data map[string]string) (string, error) {
	u, err := d.users.GetByID(ctx, userID)
	if err != nil {
		return "", apperr.Upstream(err, "load notification recipient")
	}
	if u == nil {
		return "", apperr.NotFound("User not found")
	}
	if u.FCMToken == "" {
		logger.Warnf("no delivery token for user %s, skipping notification", userID)
		d.record(ctx, userID, title, "skipped", "", "")
		return "", nil
	}

	msgID, err := d.sender.Send(ctx, u.FCMToken, title, body, data)
	if err != nil {
		metrics.NotificationsFailed.Inc()
		d.record(ctx, userID, title, "failed", "", err.Error())
		return "", apperr.Upstream(err, "send notification")
	}
	metrics.NotificationsSent.Inc()
	d.record(ctx, userID, title, "sent", msgID, "")
	logger.Infof("notification sent to %s: %s", userID, msgID)
	return msgID, nil
}

// SendToMany fans Send out to all recipients concurrently. Individual
// failures are logged per recipient; the aggregate completes once every
// attempt has settled and never fails as a whole.
func (d *Dispatcher) SendToMany(ctx context.Context, userIDs []string, title, body string, data map[string]string) {
	var wg sync.WaitGroup
	for _, id := range userIDs {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			if _, err := d.Send(ctx, userID, title, body, data); err != nil {
				logger.Errorf("failed to send notification to %s: %v", userID, err)
			}
		}(id)
	}
	wg.Wait()
	logger.Infof("notification fan-out to %d users complete", len(userIDs))
}

// NotifyNewDonation tells nearby distributors that a donation was posted.
func (d *Dispatcher) NotifyNewDonation(ctx context.Context, distributorIDs []string, donationID, foodType string) {
	title := "New Food Donation Available"
	body := fmt.Sprintf("A new %s donation is available nearby!", foodType)
	data := map[string]string{
		"type":       "new_donation",
		"donationId": donationID,
		"foodType":   foodType,
	}
	d.SendToMany(ctx, distributorIDs, title, body, data)
}

// NotifyDistributed tells the donator that their donation was delivered.
func (d *Dispatcher) NotifyDistributed(ctx context.Context, donatorID, donationID string) {
	title := "Donation Delivered"
	body := "Your donation has been distributed. Thank you!"
	data := map[string]string{
		"type":       "donation_distributed",
		"donationId": donationID,
	}
	if _, err := d.Send(ctx, donatorID, title, body, data); err != nil {
		logger.Errorf("failed to notify donator %s: %v", donatorID, err)
	}
}

func (d *Dispatcher) record(ctx context.Context, userID, title, status, messageID, errMsg string) {
	if d.log == nil {
		return
	}
	if err := d.log.Record(ctx, &DeliveryEntry{
		UserID:    userID,
		Title:     title,
		Status:    status,
		MessageID: messageID,
		Error:     errMsg,
	}); err != nil {
		logger.Warnf("failed to record notification delivery: %v", err)
	}
}
