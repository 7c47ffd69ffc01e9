package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/donr-app/go-services/internal/config"
)

// FCMSender delivers messages through the FCM HTTP endpoint, authenticated
// with the server key.
type FCMSender struct {
	cfg  config.FCMConfig
	http *http.Client
}

func NewFCMSender(cfg config.FCMConfig) *FCMSender {
	return &FCMSender{cfg: cfg, http: &http.Client{Timeout: 10 * time.Second}}
}

type fcmMessage struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmResponse struct {
	MessageID json.Number `json:"message_id"`
	Success   int         `json:"success"`
	Failure   int         `json:"failure"`
	Results   []struct {
		MessageID string `json:"message_id"`
		Error     string `json:"error"`
	} `json:"results"`
}

func (s *FCMSender) Send(ctx context.Context, token, title, body string, data map[string]string) (string, error) {
	payload, err := json.Marshal(fcmMessage{
		To:           token,
		Notification: fcmNotification{Title: title, Body: body},
		Data:         data,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+s.cfg.ServerKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fcm status %d", resp.StatusCode)
	}

	var out fcmResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Results) > 0 {
		if out.Results[0].Error != "" {
			return "", fmt.Errorf("fcm error: %s", out.Results[0].Error)
		}
		return out.Results[0].MessageID, nil
	}
	if out.Failure > 0 {
		return "", fmt.Errorf("fcm reported %d failures", out.Failure)
	}
	return out.MessageID.String(), nil
}
