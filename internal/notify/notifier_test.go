package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/donr-app/go-services/internal/apperr"
	"github.com/donr-app/go-services/internal/config"
	"github.com/donr-app/go-services/internal/models"
	"github.com/donr-app/go-services/internal/users"
	"github.com/stretchr/testify/require"
)

// fakeSender records sends and can fail selected tokens.
type fakeSender struct {
	mu    sync.Mutex
	sent  []string
	fails map[string]bool
}

func (f *fakeSender) Send(ctx context.Context, token, title, body string, data map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails[token] {
		return "", errors.New("provider rejected token")
	}
	f.sent = append(f.sent, token)
	return "msg-" + token, nil
}

func seedUser(t *testing.T, r *users.MemoryRepository, id, token string) {
	t.Helper()
	err := r.Create(context.Background(), &models.User{ID: id, Name: id, Role: models.RoleDistributor, FCMToken: token})
	require.NoError(t, err)
}

func TestSendResolvesToken(t *testing.T) {
	ur := users.NewMemoryRepository()
	seedUser(t, ur, "u1", "tok-1")
	s := &fakeSender{}
	d := NewDispatcher(ur, s, nil)

	id, err := d.Send(context.Background(), "u1", "Title", "Body", nil)
	require.NoError(t, err)
	require.Equal(t, "msg-tok-1", id)
	require.Equal(t, []string{"tok-1"}, s.sent)
}

func TestSendWithoutTokenIsNotAnError(t *testing.T) {
	ur := users.NewMemoryRepository()
	seedUser(t, ur, "u1", "")
	s := &fakeSender{}
	d := NewDispatcher(ur, s, nil)

	id, err := d.Send(context.Background(), "u1", "Title", "Body", nil)
	require.NoError(t, err)
	require.Empty(t, id)
	require.Empty(t, s.sent)
}

func TestSendUnknownUser(t *testing.T) {
	d := NewDispatcher(users.NewMemoryRepository(), &fakeSender{}, nil)
	_, err := d.Send(context.Background(), "ghost", "Title", "Body", nil)
	var nf *apperr.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestSendToManyToleratesPartialFailure(t *testing.T) {
	ur := users.NewMemoryRepository()
	seedUser(t, ur, "ok-1", "tok-a")
	seedUser(t, ur, "bad", "tok-bad")
	seedUser(t, ur, "ok-2", "tok-b")
	seedUser(t, ur, "silent", "")
	s := &fakeSender{fails: map[string]bool{"tok-bad": true}}
	d := NewDispatcher(ur, s, nil)

	// must complete despite the failing recipient and the token-less one
	d.SendToMany(context.Background(), []string{"ok-1", "bad", "ok-2", "silent", "ghost"}, "Title", "Body", nil)

	require.ElementsMatch(t, []string{"tok-a", "tok-b"}, s.sent)
}

func TestFCMSender(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "key=server-key", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"multicast_id":1,"success":1,"failure":0,"results":[{"message_id":"0:abc"}]}`))
	}))
	defer srv.Close()

	s := NewFCMSender(config.FCMConfig{Endpoint: srv.URL, ServerKey: "server-key"})
	id, err := s.Send(context.Background(), "tok", "Title", "Body", map[string]string{"k": "v"})
	require.NoError(t, err)
	require.Equal(t, "0:abc", id)
}

func TestFCMSenderProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":0,"failure":1,"results":[{"error":"NotRegistered"}]}`))
	}))
	defer srv.Close()

	s := NewFCMSender(config.FCMConfig{Endpoint: srv.URL, ServerKey: "server-key"})
	_, err := s.Send(context.Background(), "tok", "Title", "Body", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "NotRegistered")
}
