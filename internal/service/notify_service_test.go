package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

type publisherFunc func(ctx context.Context, d Decision) error

func (f publisherFunc) Publish(ctx context.Context, d Decision) error {
	return f(ctx, d)
}

func TestNotifyService_PublishesToAll(t *testing.T) {
	var got []string
	ok := publisherFunc(func(ctx context.Context, d Decision) error {
		got = append(got, "ok:"+d.Name)
		return nil
	})
	failing := publisherFunc(func(ctx context.Context, d Decision) error {
		return errors.New("broker down")
	})

	svc := NewNotifyService(newTestLogger(), failing, ok)
	err := svc.Notify(context.Background(), Decision{Name: "Ada", Status: "Selected", Score: 8})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Equal(t, []string{"ok:Ada"}, got)
}

func TestNotifyService_NoPublishers(t *testing.T) {
	svc := NewNotifyService(newTestLogger())
	assert.NoError(t, svc.Notify(context.Background(), Decision{Name: "Ada", Status: "Rejected"}))
}

func TestWebhookPublisher(t *testing.T) {
	var received Decision
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	p := NewWebhookPublisher(srv.URL)
	d := Decision{Email: "ada@example.com", Name: "Ada", Status: "Selected", Score: 9}
	require.NoError(t, p.Publish(context.Background(), d))
	assert.Equal(t, d, received)
}

func TestWebhookPublisher_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewWebhookPublisher(srv.URL).Publish(context.Background(), Decision{Name: "Ada"})
	assert.ErrorContains(t, err, "400")
}
