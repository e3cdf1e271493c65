package greenapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendText_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/waInstance7105302600/sendMessage/token123", r.URL.Path)

		var req sendMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "972549952960@c.us", req.ChatID)
		assert.Equal(t, "hello", req.Message)

		require.NoError(t, json.NewEncoder(w).Encode(sendMessageResponse{IDMessage: "msg-1"}))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "7105302600", "token123", time.Second)

	res, err := client.SendText(context.Background(), "972549952960", "hello")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "msg-1", res.MessageID)
}

func TestSendText_GatewayError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "inst", "bad-token", time.Second)

	_, err := client.SendText(context.Background(), "972549952960", "hello")
	assert.Error(t, err)
}

func TestSendText_NoMessageID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "inst", "token", time.Second)

	res, err := client.SendText(context.Background(), "972549952960", "hello")
	require.NoError(t, err)
	assert.False(t, res.Success)
}
