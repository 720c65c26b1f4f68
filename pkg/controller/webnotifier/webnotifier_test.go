/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webnotifier

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type topicEnvelope struct {
	ID      string          `json:"id"`
	Topic   string          `json:"topic"`
	Message json.RawMessage `json:"message"`
}

func TestNew(t *testing.T) {
	t.Run("New WebNotifier (populated)", func(t *testing.T) {
		n := New("/ws", []string{"http://localhost:8080"})
		require.NotNil(t, n)
		require.Equal(t, 2, len(n.notifiers))
		require.Equal(t, 1, len(n.GetRESTHandlers()))
		require.Equal(t, "/ws", n.GetRESTHandlers()[0].Path())
	})

	t.Run("New WebNotifier (nil)", func(t *testing.T) {
		n := New("", nil)
		require.NotNil(t, n)
		require.Equal(t, 2, len(n.notifiers))
	})
}

func TestWebNotifier_Notify(t *testing.T) {
	t.Run("no subscribers", func(t *testing.T) {
		require.NoError(t, New("/ws", nil).Notify("dataobject", []byte(`{"event":"sealed"}`)))
	})

	t.Run("webhook failure is reported", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		err := New("/ws", []string{srv.URL}).Notify("dataobject", []byte(`{}`))
		require.Error(t, err)
		require.Contains(t, err.Error(), "500")
	})

	t.Run("invalid notification", func(t *testing.T) {
		n := New("/ws", nil)

		err := n.Notify("", []byte(`{}`))
		require.Error(t, err)
		require.Contains(t, err.Error(), emptyTopicErrMsg)

		err = n.Notify("topic", nil)
		require.Error(t, err)
		require.Contains(t, err.Error(), emptyMessageErrMsg)
	})
}

func TestWebhookNotifier_Notify(t *testing.T) {
	received := make(chan topicEnvelope, 2)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var msg topicEnvelope
		require.NoError(t, json.Unmarshal(b, &msg))

		received <- msg

		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewWebhookNotifier([]string{srv.URL, srv.URL})

	require.NoError(t, n.Notify("didregistry", []byte(`{"event":"created"}`)))

	for i := 0; i < 2; i++ {
		msg := <-received
		require.Equal(t, "didregistry", msg.Topic)
		require.NotEmpty(t, msg.ID)
		require.JSONEq(t, `{"event":"created"}`, string(msg.Message))
	}

	t.Run("unreachable url", func(t *testing.T) {
		err := NewWebhookNotifier([]string{"http://127.0.0.1:0/hook"}).Notify("topic", []byte(`{}`))
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to post notification")
	})

	t.Run("message is not JSON", func(t *testing.T) {
		err := n.Notify("topic", []byte("payload"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to create topic message")
	})
}

func TestPrepareTopicMessage(t *testing.T) {
	b, err := PrepareTopicMessage("dataobject", []byte(`{"id":"1"}`))
	require.NoError(t, err)

	var msg topicEnvelope
	require.NoError(t, json.Unmarshal(b, &msg))
	require.Equal(t, "dataobject", msg.Topic)
	require.Len(t, msg.ID, 36)
	require.JSONEq(t, `{"id":"1"}`, string(msg.Message))
}
