/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webnotifier

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"nhooyr.io/websocket"

	"github.com/idobjects/idobjects-framework-go/pkg/controller/internal/cmdutil"
	"github.com/idobjects/idobjects-framework-go/pkg/controller/rest"
)

// WSNotifier pushes notifications to connected websocket clients. Clients only listen; any message a client
// sends closes its connection.
type WSNotifier struct {
	conns     []*websocket.Conn
	connsLock sync.RWMutex
	handlers  []rest.Handler
}

// NewWSNotifier returns a WSNotifier accepting clients on path.
func NewWSNotifier(path string) *WSNotifier {
	n := &WSNotifier{}
	n.handlers = []rest.Handler{cmdutil.NewHTTPHandler(path, http.MethodGet, n.handleWS)}

	return n
}

// Notify writes the topic message to every connected client.
func (n *WSNotifier) Notify(topic string, message []byte) error {
	if err := checkNotification(topic, message); err != nil {
		return err
	}

	n.connsLock.RLock()
	conns := make([]*websocket.Conn, len(n.conns))
	copy(conns, n.conns)
	n.connsLock.RUnlock()

	if len(conns) == 0 {
		return nil
	}

	topicMsg, err := PrepareTopicMessage(topic, message)
	if err != nil {
		return fmt.Errorf(failedToCreateErrMsg, err)
	}

	var allErrs error

	for _, conn := range conns {
		allErrs = appendError(allErrs, write(conn, topicMsg))
	}

	return allErrs
}

func write(conn *websocket.Conn, message []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), notificationSendTimeout)
	defer cancel()

	return conn.Write(ctx, websocket.MessageText, message)
}

func (n *WSNotifier) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		logger.Infof("failed to upgrade the websocket notification connection : %s", err)

		return
	}

	logger.Debugf("websocket notification client connected")

	n.connsLock.Lock()
	n.conns = append(n.conns, conn)
	n.connsLock.Unlock()

	n.monitor(r.Context(), conn)
}

// monitor blocks until the client goes away or sends something.
func (n *WSNotifier) monitor(ctx context.Context, conn *websocket.Conn) {
	_, _, err := conn.Reader(ctx)
	if err != nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		logger.Debugf("websocket notification client read failed: %s", err)
	}

	if err := conn.Close(websocket.StatusPolicyViolation, "unexpected message"); err != nil {
		logger.Debugf("closing websocket notification client failed: %s", err)
	}

	n.removeConn(conn)
}

func (n *WSNotifier) removeConn(conn *websocket.Conn) {
	n.connsLock.Lock()
	defer n.connsLock.Unlock()

	conns := n.conns[:0]

	for _, c := range n.conns {
		if c != conn {
			conns = append(conns, c)
		}
	}

	n.conns = conns

	logger.Debugf("websocket notification client dropped")
}

// GetRESTHandlers returns the websocket endpoint.
func (n *WSNotifier) GetRESTHandlers() []rest.Handler {
	return n.handlers
}
