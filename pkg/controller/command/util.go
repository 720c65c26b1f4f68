/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package command

import (
	"encoding/json"
	"io"

	"github.com/hyperledger/aries-framework-go/spi/log"
)

// WriteNillableResponse is a utility function that writes v to w.
// If v is nil then an empty object is written.
func WriteNillableResponse(w io.Writer, v interface{}, l log.Logger) {
	obj := v
	if v == nil {
		obj = map[string]interface{}{}
	}

	if err := json.NewEncoder(w).Encode(obj); err != nil {
		l.Errorf("Unable to send error response, %s", err)
	}
}

// Notify publishes event on topic when n is set. Delivery failures are logged and never fail the command.
func Notify(n Notifier, topic string, event interface{}, l log.Logger) {
	if n == nil {
		return
	}

	msg, err := json.Marshal(event)
	if err != nil {
		l.Errorf("Unable to marshal %s event, %s", topic, err)

		return
	}

	if err := n.Notify(topic, msg); err != nil {
		l.Warnf("Unable to deliver %s event, %s", topic, err)
	}
}
