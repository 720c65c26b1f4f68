/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package notifier

import "sync"

// Message is a notification received by the mock.
type Message struct {
	Topic   string
	Payload []byte
}

// Notifier is a mock command.Notifier recording every notification it receives.
type Notifier struct {
	NotifyFunc func(topic string, message []byte) error

	mu       sync.Mutex
	messages []Message
}

// Notify records the message, then calls NotifyFunc when set.
func (n *Notifier) Notify(topic string, message []byte) error {
	n.mu.Lock()
	n.messages = append(n.messages, Message{Topic: topic, Payload: message})
	n.mu.Unlock()

	if n.NotifyFunc != nil {
		return n.NotifyFunc(topic, message)
	}

	return nil
}

// Messages returns a copy of the recorded messages.
func (n *Notifier) Messages() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]Message(nil), n.messages...)
}
