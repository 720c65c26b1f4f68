/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webnotifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// WebhookNotifier posts notifications to a fixed list of webhook URLs.
type WebhookNotifier struct {
	urls   []string
	client *http.Client
}

// NewWebhookNotifier returns a WebhookNotifier for webhookURLs.
func NewWebhookNotifier(webhookURLs []string) *WebhookNotifier {
	return &WebhookNotifier{urls: webhookURLs, client: &http.Client{}}
}

// Notify posts the topic message to every URL.
func (n *WebhookNotifier) Notify(topic string, message []byte) error {
	if err := checkNotification(topic, message); err != nil {
		return err
	}

	if len(n.urls) == 0 {
		return nil
	}

	topicMsg, err := PrepareTopicMessage(topic, message)
	if err != nil {
		return fmt.Errorf(failedToCreateErrMsg, err)
	}

	var allErrs error

	for _, webhookURL := range n.urls {
		allErrs = appendError(allErrs, n.post(webhookURL, topicMsg))
	}

	return allErrs
}

func (n *WebhookNotifier) post(destination string, message []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), notificationSendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, destination, bytes.NewReader(message))
	if err != nil {
		return fmt.Errorf("failed to create webhook request for %s: %w", destination, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post notification to %s: %w", destination, err)
	}

	defer closeResponse(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated &&
		resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("notification was sent to %s, but %s was received", destination, resp.Status)
	}

	logger.Debugf("notification sent to %s", destination)

	return nil
}

func closeResponse(c io.Closer) {
	if err := c.Close(); err != nil {
		logger.Warnf("failed to close webhook response body: %s", err)
	}
}
