/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package controller

import (
	"fmt"

	"github.com/idobjects/idobjects-framework-go/pkg/controller/command"
	dataobjectcmd "github.com/idobjects/idobjects-framework-go/pkg/controller/command/dataobject"
	didregistrycmd "github.com/idobjects/idobjects-framework-go/pkg/controller/command/didregistry"
	"github.com/idobjects/idobjects-framework-go/pkg/controller/rest"
	dataobjectrest "github.com/idobjects/idobjects-framework-go/pkg/controller/rest/dataobject"
	didregistryrest "github.com/idobjects/idobjects-framework-go/pkg/controller/rest/didregistry"
	"github.com/idobjects/idobjects-framework-go/pkg/controller/webnotifier"
	"github.com/idobjects/idobjects-framework-go/pkg/framework/context"
)

type allOpts struct {
	webhookURLs []string
	notifier    command.Notifier
}

const wsPath = "/ws"

// Opt represents a controller option.
type Opt func(opts *allOpts)

// WithWebhookURLs is an option for setting up a webhook dispatcher which will notify clients of events.
func WithWebhookURLs(webhookURLs ...string) Opt {
	return func(opts *allOpts) {
		opts.webhookURLs = webhookURLs
	}
}

// WithNotifier is an option for setting up a notifier which will notify clients of events.
func WithNotifier(notifier command.Notifier) Opt {
	return func(opts *allOpts) {
		opts.notifier = notifier
	}
}

func notifierOf(opts []Opt) command.Notifier {
	o := &allOpts{}

	for _, opt := range opts {
		opt(o)
	}

	if o.notifier != nil {
		return o.notifier
	}

	return webnotifier.New(wsPath, o.webhookURLs)
}

// GetRESTHandlers returns all REST handlers provided by controller.
func GetRESTHandlers(ctx *context.Provider, opts ...Opt) ([]rest.Handler, error) {
	notifier := notifierOf(opts)

	// DID registry REST operation
	didOp, err := didregistryrest.New(ctx, notifier)
	if err != nil {
		return nil, fmt.Errorf("create did registry rest operation : %w", err)
	}

	// data object REST operation
	dataObjectOp, err := dataobjectrest.New(ctx, notifier)
	if err != nil {
		return nil, fmt.Errorf("create data object rest operation : %w", err)
	}

	var allHandlers []rest.Handler
	allHandlers = append(allHandlers, didOp.GetRESTHandlers()...)
	allHandlers = append(allHandlers, dataObjectOp.GetRESTHandlers()...)

	nhp, ok := notifier.(handlerProvider)
	if ok {
		allHandlers = append(allHandlers, nhp.GetRESTHandlers()...)
	}

	return allHandlers, nil
}

type handlerProvider interface {
	GetRESTHandlers() []rest.Handler
}

// GetCommandHandlers returns all command handlers provided by controller.
func GetCommandHandlers(ctx *context.Provider, opts ...Opt) ([]command.Handler, error) {
	notifier := notifierOf(opts)

	didcmd, err := didregistrycmd.New(ctx, notifier)
	if err != nil {
		return nil, fmt.Errorf("create did registry command : %w", err)
	}

	objcmd, err := dataobjectcmd.New(ctx, notifier)
	if err != nil {
		return nil, fmt.Errorf("create data object command : %w", err)
	}

	var allHandlers []command.Handler
	allHandlers = append(allHandlers, didcmd.GetHandlers()...)
	allHandlers = append(allHandlers, objcmd.GetHandlers()...)

	return allHandlers, nil
}
