/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package simple

import (
	"sync"

	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/events"
)

type eventHandler struct {
	receiver events.Listener
}

// EventBus delivers events synchronously to the listeners of their topic
type EventBus struct {
	handlers map[string][]*eventHandler
	lock     sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[string][]*eventHandler),
	}
}

func (e *EventBus) Publish(event events.Event) {
	if event == nil {
		return
	}
	e.lock.RLock()
	subs := append([]*eventHandler(nil), e.handlers[event.Topic()]...)
	e.lock.RUnlock()

	for _, sub := range subs {
		sub.receiver.OnReceive(event)
	}
}

func (e *EventBus) Subscribe(topic string, receiver events.Listener) {
	if receiver == nil {
		return
	}
	e.lock.Lock()
	defer e.lock.Unlock()

	e.handlers[topic] = append(e.handlers[topic], &eventHandler{receiver: receiver})
}

func (e *EventBus) Unsubscribe(topic string, receiver events.Listener) {
	if receiver == nil {
		return
	}
	e.lock.Lock()
	defer e.lock.Unlock()

	handlers, ok := e.handlers[topic]
	if !ok {
		return
	}
	idx := findIndex(handlers, receiver)
	if idx == -1 {
		return
	}
	handlers = append(handlers[:idx:idx], handlers[idx+1:]...)
	if len(handlers) > 0 {
		e.handlers[topic] = handlers
	} else {
		delete(e.handlers, topic)
	}
}

// findIndex returns the position of receiver in handlers, -1 if not found
func findIndex(handlers []*eventHandler, receiver events.Listener) int {
	for i, h := range handlers {
		if h.receiver == receiver {
			return i
		}
	}
	return -1
}
