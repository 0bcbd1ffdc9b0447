/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package views

import (
	"sync"

	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/services/vault"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/events"
)

const notificationBuffer = 16

// Notifier fans the committed changes of the local vault out to any number of subscribers.
// A subscriber that does not keep up loses notifications, it never blocks the vault.
type Notifier struct {
	lock        sync.RWMutex
	subscribers map[int]chan vault.Committed
	next        int
	subscriber  events.Subscriber
}

// NewNotifier returns a notifier listening on the passed subscriber
func NewNotifier(subscriber events.Subscriber) *Notifier {
	n := &Notifier{
		subscribers: map[int]chan vault.Committed{},
		subscriber:  subscriber,
	}
	subscriber.Subscribe(vault.CommittedTopic, n)
	return n
}

// Subscribe returns a channel of committed changes and the function that closes it
func (n *Notifier) Subscribe() (<-chan vault.Committed, func()) {
	n.lock.Lock()
	defer n.lock.Unlock()

	id := n.next
	n.next++
	ch := make(chan vault.Committed, notificationBuffer)
	n.subscribers[id] = ch

	return ch, func() {
		n.lock.Lock()
		defer n.lock.Unlock()
		if _, ok := n.subscribers[id]; ok {
			delete(n.subscribers, id)
			close(ch)
		}
	}
}

func (n *Notifier) OnReceive(event events.Event) {
	c, ok := event.Message().(vault.Committed)
	if !ok {
		logger.Warnf("unexpected message on [%s]: %T", event.Topic(), event.Message())
		return
	}
	n.lock.RLock()
	defer n.lock.RUnlock()
	for id, ch := range n.subscribers {
		select {
		case ch <- c:
		default:
			logger.Warnf("subscriber [%d] is lagging, dropping notification of [%s]", id, c.TxID)
		}
	}
}

// Close detaches the notifier from the event bus and closes every subscription
func (n *Notifier) Close() {
	n.subscriber.Unsubscribe(vault.CommittedTopic, n)
	n.lock.Lock()
	defer n.lock.Unlock()
	for id, ch := range n.subscribers {
		delete(n.subscribers, id)
		close(ch)
	}
}

// LogListener logs every committed change
type LogListener struct{}

func (l *LogListener) OnReceive(event events.Event) {
	c, ok := event.Message().(vault.Committed)
	if !ok {
		return
	}
	logger.Infof("committed [%s] %s of obligation [%s], %d consumed, %d produced", c.TxID, c.Command, c.LinearID, len(c.Consumed), len(c.Produced))
}
