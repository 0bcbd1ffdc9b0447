/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package simple

import (
	"testing"

	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/events"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Test simple event system")
}

type message struct {
	topic string
	body  string
}

func (m *message) Topic() string        { return m.topic }
func (m *message) Message() interface{} { return m.body }

type recorder struct {
	received []events.Event
}

func (r *recorder) OnReceive(event events.Event) {
	r.received = append(r.received, event)
}

var _ = Describe("Event system", func() {
	var (
		bus      *EventBus
		listener *recorder
	)

	BeforeEach(func() {
		bus = NewEventBus()
		listener = &recorder{}
	})

	When("subscribing to a topic", func() {
		It("delivers only the events of that topic", func() {
			bus.Subscribe("iou.committed", listener)
			bus.Publish(&message{topic: "iou.committed", body: "a"})
			bus.Publish(&message{topic: "cash.issued", body: "b"})
			bus.Publish(nil)

			Expect(listener.received).To(HaveLen(1))
			Expect(listener.received[0].Message()).To(Equal("a"))
		})

		It("ignores nil listeners", func() {
			bus.Subscribe("iou.committed", nil)
			Expect(bus.handlers).To(BeEmpty())
		})
	})

	When("unsubscribing", func() {
		It("stops delivering and removes empty topics", func() {
			other := &recorder{}
			bus.Subscribe("iou.committed", listener)
			bus.Subscribe("iou.committed", other)

			bus.Unsubscribe("iou.committed", listener)
			bus.Unsubscribe("unknown", listener)
			bus.Publish(&message{topic: "iou.committed", body: "a"})
			Expect(listener.received).To(BeEmpty())
			Expect(other.received).To(HaveLen(1))

			bus.Unsubscribe("iou.committed", other)
			Expect(bus.handlers).To(BeEmpty())
		})
	})
})
