/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package events

import (
	"reflect"

	"github.com/hyperledger-labs/obligation-smart-client/platform/view/driver"
	"github.com/pkg/errors"
)

// Event models an event published on a topic
type Event interface {
	Topic() string
	Message() interface{}
}

// Listener is notified of the events published on the topics it subscribed to
type Listener interface {
	OnReceive(event Event)
}

type Publisher interface {
	Publish(event Event)
}

type Subscriber interface {
	Subscribe(topic string, receiver Listener)
	Unsubscribe(topic string, receiver Listener)
}

type EventSystem interface {
	Publisher
	Subscriber
}

var eventSystemType = reflect.TypeOf((*EventSystem)(nil))

func getEventSystem(sp driver.ServiceProvider) (EventSystem, error) {
	s, err := sp.GetService(eventSystemType)
	if err != nil {
		return nil, errors.Wrap(err, "cannot get event system from registry")
	}
	return s.(EventSystem), nil
}

func GetSubscriber(sp driver.ServiceProvider) (Subscriber, error) {
	s, err := getEventSystem(sp)
	if err != nil {
		return nil, errors.Wrap(err, "cannot get subscriber")
	}
	return s, nil
}

func GetPublisher(sp driver.ServiceProvider) (Publisher, error) {
	s, err := getEventSystem(sp)
	if err != nil {
		return nil, errors.Wrap(err, "cannot get publisher")
	}
	return s, nil
}
