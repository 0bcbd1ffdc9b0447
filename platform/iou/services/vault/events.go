/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vault

import "github.com/hyperledger-labs/obligation-smart-client/platform/iou/states"

// CommittedTopic is the topic committed transactions are published on
const CommittedTopic = "iou.committed"

// Committed describes what a committed transaction changed in the vault
type Committed struct {
	TxID     string               `json:"txId"`
	Command  string               `json:"command"`
	LinearID string               `json:"linearId"`
	Consumed []states.StateRef    `json:"consumed,omitempty"`
	Produced []states.StateAndRef `json:"produced,omitempty"`
}

type CommittedEvent struct {
	Committed Committed
}

func (e *CommittedEvent) Topic() string {
	return CommittedTopic
}

func (e *CommittedEvent) Message() interface{} {
	return e.Committed
}
