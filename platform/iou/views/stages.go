/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package views

import (
	"time"

	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
)

// Stage is the position of a transition attempt in its lifecycle
type Stage string

const (
	Building             Stage = "building"
	Validating           Stage = "validating"
	CollectingSignatures Stage = "collecting_signatures"
	Finalizing           Stage = "finalizing"
	Committed            Stage = "committed"
	Rejected             Stage = "rejected"
)

// attempt tracks the stages of one transition attempt run by the initiator
type attempt struct {
	command string
	log     logging.Logger
	stage   Stage
	start   time.Time
	m       *Metrics
}

func newAttempt(context view.Context, command string) *attempt {
	a := &attempt{
		command: command,
		log:     logger.With("context", context.ID(), "command", command),
		start:   time.Now(),
		m:       GetMetrics(context),
	}
	a.enter(Building)
	return a
}

func (a *attempt) enter(stage Stage) {
	a.log.Debugf("stage %s -> %s", a.stage, stage)
	a.stage = stage
	a.m.Transitions.With(CommandLabel, a.command, StageLabel, string(stage)).Add(1)
}

// done closes the attempt and returns err unchanged
func (a *attempt) done(err error) error {
	from := a.stage
	o := outcome(err)
	if err == nil {
		a.enter(Committed)
		a.log.Infof("attempt committed in %s", time.Since(a.start))
	} else {
		a.enter(Rejected)
		a.log.Warnf("attempt failed while %s: %s", from, err)
	}
	a.m.Outcomes.With(CommandLabel, a.command, OutcomeLabel, o).Add(1)
	a.m.Duration.With(CommandLabel, a.command, OutcomeLabel, o).Observe(time.Since(a.start).Seconds())
	return err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "committed"
	case errors.Is(err, driver.ErrPrecondition):
		return "precondition"
	case errors.Is(err, driver.ErrConflict):
		return "conflict"
	case errors.Is(err, driver.ErrRejected):
		return "rejected"
	case errors.Is(err, driver.ErrTransport):
		return "transport"
	default:
		return "failed"
	}
}
