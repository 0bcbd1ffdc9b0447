/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package diag

import (
	"bytes"
	"runtime/pprof"

	"github.com/pkg/errors"
)

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// CaptureGoRoutines returns the stack of every goroutine
func CaptureGoRoutines() (string, error) {
	var buf bytes.Buffer
	if err := pprof.Lookup("goroutine").WriteTo(&buf, 2); err != nil {
		return "", errors.Wrap(err, "failed capturing goroutines")
	}
	return buf.String(), nil
}

func LogGoRoutines(l Logger) {
	output, err := CaptureGoRoutines()
	if err != nil {
		l.Errorf("failed to capture go routines: %s", err)
		return
	}
	l.Infof("Go routines report:\n%s", output)
}
