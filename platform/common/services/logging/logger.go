/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logging

import (
	"net/http"
	"strings"
	"testing"

	"github.com/hyperledger/fabric-lib-go/common/flogging"
	"github.com/hyperledger/fabric-lib-go/common/flogging/floggingtest"
	"github.com/hyperledger/fabric-lib-go/common/flogging/httpadmin"
	"go.uber.org/zap/zapcore"
)

// Logger provides logging API
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	IsEnabledFor(level zapcore.Level) bool
	Named(name string) Logger
	With(args ...interface{}) Logger
}

type Recorder = floggingtest.Recorder

type Option = floggingtest.Option

// Config configures the logging system
type Config struct {
	// Format is the log record format. "json" selects JSON records, any
	// other value is passed to the fabric format encoder.
	Format string
	// LogSpec selects the log levels, for example "info:osc.iou=debug".
	LogSpec string
}

// replacers shorten package paths used as logger names
var replacers = map[string]string{
	"github.com.hyperledger-labs.obligation-smart-client.platform": "osc",
}

// MustGetLogger returns a logger with the given name.
// Package paths are shortened using the registered replacers.
func MustGetLogger(loggerName string) Logger {
	return &logger{FabricLogger: flogging.MustGetLogger(replace(loggerName))}
}

func NewTestLogger(tb testing.TB, options ...Option) (Logger, *Recorder) {
	l, r := floggingtest.NewTestLogger(tb, options...)
	return &logger{FabricLogger: l}, r
}

// NewSpecHandler returns the http handler to get and set the log spec at runtime
func NewSpecHandler() http.Handler {
	return httpadmin.NewSpecHandler()
}

func Init(c Config) {
	flogging.Init(flogging.Config{
		Format:  c.Format,
		LogSpec: c.LogSpec,
	})
}

func replace(name string) string {
	name = strings.ReplaceAll(name, "/", ".")
	for from, to := range replacers {
		if strings.HasPrefix(name, from) {
			return to + strings.TrimPrefix(name, from)
		}
	}
	return name
}

type logger struct {
	*flogging.FabricLogger
}

func (l *logger) Named(name string) Logger {
	return &logger{FabricLogger: l.FabricLogger.Named(name)}
}

func (l *logger) With(args ...interface{}) Logger {
	return &logger{FabricLogger: l.FabricLogger.With(args...)}
}
