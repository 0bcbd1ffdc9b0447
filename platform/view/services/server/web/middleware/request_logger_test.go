/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package middleware_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/server/web/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recordingLogger struct {
	lock    sync.Mutex
	entries []string
}

func (l *recordingLogger) record(template string, args ...interface{}) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.entries = append(l.entries, fmt.Sprintf(template, args...))
}

func (l *recordingLogger) Debugf(template string, args ...interface{}) { l.record(template, args...) }
func (l *recordingLogger) Infof(template string, args ...interface{})  { l.record(template, args...) }
func (l *recordingLogger) Errorf(template string, args ...interface{}) { l.record(template, args...) }

func (l *recordingLogger) Entries() []string {
	l.lock.Lock()
	defer l.lock.Unlock()
	return append([]string{}, l.entries...)
}

var _ = Describe("RequestLogger", func() {
	var (
		l     *recordingLogger
		chain middleware.Chain
		resp  *httptest.ResponseRecorder
	)

	BeforeEach(func() {
		l = &recordingLogger{}
		chain = middleware.NewChain(middleware.WithRequestID(), middleware.WithRequestLogger(l))
		resp = httptest.NewRecorder()
	})

	It("logs method, path, status and request id", func() {
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(middleware.RequestID(r.Context())).To(Equal("req-1"))
			w.WriteHeader(http.StatusTeapot)
		})
		req := httptest.NewRequest(http.MethodGet, "/api/alice/me", nil)
		req.Header.Set(middleware.RequestIDHeader, "req-1")

		chain.Handler(h).ServeHTTP(resp, req)

		Expect(resp.Code).To(Equal(http.StatusTeapot))
		Expect(resp.Header().Get(middleware.RequestIDHeader)).To(Equal("req-1"))
		Expect(l.Entries()).To(ConsistOf(HavePrefix("[req-1] GET /api/alice/me 418")))
	})

	It("generates a request id when the client sends none", func() {
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
		chain.Handler(h).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(resp.Code).To(Equal(http.StatusOK))
		Expect(resp.Header().Get(middleware.RequestIDHeader)).NotTo(BeEmpty())
	})

	Context("when the handler panics", func() {
		It("answers 500 and logs the panic", func() {
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic("boom")
			})
			chain.Handler(h).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/boom", nil))

			Expect(resp.Code).To(Equal(http.StatusInternalServerError))
			Expect(l.Entries()).To(ConsistOf(ContainSubstring("POST /boom panicked: boom")))
		})
	})
})
