/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package middleware_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/server/web/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// trace records entering and leaving name
func trace(name string, visited *[]string) middleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*visited = append(*visited, "enter "+name)
			next.ServeHTTP(w, r)
			*visited = append(*visited, "leave "+name)
		})
	}
}

var _ = Describe("Chain", func() {
	var (
		visited []string
		handler http.Handler
		resp    *httptest.ResponseRecorder
	)

	BeforeEach(func() {
		visited = nil
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			visited = append(visited, "handler")
			fmt.Fprintf(w, "id=%s", middleware.RequestID(r.Context()))
		})
		resp = httptest.NewRecorder()
	})

	It("wraps the handler with the first middleware outermost", func() {
		chain := middleware.NewChain(trace("outer", &visited), trace("inner", &visited))
		chain.Handler(handler).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(strings.Join(visited, ",")).To(Equal("enter outer,enter inner,handler,leave inner,leave outer"))
	})

	It("exposes the request id to the handlers after WithRequestID", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.RequestIDHeader, "abc")
		middleware.NewChain(middleware.WithRequestID(), trace("t", &visited)).Handler(handler).ServeHTTP(resp, req)
		Expect(resp.Body.String()).To(Equal("id=abc"))
		Expect(resp.Header().Get(middleware.RequestIDHeader)).To(Equal("abc"))
	})

	It("calls the handler directly when empty", func() {
		middleware.NewChain().Handler(handler).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(visited).To(Equal([]string{"handler"}))
	})

	It("falls back to the DefaultServeMux without a handler", func() {
		middleware.NewChain(trace("t", &visited)).Handler(nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/nothing-here", nil))
		Expect(resp.Code).To(Equal(http.StatusNotFound))
		Expect(visited).To(Equal([]string{"enter t", "leave t"}))
	})
})
