// Package httpsuite supplies a gocheck suite managing a test HTTP
// server whose handler can be swapped per test via the Mux field.

package httpsuite

import (
	"net/http"
	"net/http/httptest"

	gc "gopkg.in/check.v1"
)

// HTTPSuite runs one httptest server for the whole suite and gives
// every test a fresh ServeMux to attach handlers to.
type HTTPSuite struct {
	Server     *httptest.Server
	Mux        *http.ServeMux
	oldHandler http.Handler
	UseTLS     bool
}

func (s *HTTPSuite) SetUpSuite(c *gc.C) {
	if s.UseTLS {
		s.Server = httptest.NewTLSServer(nil)
	} else {
		s.Server = httptest.NewServer(nil)
	}
}

func (s *HTTPSuite) SetUpTest(c *gc.C) {
	s.oldHandler = s.Server.Config.Handler
	s.Mux = http.NewServeMux()
	s.Server.Config.Handler = s.Mux
}

func (s *HTTPSuite) TearDownTest(c *gc.C) {
	s.Mux = nil
	s.Server.Config.Handler = s.oldHandler
}

func (s *HTTPSuite) TearDownSuite(c *gc.C) {
	if s.Server != nil {
		s.Server.Close()
	}
}
