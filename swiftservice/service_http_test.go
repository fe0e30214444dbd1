// Swift double - HTTP API tests.

package swiftservice

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"time"

	gc "gopkg.in/check.v1"

	"github.com/go-mockstack/mockstack/identityservice"
	"github.com/go-mockstack/mockstack/testing/httpsuite"
)

type SwiftHTTPSuite struct {
	httpsuite.HTTPSuite
	identity *identityservice.IdentityModel
	service  *Swift
	token    string
}

var _ = gc.Suite(&SwiftHTTPSuite{})

func (s *SwiftHTTPSuite) SetUpTest(c *gc.C) {
	s.HTTPSuite.SetUpTest(c)
	s.identity = identityservice.NewIdentityModel("test.local")
	s.service = New("test.local", s.identity)
	s.service.SetupHTTP(s.Mux)

	tenantId := s.identity.AddTenant("neo", "", true)
	userId, err := s.identity.AddUser(tenantId, "trinity", "", "", "", true)
	c.Assert(err, gc.IsNil)
	s.token, err = s.identity.AddToken(tenantId, userId, time.Time{}, "")
	c.Assert(err, gc.IsNil)
}

func (s *SwiftHTTPSuite) do(c *gc.C, method, path, token string, body []byte, headers map[string]string) *http.Response {
	request, err := http.NewRequest(method, s.Server.URL+path, bytes.NewReader(body))
	c.Assert(err, gc.IsNil)
	if token != "" {
		request.Header.Set("X-Auth-Token", token)
	}
	for k, v := range headers {
		request.Header.Set(k, v)
	}
	response, err := http.DefaultClient.Do(request)
	c.Assert(err, gc.IsNil)
	return response
}

func (s *SwiftHTTPSuite) TestMissingTokenIsForbidden(c *gc.C) {
	response := s.do(c, "GET", "/swift/v1", "", nil, nil)
	c.Assert(response.StatusCode, gc.Equals, http.StatusForbidden)
	response.Body.Close()
}

func (s *SwiftHTTPSuite) TestBadTokenIsUnauthorized(c *gc.C) {
	response := s.do(c, "GET", "/swift/v1", "not-a-token", nil, nil)
	c.Assert(response.StatusCode, gc.Equals, http.StatusUnauthorized)
	response.Body.Close()
}

func (s *SwiftHTTPSuite) TestListAccount(c *gc.C) {
	tenantId := s.tenantId(c)
	c.Assert(s.service.AddContainer(tenantId, "beta"), gc.IsNil)
	c.Assert(s.service.AddContainer(tenantId, "alpha"), gc.IsNil)

	response := s.do(c, "GET", "/swift/v1", s.token, nil, nil)
	c.Assert(response.StatusCode, gc.Equals, http.StatusOK)
	var names []string
	decodeBody(c, response, &names)
	c.Check(names, gc.DeepEquals, []string{"alpha", "beta"})
}

func (s *SwiftHTTPSuite) TestListAccountEmpty(c *gc.C) {
	response := s.do(c, "GET", "/swift/v1/", s.token, nil, nil)
	c.Assert(response.StatusCode, gc.Equals, http.StatusOK)
	var names []string
	decodeBody(c, response, &names)
	c.Check(names, gc.HasLen, 0)
}

func (s *SwiftHTTPSuite) TestCreateContainer(c *gc.C) {
	response := s.do(c, "PUT", "/swift/v1/test", s.token, nil, nil)
	c.Assert(response.StatusCode, gc.Equals, http.StatusCreated)
	response.Body.Close()
	c.Check(s.service.HasContainer(s.tenantId(c), "test"), gc.Equals, true)

	// Creating again is accepted, not an error.
	response = s.do(c, "PUT", "/swift/v1/test", s.token, nil, nil)
	c.Assert(response.StatusCode, gc.Equals, http.StatusAccepted)
	response.Body.Close()
}

func (s *SwiftHTTPSuite) TestDeleteContainer(c *gc.C) {
	c.Assert(s.service.AddContainer(s.tenantId(c), "test"), gc.IsNil)
	response := s.do(c, "DELETE", "/swift/v1/test", s.token, nil, nil)
	c.Assert(response.StatusCode, gc.Equals, http.StatusNoContent)
	response.Body.Close()

	response = s.do(c, "DELETE", "/swift/v1/test", s.token, nil, nil)
	c.Assert(response.StatusCode, gc.Equals, http.StatusNotFound)
	response.Body.Close()
}

func (s *SwiftHTTPSuite) TestListContainer(c *gc.C) {
	tenantId := s.tenantId(c)
	err := s.service.AddObject(tenantId, "test", "obj", []byte("hello"), "text/plain", nil)
	c.Assert(err, gc.IsNil)

	response := s.do(c, "GET", "/swift/v1/test", s.token, nil, nil)
	c.Assert(response.StatusCode, gc.Equals, http.StatusOK)
	var contents []ContainerContents
	decodeBody(c, response, &contents)
	c.Assert(contents, gc.HasLen, 1)
	c.Check(contents[0].Name, gc.Equals, "obj")
	c.Check(contents[0].LengthBytes, gc.Equals, 5)
	c.Check(contents[0].ContentType, gc.Equals, "text/plain")
}

func (s *SwiftHTTPSuite) TestPutAndGetObject(c *gc.C) {
	response := s.do(c, "PUT", "/swift/v1/test/obj", s.token, []byte("hello"),
		map[string]string{
			"Content-Type":      "text/plain",
			"X-Object-Meta-Tag": "demo",
		})
	c.Assert(response.StatusCode, gc.Equals, http.StatusCreated)
	c.Check(response.Header.Get("Etag"), gc.Equals, "5d41402abc4b2a76b9719d911017c592")
	response.Body.Close()

	response = s.do(c, "GET", "/swift/v1/test/obj", s.token, nil, nil)
	c.Assert(response.StatusCode, gc.Equals, http.StatusOK)
	c.Check(response.Header.Get("Content-Type"), gc.Equals, "text/plain")
	c.Check(response.Header.Get("Etag"), gc.Equals, "5d41402abc4b2a76b9719d911017c592")
	c.Check(response.Header.Get("X-Object-Meta-Tag"), gc.Equals, "demo")
	data, err := ioutil.ReadAll(response.Body)
	response.Body.Close()
	c.Assert(err, gc.IsNil)
	c.Check(string(data), gc.Equals, "hello")
}

func (s *SwiftHTTPSuite) TestHeadObject(c *gc.C) {
	err := s.service.AddObject(s.tenantId(c), "test", "obj", []byte("hello"), "", nil)
	c.Assert(err, gc.IsNil)
	response := s.do(c, "HEAD", "/swift/v1/test/obj", s.token, nil, nil)
	c.Assert(response.StatusCode, gc.Equals, http.StatusOK)
	c.Check(response.Header.Get("Etag"), gc.Not(gc.Equals), "")
	data, err := ioutil.ReadAll(response.Body)
	response.Body.Close()
	c.Assert(err, gc.IsNil)
	c.Check(data, gc.HasLen, 0)
}

func (s *SwiftHTTPSuite) TestGetObjectNotFound(c *gc.C) {
	response := s.do(c, "GET", "/swift/v1/test/missing", s.token, nil, nil)
	c.Assert(response.StatusCode, gc.Equals, http.StatusNotFound)
	response.Body.Close()
}

func (s *SwiftHTTPSuite) TestDeleteObject(c *gc.C) {
	err := s.service.AddObject(s.tenantId(c), "test", "obj", []byte("hello"), "", nil)
	c.Assert(err, gc.IsNil)
	response := s.do(c, "DELETE", "/swift/v1/test/obj", s.token, nil, nil)
	c.Assert(response.StatusCode, gc.Equals, http.StatusNoContent)
	response.Body.Close()

	response = s.do(c, "DELETE", "/swift/v1/test/obj", s.token, nil, nil)
	c.Assert(response.StatusCode, gc.Equals, http.StatusNotFound)
	response.Body.Close()
}

func (s *SwiftHTTPSuite) TestMethodNotAllowed(c *gc.C) {
	response := s.do(c, "POST", "/swift/v1/test", s.token, nil, nil)
	c.Assert(response.StatusCode, gc.Equals, http.StatusMethodNotAllowed)
	response.Body.Close()
}

func (s *SwiftHTTPSuite) tenantId(c *gc.C) int {
	token, err := s.identity.ValidateToken(s.token)
	c.Assert(err, gc.IsNil)
	return token.TenantId
}

func decodeBody(c *gc.C, response *http.Response, v interface{}) {
	content, err := ioutil.ReadAll(response.Body)
	response.Body.Close()
	c.Assert(err, gc.IsNil)
	c.Assert(json.Unmarshal(content, v), gc.IsNil, gc.Commentf("body: %s", content))
}
