// Swift double - HTTP API implementation.

package swiftservice

import (
	"encoding/json"
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"
)

const authToken = "X-Auth-Token"
const metaPrefix = "X-Object-Meta-"

// resolveTenant validates the auth token and returns the caller's
// tenant id: 403 when the header is missing, 401 when the token fails
// validation.
func (s *Swift) resolveTenant(w http.ResponseWriter, r *http.Request) (int, bool) {
	value := r.Header.Get(authToken)
	if value == "" {
		w.WriteHeader(http.StatusForbidden)
		return 0, false
	}
	token, err := s.identity.ValidateToken(value)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return 0, false
	}
	return token.TenantId, true
}

// ServeHTTP dispatches /swift/v1/<container>[/<object>] requests.
func (s *Swift) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tenantId, ok := s.resolveTenant(w, r)
	if !ok {
		return
	}
	path := strings.TrimPrefix(r.URL.Path, strings.TrimSuffix(versionPath, "/"))
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		s.serveAccount(w, r, tenantId)
		return
	}
	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 1 || parts[1] == "" {
		s.serveContainer(w, r, tenantId, parts[0])
		return
	}
	s.serveObject(w, r, tenantId, parts[0], parts[1])
}

func (s *Swift) serveAccount(w http.ResponseWriter, r *http.Request, tenantId int) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	names := s.ListContainers(tenantId)
	if names == nil {
		names = []string{}
	}
	sendJSON(w, http.StatusOK, names)
}

func (s *Swift) serveContainer(w http.ResponseWriter, r *http.Request, tenantId int, name string) {
	switch r.Method {
	case "GET":
		contents, err := s.ListContainer(tenantId, name)
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		sendJSON(w, http.StatusOK, contents)
	case "PUT":
		if err := s.AddContainer(tenantId, name); err != nil {
			// Already exists.
			w.WriteHeader(http.StatusAccepted)
			return
		}
		w.WriteHeader(http.StatusCreated)
	case "DELETE":
		if err := s.RemoveContainer(tenantId, name); err != nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Swift) serveObject(w http.ResponseWriter, r *http.Request, tenantId int, containerName, name string) {
	switch r.Method {
	case "GET", "HEAD":
		obj, err := s.GetObject(tenantId, containerName, name)
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", obj.ContentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
		w.Header().Set("Etag", obj.Hash)
		w.Header().Set("Last-Modified", obj.LastModified.UTC().Format(http.TimeFormat))
		for k, v := range obj.Metadata {
			w.Header().Set(metaPrefix+k, v)
		}
		w.WriteHeader(http.StatusOK)
		if r.Method == "GET" {
			w.Write(obj.Data)
		}
	case "PUT":
		data, err := ioutil.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		metadata := make(map[string]string)
		for header, values := range r.Header {
			if strings.HasPrefix(header, metaPrefix) && len(values) > 0 {
				metadata[strings.TrimPrefix(header, metaPrefix)] = values[0]
			}
		}
		if err := s.PutObject(tenantId, containerName, name, data, r.Header.Get("Content-Type"), metadata); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		obj, _ := s.GetObject(tenantId, containerName, name)
		w.Header().Set("Etag", obj.Hash)
		w.WriteHeader(http.StatusCreated)
	case "DELETE":
		if err := s.RemoveObject(tenantId, containerName, name); err != nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func sendJSON(w http.ResponseWriter, code int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(code)
	w.Write(body)
}

// SetupHTTP attaches all the needed handlers to provide the HTTP API.
func (s *Swift) SetupHTTP(mux *http.ServeMux) {
	mux.Handle(versionPath, s)
	mux.Handle(strings.TrimSuffix(versionPath, "/"), s)
}
