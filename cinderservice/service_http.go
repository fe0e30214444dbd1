// Cinder double - HTTP API implementation.

package cinderservice

import (
	"encoding/json"
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"
)

const authToken = "X-Auth-Token"

func (c *Cinder) resolveTenant(w http.ResponseWriter, r *http.Request) (int, bool) {
	value := r.Header.Get(authToken)
	if value == "" {
		w.WriteHeader(http.StatusForbidden)
		return 0, false
	}
	token, err := c.identity.ValidateToken(value)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return 0, false
	}
	return token.TenantId, true
}

// ServeHTTP dispatches /cinder/v1/volumes[/<id>] requests.
func (c *Cinder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tenantId, ok := c.resolveTenant(w, r)
	if !ok {
		return
	}
	path := strings.TrimPrefix(r.URL.Path, versionPath)
	if path == "volumes" {
		c.serveVolumes(w, r, tenantId)
		return
	}
	if path == "snapshots" {
		c.serveSnapshots(w, r, tenantId)
		return
	}
	if idPart := strings.TrimPrefix(path, "volumes/"); idPart != path {
		if volumeId, err := strconv.Atoi(idPart); err == nil {
			c.serveVolume(w, r, tenantId, volumeId)
			return
		}
	}
	if idPart := strings.TrimPrefix(path, "snapshots/"); idPart != path {
		if snapshotId, err := strconv.Atoi(idPart); err == nil {
			c.serveSnapshot(w, r, tenantId, snapshotId)
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (c *Cinder) serveVolumes(w http.ResponseWriter, r *http.Request, tenantId int) {
	switch r.Method {
	case "GET":
		sendJSON(w, http.StatusOK, map[string][]Volume{"volumes": c.ListVolumes(tenantId)})
	case "POST":
		var doc struct {
			Volume struct {
				Name string `json:"display_name"`
				Size int    `json:"size"`
			} `json:"volume"`
		}
		content, err := ioutil.ReadAll(r.Body)
		if err != nil || json.Unmarshal(content, &doc) != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		volumeId := c.AddVolume(tenantId, doc.Volume.Name, doc.Volume.Size)
		volume, _ := c.GetVolume(tenantId, volumeId)
		sendJSON(w, http.StatusAccepted, map[string]*Volume{"volume": volume})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (c *Cinder) serveVolume(w http.ResponseWriter, r *http.Request, tenantId, volumeId int) {
	switch r.Method {
	case "GET":
		volume, err := c.GetVolume(tenantId, volumeId)
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		sendJSON(w, http.StatusOK, map[string]*Volume{"volume": volume})
	case "DELETE":
		if err := c.RemoveVolume(tenantId, volumeId); err != nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (c *Cinder) serveSnapshots(w http.ResponseWriter, r *http.Request, tenantId int) {
	switch r.Method {
	case "GET":
		sendJSON(w, http.StatusOK, map[string][]Snapshot{"snapshots": c.ListSnapshots(tenantId)})
	case "POST":
		var doc struct {
			Snapshot struct {
				VolumeId int    `json:"volume_id"`
				Name     string `json:"display_name"`
			} `json:"snapshot"`
		}
		content, err := ioutil.ReadAll(r.Body)
		if err != nil || json.Unmarshal(content, &doc) != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		snapshotId, err := c.AddSnapshot(tenantId, doc.Snapshot.VolumeId, doc.Snapshot.Name)
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		for _, snapshot := range c.ListSnapshots(tenantId) {
			if snapshot.Id == snapshotId {
				sendJSON(w, http.StatusAccepted, map[string]Snapshot{"snapshot": snapshot})
				return
			}
		}
		w.WriteHeader(http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (c *Cinder) serveSnapshot(w http.ResponseWriter, r *http.Request, tenantId, snapshotId int) {
	if r.Method != "DELETE" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := c.RemoveSnapshot(tenantId, snapshotId); err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusAccepted)
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
func (c *Cinder) SetupHTTP(mux *http.ServeMux) {
	mux.Handle(versionPath, c)
}
