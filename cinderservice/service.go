// Cinder double - minimal volume stub.
//
// Exists so test suites can exercise a multi-service catalog and
// cross-service token validation; the volume model is deliberately
// shallow.

package cinderservice

import (
	"fmt"
	"sync"

	"github.com/juju/loggo"

	"github.com/go-mockstack/mockstack/identityservice"
)

var logger = loggo.GetLogger("mockstack.cinderservice")

// versionPath prefixes every Cinder URL.
const versionPath = "/cinder/v1/"

// Volume is one volume row, scoped to a tenant.
type Volume struct {
	Id     int    `json:"id"`
	Name   string `json:"display_name"`
	Size   int    `json:"size"`
	Status string `json:"status"`
}

// Snapshot is one point-in-time copy of a volume.
type Snapshot struct {
	Id       int    `json:"id"`
	VolumeId int    `json:"volume_id"`
	Name     string `json:"display_name"`
	Status   string `json:"status"`
}

// Cinder is the volume service double. Like the identity aggregate,
// all state sits behind one coarse mutex; the HTTP layer serves each
// connection on its own goroutine.
type Cinder struct {
	identity identityservice.TokenValidator

	mu        sync.Mutex
	nextId    int
	volumes   map[int][]Volume
	snapshots map[int][]Snapshot
}

// New creates a Cinder double validating caller tokens against the
// given identity service.
func New(identity identityservice.TokenValidator) *Cinder {
	return &Cinder{
		identity:  identity,
		volumes:   make(map[int][]Volume),
		snapshots: make(map[int][]Snapshot),
	}
}

// AddVolume creates a volume for the tenant and returns its id.
func (c *Cinder) AddVolume(tenantId int, name string, size int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextId++
	c.volumes[tenantId] = append(c.volumes[tenantId], Volume{
		Id:     c.nextId,
		Name:   name,
		Size:   size,
		Status: "available",
	})
	logger.Debugf("created volume %d (%q) for tenant %d", c.nextId, name, tenantId)
	return c.nextId
}

// ListVolumes returns the tenant's volumes in creation order.
func (c *Cinder) ListVolumes(tenantId int) []Volume {
	c.mu.Lock()
	defer c.mu.Unlock()
	all := make([]Volume, len(c.volumes[tenantId]))
	copy(all, c.volumes[tenantId])
	return all
}

func (c *Cinder) getVolume(tenantId, volumeId int) (*Volume, error) {
	for _, v := range c.volumes[tenantId] {
		if v.Id == volumeId {
			vol := v
			return &vol, nil
		}
	}
	return nil, fmt.Errorf("no volume with id %d", volumeId)
}

// GetVolume returns the tenant's volume with the given id.
func (c *Cinder) GetVolume(tenantId, volumeId int) (*Volume, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getVolume(tenantId, volumeId)
}

// RemoveVolume deletes the tenant's volume with the given id.
func (c *Cinder) RemoveVolume(tenantId, volumeId int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	vols := c.volumes[tenantId]
	for i := range vols {
		if vols[i].Id == volumeId {
			c.volumes[tenantId] = append(vols[:i], vols[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no volume with id %d", volumeId)
}

// AddSnapshot creates a snapshot of an existing volume and returns its
// id. Ids are shared with volumes, from the same sequence.
func (c *Cinder) AddSnapshot(tenantId, volumeId int, name string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.getVolume(tenantId, volumeId); err != nil {
		return 0, err
	}
	c.nextId++
	c.snapshots[tenantId] = append(c.snapshots[tenantId], Snapshot{
		Id:       c.nextId,
		VolumeId: volumeId,
		Name:     name,
		Status:   "available",
	})
	return c.nextId, nil
}

// ListSnapshots returns the tenant's snapshots in creation order.
func (c *Cinder) ListSnapshots(tenantId int) []Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	all := make([]Snapshot, len(c.snapshots[tenantId]))
	copy(all, c.snapshots[tenantId])
	return all
}

// RemoveSnapshot deletes the tenant's snapshot with the given id.
func (c *Cinder) RemoveSnapshot(tenantId, snapshotId int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	snaps := c.snapshots[tenantId]
	for i := range snaps {
		if snaps[i].Id == snapshotId {
			c.snapshots[tenantId] = append(snaps[:i], snaps[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no snapshot with id %d", snapshotId)
}

// Endpoints implements identityservice.ServiceProvider.
func (c *Cinder) Endpoints() []identityservice.EndpointTemplate {
	return []identityservice.EndpointTemplate{{
		Region:    "mock",
		VersionId: "1",
		Urls: map[string]string{
			"publicURL": "https://{0}" + versionPath,
		},
	}}
}
