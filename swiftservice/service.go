// Swift double - internal direct API implementation.
//
// The store is a tenant -> container -> object tree. The identity
// double's only involvement is resolving a token to the tenant id that
// selects the tree. All access is serialized behind one coarse mutex,
// since the HTTP layer serves every connection on its own goroutine.

package swiftservice

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/juju/loggo"

	"github.com/go-mockstack/mockstack/identityservice"
)

var logger = loggo.GetLogger("mockstack.swiftservice")

// StoredObject is one blob plus its metadata.
type StoredObject struct {
	Data         []byte
	ContentType  string
	Hash         string
	LastModified time.Time
	// Metadata holds custom X-Object-Meta-* values, keyed without the
	// prefix.
	Metadata map[string]string
}

// ContainerContents describes one object in a container listing.
type ContainerContents struct {
	Name         string `json:"name"`
	Hash         string `json:"hash"`
	LengthBytes  int    `json:"bytes"`
	ContentType  string `json:"content_type"`
	LastModified string `json:"last_modified"`
}

type container map[string]*StoredObject

// Swift is the object-storage double.
type Swift struct {
	identity identityservice.TokenValidator
	baseHost string

	mu      sync.Mutex
	tenants map[int]map[string]container
}

// New creates a Swift double validating caller tokens against the
// given identity service.
func New(baseHost string, identity identityservice.TokenValidator) *Swift {
	return &Swift{
		identity: identity,
		baseHost: baseHost,
		tenants:  make(map[int]map[string]container),
	}
}

func (s *Swift) tenant(tenantId int) map[string]container {
	tree, ok := s.tenants[tenantId]
	if !ok {
		tree = make(map[string]container)
		s.tenants[tenantId] = tree
	}
	return tree
}

func (s *Swift) hasContainer(tenantId int, name string) bool {
	_, ok := s.tenant(tenantId)[name]
	return ok
}

// HasContainer verifies the given container exists or not.
func (s *Swift) HasContainer(tenantId int, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasContainer(tenantId, name)
}

func (s *Swift) addContainer(tenantId int, name string) error {
	if s.hasContainer(tenantId, name) {
		return fmt.Errorf("container already exists %q", name)
	}
	s.tenant(tenantId)[name] = make(container)
	return nil
}

// AddContainer creates a new container with the given name, if it
// does not exist. Otherwise an error is returned.
func (s *Swift) AddContainer(tenantId int, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addContainer(tenantId, name)
}

// ListContainers returns the names of the tenant's containers, sorted.
func (s *Swift) ListContainers(tenantId int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for name := range s.tenant(tenantId) {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListContainer lists the objects in the given container.
func (s *Swift) ListContainer(tenantId int, name string) ([]ContainerContents, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, ok := s.tenant(tenantId)[name]
	if !ok {
		return nil, fmt.Errorf("no such container %q", name)
	}
	contents := make([]ContainerContents, 0, len(items))
	for k, v := range items {
		contents = append(contents, ContainerContents{
			Name:         k,
			Hash:         v.Hash,
			LengthBytes:  len(v.Data),
			ContentType:  v.ContentType,
			LastModified: v.LastModified.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	sort.Slice(contents, func(i, j int) bool {
		return contents[i].Name < contents[j].Name
	})
	return contents, nil
}

func (s *Swift) getObject(tenantId int, containerName, name string) (*StoredObject, error) {
	obj, ok := s.tenant(tenantId)[containerName][name]
	if !ok {
		return nil, fmt.Errorf("no such object %q in container %q", name, containerName)
	}
	return obj, nil
}

// GetObject retrieves a given object from its container.
func (s *Swift) GetObject(tenantId int, containerName, name string) (*StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getObject(tenantId, containerName, name)
}

// AddObject creates a new object with the given name in the specified
// container, setting the object's data and metadata. It's an error if
// the object already exists. If the container does not exist, it will
// be created.
func (s *Swift) AddObject(tenantId int, containerName, name string, data []byte, contentType string, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.getObject(tenantId, containerName, name); err == nil {
		return fmt.Errorf("object %q in container %q already exists", name, containerName)
	}
	return s.putObject(tenantId, containerName, name, data, contentType, metadata)
}

func (s *Swift) putObject(tenantId int, containerName, name string, data []byte, contentType string, metadata map[string]string) error {
	if !s.hasContainer(tenantId, containerName) {
		if err := s.addContainer(tenantId, containerName); err != nil {
			return err
		}
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if metadata == nil {
		metadata = make(map[string]string)
	}
	sum := md5.Sum(data)
	s.tenant(tenantId)[containerName][name] = &StoredObject{
		Data:         data,
		ContentType:  contentType,
		Hash:         hex.EncodeToString(sum[:]),
		LastModified: time.Now().UTC(),
		Metadata:     metadata,
	}
	logger.Tracef("stored object %q/%q for tenant %d (%d bytes)",
		containerName, name, tenantId, len(data))
	return nil
}

// PutObject stores the object, replacing any existing one of the same
// name. The container is created on demand.
func (s *Swift) PutObject(tenantId int, containerName, name string, data []byte, contentType string, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putObject(tenantId, containerName, name, data, contentType, metadata)
}

// RemoveContainer deletes an existing container with the given name.
func (s *Swift) RemoveContainer(tenantId int, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasContainer(tenantId, name) {
		return fmt.Errorf("no such container %q", name)
	}
	delete(s.tenant(tenantId), name)
	return nil
}

// RemoveObject deletes an existing object in a given container.
func (s *Swift) RemoveObject(tenantId int, containerName, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.getObject(tenantId, containerName, name); err != nil {
		return err
	}
	delete(s.tenant(tenantId)[containerName], name)
	return nil
}

// GetURL returns the full URL, which can be used to GET the object. An
// error occurs if the object does not exist.
func (s *Swift) GetURL(tenantId int, containerName, object string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.getObject(tenantId, containerName, object); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://%s%s%s/%s", s.baseHost, versionPath, containerName, object), nil
}

// Endpoints implements identityservice.ServiceProvider; the templates
// are rendered against the base host at catalog-assembly time.
func (s *Swift) Endpoints() []identityservice.EndpointTemplate {
	return []identityservice.EndpointTemplate{{
		Region:    "mock",
		VersionId: "1",
		Urls: map[string]string{
			"publicURL":   "https://{0}" + versionPath,
			"internalURL": "https://{0}" + versionPath,
		},
	}}
}
