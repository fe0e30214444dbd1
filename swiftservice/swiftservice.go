package swiftservice

import (
	"net/http"
)

// versionPath prefixes every Swift URL.
const versionPath = "/swift/v1/"

// SwiftService is the interface the Swift double presents to the
// composition layer. All operations are scoped by the caller's tenant
// id, which the HTTP layer resolves from the auth token.
type SwiftService interface {
	AddContainer(tenantId int, name string) error
	HasContainer(tenantId int, name string) bool
	ListContainers(tenantId int) []string
	ListContainer(tenantId int, name string) ([]ContainerContents, error)
	AddObject(tenantId int, container, name string, data []byte, contentType string, metadata map[string]string) error
	PutObject(tenantId int, container, name string, data []byte, contentType string, metadata map[string]string) error
	GetObject(tenantId int, container, name string) (*StoredObject, error)
	RemoveContainer(tenantId int, name string) error
	RemoveObject(tenantId int, container, name string) error
	GetURL(tenantId int, container, object string) (string, error)
	SetupHTTP(mux *http.ServeMux)
}

var _ SwiftService = (*Swift)(nil)
