// Keystone double - service catalog assembly.
//
// A successful authentication returns an access response with three
// sections: the token, the user with roles, and the service catalog
// with every endpoint URL rendered against the configured base host.

package identityservice

import (
	"encoding/json"

	"github.com/juju/collections/set"
)

type TokenResponse struct {
	Id      string `json:"id"`
	Expires string `json:"expires"`
	Tenant  struct {
		Id   string `json:"id"`
		Name string `json:"name"`
	} `json:"tenant"`
}

type RoleResponse struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

type UserResponse struct {
	Id    string         `json:"id"`
	Name  string         `json:"name"`
	Roles []RoleResponse `json:"roles"`
}

// CatalogEndpoint is one endpoint entry of a catalog service. The
// named URLs (publicURL, internalURL, ...) appear as sibling keys of
// the fixed fields, so the type carries its own JSON codec.
type CatalogEndpoint struct {
	Region      string
	VersionId   string
	VersionInfo string
	VersionList string
	Urls        map[string]string
}

func (e CatalogEndpoint) MarshalJSON() ([]byte, error) {
	entry := map[string]string{
		"region":      e.Region,
		"versionId":   e.VersionId,
		"versionInfo": e.VersionInfo,
		"versionList": e.VersionList,
	}
	for name, url := range e.Urls {
		entry[name] = url
	}
	return json.Marshal(entry)
}

func (e *CatalogEndpoint) UnmarshalJSON(data []byte) error {
	var entry map[string]string
	if err := json.Unmarshal(data, &entry); err != nil {
		return err
	}
	e.Region = entry["region"]
	e.VersionId = entry["versionId"]
	e.VersionInfo = entry["versionInfo"]
	e.VersionList = entry["versionList"]
	delete(entry, "region")
	delete(entry, "versionId")
	delete(entry, "versionInfo")
	delete(entry, "versionList")
	e.Urls = entry
	return nil
}

type CatalogService struct {
	Name      string            `json:"name"`
	Type      string            `json:"type"`
	Endpoints []CatalogEndpoint `json:"endpoints"`
}

type AccessResponse struct {
	Access struct {
		Token          TokenResponse    `json:"token"`
		User           UserResponse     `json:"user"`
		ServiceCatalog []CatalogService `json:"serviceCatalog"`
	} `json:"access"`
}

// assembleCatalog builds the access response for a validated
// (token, user) pair, scoped to the token's tenant. Duplicate role
// grants collapse to one entry; ordering follows store row order and
// is not otherwise specified.
func (m *IdentityModel) assembleCatalog(token *Token, user *User) (*AccessResponse, error) {
	tenant, err := m.tenants.GetById(token.TenantId)
	if err != nil {
		return nil, err
	}

	var res AccessResponse
	res.Access.Token.Id = token.Value
	res.Access.Token.Expires = formatTimestamp(token.Expires)
	res.Access.Token.Tenant.Id = itoa(tenant.Id)
	res.Access.Token.Tenant.Name = tenant.Name

	res.Access.User.Id = itoa(user.Id)
	res.Access.User.Name = user.Username
	seen := set.NewStrings()
	for _, role := range m.roles.GetUserRoles(token.TenantId, user.Id) {
		if seen.Contains(role.Name) {
			continue
		}
		seen.Add(role.Name)
		res.Access.User.Roles = append(res.Access.User.Roles, RoleResponse{
			Id:   itoa(role.Id),
			Name: role.Name,
		})
	}

	res.Access.ServiceCatalog = []CatalogService{}
	for _, service := range m.registry.Services() {
		entry := CatalogService{
			Name:      service.Name,
			Type:      service.Type,
			Endpoints: []CatalogEndpoint{},
		}
		for _, endpoint := range m.registry.EndpointsFor(service.Id) {
			ep := CatalogEndpoint{
				Region:      endpoint.Region,
				VersionId:   endpoint.VersionId,
				VersionInfo: endpoint.VersionInfo,
				VersionList: endpoint.VersionList,
				Urls:        make(map[string]string),
			}
			for _, url := range m.registry.UrlsFor(endpoint.Id) {
				ep.Urls[url.Name] = renderUrl(url.Url, m.baseHost)
			}
			entry.Endpoints = append(entry.Endpoints, ep)
		}
		res.Access.ServiceCatalog = append(res.Access.ServiceCatalog, entry)
	}
	return &res, nil
}
