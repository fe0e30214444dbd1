// Keystone double - identity model aggregate.
//
// IdentityModel owns the tenant, user, role, token and service tables
// and is the only entry point tests and HTTP handlers go through. All
// state is in-memory and dies with the process; tests needing
// isolation construct a fresh model.

package identityservice

import (
	"net/http"
	"sync"
	"time"

	"github.com/juju/collections/set"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("mockstack.identityservice")

const (
	// AdminRoleName grants administrative identity operations.
	AdminRoleName = "identity-admin"
	// ObserverRoleName is the built-in read-only placeholder role.
	ObserverRoleName = "identity-observer"

	// DefaultBaseHost is substituted into endpoint URL templates when
	// no base host is configured.
	DefaultBaseHost = "localhost"

	systemTenantName = "system"
	systemUserName   = "system"
	systemUserEmail  = "system@mockstack.local"
	systemPassword   = "Mock5tack"
	systemApiKey     = "mockstack-system-apikey"
)

// ServiceProvider is a service double which has catalog endpoints.
type ServiceProvider interface {
	Endpoints() []EndpointTemplate
}

// EndpointTemplate describes one regional endpoint of a service as
// registered in the catalog: fixed version fields plus named URL
// templates, each containing a {0} placeholder for the base host.
type EndpointTemplate struct {
	Region      string
	VersionId   string
	VersionInfo string
	VersionList string
	Urls        map[string]string
}

// TokenValidator is the slice of the identity double other service
// doubles use to authenticate their callers.
type TokenValidator interface {
	ValidateToken(token string) (*Token, error)
}

// IdentityService is the interface the Keystone double presents to the
// composition layer.
type IdentityService interface {
	TokenValidator
	RegisterServiceProvider(name, serviceType string, provider ServiceProvider)
	SetupHTTP(mux *http.ServeMux)
}

// IdentityModel aggregates the sub-models behind one coarse lock.
type IdentityModel struct {
	mu       sync.Mutex
	tenants  *Tenants
	users    *Users
	roles    *Roles
	tokens   *Tokens
	registry *ServiceRegistry

	baseHost          string
	serviceAdminToken string
	adminRoleId       int
	observerRoleId    int
	systemTenantId    int
	systemUserId      int
}

var _ IdentityService = (*IdentityModel)(nil)

// NewIdentityModel constructs a model and bootstraps it: the system
// tenant, the built-in roles, the system user holding identity-admin,
// and the service-admin token, in that order. Each step needs the ids
// of the previous one. baseHost may be empty, meaning DefaultBaseHost.
func NewIdentityModel(baseHost string) *IdentityModel {
	if baseHost == "" {
		baseHost = DefaultBaseHost
	}
	m := &IdentityModel{
		tenants:  newTenants(),
		users:    newUsers(),
		roles:    newRoles(),
		tokens:   newTokens(),
		registry: newServiceRegistry(),
		baseHost: baseHost,
	}
	m.bootstrap()
	return m
}

func (m *IdentityModel) bootstrap() {
	m.systemTenantId = m.tenants.Add(systemTenantName, "system tenant", true)

	var err error
	if m.adminRoleId, err = m.roles.Add(AdminRoleName); err != nil {
		panic(err)
	}
	if m.observerRoleId, err = m.roles.Add(ObserverRoleName); err != nil {
		panic(err)
	}

	m.systemUserId = m.users.Add(
		m.systemTenantId, systemUserName, systemUserEmail,
		systemPassword, systemApiKey, true)
	if err = m.roles.AddUserRole(m.systemTenantId, m.systemUserId, m.adminRoleId); err != nil {
		panic(err)
	}

	m.serviceAdminToken, err = m.tokens.Add(m.systemTenantId, m.systemUserId, time.Time{}, "")
	if err != nil {
		panic(err)
	}
	logger.Debugf("bootstrapped identity model: tenant %d, user %d",
		m.systemTenantId, m.systemUserId)
}

// BaseHost returns the host substituted into endpoint URL templates.
func (m *IdentityModel) BaseHost() string {
	return m.baseHost
}

// ServiceAdminToken returns the token issued to the system user at
// bootstrap.
func (m *IdentityModel) ServiceAdminToken() string {
	return m.serviceAdminToken
}

// Tenant operations.

func (m *IdentityModel) AddTenant(name, description string, enabled bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tenants.Add(name, description, enabled)
}

func (m *IdentityModel) Tenant(tenantId int) (*Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tenants.GetById(tenantId)
}

func (m *IdentityModel) TenantByName(name string) (*Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tenants.GetByName(name)
}

func (m *IdentityModel) Tenants() []Tenant {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tenants.List()
}

func (m *IdentityModel) UpdateTenantDescription(tenantId int, description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tenants.UpdateDescription(tenantId, description)
}

func (m *IdentityModel) UpdateTenantStatus(tenantId int, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tenants.UpdateStatus(tenantId, enabled)
}

// User operations.

// AddUser creates a user under an existing tenant. Password and API
// key syntax is the boundary layer's concern, but the tenant foreign
// key is checked here.
func (m *IdentityModel) AddUser(tenantId int, username, email, password, apikey string, enabled bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.tenants.GetById(tenantId); err != nil {
		return 0, err
	}
	return m.users.Add(tenantId, username, email, password, apikey, enabled), nil
}

func (m *IdentityModel) User(tenantId, userId int) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users.GetById(tenantId, userId)
}

func (m *IdentityModel) UserByName(tenantId int, username string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users.GetByName(tenantId, username)
}

func (m *IdentityModel) UsersByNameOrTenant(username string, tenantId int) []User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users.GetByNameOrTenantId(username, tenantId)
}

func (m *IdentityModel) Users(tenantId int) []User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users.List(tenantId)
}

func (m *IdentityModel) UpdateUser(tenantId, userId int, email, password, apikey string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users.UpdateById(tenantId, userId, email, password, apikey, enabled)
}

func (m *IdentityModel) RenameUser(tenantId, userId int, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users.Rename(tenantId, userId, username)
}

// DeleteUser removes the user along with any tokens issued to it.
func (m *IdentityModel) DeleteUser(tenantId, userId int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.users.Delete(tenantId, userId); err != nil {
		return err
	}
	// Best effort: the user may never have held a token.
	_ = m.tokens.Delete(tenantId, userId, "")
	return nil
}

// Role operations.

func (m *IdentityModel) AddRole(name string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roles.Add(name)
}

func (m *IdentityModel) Role(name string) (*Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roles.Get(name)
}

func (m *IdentityModel) GrantUserRole(tenantId, userId, roleId int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roles.AddUserRole(tenantId, userId, roleId)
}

func (m *IdentityModel) GrantUserRoleByName(tenantId, userId int, roleName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roles.AddUserRoleByName(tenantId, userId, roleName)
}

func (m *IdentityModel) UserRoles(tenantId, userId int) []Role {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roles.GetUserRoles(tenantId, userId)
}

// Token operations.

func (m *IdentityModel) AddToken(tenantId, userId int, expires time.Time, value string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.users.GetById(tenantId, userId); err != nil {
		return "", err
	}
	return m.tokens.Add(tenantId, userId, expires, value)
}

func (m *IdentityModel) RevokeToken(tenantId, userId int, value string, reset bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens.Revoke(tenantId, userId, value, reset)
}

func (m *IdentityModel) DeleteToken(tenantId, userId int, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens.Delete(tenantId, userId, value)
}

func (m *IdentityModel) TokensForUser(tenantId, userId int) ([]Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.users.GetById(tenantId, userId); err != nil {
		return nil, err
	}
	return m.tokens.GetByUser(tenantId, userId), nil
}

func (m *IdentityModel) TokensForTenant(tenantId int) ([]Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.tenants.GetById(tenantId); err != nil {
		return nil, err
	}
	return m.tokens.GetByTenant(tenantId), nil
}

func (m *IdentityModel) TokensForUsername(tenantId int, username string) ([]Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, err := m.users.GetByName(tenantId, username)
	if err != nil {
		return nil, err
	}
	return m.tokens.GetByUser(tenantId, user.Id), nil
}

// ValidateToken checks the token exists, is not revoked and has not
// expired, returning its row.
func (m *IdentityModel) ValidateToken(token string) (*Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens.Validate(token)
}

// ValidateTokenAdmin validates the token and requires its user to hold
// the identity-admin role. Every failure collapses into a generic
// InvalidTokenError so callers cannot distinguish a revoked or expired
// token from a missing role.
func (m *IdentityModel) ValidateTokenAdmin(token string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validateTokenAdmin(token)
}

func (m *IdentityModel) validateTokenAdmin(token string) (*User, error) {
	record, err := m.tokens.Validate(token)
	if err != nil {
		return nil, NewInvalidTokenError("not authorized")
	}
	user, err := m.users.GetById(record.TenantId, record.UserId)
	if err != nil {
		return nil, NewInvalidTokenError("not authorized")
	}
	names := set.NewStrings()
	for _, role := range m.roles.GetUserRoles(record.TenantId, record.UserId) {
		names.Add(role.Name)
	}
	if !names.Contains(AdminRoleName) {
		return nil, NewInvalidTokenError("not authorized")
	}
	return user, nil
}

// ValidateTokenServiceAdmin is ValidateTokenAdmin restricted further
// to the bootstrap service-admin token.
func (m *IdentityModel) ValidateTokenServiceAdmin(token string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, err := m.validateTokenAdmin(token)
	if err != nil {
		return nil, err
	}
	if token != m.serviceAdminToken {
		return nil, NewInvalidTokenError("not authorized")
	}
	return user, nil
}

// Catalog registration.

func (m *IdentityModel) AddCatalogService(name, serviceType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.AddService(name, serviceType)
}

func (m *IdentityModel) AddCatalogEndpoint(serviceId int, region, versionInfo, versionList, versionId string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.AddEndpoint(serviceId, region, versionInfo, versionList, versionId)
}

func (m *IdentityModel) AddCatalogEndpointUrl(endpointId int, name, url string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.AddEndpointUrl(endpointId, name, url)
}

// RegisterServiceProvider records a service double and its endpoints
// in the catalog.
func (m *IdentityModel) RegisterServiceProvider(name, serviceType string, provider ServiceProvider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	serviceId := m.registry.AddService(name, serviceType)
	for _, template := range provider.Endpoints() {
		endpointId, err := m.registry.AddEndpoint(serviceId,
			template.Region, template.VersionInfo, template.VersionList, template.VersionId)
		if err != nil {
			panic(err)
		}
		for urlName, url := range template.Urls {
			if _, err := m.registry.AddEndpointUrl(endpointId, urlName, url); err != nil {
				panic(err)
			}
		}
	}
	logger.Debugf("registered service %q (%s)", name, serviceType)
}

// Authenticate runs one of the four authentication flows and returns
// the assembled access response scoped to a single tenant.
func (m *IdentityModel) Authenticate(creds Credentials) (*AccessResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&Authenticator{model: m}).authenticate(creds)
}
