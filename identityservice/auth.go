// Keystone double - authentication flows.
//
// Four credential shapes are accepted: password, API key, token plus
// tenant id, token plus tenant name. The HTTP boundary parses a
// request body into exactly one Credentials variant; the authenticator
// dispatches on the variant and maps every failure onto the error
// taxonomy.

package identityservice

import (
	"strconv"
	"time"
)

// Credentials is the sealed set of accepted authentication shapes.
type Credentials interface {
	credentials()
}

// PasswordCredentials authenticates by username and password.
type PasswordCredentials struct {
	Username string
	Password string
}

// ApiKeyCredentials authenticates by username and API key.
type ApiKeyCredentials struct {
	Username string
	ApiKey   string
}

// TokenTenantIdCredentials rescopes an existing token to the tenant
// with the given id.
type TokenTenantIdCredentials struct {
	TenantId string
	Token    string
}

// TokenTenantNameCredentials rescopes an existing token to the first
// tenant with the given name.
type TokenTenantNameCredentials struct {
	TenantName string
	Token      string
}

func (PasswordCredentials) credentials()        {}
func (ApiKeyCredentials) credentials()          {}
func (TokenTenantIdCredentials) credentials()   {}
func (TokenTenantNameCredentials) credentials() {}

// Authenticator is stateless; it composes the sub-models of its model
// to answer authentication requests. Callers hold the model lock.
type Authenticator struct {
	model *IdentityModel
}

func (a *Authenticator) authenticate(creds Credentials) (*AccessResponse, error) {
	switch c := creds.(type) {
	case PasswordCredentials:
		return a.authPassword(c)
	case ApiKeyCredentials:
		return a.authApiKey(c)
	case TokenTenantIdCredentials:
		return a.authTokenTenantId(c)
	case TokenTenantNameCredentials:
		return a.authTokenTenantName(c)
	}
	return nil, NewUserError("unsupported credential shape")
}

func (a *Authenticator) authPassword(c PasswordCredentials) (*AccessResponse, error) {
	if !ValidUsername(c.Username) {
		return nil, NewUserError("invalid username")
	}
	if !ValidPassword(c.Password) {
		return nil, NewUserError("invalid password")
	}
	user, err := a.model.users.GetByNameAcrossTenants(c.Username)
	if err != nil {
		return nil, err
	}
	if user.Password != c.Password {
		return nil, NewInvalidPasswordError("wrong password for user %q", c.Username)
	}
	return a.issueAndAssemble(user)
}

func (a *Authenticator) authApiKey(c ApiKeyCredentials) (*AccessResponse, error) {
	if !ValidUsername(c.Username) {
		return nil, NewUserError("invalid username")
	}
	if c.ApiKey == "" {
		return nil, NewUserError("missing apiKey")
	}
	user, err := a.model.users.GetByNameAcrossTenants(c.Username)
	if err != nil {
		return nil, err
	}
	if user.ApiKey != c.ApiKey {
		return nil, NewInvalidApiKeyError("wrong api key for user %q", c.Username)
	}
	return a.issueAndAssemble(user)
}

// issueAndAssemble reuses the newest live token of the user, minting
// one when none survives, then assembles the catalog.
func (a *Authenticator) issueAndAssemble(user *User) (*AccessResponse, error) {
	if !user.Enabled {
		return nil, NewDisabledUserError("user %q is disabled", user.Username)
	}
	var token *Token
	now := time.Now().UTC()
	for _, t := range a.model.tokens.GetByUser(user.TenantId, user.Id) {
		if !t.Revoked && t.Expires.After(now) {
			live := t
			token = &live
		}
	}
	if token == nil {
		value, err := a.model.tokens.Add(user.TenantId, user.Id, time.Time{}, "")
		if err != nil {
			return nil, err
		}
		if token, err = a.model.tokens.Validate(value); err != nil {
			return nil, err
		}
	}
	return a.model.assembleCatalog(token, user)
}

func (a *Authenticator) authTokenTenantId(c TokenTenantIdCredentials) (*AccessResponse, error) {
	if c.TenantId == "" || c.Token == "" {
		return nil, NewUserError("tenantId and token id are both required")
	}
	tenantId, err := strconv.Atoi(c.TenantId)
	if err != nil {
		return nil, NewTenantError("no tenant with id %q", c.TenantId)
	}
	token, err := a.model.tokens.Validate(c.Token)
	if err != nil {
		return nil, NewInvalidTokenError("invalid token")
	}
	tenant, err := a.model.tenants.GetById(tenantId)
	if err != nil {
		return nil, err
	}
	return a.rescope(token, tenant)
}

func (a *Authenticator) authTokenTenantName(c TokenTenantNameCredentials) (*AccessResponse, error) {
	if c.TenantName == "" || c.Token == "" {
		return nil, NewUserError("tenantName and token id are both required")
	}
	token, err := a.model.tokens.Validate(c.Token)
	if err != nil {
		return nil, NewInvalidTokenError("invalid token")
	}
	tenant, err := a.model.tenants.GetByName(c.TenantName)
	if err != nil {
		return nil, err
	}
	return a.rescope(token, tenant)
}

// rescope checks a validated token against the target tenant and
// assembles the catalog for the token's user under it.
func (a *Authenticator) rescope(token *Token, tenant *Tenant) (*AccessResponse, error) {
	if !tenant.Enabled {
		return nil, NewTenantError("tenant %q is disabled", tenant.Name)
	}
	if token.TenantId != tenant.Id {
		return nil, NewUnknownUserError("no user for this token under tenant %q", tenant.Name)
	}
	user, err := a.model.users.GetById(tenant.Id, token.UserId)
	if err != nil {
		return nil, err
	}
	if !user.Enabled {
		return nil, NewDisabledUserError("user %q is disabled", user.Username)
	}
	return a.model.assembleCatalog(token, user)
}
