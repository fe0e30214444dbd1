package identityservice

import (
	"time"

	gc "gopkg.in/check.v1"
)

type AuthSuite struct {
	model    *IdentityModel
	tenantId int
	userId   int
}

var _ = gc.Suite(&AuthSuite{})

func (s *AuthSuite) SetUpTest(c *gc.C) {
	s.model = NewIdentityModel("")
	s.tenantId = s.model.AddTenant("neo", "", true)
	var err error
	s.userId, err = s.model.AddUser(s.tenantId, "trinity", "trinity@theone.matrix",
		"Inl0veWithNeo", "the-api-key", true)
	c.Assert(err, gc.IsNil)
}

func (s *AuthSuite) TestPasswordAuth(c *gc.C) {
	access, err := s.model.Authenticate(PasswordCredentials{
		Username: "trinity",
		Password: "Inl0veWithNeo",
	})
	c.Assert(err, gc.IsNil)
	c.Check(access.Access.Token.Tenant.Id, gc.Equals, itoa(s.tenantId))
	c.Check(access.Access.Token.Tenant.Name, gc.Equals, "neo")
	c.Check(access.Access.User.Name, gc.Equals, "trinity")
	c.Check(access.Access.ServiceCatalog, gc.HasLen, 0)

	// The returned token validates.
	token, err := s.model.ValidateToken(access.Access.Token.Id)
	c.Assert(err, gc.IsNil)
	c.Check(token.TenantId, gc.Equals, s.tenantId)
	c.Check(token.UserId, gc.Equals, s.userId)
}

func (s *AuthSuite) TestPasswordAuthReusesLiveToken(c *gc.C) {
	value, err := s.model.AddToken(s.tenantId, s.userId, time.Time{}, "")
	c.Assert(err, gc.IsNil)
	access, err := s.model.Authenticate(PasswordCredentials{
		Username: "trinity",
		Password: "Inl0veWithNeo",
	})
	c.Assert(err, gc.IsNil)
	c.Check(access.Access.Token.Id, gc.Equals, value)
}

func (s *AuthSuite) TestPasswordAuthMintsWhenTokenRevoked(c *gc.C) {
	value, err := s.model.AddToken(s.tenantId, s.userId, time.Time{}, "")
	c.Assert(err, gc.IsNil)
	c.Assert(s.model.RevokeToken(s.tenantId, s.userId, value, false), gc.IsNil)
	access, err := s.model.Authenticate(PasswordCredentials{
		Username: "trinity",
		Password: "Inl0veWithNeo",
	})
	c.Assert(err, gc.IsNil)
	c.Check(access.Access.Token.Id, gc.Not(gc.Equals), value)
}

func (s *AuthSuite) TestPasswordAuthBadSyntax(c *gc.C) {
	_, err := s.model.Authenticate(PasswordCredentials{
		Username: "trinity",
		Password: "Inl0veWithNeo$",
	})
	c.Assert(IsUserError(err), gc.Equals, true)

	_, err = s.model.Authenticate(PasswordCredentials{
		Username: "9trinity",
		Password: "Inl0veWithNeo",
	})
	c.Assert(IsUserError(err), gc.Equals, true)
}

func (s *AuthSuite) TestPasswordAuthUnknownUser(c *gc.C) {
	_, err := s.model.Authenticate(PasswordCredentials{
		Username: "tank",
		Password: "Inl0veWithNeo",
	})
	c.Assert(IsUnknownUserError(err), gc.Equals, true)
}

func (s *AuthSuite) TestPasswordAuthWrongPassword(c *gc.C) {
	_, err := s.model.Authenticate(PasswordCredentials{
		Username: "trinity",
		Password: "WrongPass1",
	})
	c.Assert(IsInvalidPasswordError(err), gc.Equals, true)
}

func (s *AuthSuite) TestPasswordAuthDisabledUser(c *gc.C) {
	user, err := s.model.User(s.tenantId, s.userId)
	c.Assert(err, gc.IsNil)
	err = s.model.UpdateUser(s.tenantId, s.userId, user.Email, user.Password, user.ApiKey, false)
	c.Assert(err, gc.IsNil)

	_, err = s.model.Authenticate(PasswordCredentials{
		Username: "trinity",
		Password: "Inl0veWithNeo",
	})
	c.Assert(IsDisabledUserError(err), gc.Equals, true)
}

func (s *AuthSuite) TestApiKeyAuth(c *gc.C) {
	access, err := s.model.Authenticate(ApiKeyCredentials{
		Username: "trinity",
		ApiKey:   "the-api-key",
	})
	c.Assert(err, gc.IsNil)
	c.Check(access.Access.User.Name, gc.Equals, "trinity")
}

func (s *AuthSuite) TestApiKeyAuthEmptyKey(c *gc.C) {
	_, err := s.model.Authenticate(ApiKeyCredentials{Username: "trinity"})
	c.Assert(IsUserError(err), gc.Equals, true)
}

func (s *AuthSuite) TestApiKeyAuthWrongKey(c *gc.C) {
	_, err := s.model.Authenticate(ApiKeyCredentials{
		Username: "trinity",
		ApiKey:   "not-the-key",
	})
	c.Assert(IsInvalidApiKeyError(err), gc.Equals, true)
}

func (s *AuthSuite) issueToken(c *gc.C) string {
	value, err := s.model.AddToken(s.tenantId, s.userId, time.Time{}, "")
	c.Assert(err, gc.IsNil)
	return value
}

func (s *AuthSuite) TestTokenTenantIdAuth(c *gc.C) {
	value := s.issueToken(c)
	access, err := s.model.Authenticate(TokenTenantIdCredentials{
		TenantId: itoa(s.tenantId),
		Token:    value,
	})
	c.Assert(err, gc.IsNil)
	c.Check(access.Access.Token.Id, gc.Equals, value)
	c.Check(access.Access.User.Name, gc.Equals, "trinity")
}

func (s *AuthSuite) TestTokenTenantIdAuthMissingFields(c *gc.C) {
	_, err := s.model.Authenticate(TokenTenantIdCredentials{Token: "x"})
	c.Assert(IsUserError(err), gc.Equals, true)
	_, err = s.model.Authenticate(TokenTenantIdCredentials{TenantId: "1"})
	c.Assert(IsUserError(err), gc.Equals, true)
}

func (s *AuthSuite) TestTokenTenantIdAuthBadToken(c *gc.C) {
	_, err := s.model.Authenticate(TokenTenantIdCredentials{
		TenantId: itoa(s.tenantId),
		Token:    "no-such-token",
	})
	c.Assert(IsInvalidTokenError(err), gc.Equals, true)
}

func (s *AuthSuite) TestTokenTenantIdAuthRevokedToken(c *gc.C) {
	value := s.issueToken(c)
	c.Assert(s.model.RevokeToken(s.tenantId, s.userId, value, false), gc.IsNil)
	_, err := s.model.Authenticate(TokenTenantIdCredentials{
		TenantId: itoa(s.tenantId),
		Token:    value,
	})
	c.Assert(IsInvalidTokenError(err), gc.Equals, true)
}

func (s *AuthSuite) TestTokenTenantIdAuthUnknownTenant(c *gc.C) {
	value := s.issueToken(c)
	_, err := s.model.Authenticate(TokenTenantIdCredentials{
		TenantId: "999",
		Token:    value,
	})
	c.Assert(IsTenantError(err), gc.Equals, true)
}

func (s *AuthSuite) TestTokenTenantIdAuthDisabledTenant(c *gc.C) {
	value := s.issueToken(c)
	c.Assert(s.model.UpdateTenantStatus(s.tenantId, false), gc.IsNil)
	_, err := s.model.Authenticate(TokenTenantIdCredentials{
		TenantId: itoa(s.tenantId),
		Token:    value,
	})
	c.Assert(IsTenantError(err), gc.Equals, true)
}

func (s *AuthSuite) TestTokenTenantIdAuthForeignTenant(c *gc.C) {
	value := s.issueToken(c)
	otherId := s.model.AddTenant("zion", "", true)
	_, err := s.model.Authenticate(TokenTenantIdCredentials{
		TenantId: itoa(otherId),
		Token:    value,
	})
	c.Assert(IsUnknownUserError(err), gc.Equals, true)
}

func (s *AuthSuite) TestTokenTenantIdAuthDisabledUser(c *gc.C) {
	value := s.issueToken(c)
	user, err := s.model.User(s.tenantId, s.userId)
	c.Assert(err, gc.IsNil)
	err = s.model.UpdateUser(s.tenantId, s.userId, user.Email, user.Password, user.ApiKey, false)
	c.Assert(err, gc.IsNil)
	_, err = s.model.Authenticate(TokenTenantIdCredentials{
		TenantId: itoa(s.tenantId),
		Token:    value,
	})
	c.Assert(IsDisabledUserError(err), gc.Equals, true)
}

func (s *AuthSuite) TestTokenTenantNameAuth(c *gc.C) {
	value := s.issueToken(c)
	access, err := s.model.Authenticate(TokenTenantNameCredentials{
		TenantName: "neo",
		Token:      value,
	})
	c.Assert(err, gc.IsNil)
	c.Check(access.Access.Token.Tenant.Name, gc.Equals, "neo")
}

func (s *AuthSuite) TestTokenTenantNameAuthUnknownTenant(c *gc.C) {
	value := s.issueToken(c)
	_, err := s.model.Authenticate(TokenTenantNameCredentials{
		TenantName: "zion",
		Token:      value,
	})
	c.Assert(IsTenantError(err), gc.Equals, true)
}
