package identityservice

import (
	"time"

	gc "gopkg.in/check.v1"
)

type TokensSuite struct {
	tokens *Tokens
}

var _ = gc.Suite(&TokensSuite{})

func (s *TokensSuite) SetUpTest(c *gc.C) {
	s.tokens = newTokens()
}

func (s *TokensSuite) TestMakeTokenIsUnique(c *gc.C) {
	c.Assert(MakeToken(), gc.Not(gc.Equals), MakeToken())
}

func (s *TokensSuite) TestAddAssignsValueAndExpiry(c *gc.C) {
	before := time.Now().UTC().Add(TokenLifetime)
	value, err := s.tokens.Add(1, 2, time.Time{}, "")
	c.Assert(err, gc.IsNil)
	c.Assert(value, gc.Not(gc.Equals), "")
	token, err := s.tokens.Validate(value)
	c.Assert(err, gc.IsNil)
	c.Check(token.TenantId, gc.Equals, 1)
	c.Check(token.UserId, gc.Equals, 2)
	c.Check(token.Expires.Before(before), gc.Equals, false)
}

func (s *TokensSuite) TestAddExplicitValue(c *gc.C) {
	value, err := s.tokens.Add(1, 2, time.Time{}, "ticket")
	c.Assert(err, gc.IsNil)
	c.Check(value, gc.Equals, "ticket")
}

func (s *TokensSuite) TestAddDuplicateValue(c *gc.C) {
	_, err := s.tokens.Add(1, 2, time.Time{}, "ticket")
	c.Assert(err, gc.IsNil)
	_, err = s.tokens.Add(1, 2, time.Time{}, "ticket")
	c.Assert(IsTokenError(err), gc.Equals, true)
}

func (s *TokensSuite) TestAddRebasesExpiryToUTC(c *gc.C) {
	offset := time.FixedZone("UTC+5", 5*3600)
	local := time.Date(2030, 1, 2, 10, 0, 0, 0, offset)
	value, err := s.tokens.Add(1, 2, local, "")
	c.Assert(err, gc.IsNil)
	token, err := s.tokens.Validate(value)
	c.Assert(err, gc.IsNil)
	c.Check(token.Expires.Location(), gc.Equals, time.UTC)
	c.Check(formatTimestamp(token.Expires), gc.Equals, "2030-01-02 05:00:00")
}

func (s *TokensSuite) TestValidateUnknown(c *gc.C) {
	_, err := s.tokens.Validate("no-such-token")
	c.Assert(IsInvalidTokenError(err), gc.Equals, true)
}

func (s *TokensSuite) TestValidateExpired(c *gc.C) {
	past := time.Now().UTC().Add(-time.Hour)
	value, err := s.tokens.Add(1, 2, past, "")
	c.Assert(err, gc.IsNil)
	_, err = s.tokens.Validate(value)
	c.Assert(IsExpiredTokenError(err), gc.Equals, true)
}

func (s *TokensSuite) TestRevokeThenReset(c *gc.C) {
	value, err := s.tokens.Add(1, 2, time.Time{}, "")
	c.Assert(err, gc.IsNil)

	c.Assert(s.tokens.Revoke(1, 2, value, false), gc.IsNil)
	_, err = s.tokens.Validate(value)
	c.Assert(IsRevokedTokenError(err), gc.Equals, true)

	c.Assert(s.tokens.Revoke(1, 2, value, true), gc.IsNil)
	token, err := s.tokens.Validate(value)
	c.Assert(err, gc.IsNil)
	c.Check(token.TenantId, gc.Equals, 1)
	c.Check(token.UserId, gc.Equals, 2)
}

func (s *TokensSuite) TestRevokeMissing(c *gc.C) {
	err := s.tokens.Revoke(1, 2, "no-such-token", false)
	c.Assert(IsTokenError(err), gc.Equals, true)
}

func (s *TokensSuite) TestRevokedRowIsRetained(c *gc.C) {
	value, err := s.tokens.Add(1, 2, time.Time{}, "")
	c.Assert(err, gc.IsNil)
	c.Assert(s.tokens.Revoke(1, 2, value, false), gc.IsNil)
	all := s.tokens.GetByUser(1, 2)
	c.Assert(all, gc.HasLen, 1)
	c.Check(all[0].Revoked, gc.Equals, true)
}

func (s *TokensSuite) TestDeleteOne(c *gc.C) {
	value, err := s.tokens.Add(1, 2, time.Time{}, "")
	c.Assert(err, gc.IsNil)
	c.Assert(s.tokens.Delete(1, 2, value), gc.IsNil)
	_, err = s.tokens.Validate(value)
	c.Assert(IsInvalidTokenError(err), gc.Equals, true)
}

func (s *TokensSuite) TestDeleteAllOfUser(c *gc.C) {
	first, err := s.tokens.Add(1, 2, time.Time{}, "")
	c.Assert(err, gc.IsNil)
	second, err := s.tokens.Add(1, 2, time.Time{}, "")
	c.Assert(err, gc.IsNil)
	other, err := s.tokens.Add(1, 3, time.Time{}, "")
	c.Assert(err, gc.IsNil)

	c.Assert(s.tokens.Delete(1, 2, ""), gc.IsNil)
	_, err = s.tokens.Validate(first)
	c.Assert(IsInvalidTokenError(err), gc.Equals, true)
	_, err = s.tokens.Validate(second)
	c.Assert(IsInvalidTokenError(err), gc.Equals, true)
	_, err = s.tokens.Validate(other)
	c.Assert(err, gc.IsNil)
}

func (s *TokensSuite) TestDeleteMissing(c *gc.C) {
	err := s.tokens.Delete(1, 2, "no-such-token")
	c.Assert(IsTokenError(err), gc.Equals, true)
}

func (s *TokensSuite) TestGetByTenant(c *gc.C) {
	_, err := s.tokens.Add(1, 2, time.Time{}, "")
	c.Assert(err, gc.IsNil)
	_, err = s.tokens.Add(2, 3, time.Time{}, "")
	c.Assert(err, gc.IsNil)
	c.Check(s.tokens.GetByTenant(1), gc.HasLen, 1)
	c.Check(s.tokens.GetByTenant(2), gc.HasLen, 1)
	c.Check(s.tokens.GetByTenant(3), gc.HasLen, 0)
}
