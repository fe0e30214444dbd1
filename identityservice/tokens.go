package identityservice

import (
	"time"
)

// TokenLifetime is the default TTL assigned when a token is issued
// without an explicit expiry.
const TokenLifetime = 12 * time.Hour

// timestampFormat is the textual form timestamps take on the wire.
// All stored and compared timestamps are UTC.
const timestampFormat = "2006-01-02 15:04:05"

// formatTimestamp renders t in the wire format, rebased to UTC.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampFormat)
}

// Token is one issued token row. A token moves Issued -> Revoked and
// back via Revoke; expiry is reached passively when the wall clock
// passes Expires. Revoked rows are retained.
type Token struct {
	TenantId int
	UserId   int
	Value    string
	Expires  time.Time
	Revoked  bool
}

// Tokens is the token table.
type Tokens struct {
	tokens []Token
}

func newTokens() *Tokens {
	return &Tokens{}
}

// Add issues a token for the user. A zero expires means now plus
// TokenLifetime; an empty value means a fresh MakeToken. Any supplied
// expiry is rebased to UTC. The caller is responsible for the
// (tenantId, userId) pair referencing a real user.
func (t *Tokens) Add(tenantId, userId int, expires time.Time, value string) (string, error) {
	if value == "" {
		value = MakeToken()
	}
	for i := range t.tokens {
		if t.tokens[i].Value == value {
			return "", NewTokenError("token %q already exists", value)
		}
	}
	if expires.IsZero() {
		expires = time.Now().UTC().Add(TokenLifetime)
	}
	t.tokens = append(t.tokens, Token{
		TenantId: tenantId,
		UserId:   userId,
		Value:    value,
		Expires:  expires.UTC(),
	})
	return value, nil
}

// Revoke sets the token's revoked flag; with reset it clears the flag
// instead, returning the token to the issued state.
func (t *Tokens) Revoke(tenantId, userId int, value string, reset bool) error {
	for i := range t.tokens {
		if t.tokens[i].TenantId == tenantId &&
			t.tokens[i].UserId == userId &&
			t.tokens[i].Value == value {
			t.tokens[i].Revoked = !reset
			return nil
		}
	}
	return NewTokenError("no token %q for user %d under tenant %d", value, userId, tenantId)
}

// Delete removes the named token of the user, or every token of the
// user when value is empty.
func (t *Tokens) Delete(tenantId, userId int, value string) error {
	deleted := false
	kept := t.tokens[:0]
	for i := range t.tokens {
		match := t.tokens[i].TenantId == tenantId &&
			t.tokens[i].UserId == userId &&
			(value == "" || t.tokens[i].Value == value)
		if match {
			deleted = true
		} else {
			kept = append(kept, t.tokens[i])
		}
	}
	t.tokens = kept
	if !deleted {
		return NewTokenError("no token for user %d under tenant %d", userId, tenantId)
	}
	return nil
}

// GetByUser returns every token of the user, issue order, revoked rows
// included.
func (t *Tokens) GetByUser(tenantId, userId int) []Token {
	var all []Token
	for i := range t.tokens {
		if t.tokens[i].TenantId == tenantId && t.tokens[i].UserId == userId {
			all = append(all, t.tokens[i])
		}
	}
	return all
}

// GetByTenant returns every token issued under the tenant.
func (t *Tokens) GetByTenant(tenantId int) []Token {
	var all []Token
	for i := range t.tokens {
		if t.tokens[i].TenantId == tenantId {
			all = append(all, t.tokens[i])
		}
	}
	return all
}

// Validate looks the token up by value and checks the revocation flag
// and the expiry against the current UTC time.
func (t *Tokens) Validate(value string) (*Token, error) {
	for i := range t.tokens {
		if t.tokens[i].Value == value {
			if t.tokens[i].Revoked {
				return nil, NewRevokedTokenError("token %q has been revoked", value)
			}
			if time.Now().UTC().After(t.tokens[i].Expires) {
				return nil, NewExpiredTokenError("token %q expired at %s",
					value, formatTimestamp(t.tokens[i].Expires))
			}
			token := t.tokens[i]
			return &token, nil
		}
	}
	return nil, NewInvalidTokenError("no token %q", value)
}
