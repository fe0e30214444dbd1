package identityservice

import (
	"regexp"
)

// User is one user row, always scoped to a tenant.
type User struct {
	Id       int
	TenantId int
	Username string
	Email    string
	Password string
	ApiKey   string
	Enabled  bool
}

var usernameRule = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9._@-]*$`)

// ValidUsername reports whether name satisfies the username syntax
// rule: a leading letter followed by letters, digits, '.', '_', '@'
// or '-'.
func ValidUsername(name string) bool {
	return usernameRule.MatchString(name)
}

// ValidPassword reports whether password satisfies the password rule:
// the username character rule plus at least one uppercase letter, one
// lowercase letter and one digit.
func ValidPassword(password string) bool {
	if !usernameRule.MatchString(password) {
		return false
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return upper && lower && digit
}

// Users is the user table. Usernames are not unique across tenants;
// name lookups return the first match in insertion order. Syntax
// validation of passwords and API keys is the boundary layer's job,
// not Add's.
type Users struct {
	nextId int
	users  []User
}

func newUsers() *Users {
	return &Users{}
}

// Add creates a user under the given tenant and returns its id.
func (u *Users) Add(tenantId int, username, email, password, apikey string, enabled bool) int {
	u.nextId++
	u.users = append(u.users, User{
		Id:       u.nextId,
		TenantId: tenantId,
		Username: username,
		Email:    email,
		Password: password,
		ApiKey:   apikey,
		Enabled:  enabled,
	})
	return u.nextId
}

// GetById returns the user with the given id under the given tenant.
func (u *Users) GetById(tenantId, userId int) (*User, error) {
	for i := range u.users {
		if u.users[i].TenantId == tenantId && u.users[i].Id == userId {
			user := u.users[i]
			return &user, nil
		}
	}
	return nil, NewUnknownUserError("no user with id %d under tenant %d", userId, tenantId)
}

// GetByName returns the first user with the given name under the given
// tenant.
func (u *Users) GetByName(tenantId int, username string) (*User, error) {
	for i := range u.users {
		if u.users[i].TenantId == tenantId && u.users[i].Username == username {
			user := u.users[i]
			return &user, nil
		}
	}
	return nil, NewUnknownUserError("no user named %q under tenant %d", username, tenantId)
}

// GetByNameAcrossTenants returns the first user with the given name in
// any tenant.
func (u *Users) GetByNameAcrossTenants(username string) (*User, error) {
	for i := range u.users {
		if u.users[i].Username == username {
			user := u.users[i]
			return &user, nil
		}
	}
	return nil, NewUnknownUserError("no user named %q", username)
}

// GetByNameOrTenantId is the lazy query: with a non-empty username it
// returns every user of that name across all tenants, otherwise every
// user of the given tenant.
func (u *Users) GetByNameOrTenantId(username string, tenantId int) []User {
	var matched []User
	for i := range u.users {
		if username != "" {
			if u.users[i].Username == username {
				matched = append(matched, u.users[i])
			}
		} else if u.users[i].TenantId == tenantId {
			matched = append(matched, u.users[i])
		}
	}
	return matched
}

// List returns all users of the given tenant in insertion order.
func (u *Users) List(tenantId int) []User {
	var all []User
	for i := range u.users {
		if u.users[i].TenantId == tenantId {
			all = append(all, u.users[i])
		}
	}
	return all
}

// UpdateById unconditionally replaces all four mutable fields of the
// user. Callers wishing to preserve a field must read-then-write.
func (u *Users) UpdateById(tenantId, userId int, email, password, apikey string, enabled bool) error {
	for i := range u.users {
		if u.users[i].TenantId == tenantId && u.users[i].Id == userId {
			u.users[i].Email = email
			u.users[i].Password = password
			u.users[i].ApiKey = apikey
			u.users[i].Enabled = enabled
			return nil
		}
	}
	return NewUnknownUserError("no user with id %d under tenant %d", userId, tenantId)
}

// Rename replaces the username of the user.
func (u *Users) Rename(tenantId, userId int, username string) error {
	for i := range u.users {
		if u.users[i].TenantId == tenantId && u.users[i].Id == userId {
			u.users[i].Username = username
			return nil
		}
	}
	return NewUnknownUserError("no user with id %d under tenant %d", userId, tenantId)
}

// Delete removes the user from the table.
func (u *Users) Delete(tenantId, userId int) error {
	for i := range u.users {
		if u.users[i].TenantId == tenantId && u.users[i].Id == userId {
			u.users = append(u.users[:i], u.users[i+1:]...)
			return nil
		}
	}
	return NewUnknownUserError("no user with id %d under tenant %d", userId, tenantId)
}
