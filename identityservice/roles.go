package identityservice

// Role is one row of the role catalog.
type Role struct {
	Id   int
	Name string
}

// UserRole links a user to a role within a tenant. The same triple may
// be inserted more than once; duplicates are semantically a single
// assignment.
type UserRole struct {
	TenantId int
	UserId   int
	RoleId   int
}

// Roles is the role catalog plus the user-role link table. Role names
// are globally unique.
type Roles struct {
	nextId int
	roles  []Role
	grants []UserRole
}

func newRoles() *Roles {
	return &Roles{}
}

// Add creates a role and returns its assigned id. Name collisions fail.
func (r *Roles) Add(name string) (int, error) {
	for i := range r.roles {
		if r.roles[i].Name == name {
			return 0, NewRoleError("role %q already exists", name)
		}
	}
	r.nextId++
	r.roles = append(r.roles, Role{Id: r.nextId, Name: name})
	return r.nextId, nil
}

// Get returns the role with the given name.
func (r *Roles) Get(name string) (*Role, error) {
	for i := range r.roles {
		if r.roles[i].Name == name {
			role := r.roles[i]
			return &role, nil
		}
	}
	return nil, NewRoleError("no role named %q", name)
}

// GetById returns the role with the given id.
func (r *Roles) GetById(roleId int) (*Role, error) {
	for i := range r.roles {
		if r.roles[i].Id == roleId {
			role := r.roles[i]
			return &role, nil
		}
	}
	return nil, NewRoleError("no role with id %d", roleId)
}

// AddUserRole assigns the role to the user within the tenant. The role
// id must exist; the user/tenant pair is not cross-checked here.
func (r *Roles) AddUserRole(tenantId, userId, roleId int) error {
	if _, err := r.GetById(roleId); err != nil {
		return err
	}
	r.grants = append(r.grants, UserRole{
		TenantId: tenantId,
		UserId:   userId,
		RoleId:   roleId,
	})
	return nil
}

// AddUserRoleByName resolves the role name and delegates to
// AddUserRole.
func (r *Roles) AddUserRoleByName(tenantId, userId int, roleName string) error {
	role, err := r.Get(roleName)
	if err != nil {
		return err
	}
	return r.AddUserRole(tenantId, userId, role.Id)
}

// GetUserRoles returns the resolved roles assigned to the user within
// the tenant, in grant order. Duplicate grants yield duplicate entries.
func (r *Roles) GetUserRoles(tenantId, userId int) []Role {
	var roles []Role
	for i := range r.grants {
		if r.grants[i].TenantId == tenantId && r.grants[i].UserId == userId {
			if role, err := r.GetById(r.grants[i].RoleId); err == nil {
				roles = append(roles, *role)
			}
		}
	}
	return roles
}
