package identityservice

// Tenant is one tenant account row.
type Tenant struct {
	Id          int
	Name        string
	Description string
	Enabled     bool
}

// Tenants is the tenant table. Tenant names are not required to be
// unique; name lookups return the first match in insertion order.
type Tenants struct {
	nextId  int
	tenants []Tenant
}

func newTenants() *Tenants {
	return &Tenants{}
}

// Add creates a tenant and returns its assigned id.
func (t *Tenants) Add(name, description string, enabled bool) int {
	t.nextId++
	t.tenants = append(t.tenants, Tenant{
		Id:          t.nextId,
		Name:        name,
		Description: description,
		Enabled:     enabled,
	})
	return t.nextId
}

// GetById returns the tenant with the given id.
func (t *Tenants) GetById(tenantId int) (*Tenant, error) {
	for i := range t.tenants {
		if t.tenants[i].Id == tenantId {
			tenant := t.tenants[i]
			return &tenant, nil
		}
	}
	return nil, NewTenantError("no tenant with id %d", tenantId)
}

// GetByName returns the first tenant with the given name.
func (t *Tenants) GetByName(name string) (*Tenant, error) {
	for i := range t.tenants {
		if t.tenants[i].Name == name {
			tenant := t.tenants[i]
			return &tenant, nil
		}
	}
	return nil, NewTenantError("no tenant named %q", name)
}

// List returns all tenants in insertion order.
func (t *Tenants) List() []Tenant {
	all := make([]Tenant, len(t.tenants))
	copy(all, t.tenants)
	return all
}

// UpdateDescription replaces the description of the given tenant.
func (t *Tenants) UpdateDescription(tenantId int, description string) error {
	for i := range t.tenants {
		if t.tenants[i].Id == tenantId {
			t.tenants[i].Description = description
			return nil
		}
	}
	return NewTenantError("no tenant with id %d", tenantId)
}

// UpdateStatus flips the enabled flag of the given tenant.
func (t *Tenants) UpdateStatus(tenantId int, enabled bool) error {
	for i := range t.tenants {
		if t.tenants[i].Id == tenantId {
			t.tenants[i].Enabled = enabled
			return nil
		}
	}
	return NewTenantError("no tenant with id %d", tenantId)
}
