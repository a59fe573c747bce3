package permission

// Resolver evaluates access decisions against a role set and a normalized
// permission set. Resolution order, short-circuiting on the first match:
//
//  1. an admin-equivalent role grants everything
//  2. a universal-grant token ("*" / "ALL") grants everything
//  3. any authority variant of (resource, action) present in the set
//  4. any held role implies (resource, action) via the grant table
//  5. deny
//
// Resolver instances are intended to be configured during initialization and
// then treated as immutable.
type Resolver struct {
	table  *Table
	admins map[string]struct{}
}

// NewResolver creates a [Resolver] over the given grant table. adminRoles are
// the role markers that short-circuit every check; they are normalized on
// construction.
func NewResolver(table *Table, adminRoles []string) *Resolver {
	if table == nil {
		table = NewTable()
	}
	admins := make(map[string]struct{}, len(adminRoles))
	for _, r := range adminRoles {
		if n := Normalize(r); n != "" {
			admins[n] = struct{}{}
		}
	}
	return &Resolver{table: table, admins: admins}
}

// Can returns the allow/deny decision for (resource, action) given the held
// roles and permission set. Inputs may be raw UI strings; normalization is
// applied here exactly once.
func (r *Resolver) Can(roles []string, set Set, resource, action string) bool {
	for _, role := range roles {
		if _, ok := r.admins[Normalize(role)]; ok {
			return true
		}
	}

	if set.HasUniversal() {
		return true
	}

	for _, variant := range Variants(resource, action) {
		if set.Has(variant) {
			return true
		}
	}

	res := Normalize(resource)
	act := Normalize(action)
	for _, role := range roles {
		if r.table.Implies(role, res, act) {
			return true
		}
	}

	return false
}
