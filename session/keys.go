package session

// Field declares the persisted key candidates for one logical session field:
// the canonical key first, then legacy aliases in precedence order. Earlier
// deployments of the admin app wrote several of these under bare names; the
// resolver keeps honoring them on read while all new writes use the canonical
// key.
type Field struct {
	Canonical string
	Legacy    []string
}

// Candidates returns every key for the field, canonical first.
func (f Field) Candidates() []string {
	out := make([]string, 0, 1+len(f.Legacy))
	out = append(out, f.Canonical)
	out = append(out, f.Legacy...)
	return out
}

// The engine-owned key namespace. These are the only keys the engine reads,
// writes, or clears; keys owned by unrelated features are never touched.
var (
	FieldToken        = Field{Canonical: "auth.token", Legacy: []string{"token", "authToken"}}
	FieldUserID       = Field{Canonical: "auth.user_id", Legacy: []string{"userId", "uid"}}
	FieldUsername     = Field{Canonical: "auth.username", Legacy: []string{"username"}}
	FieldRoles        = Field{Canonical: "auth.roles", Legacy: []string{"roles", "userRole"}}
	FieldPermissions  = Field{Canonical: "auth.permissions", Legacy: []string{"permissions", "perms"}}
	FieldTerminalID   = Field{Canonical: "pos.terminal_id", Legacy: []string{"terminalId", "terminal"}}
	FieldBusinessID   = Field{Canonical: "pos.business_id", Legacy: []string{"businessId", "businessProfileId"}}
	FieldBusinessName = Field{Canonical: "pos.business_name", Legacy: []string{"businessName"}}
	FieldBusinessLogo = Field{Canonical: "pos.business_logo", Legacy: []string{"businessLogo", "logoUrl"}}
)

// OwnedFields lists every engine-owned field, in the order they are cleared
// on logout.
func OwnedFields() []Field {
	return []Field{
		FieldToken,
		FieldUserID,
		FieldUsername,
		FieldRoles,
		FieldPermissions,
		FieldTerminalID,
		FieldBusinessID,
		FieldBusinessName,
		FieldBusinessLogo,
	}
}

// OwnedKeys flattens [OwnedFields] into every canonical and legacy key. Used
// by logout teardown, which must remove stale legacy copies too.
func OwnedKeys() []string {
	fields := OwnedFields()
	out := make([]string, 0, len(fields)*3)
	for _, f := range fields {
		out = append(out, f.Candidates()...)
	}
	return out
}
