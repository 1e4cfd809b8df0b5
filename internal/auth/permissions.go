package auth

// Permission groups used by the builtin catalog.
const (
	GroupUserManagement = "User Management"
	GroupRoleManagement = "Role Management"
	GroupAcademics      = "Academics"
)

// BuiltinPermissions is the catalog ensured at startup. Entries are keyed
// by name; redeploys never duplicate them.
var BuiltinPermissions = []Permission{
	{Name: "users.view", GroupName: GroupUserManagement, Active: true},
	{Name: "users.edit", GroupName: GroupUserManagement, Active: true},
	{Name: "roles.view", GroupName: GroupRoleManagement, Active: true},
	{Name: "roles.manage", GroupName: GroupRoleManagement, Active: true},
	{Name: "courses.view", GroupName: GroupAcademics, Active: true},
	{Name: "courses.edit", GroupName: GroupAcademics, Active: true},
}
