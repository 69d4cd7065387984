package rbac

// Operator roles. TAs read runs; admins may also push scores to the LMS.
var RolePermissions = map[string][]string{
	"ta": {
		"runs:view",
	},
	"admin": {
		"*", // everything
	},
}
