package auth

// IsValid checks if the role is one of the predefined valid roles
func IsValidRole(r Role) bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into a Role
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, IsValidRole(role)
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []Role {
	return []Role{RoleBuyer, RoleSeller, RoleAdmin}
}

// EffectiveRole resolves the role tag for an identity. A missing identity,
// a missing tag, or an unrecognized value all resolve to buyer; the role is
// a snapshot valid for the current session only.
func EffectiveRole(identity Identity) Role {
	if identity == nil {
		return RoleBuyer
	}

	meta := identity.Metadata()
	if meta == nil {
		return RoleBuyer
	}

	raw, ok := meta["role"]
	if !ok {
		return RoleBuyer
	}

	s, ok := raw.(string)
	if !ok {
		return RoleBuyer
	}

	if role, valid := ParseRole(s); valid {
		return role
	}

	return RoleBuyer
}

// NormalizeStatus maps any value outside the defined application statuses to
// StatusAbsent. Unknown statuses must never read as approved.
func NormalizeStatus(s ApplicationStatus) ApplicationStatus {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return s
	default:
		return StatusAbsent
	}
}
