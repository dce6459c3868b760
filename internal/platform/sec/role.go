// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// Role represents the authorization level granted to an account.
//
// Authorization is a single comparison against this enum — individual
// "is this user a farmer?" predicates are deliberately absent.
type Role string

const (
	// Unrestricted system access, including admin account creation
	RoleSuperAdmin Role = "superadmin"

	// Marketplace operations staff
	RoleAdmin Role = "admin"

	// Farmer whose identity documents have been verified
	RoleVerifiedFarmer Role = "verified_farmer"

	// Seller account, verification pending
	RoleFarmer Role = "farmer"

	// Buyer whose identity documents have been verified
	RoleVerifiedConsumer Role = "verified_consumer"

	// Default role for standard registered buyers
	RoleConsumer Role = "consumer"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r Role) AtLeast(target Role) bool {
	return r.level() >= target.level()
}

// IsAdmin reports whether the role belongs to the administrative class.
// Login resolves identifiers within a single class, and admin sessions get a
// much shorter lifetime.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Valid reports whether the role is a known member of the enum.
func (r Role) Valid() bool {
	return r.level() > 0
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r Role) level() int {

	// Linear scale (10-60) allows for future intermediate roles
	switch r {
	case RoleSuperAdmin:
		return 60
	case RoleAdmin:
		return 50
	case RoleVerifiedFarmer:
		return 40
	case RoleFarmer:
		return 30
	case RoleVerifiedConsumer:
		return 20
	case RoleConsumer:
		return 10
	default:
		return 0
	}
}

// # Authenticated Principal

// AuthUser is the resolved identity attached to a request after the guard
// accepts its session token. Downstream handlers read it from the context.
type AuthUser struct {
	UserID string
	Role   Role
}
