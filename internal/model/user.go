package model

import "time"

// Role identifies which side of the marketplace an account belongs to.
// The string values are stored verbatim in the `users.role` column and
// embedded in JWT claims, so they must never change once issued.
type Role string

const (
	RoleDonor        Role = "donor"        // lists organic waste for collection
	RoleManufacturer Role = "manufacturer" // collects waste and sells fertilizer
	RoleBuyer        Role = "buyer"        // purchases finished fertilizer
	RoleAdmin        Role = "admin"        // unrestricted back-office access
)

// ValidRole reports whether s is one of the four known roles.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleDonor, RoleManufacturer, RoleBuyer, RoleAdmin:
		return true
	}
	return false
}

// User mirrors the `users` table. PasswordHash carries the bcrypt digest and
// is excluded from JSON so the credential can never leak across the API
// boundary, regardless of which handler serializes the record.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Avatar       string    `json:"avatar,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	ZipCode      string    `json:"zipCode"`
	IsVerified   bool      `json:"isVerified"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
