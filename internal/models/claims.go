package models

import "github.com/golang-jwt/jwt/v5"

// Application permissions
const (
	// Payment permissions
	PermissionPaymentRead    = "payments:read"
	PermissionPaymentWrite   = "payments:write"
	PermissionPaymentApprove = "payments:approve"
	PermissionPaymentRefund  = "payments:refund"

	// Wallet permissions
	PermissionWalletRead  = "wallet:read"
	PermissionWalletWrite = "wallet:write"

	// Admin permissions
	PermissionReadAdmin  = "admin:read"
	PermissionWriteAdmin = "admin:write"
)

// UserClaims are the JWT claims issued by the identity service. This core
// only validates them; it never issues tokens.
type UserClaims struct {
	jwt.RegisteredClaims
	UserID      uint     `json:"user_id"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// HasPermission checks if the claims include a specific permission.
func (c *UserClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// GetDefaultPermissions returns default permissions based on role.
func GetDefaultPermissions(role string) []string {
	switch role {
	case "admin":
		return []string{
			PermissionPaymentRead,
			PermissionPaymentWrite,
			PermissionPaymentApprove,
			PermissionPaymentRefund,
			PermissionWalletRead,
			PermissionWalletWrite,
			PermissionReadAdmin,
			PermissionWriteAdmin,
		}
	case "user":
		return []string{
			PermissionPaymentRead,
			PermissionPaymentWrite,
			PermissionWalletRead,
			PermissionWalletWrite,
		}
	default:
		return []string{}
	}
}
