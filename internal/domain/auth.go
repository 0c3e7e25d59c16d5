package domain

// Role enumerates dashboard caller roles.
type Role string

const (
	RoleClient Role = "client"
	RoleViewer Role = "viewer"
	RoleAdmin  Role = "admin"
)

// APIKey maps a credential string to a dashboard caller.
type APIKey struct {
	Key      string
	Name     string
	Role     Role
	ClientID string
	Active   bool
}
