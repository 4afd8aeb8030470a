package domain

// Role names seeded by the initial migration.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Role groups permissions; users get roles through the user_roles join table.
type Role struct {
	ID   string
	Name string
}

// Permission is a single named capability attached to roles.
type Permission struct {
	ID   string
	Name string
}
