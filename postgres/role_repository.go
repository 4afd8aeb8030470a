package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ashmortar/htmx-kit/domain"
)

// RoleRepository implements domain.RoleRepository over the
// roles/permissions/user_roles/role_permissions join graph.
type RoleRepository struct {
	pool *pgxpool.Pool
}

func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{pool: pool}
}

func (r *RoleRepository) AssignRole(ctx context.Context, userID, roleName string) error {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO user_roles (user_id, role_id)
		 SELECT $1, id FROM roles WHERE name = $2
		 ON CONFLICT DO NOTHING`, userID, roleName)
	if err != nil {
		return fmt.Errorf("assigning role %s: %w", roleName, err)
	}
	// Zero rows means either the role name does not exist or the user
	// already has it; only the former is an error worth surfacing.
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM roles WHERE name = $1)`, roleName).Scan(&exists); err != nil {
			return fmt.Errorf("checking role %s: %w", roleName, err)
		}
		if !exists {
			return fmt.Errorf("role %s: %w", roleName, domain.ErrNotFound)
		}
	}
	return nil
}

func (r *RoleRepository) RolesForUser(ctx context.Context, userID string) ([]domain.Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.id, r.name FROM roles r
		 JOIN user_roles ur ON ur.role_id = r.id
		 WHERE ur.user_id = $1
		 ORDER BY r.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	defer rows.Close()

	var out []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("scanning role: %w", err)
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

func (r *RoleRepository) PermissionsForUser(ctx context.Context, userID string) ([]domain.Permission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT p.id, p.name FROM permissions p
		 JOIN role_permissions rp ON rp.permission_id = p.id
		 JOIN user_roles ur ON ur.role_id = rp.role_id
		 WHERE ur.user_id = $1
		 ORDER BY p.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing permissions: %w", err)
	}
	defer rows.Close()

	var out []domain.Permission
	for rows.Next() {
		var perm domain.Permission
		if err := rows.Scan(&perm.ID, &perm.Name); err != nil {
			return nil, fmt.Errorf("scanning permission: %w", err)
		}
		out = append(out, perm)
	}
	return out, rows.Err()
}

var _ domain.RoleRepository = (*RoleRepository)(nil)
