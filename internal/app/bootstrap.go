package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-pm/atrium/internal/platform/db"
	"github.com/atrium-pm/atrium/internal/shared"
)

// SeedDefaults provisions the default catalog: system roles, the permission
// list, role grants, sidebar pages, and page grants. Every statement is an
// upsert so repeated startups converge on the same state without clobbering
// operator customisations made through the admin API.
func SeedDefaults(ctx context.Context, logger *slog.Logger, pool *pgxpool.Pool) error {
	catalog := shared.Defaults()

	err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		for _, role := range catalog.Roles {
			if _, err := tx.Exec(ctx,
				`INSERT INTO roles (name, description)
				 VALUES ($1, $2)
				 ON CONFLICT (name) DO NOTHING`,
				role.Name, role.Description); err != nil {
				return fmt.Errorf("seed role %s: %w", role.Name, err)
			}
		}

		for _, perm := range catalog.Permissions {
			resource, action := splitPermission(perm)
			if _, err := tx.Exec(ctx,
				`INSERT INTO permissions (name, resource, action)
				 VALUES ($1, $2, $3)
				 ON CONFLICT (name) DO NOTHING`,
				perm, resource, action); err != nil {
				return fmt.Errorf("seed permission %s: %w", perm, err)
			}
		}

		for role, perms := range catalog.Grants {
			for _, perm := range perms {
				if _, err := tx.Exec(ctx,
					`INSERT INTO role_permissions (role_id, permission_id)
					 SELECT r.id, p.id FROM roles r, permissions p
					 WHERE r.name = $1 AND p.name = $2
					 ON CONFLICT DO NOTHING`,
					role, perm); err != nil {
					return fmt.Errorf("seed grant %s -> %s: %w", role, perm, err)
				}
			}
		}

		for _, page := range catalog.Pages {
			if _, err := tx.Exec(ctx,
				`INSERT INTO sidebar_pages (name, url, icon, display_order, is_active)
				 VALUES ($1, $2, $3, $4, TRUE)
				 ON CONFLICT (url) DO NOTHING`,
				page.Name, page.URL, page.Icon, page.DisplayOrder); err != nil {
				return fmt.Errorf("seed page %s: %w", page.URL, err)
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO page_permissions (page_id, permission_type)
				 SELECT sp.id, 'view' FROM sidebar_pages sp
				 WHERE sp.url = $1
				 ON CONFLICT DO NOTHING`,
				page.URL); err != nil {
				return fmt.Errorf("seed page permission %s: %w", page.URL, err)
			}
		}

		for role, urls := range catalog.PageGrants {
			for _, url := range urls {
				if _, err := tx.Exec(ctx,
					`INSERT INTO role_page_permissions (role_id, page_id, permission_type, granted)
					 SELECT r.id, sp.id, 'view', TRUE FROM roles r, sidebar_pages sp
					 WHERE r.name = $1 AND sp.url = $2
					 ON CONFLICT (role_id, page_id, permission_type) DO UPDATE SET granted = TRUE`,
					role, url); err != nil {
					return fmt.Errorf("seed page grant %s -> %s: %w", role, url, err)
				}
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("default catalog seeded", slog.Int("version", catalog.Version))
	return nil
}

func splitPermission(name string) (resource, action string) {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return name, ""
	}
	return name[:idx], name[idx+1:]
}
