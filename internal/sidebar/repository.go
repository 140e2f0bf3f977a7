package sidebar

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-pm/atrium/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the page catalog.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListActivePages returns active pages ordered by display order.
func (r *Repository) ListActivePages(ctx context.Context) ([]Page, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, url, icon, display_order, is_active FROM sidebar_pages
		 WHERE is_active ORDER BY display_order, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var pages []Page
	for rows.Next() {
		var page Page
		if err := rows.Scan(&page.ID, &page.Name, &page.URL, &page.Icon, &page.DisplayOrder, &page.IsActive); err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

// GetPageByURL fetches an active page by its URL.
func (r *Repository) GetPageByURL(ctx context.Context, url string) (Page, error) {
	var page Page
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, url, icon, display_order, is_active FROM sidebar_pages
		 WHERE url = $1 AND is_active`, url).
		Scan(&page.ID, &page.Name, &page.URL, &page.Icon, &page.DisplayOrder, &page.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return Page{}, shared.ErrNotFound
	}
	return page, err
}

// PagePermissionType returns the permission type the page requires. Pages
// without an explicit row require "view".
func (r *Repository) PagePermissionType(ctx context.Context, pageID int64) (string, error) {
	var permType string
	err := r.pool.QueryRow(ctx,
		`SELECT permission_type FROM page_permissions WHERE page_id = $1`, pageID).Scan(&permType)
	if errors.Is(err, pgx.ErrNoRows) {
		return "view", nil
	}
	return permType, err
}

// PageGrant reports whether the role is granted the page for the permission
// type. A missing row denies.
func (r *Repository) PageGrant(ctx context.Context, roleID, pageID int64, permType string) (bool, error) {
	var granted bool
	err := r.pool.QueryRow(ctx,
		`SELECT granted FROM role_page_permissions
		 WHERE role_id = $1 AND page_id = $2 AND permission_type = $3`,
		roleID, pageID, permType).Scan(&granted)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return granted, nil
}
