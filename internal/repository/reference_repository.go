package repository

import (
	"context"
	"log"
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/cache"
	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// referenceTTL bounds how stale a cached lookup table can get.
const referenceTTL = 5 * time.Minute

// ReferenceRepository reads the lookup tables (statuses, sites, categories,
// assets, vendors) through a cache-aside layer. These tables change rarely
// and back every label resolution, so cache misses fall through to the
// database and cache failures only cost a recomputation.
type ReferenceRepository struct {
	db    *database.DB
	store cache.Store
}

// NewReferenceRepository creates a new reference repository. store may be nil
// to disable caching.
func NewReferenceRepository(db *database.DB, store cache.Store) *ReferenceRepository {
	return &ReferenceRepository{db: db, store: store}
}

// Statuses returns all ticket statuses ordered by id.
func (r *ReferenceRepository) Statuses(ctx context.Context) ([]models.Status, error) {
	out := []models.Status{}
	err := r.cached(ctx, "ref:statuses", &out, func() error {
		return r.db.SelectContext(ctx, &out,
			`SELECT status_id, status_label FROM statuses ORDER BY status_id`)
	})
	return out, err
}

// Sites returns all sites ordered by label.
func (r *ReferenceRepository) Sites(ctx context.Context) ([]models.Site, error) {
	out := []models.Site{}
	err := r.cached(ctx, "ref:sites", &out, func() error {
		return r.db.SelectContext(ctx, &out,
			`SELECT site_id, site_label FROM sites ORDER BY site_label, site_id`)
	})
	return out, err
}

// Categories returns all ticket categories ordered by label.
func (r *ReferenceRepository) Categories(ctx context.Context) ([]models.Category, error) {
	out := []models.Category{}
	err := r.cached(ctx, "ref:categories", &out, func() error {
		return r.db.SelectContext(ctx, &out,
			`SELECT category_id, category_label FROM ticket_categories ORDER BY category_label, category_id`)
	})
	return out, err
}

// Assets returns all assets ordered by label.
func (r *ReferenceRepository) Assets(ctx context.Context) ([]models.Asset, error) {
	out := []models.Asset{}
	err := r.cached(ctx, "ref:assets", &out, func() error {
		return r.db.SelectContext(ctx, &out,
			`SELECT asset_id, asset_label, site_id FROM assets ORDER BY asset_label, asset_id`)
	})
	return out, err
}

// Vendors returns all vendors ordered by name.
func (r *ReferenceRepository) Vendors(ctx context.Context) ([]models.Vendor, error) {
	out := []models.Vendor{}
	err := r.cached(ctx, "ref:vendors", &out, func() error {
		return r.db.SelectContext(ctx, &out,
			`SELECT vendor_id, vendor_name FROM vendors ORDER BY vendor_name, vendor_id`)
	})
	return out, err
}

// All bundles every lookup table into one payload.
func (r *ReferenceRepository) All(ctx context.Context) (*models.ReferenceData, error) {
	statuses, err := r.Statuses(ctx)
	if err != nil {
		return nil, err
	}
	sites, err := r.Sites(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := r.Categories(ctx)
	if err != nil {
		return nil, err
	}
	assets, err := r.Assets(ctx)
	if err != nil {
		return nil, err
	}
	vendors, err := r.Vendors(ctx)
	if err != nil {
		return nil, err
	}
	return &models.ReferenceData{
		Statuses:   statuses,
		Sites:      sites,
		Categories: categories,
		Assets:     assets,
		Vendors:    vendors,
	}, nil
}

// StatusLabels returns status_id -> label.
func (r *ReferenceRepository) StatusLabels(ctx context.Context) (map[int]string, error) {
	statuses, err := r.Statuses(ctx)
	if err != nil {
		return nil, err
	}
	labels := make(map[int]string, len(statuses))
	for _, s := range statuses {
		labels[s.StatusID] = s.StatusLabel
	}
	return labels, nil
}

// SiteLabels returns site_id -> label.
func (r *ReferenceRepository) SiteLabels(ctx context.Context) (map[int64]string, error) {
	sites, err := r.Sites(ctx)
	if err != nil {
		return nil, err
	}
	labels := make(map[int64]string, len(sites))
	for _, s := range sites {
		labels[s.SiteID] = s.SiteLabel
	}
	return labels, nil
}

// CategoryLabels returns category_id -> label.
func (r *ReferenceRepository) CategoryLabels(ctx context.Context) (map[int64]string, error) {
	categories, err := r.Categories(ctx)
	if err != nil {
		return nil, err
	}
	labels := make(map[int64]string, len(categories))
	for _, c := range categories {
		labels[c.CategoryID] = c.CategoryLabel
	}
	return labels, nil
}

// VendorNames returns vendor_id -> name.
func (r *ReferenceRepository) VendorNames(ctx context.Context) (map[int64]string, error) {
	vendors, err := r.Vendors(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(vendors))
	for _, v := range vendors {
		names[v.VendorID] = v.VendorName
	}
	return names, nil
}

// Invalidate drops the cached lookup tables.
func (r *ReferenceRepository) Invalidate(ctx context.Context) {
	if r.store == nil {
		return
	}
	for _, key := range []string{"ref:statuses", "ref:sites", "ref:categories", "ref:assets", "ref:vendors"} {
		if err := r.store.Delete(ctx, key); err != nil {
			log.Printf("reference cache: delete %s: %v", key, err)
		}
	}
}

// cached serves dest from the cache when possible, otherwise runs load and
// stores the result. Cache errors are logged, never surfaced.
func (r *ReferenceRepository) cached(ctx context.Context, key string, dest any, load func() error) error {
	if r.store != nil {
		ok, err := r.store.GetObject(ctx, key, dest)
		if err != nil {
			log.Printf("reference cache: get %s: %v", key, err)
		} else if ok {
			return nil
		}
	}
	if err := load(); err != nil {
		return err
	}
	if r.store != nil {
		if err := r.store.SetObject(ctx, key, dest, referenceTTL); err != nil {
			log.Printf("reference cache: set %s: %v", key, err)
		}
	}
	return nil
}
