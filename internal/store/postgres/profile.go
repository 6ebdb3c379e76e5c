package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/folio/internal/domain"
)

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func (r *ProfileRepo) GetBySlug(ctx context.Context, slug string) (*domain.Profile, error) {
	var p domain.Profile

	err := r.pool.QueryRow(ctx,
		`SELECT id, slug, display_name, headline, bio, avatar_url, updated_at
		 FROM profiles WHERE slug = $1`,
		domain.NormalizeSlug(slug),
	).Scan(&p.ID, &p.Slug, &p.DisplayName, &p.Headline, &p.Bio, &p.AvatarURL, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("profileRepo.GetBySlug: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("profileRepo.GetBySlug: %w", err)
	}

	return &p, nil
}

// FetchProfile lets the repository act as a domain.ProfileFetcher when the
// resolver runs next to the database instead of behind the public API.
func (r *ProfileRepo) FetchProfile(ctx context.Context, slug string) (*domain.Profile, error) {
	return r.GetBySlug(ctx, slug)
}

// Upsert writes the profile keyed by p.ID, which is the owner's user id. A
// slug already held by another owner yields domain.ErrConflict.
func (r *ProfileRepo) Upsert(ctx context.Context, p *domain.Profile) error {
	if p.ID <= 0 {
		return fmt.Errorf("profileRepo.Upsert: %w", domain.ErrInvalidID)
	}
	slug := domain.NormalizeSlug(p.Slug)
	if slug == "" {
		return fmt.Errorf("profileRepo.Upsert: %w", domain.ErrInvalidSlug)
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO profiles (id, slug, display_name, headline, bio, avatar_url, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())
		 ON CONFLICT (id) DO UPDATE SET
		   slug = EXCLUDED.slug,
		   display_name = EXCLUDED.display_name,
		   headline = EXCLUDED.headline,
		   bio = EXCLUDED.bio,
		   avatar_url = EXCLUDED.avatar_url,
		   updated_at = now()
		 RETURNING updated_at`,
		p.ID, slug, p.DisplayName, p.Headline, p.Bio, p.AvatarURL,
	).Scan(&p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("profileRepo.Upsert: slug %q: %w", slug, domain.ErrConflict)
		}
		return fmt.Errorf("profileRepo.Upsert: %w", err)
	}
	p.Slug = slug
	return nil
}
