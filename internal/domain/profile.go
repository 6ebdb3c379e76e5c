package domain

import (
	"context"
	"strings"
	"time"
)

// Profile is the public portfolio record of a tenant. The resolver only relies
// on Slug and ID; the remaining fields are served to the SPA as-is.
type Profile struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	DisplayName string    `json:"displayName,omitempty"`
	Headline    string    `json:"headline,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
}

// Resolvable reports whether the record carries a backend identity.
func (p *Profile) Resolvable() bool {
	return p != nil && p.ID > 0
}

// NormalizeSlug lower-cases and trims a slug for lookups and cache keys.
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

// ProfileFetcher resolves a slug to its public profile.
// Implementations return ErrNotFound (wrapped) when no tenant owns the slug.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, slug string) (*Profile, error)
}

// ProfileCache holds previously fetched profiles keyed by normalized slug.
// Lookup returns (nil, nil) on a miss.
type ProfileCache interface {
	Lookup(ctx context.Context, slug string) (*Profile, error)
	Store(ctx context.Context, p *Profile) error
	Evict(ctx context.Context, slug string) error
}

type ProfileRepository interface {
	GetBySlug(ctx context.Context, slug string) (*Profile, error)
	Upsert(ctx context.Context, p *Profile) error
}
