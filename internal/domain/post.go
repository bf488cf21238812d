package domain

import (
	"strings"
	"time"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusPublished Status = "published"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusScheduled, StatusPublished:
		return true
	}
	return false
}

type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformTwitter   Platform = "twitter"
	PlatformInstagram Platform = "instagram"
	PlatformLinkedIn  Platform = "linkedin"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformFacebook, PlatformTwitter, PlatformInstagram, PlatformLinkedIn:
		return true
	}
	return false
}

// NormalizePlatforms lowercases tags and drops duplicates, keeping first-seen order.
func NormalizePlatforms(in []Platform) []Platform {
	if in == nil {
		return nil
	}
	seen := make(map[Platform]struct{}, len(in))
	out := make([]Platform, 0, len(in))
	for _, p := range in {
		p = Platform(strings.ToLower(strings.TrimSpace(string(p))))
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaFile  MediaKind = "file"
)

type Media struct {
	Kind    MediaKind `json:"kind" validate:"required,oneof=image video file"`
	Locator string    `json:"locator" validate:"required"`
	Name    string    `json:"name" validate:"required,max=255"`
}

type Stats struct {
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
	Shares   int `json:"shares"`
}

// PublishFailure is recorded when a sweeper publish attempt fails.
// The post stays scheduled but is kept out of the queue until rescheduled.
type PublishFailure struct {
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

type Post struct {
	ID             string          `json:"id"`
	Content        string          `json:"content"`
	Media          []Media         `json:"media"`
	Platforms      []Platform      `json:"platforms"`
	Status         Status          `json:"status"`
	PublishAt      *time.Time      `json:"publishAt,omitempty"`
	Stats          *Stats          `json:"stats,omitempty"`
	PublishFailure *PublishFailure `json:"publishFailure,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Queued reports whether the post should hold a queue entry.
func (p *Post) Queued() bool {
	return p.Status == StatusScheduled && p.PublishAt != nil && p.PublishFailure == nil
}

// Clone returns a deep copy so callers never share slices with the store.
func (p Post) Clone() Post {
	out := p
	if p.Media != nil {
		out.Media = append([]Media(nil), p.Media...)
	}
	if p.Platforms != nil {
		out.Platforms = append([]Platform(nil), p.Platforms...)
	}
	if p.PublishAt != nil {
		at := *p.PublishAt
		out.PublishAt = &at
	}
	if p.Stats != nil {
		stats := *p.Stats
		out.Stats = &stats
	}
	if p.PublishFailure != nil {
		failure := *p.PublishFailure
		out.PublishFailure = &failure
	}
	return out
}

// PostInput carries every client-settable field of a new post.
type PostInput struct {
	Content   string     `json:"content" validate:"max=5000"`
	Media     []Media    `json:"media" validate:"dive"`
	Platforms []Platform `json:"platforms" validate:"dive,oneof=facebook twitter instagram linkedin"`
	Status    Status     `json:"status" validate:"omitempty,oneof=draft scheduled published"`
	PublishAt *time.Time `json:"publishAt"`
	Stats     *Stats     `json:"stats"`
}

// PostPatch is a partial update; nil fields are left untouched.
type PostPatch struct {
	Content   *string     `json:"content" validate:"omitempty,max=5000"`
	Media     *[]Media    `json:"media" validate:"omitempty,dive"`
	Platforms *[]Platform `json:"platforms" validate:"omitempty,dive,oneof=facebook twitter instagram linkedin"`
	Status    *Status     `json:"status" validate:"omitempty,oneof=draft scheduled published"`
	PublishAt *time.Time  `json:"publishAt"`
	Stats     *Stats      `json:"stats"`
}

type QueueEntry struct {
	PostID    string    `json:"postId"`
	PublishAt time.Time `json:"publishAt"`
}
