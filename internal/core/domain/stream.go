package domain

import "time"

// CategoryID is the Twitch game/category identifier.
type CategoryID string

type Category struct {
	ID        CategoryID `json:"id"`
	Name      string     `json:"name"`
	BoxArtURL string     `json:"box_art_url"`
	IGDBID    string     `json:"igdb_id"`
}

// StreamRecord is a live stream as returned by Helix /streams. Field names
// follow Helix so the browser can consume the records unchanged.
type StreamRecord struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	UserLogin    string     `json:"user_login"`
	UserName     string     `json:"user_name"`
	GameID       CategoryID `json:"game_id"`
	GameName     string     `json:"game_name"`
	Type         string     `json:"type"`
	Title        string     `json:"title"`
	ViewerCount  int        `json:"viewer_count"`
	StartedAt    time.Time  `json:"started_at"`
	Language     string     `json:"language"`
	ThumbnailURL string     `json:"thumbnail_url"`
	Tags         []string   `json:"tags"`
	IsMature     bool       `json:"is_mature"`
}

// CacheStatus is a snapshot of the shared session, safe to expose.
type CacheStatus struct {
	Configured     bool       `json:"configured"`
	TokenState     TokenState `json:"token_state"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
	CategoryID     CategoryID `json:"category_id,omitempty"`
}

// ViewerSettings are the client-side limits published to the browser.
type ViewerSettings struct {
	MaxStreams int    `json:"max_streams"`
	Layouts    []int  `json:"layouts"`
	Category   string `json:"category"`
}
