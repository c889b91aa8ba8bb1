package entity

import "time"

// Playlist is an ordered sequence of media references. Its UpdatedAt advances
// on any membership or metadata change and is the unit devices use to detect
// "content changed without the schedule changing".
type Playlist struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Items     []PlaylistItem `json:"items"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// PlaylistItem is one positioned media reference inside a playlist.
type PlaylistItem struct {
	ID              int64  `json:"id"`
	PlaylistID      int64  `json:"playlist_id"`
	MediaID         int64  `json:"media_id"`
	Position        int    `json:"position"`
	DurationSeconds int    `json:"duration_seconds"`
	Media           *Media `json:"media,omitempty"`
}

// Media is an uploaded content file referenced by playlists. Upload and
// storage live outside this subsystem; devices download by filename.
type Media struct {
	ID        int64     `json:"id"`
	Filename  string    `json:"filename"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}
