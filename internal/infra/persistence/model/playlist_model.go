package model

import "time"

// PlaylistModel is the GORM-specific struct for the 'playlists' table.
type PlaylistModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Items []PlaylistItemModel `gorm:"foreignKey:PlaylistID"`
}

// TableName explicitly sets the table name for GORM.
func (PlaylistModel) TableName() string {
	return "playlists"
}

// PlaylistItemModel is the GORM-specific struct for the 'playlist_items' table.
type PlaylistItemModel struct {
	ID              int64 `gorm:"primaryKey;autoIncrement"`
	PlaylistID      int64 `gorm:"not null;index"`
	MediaID         int64 `gorm:"not null;index"`
	Position        int   `gorm:"not null"`
	DurationSeconds int   `gorm:"not null;default:0"`
	CreatedAt       time.Time

	Media *MediaModel `gorm:"foreignKey:MediaID"`
}

// TableName explicitly sets the table name for GORM.
func (PlaylistItemModel) TableName() string {
	return "playlist_items"
}
