package model

import "time"

// MediaModel is the GORM-specific struct for the 'media' table. Upload and
// storage are handled outside this subsystem; rows are referenced here only.
type MediaModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Filename  string `gorm:"type:varchar(255);not null;uniqueIndex"`
	SizeBytes int64  `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (MediaModel) TableName() string {
	return "media"
}
