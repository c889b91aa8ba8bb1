package model

import "time"

// ScheduleModel is the GORM-specific struct for the 'schedules' table.
type ScheduleModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	DeviceID    int64  `gorm:"not null;index"`
	PlaylistID  int64  `gorm:"not null;index"`
	Name        string `gorm:"type:varchar(255);not null"`
	Days        string `gorm:"type:varchar(64);not null"`
	StartMinute int    `gorm:"not null"`
	EndMinute   int    `gorm:"not null"`
	ValidFrom   string `gorm:"type:varchar(10)"`
	ValidUntil  string `gorm:"type:varchar(10)"`
	Enabled     bool   `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// PlaylistUpdatedAt is filled by a join on reads; it has no column.
	PlaylistUpdatedAt time.Time `gorm:"-"`
}

// TableName explicitly sets the table name for GORM.
func (ScheduleModel) TableName() string {
	return "schedules"
}
