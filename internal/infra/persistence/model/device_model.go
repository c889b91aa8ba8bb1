package model

import (
	"time"

	"github.com/google/uuid"
)

// DeviceModel is the GORM-specific struct for the 'devices' table.
type DeviceModel struct {
	ID              int64     `gorm:"primaryKey;autoIncrement"`
	UUID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Name            string    `gorm:"type:varchar(255);not null"`
	IP              string    `gorm:"type:varchar(45)"`
	Status          string    `gorm:"type:varchar(16);not null;default:offline;index"`
	LastPing          time.Time
	CurrentMedia      string `gorm:"type:varchar(255)"`
	CurrentPositionMS int64  `gorm:"column:current_position_ms;not null;default:0"`
	AppVersion        string `gorm:"type:varchar(64)"`
	UpdateRequested bool   `gorm:"not null;default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName explicitly sets the table name for GORM.
func (DeviceModel) TableName() string {
	return "devices"
}
