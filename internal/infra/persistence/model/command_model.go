package model

import "time"

// DeviceCommandModel is the GORM-specific struct for the 'device_commands'
// table (the per-device command inbox).
type DeviceCommandModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	DeviceID  int64  `gorm:"not null;index:idx_device_commands_pending"`
	Type      string `gorm:"type:varchar(64);not null"`
	RequestID string `gorm:"type:varchar(64)"`
	Status    string `gorm:"type:varchar(16);not null;default:pending;index:idx_device_commands_pending"`
	CreatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (DeviceCommandModel) TableName() string {
	return "device_commands"
}
