package room

import "time"

// Record is a durable room catalog entry.
type Record struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null;type:text" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Capacity    int       `gorm:"not null;default:9" json:"capacity"`
	Current     int       `gorm:"not null;default:0" json:"current"`
	OwnerID     int       `json:"owner_id"`
	OwnerName   string    `gorm:"type:text" json:"owner_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the table name for the Record entity.
func (Record) TableName() string {
	return "rooms"
}
