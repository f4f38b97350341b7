package catalog

import (
	"errors"
	"fmt"

	"github.com/example/room-presence-demo/domain/room"
	"gorm.io/gorm"
)

var (
	// ErrRoomNotFound is returned when a room record does not exist.
	ErrRoomNotFound = errors.New("room record not found")
	// ErrRoomExists is returned when a room with the same name exists.
	ErrRoomExists = errors.New("room with this name already exists")
)

// Repository handles room catalog persistence using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create saves a new room record.
func (r *Repository) Create(rec *room.Record) error {
	if err := r.db.Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrRoomExists
		}
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

// FindAll retrieves all room records.
func (r *Repository) FindAll() ([]room.Record, error) {
	var records []room.Record
	if err := r.db.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return records, nil
}

// FindByID retrieves a room record by id.
func (r *Repository) FindByID(id int) (*room.Record, error) {
	var rec room.Record
	if err := r.db.First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return &rec, nil
}

// NameExists checks if a room with the given name exists.
func (r *Repository) NameExists(name string) (bool, error) {
	var count int64
	if err := r.db.Model(&room.Record{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check room name: %w", err)
	}
	return count > 0, nil
}
