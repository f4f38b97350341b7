package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/example/room-presence-demo/domain/room"
	"golang.org/x/sync/singleflight"
)

const maxRoomNameLength = 100

// ErrRoomNameEmpty is returned when a create request has no name.
var ErrRoomNameEmpty = errors.New("room name cannot be empty")

// ErrRoomNameTooLong is returned when a create request's name exceeds the cap.
var ErrRoomNameTooLong = errors.New("room name exceeds maximum length")

// Service provides catalog operations with optional read caching. A nil
// cache disables caching and every read goes to the database.
type Service struct {
	repo    *Repository
	cache   *Cache
	sfGroup singleflight.Group
}

// NewService creates a new catalog service.
func NewService(repo *Repository, cache *Cache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
	}
}

// Create stores a new room record and invalidates the cached listing.
func (s *Service) Create(ctx context.Context, name, description string, capacity, ownerID int, ownerName string) (*room.Record, error) {
	if name == "" {
		return nil, ErrRoomNameEmpty
	}
	if len(name) > maxRoomNameLength {
		return nil, ErrRoomNameTooLong
	}

	exists, err := s.repo.NameExists(name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrRoomExists
	}

	rec := &room.Record{
		Name:        name,
		Description: description,
		Capacity:    capacity,
		OwnerID:     ownerID,
		OwnerName:   ownerName,
	}
	if rec.Capacity <= 0 {
		rec.Capacity = 9
	}

	if err := s.repo.Create(rec); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, "list"); err != nil {
			log.Printf("[catalog] Warning: failed to invalidate list cache: %v", err)
		}
	}

	return rec, nil
}

// List returns all room records, cache-aside.
func (s *Service) List(ctx context.Context) ([]room.Record, error) {
	if s.cache != nil {
		var cached []room.Record
		found, err := s.cache.Get(ctx, "list", &cached)
		if err != nil {
			log.Printf("[catalog] Cache error on list: %v", err)
		}
		if found {
			return cached, nil
		}
	}

	records, err := s.repo.FindAll()
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, "list", records); err != nil {
			log.Printf("[catalog] Warning: failed to cache list: %v", err)
		}
	}

	return records, nil
}

// GetByID returns the room record for id, or (nil, nil) when it does not
// exist. Concurrent misses for the same id collapse to one database read.
func (s *Service) GetByID(ctx context.Context, id int) (*room.Record, error) {
	key := "id:" + strconv.Itoa(id)

	if s.cache != nil {
		var cached room.Record
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Printf("[catalog] Cache error for id=%d: %v", id, err)
		}
		if found {
			return &cached, nil
		}
	}

	val, err, _ := s.sfGroup.Do(key, func() (any, error) {
		rec, err := s.repo.FindByID(id)
		if errors.Is(err, ErrRoomNotFound) {
			return (*room.Record)(nil), nil
		}
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load room %d: %w", id, err)
	}

	rec, ok := val.(*room.Record)
	if !ok || rec == nil {
		return nil, nil
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, rec); err != nil {
			log.Printf("[catalog] Warning: failed to cache room id=%d: %v", id, err)
		}
	}

	return rec, nil
}
