package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// newTestService builds a service with caching disabled.
func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewRepository(setupTestDB(t)), nil)
}

func TestService_Create(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	rec, err := service.Create(ctx, "lobby", "The main room", 12, 1, "alice")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if rec.Capacity != 12 {
		t.Errorf("rec.Capacity = %d, want 12", rec.Capacity)
	}
	if rec.OwnerName != "alice" {
		t.Errorf("rec.OwnerName = %q, want %q", rec.OwnerName, "alice")
	}
}

func TestService_CreateDefaultsCapacity(t *testing.T) {
	service := newTestService(t)

	rec, err := service.Create(context.Background(), "lobby", "", 0, 1, "alice")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if rec.Capacity != 9 {
		t.Errorf("rec.Capacity = %d, want default 9", rec.Capacity)
	}
}

func TestService_CreateValidation(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		roomName string
		wantErr  error
	}{
		{
			name:     "empty name",
			roomName: "",
			wantErr:  ErrRoomNameEmpty,
		},
		{
			name:     "name too long",
			roomName: strings.Repeat("x", maxRoomNameLength+1),
			wantErr:  ErrRoomNameTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Create(ctx, tt.roomName, "", 9, 1, "alice")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestService_CreateDuplicateName(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	if _, err := service.Create(ctx, "lobby", "", 9, 1, "alice"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err := service.Create(ctx, "lobby", "", 9, 2, "bob")
	if !errors.Is(err, ErrRoomExists) {
		t.Errorf("Create() duplicate error = %v, want ErrRoomExists", err)
	}
}

func TestService_List(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"lobby", "bedroom"} {
		if _, err := service.Create(ctx, name, "", 9, 1, "alice"); err != nil {
			t.Fatalf("Create(%q) error = %v", name, err)
		}
	}

	records, err := service.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("len(List()) = %d, want 2", len(records))
	}
}

func TestService_GetByID(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, "lobby", "", 9, 1, "alice")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("existing room", func(t *testing.T) {
		rec, err := service.GetByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if rec == nil || rec.Name != "lobby" {
			t.Errorf("GetByID() = %+v, want lobby", rec)
		}
	})

	t.Run("unknown room is nil not error", func(t *testing.T) {
		rec, err := service.GetByID(ctx, 9999)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if rec != nil {
			t.Errorf("GetByID(9999) = %+v, want nil", rec)
		}
	})
}
