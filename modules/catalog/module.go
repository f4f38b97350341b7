package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/example/room-presence-demo/domain/room"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Module provides the durable room catalog as request-reply services over
// GORM + SQLite, with an optional Redis read cache enabled by REDIS_ADDR.
type Module struct {
	db        *gorm.DB
	redisCli  *redis.Client
	service   *Service
	dbPath    string
	redisAddr string
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new catalog module.
func NewModule() *Module {
	dbPath := os.Getenv("CATALOG_DB_PATH")
	if dbPath == "" {
		dbPath = "catalog.db"
	}
	return &Module{
		dbPath:    dbPath,
		redisAddr: os.Getenv("REDIS_ADDR"),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "catalog"
}

// Start initializes the catalog database and the optional Redis cache.
func (m *Module) Start(ctx context.Context) error {
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := db.AutoMigrate(&room.Record{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	var cache *Cache
	if m.redisAddr != "" {
		m.redisCli = redis.NewClient(&redis.Options{
			Addr:         m.redisAddr,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		if err := m.redisCli.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		cache = NewCache(m.redisCli, "catalog:", defaultCacheTTL)
		log.Printf("[catalog] Redis cache enabled at %s", m.redisAddr)
	}

	m.service = NewService(NewRepository(db), cache)

	log.Printf("[catalog] Module started (database: %s)", m.dbPath)
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	if m.redisCli != nil {
		if err := m.redisCli.Close(); err != nil {
			log.Printf("[catalog] Error closing Redis connection: %v", err)
		}
	}
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[catalog] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database":      m.dbPath,
			"cache_enabled": m.redisCli != nil,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreate, json.Unmarshal, json.Marshal, m.handleCreate,
	); err != nil {
		return fmt.Errorf("failed to register create service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceList, json.Unmarshal, json.Marshal, m.handleList,
	); err != nil {
		return fmt.Errorf("failed to register list service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGet, json.Unmarshal, json.Marshal, m.handleGet,
	); err != nil {
		return fmt.Errorf("failed to register get service: %w", err)
	}

	log.Printf("[catalog] Registered services: create, list, get")
	return nil
}

func (m *Module) handleCreate(ctx context.Context, req CreateRoomRequest, _ *mono.Msg) (CreateRoomResponse, error) {
	rec, err := m.service.Create(ctx, req.Name, req.Description, req.Capacity, req.OwnerID, req.OwnerName)
	if err != nil {
		return CreateRoomResponse{}, err
	}
	return CreateRoomResponse{Room: rec}, nil
}

func (m *Module) handleList(ctx context.Context, _ ListRoomsRequest, _ *mono.Msg) (ListRoomsResponse, error) {
	records, err := m.service.List(ctx)
	if err != nil {
		return ListRoomsResponse{}, err
	}
	return ListRoomsResponse{Rooms: records}, nil
}

func (m *Module) handleGet(ctx context.Context, req GetRoomRequest, _ *mono.Msg) (GetRoomResponse, error) {
	rec, err := m.service.GetByID(ctx, req.ID)
	if err != nil {
		return GetRoomResponse{}, err
	}
	if rec == nil {
		return GetRoomResponse{Found: false}, nil
	}
	return GetRoomResponse{Found: true, Room: rec}, nil
}
