package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/example/room-presence-demo/modules/api"
	"github.com/example/room-presence-demo/modules/auth"
	"github.com/example/room-presence-demo/modules/broadcast"
	"github.com/example/room-presence-demo/modules/catalog"
	"github.com/example/room-presence-demo/modules/presence"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Room Presence Demo - Fiber + EventBus Pubsub ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	authModule := auth.NewModule()
	catalogModule := catalog.NewModule()
	presenceModule := presence.NewModule()
	broadcastModule := broadcast.NewModule()
	apiModule := api.NewModule()

	// Inject collaborators that are not exposed via ServiceContainer:
	// the WebSocket hub and the live presence service.
	apiModule.SetHub(broadcastModule.GetHub())
	apiModule.SetPresence(presenceModule)

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - auth: account store + token services
	// - catalog: durable room records (SQLite + optional Redis cache)
	// - presence: live room state + session protocol (depends on catalog)
	// - broadcast: event consumer fanning presence events out over WebSocket
	// - api: driving adapter (Fiber HTTP/WebSocket server)
	app.Register(authModule)
	app.Register(catalogModule)
	app.Register(presenceModule)
	app.Register(broadcastModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Println("  - Event Bus: NATS JetStream (internal pubsub)")
	log.Println("  - Storage: SQLite via GORM, optional Redis room cache")
	log.Println("")
	log.Println("Event-Driven Presence:")
	log.Println("  - PersonJoined events -> broadcast module -> room members")
	log.Println("  - CharacterUpdated events -> broadcast module -> room members")
	log.Println("  - NewMessage events -> broadcast module -> room members")
	log.Println("  - PersonLeft events -> broadcast module -> room members")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                 - Health check")
	log.Println("  POST   /api/v1/auth/register   - Create an account")
	log.Println("  POST   /api/v1/auth/login      - Log in, returns token pair")
	log.Println("  POST   /api/v1/auth/refresh    - Refresh the token pair")
	log.Println("  GET    /api/v1/profile         - Current user profile (Bearer token)")
	log.Println("  GET    /api/v1/rooms           - List all rooms (Bearer token)")
	log.Println("  POST   /api/v1/rooms           - Create a new room (Bearer token)")
	log.Println("  GET    /api/v1/rooms/:id       - Get room details (Bearer token)")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", port)
	log.Println("  Connect with: ws://localhost:3000/ws?token=<access token>")
	log.Println("  Message types: join-room, character-update, send-message, leave-room")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
