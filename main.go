package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/example/room-relay/modules/api"
	"github.com/example/room-relay/modules/broadcast"
	"github.com/example/room-relay/modules/relay"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Room Relay - Ephemeral WebSocket Rooms ===")

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
	relayModule := relay.NewModule(relayConfigFromEnv())
	broadcastModule := broadcast.NewModule()
	apiModule := api.NewModule(listenAddr(), relayModule)

	// Inject broadcast hub into API module
	// (This is done manually because the hub is not exposed via ServiceContainer)
	apiModule.SetHub(broadcastModule.GetHub())

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - relay: Core domain (room store + EventEmitterModule)
	// - broadcast: Event consumer (EventConsumerModule for WebSocket fanout)
	// - api: Driving adapter (Fiber HTTP/WebSocket server, depends on relay)
	app.Register(relayModule)     // Room store + event emitter
	app.Register(broadcastModule) // WebSocket hub + event consumer
	app.Register(apiModule)       // HTTP/WebSocket API

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

// listenAddr builds the Fiber listen address from PORT.
func listenAddr() string {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	return ":" + port
}

// relayConfigFromEnv builds the relay config, falling back to defaults on
// missing or malformed values.
func relayConfigFromEnv() relay.Config {
	cfg := relay.DefaultConfig()
	if v := os.Getenv("REAP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ReapInterval = d
		} else {
			log.Printf("Ignoring invalid REAP_INTERVAL %q: %v", v, err)
		}
	}
	if v := os.Getenv("ROOM_IDLE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.IdleTTL = d
		} else {
			log.Printf("Ignoring invalid ROOM_IDLE_TTL %q: %v", v, err)
		}
	}
	return cfg
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Println("  - Event Bus: NATS JetStream (internal pubsub)")
	log.Printf("  - NATS URL: %s", natsURL)
	log.Println("")
	log.Println("Event-Driven Fanout:")
	log.Println("  - MessageSent events -> broadcast module -> room members")
	log.Println("  - ParticipantJoined events -> broadcast module -> room members")
	log.Println("  - ParticipantLeft events -> broadcast module -> room members")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                 - Health check")
	log.Println("  GET    /api/v1/rooms/:key      - Get room details (key required)")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", port)
	log.Println("  Connect with: ws://localhost:" + port + "/ws")
	log.Println("  Message types: create_room, join_room, send_message, leave_room, ping")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
