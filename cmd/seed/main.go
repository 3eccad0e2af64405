// seed writes a logged-in local-dev session into the postgres preference
// store, with a device token that has not been registered yet.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/circlapp/circl-link-agent/internal/infrastructure/postgres"
	"github.com/circlapp/circl-link-agent/internal/repository"
)

const (
	seedUserID      = "7"
	seedEmail       = "seed@test.local"
	seedFullName    = "Seed User"
	seedDeviceToken = "seed-apns-token-0001"
)

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set, run: direnv allow")
	}
	deviceID := os.Getenv("DEVICE_ID")
	if deviceID == "" {
		deviceID = "local-device"
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}

	prefs := postgres.NewPreferenceRepository(pool, deviceID)
	if err := prefs.EnsureSchema(ctx); err != nil {
		pool.Close()
		log.Fatalf("schema: %v", err)
	}

	values := []struct{ key, value string }{
		{repository.KeyUserID, seedUserID},
		{repository.KeyUserEmail, seedEmail},
		{repository.KeyUserFullName, seedFullName},
		{repository.KeyPendingPushToken, seedDeviceToken},
	}
	for _, v := range values {
		if err := prefs.Set(ctx, v.key, v.value); err != nil {
			pool.Close()
			log.Fatalf("set %s: %v", v.key, err)
		}
	}
	// Forget any earlier registration so the sweeper picks the token up.
	if err := prefs.Delete(ctx, repository.KeyPushTokenRegistered); err != nil {
		pool.Close()
		log.Fatalf("delete %s: %v", repository.KeyPushTokenRegistered, err)
	}

	pool.Close()

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  Device ID:     %s\n", deviceID)
	fmt.Printf("  User ID:       %s (%s)\n", seedUserID, seedEmail)
	fmt.Printf("  Pending token: %s\n", seedDeviceToken)
	fmt.Println()
	fmt.Println("How to test:")
	fmt.Println()
	fmt.Println("  Step 1: start the agent against the same database:")
	fmt.Println()
	fmt.Println("    STORE_BACKEND=postgres go run ./cmd/agent")
	fmt.Println()
	fmt.Println("  Step 2: deliver an invite link as the OS would:")
	fmt.Println()
	fmt.Printf("    curl -s -X POST http://localhost:8080/links/open \\\n")
	fmt.Printf("      -H 'Content-Type: application/json' \\\n")
	fmt.Printf("      -d '{\"url\":\"circl://invite/ABCD1234\"}'\n")
	fmt.Println()
	fmt.Println("  Step 3: run the sweeper to register the pending token:")
	fmt.Println()
	fmt.Println("    STORE_BACKEND=postgres PUSH_SWEEP_CRON='* * * * *' go run ./cmd/sweeper")
	fmt.Println()
	fmt.Println("  What to expect:")
	fmt.Println("    the agent log shows the resolve and join for user 7")
	fmt.Println("    within a minute the sweeper logs \"push sweep registered pending token\"")
}
