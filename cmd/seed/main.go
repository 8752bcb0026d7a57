// seed inserts the demo user into the local dev database and prints a token
// for calling the API as that user.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ErlanBelekov/account-model/internal/domain"
	"github.com/ErlanBelekov/account-model/internal/infrastructure/postgres"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

const (
	seedUsername = "alice"
	seedPhone    = "555-0100"
)

func main() {
	ctx := context.Background()
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set (export it or add it to .env)")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	alice, err := domain.NewUser(seedUsername, domain.NewPhone(seedPhone), domain.Invoice{})
	if err != nil {
		log.Fatalf("build user: %v", err)
	}

	repo := postgres.NewUserRepository(pool)
	status := "created"
	rec, err := repo.Create(ctx, alice)
	if errors.Is(err, domain.ErrUserExists) {
		status = "already existed"
		rec, err = repo.Get(ctx, seedUsername)
	}
	if err != nil {
		log.Fatalf("seed user: %v", err)
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  User:     %s (%s)\n", rec.User.Username(), status)
	fmt.Printf("  Contact:  %s %s\n", rec.User.ContactInfo().Kind(), seedPhone)
	fmt.Printf("  Payment:  %s\n", rec.User.PaymentMethod().Kind())
	fmt.Printf("  Version:  %d\n", rec.Version)
	fmt.Println()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Println("  JWT_SECRET is not set; skipping token.")
		return
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": seedUsername,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}

	fmt.Println("How to test:")
	fmt.Println()
	fmt.Printf("  export TOKEN=%s\n", token)
	fmt.Println()
	fmt.Println("  curl -s -H \"Authorization: Bearer $TOKEN\" localhost:8080/users/alice")
	fmt.Println("  curl -s -H \"Authorization: Bearer $TOKEN\" -d '{\"message\":\"hello\"}' localhost:8080/users/alice/contact")
	fmt.Println("  curl -s -H \"Authorization: Bearer $TOKEN\" -X PUT -d '{\"email\":\"alice@example.com\"}' localhost:8080/users/alice/email")
	fmt.Println("  curl -s -H \"Authorization: Bearer $TOKEN\" -d '{\"message\":\"hello\"}' localhost:8080/users/alice/contact   # 422, not verified")
	fmt.Println("  curl -s -H \"Authorization: Bearer $TOKEN\" -X POST localhost:8080/users/alice/email/verification   # token is in the server log")
	fmt.Println("  curl -s -H \"Authorization: Bearer $TOKEN\" -d '{\"token\":\"<token>\"}' localhost:8080/users/alice/email/verify")
	fmt.Println("  curl -s -H \"Authorization: Bearer $TOKEN\" -d '{\"amount\":1999}' localhost:8080/users/alice/charge")
}
