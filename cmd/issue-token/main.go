// Command issue-token prints a signed ID token for a directory user. With
// --email it first creates or updates the user's directory entry.
//
// Usage:
//
//	issue-token --user=<id> [--email=user@example.com --name="Full Name"] [--config=config.yaml]
//
// Reads the same configuration as the server (AUTH_JWT_SECRET, DATABASE_DSN).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/heartmarshall/laborhub-backend/internal/adapter/postgres"
	"github.com/heartmarshall/laborhub-backend/internal/adapter/postgres/document"
	"github.com/heartmarshall/laborhub-backend/internal/auth"
	"github.com/heartmarshall/laborhub-backend/internal/config"
	"github.com/heartmarshall/laborhub-backend/internal/domain"
)

func main() {
	userID := flag.String("user", "", "directory id of the token subject")
	email := flag.String("email", "", "email to store in the directory entry")
	name := flag.String("name", "", "display name to store in the directory entry")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to auth.access_token_ttl)")
	configPath := flag.String("config", "", "config file (default: CONFIG_PATH or ./config.yaml)")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "Usage: issue-token --user=<id> [--email=... --name=...] [--ttl=1h]")
		os.Exit(1)
	}

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if *email != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("connect to database: %v", err)
		}
		defer pool.Close()

		users := document.New(pool)
		now := time.Now().UnixMilli()
		fields := map[string]any{
			"email":     *email,
			"name":      *name,
			"disabled":  false,
			"updatedAt": now,
		}
		if _, err := users.Get(ctx, domain.CollectionUsers, *userID); errors.Is(err, domain.ErrNotFound) {
			fields["createdAt"] = now
		} else if err != nil {
			log.Fatalf("read user: %v", err)
		}
		if err := users.Patch(ctx, domain.CollectionUsers, *userID, fields); err != nil {
			log.Fatalf("upsert user: %v", err)
		}
	}

	accessTTL := cfg.Auth.AccessTokenTTL
	if *ttl > 0 {
		accessTTL = *ttl
	}

	token, err := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, accessTTL).GenerateAccessToken(*userID)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}

	fmt.Println(token)
}
