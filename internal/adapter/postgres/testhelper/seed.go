package testhelper

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/laborhub-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// UniqueCollection returns a collection name no other test uses, so tests
// sharing the container do not see each other's documents.
func UniqueCollection(prefix string) string {
	return prefix + "_" + uniqueSuffix()
}

// SeedDocument stores v as JSON at collection/key.
func SeedDocument(t *testing.T, pool *pgxpool.Pool, collection, key string, v any) {
	t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("testhelper: SeedDocument marshal: %v", err)
	}

	_, err = pool.Exec(context.Background(),
		`INSERT INTO documents (collection, key, data) VALUES ($1, $2, $3)`,
		collection, key, data,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedDocument insert %s/%s: %v", collection, key, err)
	}
}

// SeedUser creates an enabled user in the users collection.
func SeedUser(t *testing.T, pool *pgxpool.Pool) domain.User {
	t.Helper()

	suffix := uniqueSuffix()
	now := time.Now().UnixMilli()
	user := domain.User{
		ID:        uuid.NewString(),
		Email:     "testuser-" + suffix + "@example.com",
		Name:      "Test User " + suffix,
		CreatedAt: now,
		UpdatedAt: now,
	}

	SeedDocument(t, pool, domain.CollectionUsers, user.ID, user)
	return user
}
