package document

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/heartmarshall/laborhub-backend/internal/domain"
)

func newMockRepo(t *testing.T) (*Repo, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		mock.Close()
	})
	return New(mock), mock
}

func TestRepo_Get(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock pgxmock.PgxPoolIface)
		want    string
		wantErr error
	}{
		{
			name: "found",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT data FROM documents WHERE collection = \$1 AND key = \$2`).
					WithArgs("labors", "k1").
					WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow([]byte(`{"fullName":"An"}`)))
			},
			want: `{"fullName":"An"}`,
		},
		{
			name: "not found",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT data FROM documents`).
					WithArgs("labors", "k1").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			tt.setup(mock)

			got, err := repo.Get(context.Background(), "labors", "k1")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Get() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Get() unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Get() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRepo_Query_LastNEndingAt(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := pgxmock.NewRows([]string{"key", "data"}).
		AddRow("k3", []byte(`{"updatedAt":3000}`)).
		AddRow("k2", []byte(`{"updatedAt":2000}`))
	mock.ExpectQuery(`SELECT key, data FROM documents WHERE collection = \$1 AND data -> \$2::text <= \$3::jsonb ORDER BY data -> \$4::text DESC NULLS LAST, key DESC LIMIT 2`).
		WithArgs("labors", "updatedAt", []byte("3000"), "updatedAt").
		WillReturnRows(rows)

	docs, err := repo.Query(context.Background(), "labors", domain.LimitToLast("updatedAt", 2).EndingAt(int64(3000)))
	if err != nil {
		t.Fatalf("Query() unexpected error: %v", err)
	}

	if len(docs) != 2 || docs[0].Key != "k2" || docs[1].Key != "k3" {
		t.Fatalf("Query() keys = %v, want ascending [k2 k3]", docs)
	}
}

func TestRepo_Query_FirstByKey(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT key, data FROM documents WHERE collection = \$1 ORDER BY key ASC`).
		WithArgs("locks").
		WillReturnRows(pgxmock.NewRows([]string{"key", "data"}))

	docs, err := repo.Query(context.Background(), "locks", domain.Query{})
	if err != nil {
		t.Fatalf("Query() unexpected error: %v", err)
	}
	if docs == nil || len(docs) != 0 {
		t.Fatalf("Query() = %v, want empty non-nil slice", docs)
	}
}

func TestRepo_Set(t *testing.T) {
	repo, mock := newMockRepo(t)

	data := json.RawMessage(`{"holderId":"u1"}`)
	mock.ExpectExec(`INSERT INTO documents \(collection,key,data\) VALUES \(\$1,\$2,\$3\) ON CONFLICT \(collection, key\) DO UPDATE SET data = EXCLUDED.data`).
		WithArgs("locks", "labors_k1", []byte(data)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Set(context.Background(), "locks", "labors_k1", data); err != nil {
		t.Fatalf("Set() unexpected error: %v", err)
	}
}

func TestRepo_Set_Validation(t *testing.T) {
	repo, _ := newMockRepo(t)

	tests := []struct {
		name       string
		collection string
		key        string
		data       json.RawMessage
	}{
		{"empty key", "locks", "", json.RawMessage(`{}`)},
		{"empty collection", "", "k", json.RawMessage(`{}`)},
		{"invalid json", "locks", "k", json.RawMessage(`{nope`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Set(context.Background(), tt.collection, tt.key, tt.data)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("Set() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRepo_Set_CheckViolation(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`INSERT INTO documents`).
		WithArgs("labors", "k1", []byte(`[1]`)).
		WillReturnError(&pgconn.PgError{Code: "23514"})

	err := repo.Set(context.Background(), "labors", "k1", json.RawMessage(`[1]`))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Set() error = %v, want ErrValidation", err)
	}
}

func TestRepo_Patch(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`ON CONFLICT \(collection, key\) DO UPDATE SET data = documents.data \|\| EXCLUDED.data`).
		WithArgs("labors", "k1", []byte(`{"phone":"0901"}`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Patch(context.Background(), "labors", "k1", map[string]any{"phone": "0901"}); err != nil {
		t.Fatalf("Patch() unexpected error: %v", err)
	}
}

func TestRepo_Push(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`INSERT INTO documents`).
		WithArgs("labors", pgxmock.AnyArg(), []byte(`{"n":1}`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	key, err := repo.Push(context.Background(), "labors", json.RawMessage(`{"n":1}`))
	if err != nil {
		t.Fatalf("Push() unexpected error: %v", err)
	}
	if len(key) != 26 {
		t.Errorf("Push() key = %q, want a 26-char ULID", key)
	}
}

func TestRepo_Delete(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`DELETE FROM documents WHERE collection = \$1 AND key = \$2`).
		WithArgs("locks", "labors_k1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), "locks", "labors_k1"); err != nil {
		t.Fatalf("Delete() of a missing key should succeed, got %v", err)
	}
}

func TestRepo_GetMany(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT key, data FROM documents WHERE collection = \$1 AND key IN \(\$2,\$3\)`).
		WithArgs("companies", "c1", "c2").
		WillReturnRows(pgxmock.NewRows([]string{"key", "data"}).
			AddRow("c1", []byte(`{"name":"Acme"}`)))

	got, err := repo.GetMany(context.Background(), "companies", []string{"c1", "c2"})
	if err != nil {
		t.Fatalf("GetMany() unexpected error: %v", err)
	}
	if len(got) != 1 || string(got["c1"]) != `{"name":"Acme"}` {
		t.Errorf("GetMany() = %v, want only c1", got)
	}
}

func TestRepo_GetMany_NoKeys(t *testing.T) {
	repo, _ := newMockRepo(t)

	got, err := repo.GetMany(context.Background(), "companies", nil)
	if err != nil {
		t.Fatalf("GetMany() unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("GetMany() = %v, want empty map", got)
	}
}
