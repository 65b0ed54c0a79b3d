package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type stubExecutor struct {
	token   string
	err     error
	queried int
	exec    struct {
		query string
		args  []any
	}
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.exec.query = query
	s.exec.args = args
	return pgconn.CommandTag{}, s.err
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.queried++
	return stubRow{token: s.token, err: s.err}
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

type stubRow struct {
	token string
	err   error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) == 0 {
		return errors.New("no dest")
	}
	ptr, ok := dest[0].(*string)
	if !ok {
		return errors.New("invalid dest")
	}
	*ptr = r.token
	return nil
}

func TestToken(t *testing.T) {
	store := NewStore(&stubExecutor{token: " abc123 "})
	key, err := store.Token(context.Background(), ProviderGemini)
	if err != nil {
		t.Fatalf("Token error: %v", err)
	}
	if key != "abc123" {
		t.Fatalf("expected abc123, got %q", key)
	}
}

func TestToken_NoRows(t *testing.T) {
	store := NewStore(&stubExecutor{err: pgx.ErrNoRows})
	key, err := store.Token(context.Background(), ProviderOpenAI)
	if err != nil {
		t.Fatalf("Token error: %v", err)
	}
	if key != "" {
		t.Fatalf("expected empty key, got %q", key)
	}
}

func TestResolvePrefersConfigured(t *testing.T) {
	exec := &stubExecutor{token: "from-db"}
	store := NewStore(exec)
	key, err := store.Resolve(context.Background(), ProviderOpenAI, " from-env ")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if key != "from-env" {
		t.Fatalf("expected from-env, got %q", key)
	}
	if exec.queried != 0 {
		t.Fatalf("expected no store lookup, got %d", exec.queried)
	}

	key, err = store.Resolve(context.Background(), ProviderOpenAI, "")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if key != "from-db" {
		t.Fatalf("expected from-db, got %q", key)
	}
}

func TestSet(t *testing.T) {
	exec := &stubExecutor{}
	store := NewStore(exec)
	if err := store.Set(context.Background(), ProviderOpenAI, "secret"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if len(exec.exec.args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(exec.exec.args))
	}
	if v, ok := exec.exec.args[1].(string); !ok || v != "secret" {
		t.Fatalf("expected secret argument, got %T %v", exec.exec.args[1], exec.exec.args[1])
	}
}

func TestSetRejectsInvalidInput(t *testing.T) {
	store := NewStore(&stubExecutor{})
	if err := store.Set(context.Background(), ProviderGemini, " "); err == nil {
		t.Fatal("expected error for empty key")
	}
	if err := store.Set(context.Background(), "qwen", "secret"); err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

func TestClear(t *testing.T) {
	exec := &stubExecutor{}
	store := NewStore(exec)
	if err := store.Clear(context.Background(), ProviderGemini); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if v, ok := exec.exec.args[0].(string); !ok || v != ProviderGemini {
		t.Fatalf("expected provider argument, got %v", exec.exec.args[0])
	}
}
