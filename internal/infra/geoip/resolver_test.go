package geoip

import (
	"errors"
	"testing"
)

func TestNewResolverEmptyPath(t *testing.T) {
	r, err := NewResolver("  ")
	if err != nil {
		t.Fatalf("NewResolver error: %v", err)
	}
	if r != nil {
		t.Fatalf("expected nil resolver, got %#v", r)
	}
	if _, err := r.CountryCode("203.0.113.1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("CountryCode error = %v, want ErrUnavailable", err)
	}
	if r.Lookup() != nil {
		t.Fatal("expected nil lookup for unavailable resolver")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
}

func TestNewResolverMissingFile(t *testing.T) {
	if _, err := NewResolver("/nonexistent/GeoLite2-Country.mmdb"); err == nil {
		t.Fatal("expected error for missing database")
	}
}
