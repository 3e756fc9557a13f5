//go:build integration

// Integration test for the client SDK.
// Requires a running server with RAWAN_ADMIN_TOKEN configured: rawan --admin-token=...
//
// Run: go test -tags=integration ./pkg/rawanclient/
package rawanclient_test

import (
	"context"
	"os"
	"testing"

	"github.com/joeblew999/plat-rawan/pkg/rawanclient"
)

func baseURL() string {
	if u := os.Getenv("RAWAN_BASE_URL"); u != "" {
		return u
	}
	return "http://localhost:8086"
}

func client() *rawanclient.Client {
	return rawanclient.New(baseURL(),
		rawanclient.WithSession(rawanclient.StaticToken(os.Getenv("RAWAN_ADMIN_TOKEN"))))
}

func TestMarkerCRUD(t *testing.T) {
	c := client()
	ctx := context.Background()

	before, err := c.List(ctx)
	if err != nil {
		t.Fatal("list:", err)
	}

	created, err := c.Create(ctx, rawanclient.MarkerInput{
		Name:        "Integration Test",
		Description: "created by integration test",
		Latitude:    -6.5714,
		Longitude:   107.7636,
	})
	if err != nil {
		t.Fatal("create:", err)
	}

	got, err := c.Get(ctx, created.ID)
	if err != nil {
		t.Fatal("get:", err)
	}
	if got.Name != "Integration Test" {
		t.Fatalf("name=%q, want Integration Test", got.Name)
	}

	after, err := c.List(ctx)
	if err != nil {
		t.Fatal("list:", err)
	}
	if len(after) != len(before)+1 {
		t.Fatalf("len=%d, want %d", len(after), len(before)+1)
	}

	if err := c.Delete(ctx, created.ID); err != nil {
		t.Fatal("delete:", err)
	}
	if _, err := c.Get(ctx, created.ID); rawanclient.StatusOf(err) != 404 {
		t.Fatalf("get after delete: %v, want 404", err)
	}
}
