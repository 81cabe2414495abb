//go:build integration

package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFirestoreSlotIntegration(t *testing.T) {
	host := os.Getenv(envEmulatorHost)
	if host == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	client, err := NewFirestoreClient(ctx, "jumpship-test", host)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	slot, err := NewFirestoreSlot(client, "carts_"+time.Now().UTC().Format("20060102150405"))
	require.NoError(t, err)
	exerciseSlot(t, slot)
}
