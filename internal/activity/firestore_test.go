package activity

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFirestoreStore runs against the Firestore emulator only.
func TestFirestoreStore(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx := context.Background()

	store, err := OpenFirestore(ctx, "execassist-test")
	require.NoError(t, err)
	defer store.Close()
	store.collection = "activities-" + uuid.NewString()

	base := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, Record{ID: "a", Type: TypeMeetingScheduled, Timestamp: base, Payload: map[string]interface{}{"subject": "Sync"}}))
	require.NoError(t, store.Append(ctx, Record{ID: "b", Type: TypeUrgentEmail, Timestamp: base.Add(time.Hour)}))
	require.NoError(t, store.Append(ctx, Record{ID: "c", Type: TypeAutoResponse, Timestamp: base.Add(48 * time.Hour)}))

	day, err := store.Between(ctx, base, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, "a", day[0].ID)
	assert.Equal(t, "Sync", day[0].Payload["subject"])

	recent, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "c", recent[0].ID)

	assert.Error(t, store.Append(ctx, Record{ID: "a", Type: TypeMeetingScheduled, Timestamp: base}), "records are append-only")
}
