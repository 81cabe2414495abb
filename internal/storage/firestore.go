package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

const (
	defaultCollection  = "carts"
	defaultDialTimeout = 10 * time.Second
	envEmulatorHost    = "FIRESTORE_EMULATOR_HOST"
	envGoogleProjectID = "GOOGLE_CLOUD_PROJECT"

	fieldKey       = "key"
	fieldPayload   = "payload"
	fieldUpdatedAt = "updatedAt"
)

// NewFirestoreClient creates a Firestore client, wiring the emulator when a host is supplied
// or FIRESTORE_EMULATOR_HOST is set.
func NewFirestoreClient(ctx context.Context, projectID, emulatorHost string, opts ...option.ClientOption) (*firestore.Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()

	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		projectID = strings.TrimSpace(os.Getenv(envGoogleProjectID))
	}
	if projectID == "" {
		return nil, errors.New("storage: firestore project id is required")
	}

	host := strings.TrimSpace(emulatorHost)
	if host == "" {
		host = strings.TrimSpace(os.Getenv(envEmulatorHost))
	}
	clientOpts := append([]option.ClientOption(nil), opts...)
	if host != "" {
		if os.Getenv(envEmulatorHost) == "" {
			_ = os.Setenv(envEmulatorHost, host)
		}
		clientOpts = append(clientOpts,
			option.WithoutAuthentication(),
			option.WithEndpoint(host),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}

	client, err := firestore.NewClient(dialCtx, projectID, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: create firestore client: %w", err)
	}
	return client, nil
}

// FirestoreSlot keeps one document per key inside a collection.
type FirestoreSlot struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreSlot constructs a slot over the given collection (default "carts").
func NewFirestoreSlot(client *firestore.Client, collection string) (*FirestoreSlot, error) {
	if client == nil {
		return nil, errors.New("storage: firestore client is required")
	}
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = defaultCollection
	}
	return &FirestoreSlot{client: client, collection: collection}, nil
}

// Load implements the Slot interface.
func (s *FirestoreSlot) Load(ctx context.Context, key string) ([]byte, error) {
	snap, err := s.doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: firestore get %q: %w", key, err)
	}
	raw, err := snap.DataAt(fieldPayload)
	if err != nil {
		return nil, ErrNotFound
	}
	payload, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("storage: firestore %q: payload has type %T", key, raw)
	}
	return []byte(payload), nil
}

// Store implements the Slot interface. The document is replaced as a whole.
func (s *FirestoreSlot) Store(ctx context.Context, key string, value []byte) error {
	_, err := s.doc(key).Set(ctx, map[string]any{
		fieldKey:       key,
		fieldPayload:   string(value),
		fieldUpdatedAt: firestore.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("storage: firestore set %q: %w", key, err)
	}
	return nil
}

func (s *FirestoreSlot) doc(key string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(EncodeKey(key))
}
