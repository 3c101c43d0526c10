package firestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tinywideclouds/go-notification-relay/pkg/notification"
)

// FirestoreRegistry implements dispatch.Registry using Google Cloud Firestore.
// Each user owns exactly one document: {collection}/{sha256(userId)}.
type FirestoreRegistry struct {
	client     *firestore.Client
	collection string
	now        func() time.Time
}

func NewFirestoreRegistry(client *firestore.Client, collection string) *FirestoreRegistry {
	return &FirestoreRegistry{
		client:     client,
		collection: collection,
		now:        time.Now,
	}
}

// deviceRecord is the internal DB representation.
type deviceRecord struct {
	UserID     string            `firestore:"user_id"`
	PushToken  string            `firestore:"push_token"`
	DeviceInfo *deviceInfoRecord `firestore:"device_info,omitempty"`
	Tags       map[string]string `firestore:"tags,omitempty"`
	CreatedAt  time.Time         `firestore:"created_at"`
	UpdatedAt  time.Time         `firestore:"updated_at"`
}

type deviceInfoRecord struct {
	Platform string `firestore:"platform,omitempty"`
	Model    string `firestore:"model,omitempty"`
	Version  string `firestore:"version,omitempty"`
}

// Register upserts the registration inside a transaction so the read of the
// existing created_at/tags and the write are atomic. Concurrent registrations
// for the same user are retried by Firestore and resolve to the last write.
func (s *FirestoreRegistry) Register(ctx context.Context, reg notification.DeviceRegistration) (*notification.DeviceRegistration, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	ref := s.deviceRef(reg.UserID)
	var stored deviceRecord

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := s.now().UTC()
		record := deviceRecord{
			UserID:     reg.UserID,
			PushToken:  reg.PushToken,
			DeviceInfo: toInfoRecord(reg.DeviceInfo),
			Tags:       reg.Tags,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		snap, err := tx.Get(ref)
		switch {
		case err == nil:
			var existing deviceRecord
			if err := snap.DataTo(&existing); err != nil {
				return fmt.Errorf("decode existing device: %w", err)
			}
			if !existing.CreatedAt.IsZero() {
				record.CreatedAt = existing.CreatedAt
			}
			if record.Tags == nil {
				record.Tags = existing.Tags
			}
		case status.Code(err) == codes.NotFound:
			// First registration for this user.
		default:
			return fmt.Errorf("read device: %w", err)
		}

		stored = record
		return tx.Set(ref, record)
	})
	if err != nil {
		return nil, fmt.Errorf("firestore upsert failed: %w", err)
	}

	return stored.toDomain(), nil
}

func (s *FirestoreRegistry) Lookup(ctx context.Context, userID string) (*notification.DeviceRegistration, error) {
	snap, err := s.deviceRef(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, notification.ErrNotFound
		}
		return nil, fmt.Errorf("firestore get failed: %w", err)
	}

	var record deviceRecord
	if err := snap.DataTo(&record); err != nil {
		return nil, fmt.Errorf("decode device: %w", err)
	}
	return record.toDomain(), nil
}

// Delete removes the user's document. The Exists precondition makes Firestore
// itself report a missing document, so no separate read is needed.
func (s *FirestoreRegistry) Delete(ctx context.Context, userID string) error {
	_, err := s.deviceRef(userID).Delete(ctx, firestore.Exists)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return notification.ErrNotFound
		}
		return fmt.Errorf("firestore delete failed: %w", err)
	}
	return nil
}

// --- Helpers ---

func (s *FirestoreRegistry) deviceRef(userID string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(hashKey(userID))
}

// hashKey keeps arbitrary user ids (which may contain '/') out of the document path.
func hashKey(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:])
}

func toInfoRecord(info *notification.DeviceInfo) *deviceInfoRecord {
	if info == nil {
		return nil
	}
	return &deviceInfoRecord{
		Platform: info.Platform,
		Model:    info.Model,
		Version:  info.Version,
	}
}

func (r deviceRecord) toDomain() *notification.DeviceRegistration {
	reg := &notification.DeviceRegistration{
		UserID:    r.UserID,
		PushToken: r.PushToken,
		Tags:      r.Tags,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.DeviceInfo != nil {
		reg.DeviceInfo = &notification.DeviceInfo{
			Platform: r.DeviceInfo.Platform,
			Model:    r.DeviceInfo.Model,
			Version:  r.DeviceInfo.Version,
		}
	}
	return reg
}
