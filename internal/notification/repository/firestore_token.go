package repository

import (
	"context"
	"time"

	"runup-backend/internal/notification/domain"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// firestoreTokenRepository implements TokenRepository with one document per user
type firestoreTokenRepository struct {
	client *firestore.Client
	now    func() time.Time
}

// NewFirestoreTokenRepository creates a new instance of firestoreTokenRepository
func NewFirestoreTokenRepository(client *firestore.Client) TokenRepository {
	return &firestoreTokenRepository{client: client, now: time.Now}
}

func (r *firestoreTokenRepository) Get(ctx context.Context, userID string) (*domain.DeviceToken, error) {
	doc, err := r.client.Collection(tokensCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrNotFound
		}
		return nil, domain.Persistence("token.get", err)
	}

	var token domain.DeviceToken
	if err := doc.DataTo(&token); err != nil {
		return nil, domain.Persistence("token.decode", err)
	}
	if token.UserID == "" {
		token.UserID = userID
	}
	return &token, nil
}

// Save upserts inside a transaction so createdAt is only written for new documents
func (r *firestoreTokenRepository) Save(ctx context.Context, userID, fcmToken string) error {
	ref := r.client.Collection(tokensCollection).Doc(userID)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := r.now()
		data := map[string]interface{}{
			"fcmToken":  fcmToken,
			"userId":    userID,
			"updatedAt": now,
		}

		_, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
			data["createdAt"] = now
		case err != nil:
			return err
		}
		return tx.Set(ref, data, firestore.MergeAll)
	})
	return domain.Persistence("token.save", err)
}

func (r *firestoreTokenRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.client.Collection(tokensCollection).Doc(userID).Delete(ctx)
	return domain.Persistence("token.delete", err)
}
