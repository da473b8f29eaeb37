package repository

import (
	"context"

	"runup-backend/internal/notification/domain"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// firestoreHistoryRepository implements HistoryRepository as an auto-ID collection
type firestoreHistoryRepository struct {
	client *firestore.Client
}

// NewFirestoreHistoryRepository creates a new instance of firestoreHistoryRepository
func NewFirestoreHistoryRepository(client *firestore.Client) HistoryRepository {
	return &firestoreHistoryRepository{client: client}
}

func (r *firestoreHistoryRepository) Append(ctx context.Context, record *domain.HistoryRecord) (string, error) {
	ref, _, err := r.client.Collection(historyCollection).Add(ctx, record)
	if err != nil {
		return "", domain.Persistence("history.append", err)
	}
	return ref.ID, nil
}

// ListByUser needs the composite index (userId ASC, sentAt DESC) on notification_history
func (r *firestoreHistoryRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.HistoryRecord, error) {
	iter := r.client.Collection(historyCollection).
		Where("userId", "==", userID).
		OrderBy("sentAt", firestore.Desc).
		Offset(offset).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	records := []domain.HistoryRecord{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, domain.Persistence("history.list", err)
		}

		var record domain.HistoryRecord
		if err := doc.DataTo(&record); err != nil {
			return nil, domain.Persistence("history.decode", err)
		}
		record.ID = doc.Ref.ID
		records = append(records, record)
	}
	return records, nil
}
