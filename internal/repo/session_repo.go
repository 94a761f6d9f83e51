package repo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/akshardoc/akshardoc/internal/model"
	appErr "github.com/akshardoc/akshardoc/internal/pkg/errors"
)

type SessionRepo struct {
	coll *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) *SessionRepo {
	return &SessionRepo{coll: db.Collection(collSessions)}
}

func (r *SessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.coll.InsertOne(ctx, session)
	if mongo.IsDuplicateKeyError(err) {
		return appErr.ErrConflict
	}
	return err
}

func (r *SessionRepo) Get(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Delete is idempotent: removing an absent session is not an error.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *SessionRepo) DeleteExpiredBefore(ctx context.Context, cutoff int64) (int64, error) {
	result, err := r.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
