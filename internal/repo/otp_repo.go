package repo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/akshardoc/akshardoc/internal/model"
	appErr "github.com/akshardoc/akshardoc/internal/pkg/errors"
)

type OTPRepo struct {
	coll *mongo.Collection
}

func NewOTPRepo(db *mongo.Database) *OTPRepo {
	return &OTPRepo{coll: db.Collection(collOTPs)}
}

func (r *OTPRepo) Create(ctx context.Context, code *model.OTPCode) error {
	_, err := r.coll.InsertOne(ctx, code)
	if mongo.IsDuplicateKeyError(err) {
		return appErr.ErrConflict
	}
	return err
}

// LatestByEmail returns the most recently issued code for the email,
// consumed or not. Verification only ever looks at this record.
func (r *OTPRepo) LatestByEmail(ctx context.Context, email string) (*model.OTPCode, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "ctime", Value: -1}})
	var code model.OTPCode
	err := r.coll.FindOne(ctx, bson.M{"email": email}, opts).Decode(&code)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &code, nil
}

// MarkUsed consumes the code. The used guard makes consumption single-shot
// even under concurrent verification attempts.
func (r *OTPRepo) MarkUsed(ctx context.Context, id string) error {
	filter := bson.M{"_id": id, "used": 0}
	result, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"used": 1}})
	if err != nil {
		return err
	}
	if result.ModifiedCount == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *OTPRepo) DeleteExpiredBefore(ctx context.Context, cutoff int64) (int64, error) {
	result, err := r.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
