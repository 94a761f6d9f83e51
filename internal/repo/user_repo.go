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

type UserRepo struct {
	coll *mongo.Collection
}

func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{coll: db.Collection(collUsers)}
}

// EnsureWithQuota creates the user with the free-trial quota on first login;
// an existing user is left untouched.
func (r *UserRepo) EnsureWithQuota(ctx context.Context, email string, freePages map[string]int, now int64) error {
	update := bson.M{
		"$setOnInsert": bson.M{
			"free_pages": freePages,
			"paid_pages": map[string]int{},
			"ctime":      now,
			"mtime":      now,
		},
	}
	_, err := r.coll.UpdateByID(ctx, email, update, options.Update().SetUpsert(true))
	return err
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.coll.FindOne(ctx, bson.M{"_id": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SpendPages covers a run of pages from the user's balances, free pages
// first. The filter guards both balances, so the spend is all or nothing;
// ErrConflict means a balance moved underneath the caller and the split
// must be recomputed from a fresh read.
func (r *UserRepo) SpendPages(ctx context.Context, email, mode string, freeN, paidN int, now int64) error {
	if freeN == 0 && paidN == 0 {
		return nil
	}
	filter := bson.M{"_id": email}
	inc := bson.M{}
	if freeN > 0 {
		filter["free_pages."+mode] = bson.M{"$gte": freeN}
		inc["free_pages."+mode] = -freeN
	}
	if paidN > 0 {
		filter["paid_pages."+mode] = bson.M{"$gte": paidN}
		inc["paid_pages."+mode] = -paidN
	}
	update := bson.M{
		"$inc": inc,
		"$set": bson.M{"mtime": now},
	}
	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.ModifiedCount == 0 {
		return appErr.ErrConflict
	}
	return nil
}

// AddPaidPages credits purchased pages to the user's paid balance.
func (r *UserRepo) AddPaidPages(ctx context.Context, email, mode string, n int, now int64) error {
	if n == 0 {
		return nil
	}
	update := bson.M{
		"$inc": bson.M{"paid_pages." + mode: n},
		"$set": bson.M{"mtime": now},
	}
	result, err := r.coll.UpdateByID(ctx, email, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return appErr.ErrNotFound
	}
	return nil
}
