package repo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/akshardoc/akshardoc/internal/model"
	appErr "github.com/akshardoc/akshardoc/internal/pkg/errors"
)

type OrderRepo struct {
	coll *mongo.Collection
}

func NewOrderRepo(db *mongo.Database) *OrderRepo {
	return &OrderRepo{coll: db.Collection(collOrders)}
}

func (r *OrderRepo) Create(ctx context.Context, order *model.PaymentOrder) error {
	_, err := r.coll.InsertOne(ctx, order)
	if mongo.IsDuplicateKeyError(err) {
		return appErr.ErrConflict
	}
	return err
}

func (r *OrderRepo) Get(ctx context.Context, orderID string) (*model.PaymentOrder, error) {
	var order model.PaymentOrder
	err := r.coll.FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepo) MarkVerified(ctx context.Context, orderID, email string, now int64) error {
	return r.transition(ctx, orderID, email, model.OrderStatusCreated, model.OrderStatusVerified, now)
}

func (r *OrderRepo) MarkFailed(ctx context.Context, orderID, email string, now int64) error {
	return r.transition(ctx, orderID, email, model.OrderStatusCreated, model.OrderStatusFailed, now)
}

// transition moves an order between statuses with the source status in the
// filter. Losing the race returns ErrConflict, which is what makes "one
// order credits the paid balance exactly once" hold for MarkVerified.
func (r *OrderRepo) transition(ctx context.Context, orderID, email, from, to string, now int64) error {
	filter := bson.M{"_id": orderID, "email": email, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "mtime": now}}
	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.ModifiedCount == 0 {
		return appErr.ErrConflict
	}
	return nil
}
