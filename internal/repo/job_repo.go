package repo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/akshardoc/akshardoc/internal/model"
	appErr "github.com/akshardoc/akshardoc/internal/pkg/errors"
)

type JobRepo struct {
	coll *mongo.Collection
}

func NewJobRepo(db *mongo.Database) *JobRepo {
	return &JobRepo{coll: db.Collection(collJobs)}
}

func (r *JobRepo) Create(ctx context.Context, job *model.Job) error {
	_, err := r.coll.InsertOne(ctx, job)
	if mongo.IsDuplicateKeyError(err) {
		return appErr.ErrConflict
	}
	return err
}

func (r *JobRepo) Get(ctx context.Context, id string) (*model.Job, error) {
	var job model.Job
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&job)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *JobRepo) GetOwned(ctx context.Context, email, id string) (*model.Job, error) {
	job, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Email != email {
		return nil, appErr.ErrNotFound
	}
	return job, nil
}

// UpdateStatus moves a job from one status to another. The filter on the
// current status keeps transitions strictly forward: a job that already
// left `from` is not touched.
func (r *JobRepo) UpdateStatus(ctx context.Context, id, from, to string, now int64) error {
	filter := bson.M{"_id": id, "status": from}
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

// IncPagesDone bumps the progress counter. The guard keeps the counter from
// ever passing total_pages regardless of worker interleaving.
func (r *JobRepo) IncPagesDone(ctx context.Context, id string, now int64) error {
	filter := bson.M{"_id": id, "$expr": bson.M{"$lt": bson.A{"$pages_done", "$total_pages"}}}
	update := bson.M{
		"$inc": bson.M{"pages_done": 1},
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

// Complete records the output artifact and moves running -> done.
func (r *JobRepo) Complete(ctx context.Context, id, outputKey string, now int64) error {
	filter := bson.M{"_id": id, "status": model.JobStatusRunning}
	update := bson.M{"$set": bson.M{
		"status":     model.JobStatusDone,
		"output_key": outputKey,
		"mtime":      now,
	}}
	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.ModifiedCount == 0 {
		return appErr.ErrConflict
	}
	return nil
}

// Fail marks a pending or running job failed with a reason. Done jobs are
// never demoted.
func (r *JobRepo) Fail(ctx context.Context, id, reason string, now int64) error {
	filter := bson.M{"_id": id, "status": bson.M{"$in": bson.A{model.JobStatusPending, model.JobStatusRunning}}}
	update := bson.M{"$set": bson.M{
		"status": model.JobStatusFailed,
		"error":  reason,
		"mtime":  now,
	}}
	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.ModifiedCount == 0 {
		return appErr.ErrConflict
	}
	return nil
}

func (r *JobRepo) ListStalledRunning(ctx context.Context, cutoff int64) ([]*model.Job, error) {
	filter := bson.M{"status": model.JobStatusRunning, "mtime": bson.M{"$lt": cutoff}}
	return r.list(ctx, filter)
}

func (r *JobRepo) ListFinishedBefore(ctx context.Context, cutoff int64) ([]*model.Job, error) {
	filter := bson.M{
		"status": bson.M{"$in": bson.A{model.JobStatusDone, model.JobStatusFailed}},
		"mtime":  bson.M{"$lt": cutoff},
	}
	return r.list(ctx, filter)
}

func (r *JobRepo) Delete(ctx context.Context, id string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *JobRepo) list(ctx context.Context, filter bson.M) ([]*model.Job, error) {
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cursor.Close(ctx) }()
	var jobs []*model.Job
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}
