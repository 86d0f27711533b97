package project

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jackhunterking/beautycanvas/pkg/errors"
)

// MongoRepository stores project records in a MongoDB collection, one
// document per project with the project id as _id.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository creates a repository over the given collection.
func NewMongoRepository(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll}
}

// Get returns the project with the given id.
func (r *MongoRepository) Get(ctx context.Context, id string) (*Project, error) {
	var p Project
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeProjectNotFound, "project %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load project %s", id)
	}
	return &p, nil
}

// Put upserts the record by project id. Last writer wins; there is no
// optimistic lock on project documents.
func (r *MongoRepository) Put(ctx context.Context, p *Project) error {
	_, err := r.coll.ReplaceOne(ctx,
		bson.M{"_id": p.ID}, p,
		options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save project %s", p.ID)
	}
	return nil
}

// List returns the user's projects, newest first.
func (r *MongoRepository) List(ctx context.Context, userID string) ([]*Project, error) {
	cur, err := r.coll.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.M{"updated_at": -1}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list projects for %s", userID)
	}
	defer cur.Close(ctx)

	var out []*Project
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode projects for %s", userID)
	}
	return out, nil
}

// Delete removes a project. Missing ids are not an error.
func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete project %s", id)
	}
	return nil
}

var _ Repository = (*MongoRepository)(nil)
