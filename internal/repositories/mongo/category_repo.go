package mongo

import (
	"context"
	"time"

	"randomchallenge/api/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CategoryRepo struct{ col *mongo.Collection }

func (r *CategoryRepo) List(ctx context.Context, includeInactive bool) ([]models.Category, error) {
	q := bson.M{}
	if !includeInactive {
		q["isActive"] = true
	}
	cur, err := r.col.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, models.StoreError("list categories", err)
	}
	defer cur.Close(ctx)

	out := []models.Category{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, models.StoreError("list categories", err)
	}
	return out, nil
}

func (r *CategoryRepo) GetByID(ctx context.Context, id string) (*models.Category, error) {
	var c models.Category
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, translate("get category", err)
	}
	return &c, nil
}

func (r *CategoryRepo) Create(ctx context.Context, c *models.Category) error {
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	if _, err := r.col.InsertOne(ctx, c); err != nil {
		return translate("create category", err)
	}
	return nil
}

func (r *CategoryRepo) Update(ctx context.Context, id string, p models.CategoryPatch) (*models.Category, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Emoji != nil {
		set["emoji"] = *p.Emoji
	}
	if p.Color != nil {
		set["color"] = *p.Color
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.IsActive != nil {
		set["isActive"] = *p.IsActive
	}

	var updated models.Category
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated); err != nil {
		return nil, translate("update category", err)
	}
	return &updated, nil
}

func (r *CategoryRepo) SoftDelete(ctx context.Context, id string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id, "isActive": true},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return models.StoreError("delete category", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *CategoryRepo) CountActive(ctx context.Context) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"isActive": true})
	if err != nil {
		return 0, models.StoreError("count categories", err)
	}
	return n, nil
}
