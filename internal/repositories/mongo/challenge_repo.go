package mongo

import (
	"context"
	"time"

	"randomchallenge/api/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChallengeRepo wraps the challenges collection
type ChallengeRepo struct{ col *mongo.Collection }

func challengeQuery(f models.ChallengeFilter) bson.M {
	q := bson.M{}
	if !f.IncludeInactive {
		q["isActive"] = true
	}
	if f.CategoryID != "" {
		q["categoryId"] = f.CategoryID
	}
	if f.Difficulty != "" {
		q["difficulty"] = f.Difficulty
	}
	if len(f.Tags) > 0 {
		q["tags"] = bson.M{"$in": f.Tags}
	}
	return q
}

// challengeSort always ends on _id so equal keys keep a stable order.
func challengeSort(s models.ChallengeSort) bson.D {
	switch s {
	case models.SortOldest:
		return bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}
	case models.SortMostCompleted:
		return bson.D{{Key: "completedCount", Value: -1}, {Key: "_id", Value: 1}}
	case models.SortLeastCompleted:
		return bson.D{{Key: "completedCount", Value: 1}, {Key: "_id", Value: 1}}
	case models.SortTopRated:
		return bson.D{{Key: "ratingSum", Value: -1}, {Key: "ratingCount", Value: -1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}
	}
}

func (r *ChallengeRepo) Count(ctx context.Context, filter models.ChallengeFilter) (int64, error) {
	n, err := r.col.CountDocuments(ctx, challengeQuery(filter))
	if err != nil {
		return 0, models.StoreError("count challenges", err)
	}
	return n, nil
}

func (r *ChallengeRepo) FindOne(ctx context.Context, filter models.ChallengeFilter, offset int64) (*models.Challenge, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}}).SetSkip(offset)
	var c models.Challenge
	if err := r.col.FindOne(ctx, challengeQuery(filter), opts).Decode(&c); err != nil {
		return nil, translate("find challenge", err)
	}
	return &c, nil
}

func (r *ChallengeRepo) GetByID(ctx context.Context, id string) (*models.Challenge, error) {
	var c models.Challenge
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, translate("get challenge", err)
	}
	return &c, nil
}

func (r *ChallengeRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*models.Challenge, error) {
	out := make(map[string]*models.Challenge, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, models.StoreError("get challenges", err)
	}
	defer cur.Close(ctx)

	var found []models.Challenge
	if err := cur.All(ctx, &found); err != nil {
		return nil, models.StoreError("get challenges", err)
	}
	for i := range found {
		out[found[i].ID] = &found[i]
	}
	return out, nil
}

func (r *ChallengeRepo) List(ctx context.Context, filter models.ChallengeFilter, opts models.ListOptions) ([]models.Challenge, int64, error) {
	q := challengeQuery(filter)
	if opts.RatedOnly {
		q["ratingCount"] = bson.M{"$gt": 0}
	}
	total, err := r.col.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, models.StoreError("count challenges", err)
	}

	find := options.Find().SetSort(challengeSort(opts.Sort)).SetSkip(int64(opts.Offset()))
	if opts.Limit > 0 {
		find.SetLimit(int64(opts.Limit))
	}
	cur, err := r.col.Find(ctx, q, find)
	if err != nil {
		return nil, 0, models.StoreError("list challenges", err)
	}
	defer cur.Close(ctx)

	out := []models.Challenge{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, models.StoreError("list challenges", err)
	}
	return out, total, nil
}

func (r *ChallengeRepo) Create(ctx context.Context, c *models.Challenge) error {
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if _, err := r.col.InsertOne(ctx, c); err != nil {
		return translate("create challenge", err)
	}
	return nil
}

func challengeSet(p models.ChallengePatch) bson.M {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if p.Text != nil {
		set["text"] = *p.Text
	}
	if p.CategoryID != nil {
		set["categoryId"] = *p.CategoryID
	}
	if p.Difficulty != nil {
		set["difficulty"] = *p.Difficulty
	}
	if p.TimeEstimate != nil {
		set["timeEstimate"] = *p.TimeEstimate
	}
	if p.Tags != nil {
		set["tags"] = p.Tags
	}
	if p.IsActive != nil {
		set["isActive"] = *p.IsActive
	}
	return set
}

func (r *ChallengeRepo) Update(ctx context.Context, id string, patch models.ChallengePatch) (*models.Challenge, error) {
	var updated models.Challenge
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": challengeSet(patch)}, opts).Decode(&updated); err != nil {
		return nil, translate("update challenge", err)
	}
	return &updated, nil
}

func (r *ChallengeRepo) SoftDelete(ctx context.Context, id string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id, "isActive": true},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return models.StoreError("delete challenge", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ApplyRating increments the counters server-side so concurrent ratings
// are never lost.
func (r *ChallengeRepo) ApplyRating(ctx context.Context, id string, rating int, completed bool) (*models.Challenge, error) {
	inc := bson.M{"ratingSum": rating, "ratingCount": 1}
	if completed {
		inc["completedCount"] = 1
	}
	update := bson.M{"$inc": inc, "$set": bson.M{"updatedAt": time.Now().UTC()}}

	var updated models.Challenge
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&updated); err != nil {
		return nil, translate("apply rating", err)
	}
	return &updated, nil
}

type groupCount struct {
	Key   string `bson:"_id"`
	Count int64  `bson:"count"`
}

func (r *ChallengeRepo) countBy(ctx context.Context, field string) ([]groupCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"isActive": true}}},
		{{Key: "$group", Value: bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, models.StoreError("count challenges by "+field, err)
	}
	defer cur.Close(ctx)

	var rows []groupCount
	if err := cur.All(ctx, &rows); err != nil {
		return nil, models.StoreError("count challenges by "+field, err)
	}
	return rows, nil
}

func (r *ChallengeRepo) CountByCategory(ctx context.Context) (map[string]int64, error) {
	rows, err := r.countBy(ctx, "categoryId")
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Count
	}
	return out, nil
}

func (r *ChallengeRepo) CountByDifficulty(ctx context.Context) (map[models.Difficulty]int64, error) {
	rows, err := r.countBy(ctx, "difficulty")
	if err != nil {
		return nil, err
	}
	out := make(map[models.Difficulty]int64, len(rows))
	for _, row := range rows {
		out[models.Difficulty(row.Key)] = row.Count
	}
	return out, nil
}
