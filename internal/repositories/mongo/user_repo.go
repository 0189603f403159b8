package mongo

import (
	"context"
	"errors"
	"time"

	"randomchallenge/api/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepo struct{ col *mongo.Collection }

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.CompletedChallenges == nil {
		u.CompletedChallenges = []models.CompletionEntry{}
	}
	if _, err := r.col.InsertOne(ctx, u); err != nil {
		return translate("create user", err)
	}
	return nil
}

func (r *UserRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "get user", bson.M{"_id": id})
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "get user by email", bson.M{"email": email})
}

func (r *UserRepo) findOne(ctx context.Context, op string, q bson.M) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, q).Decode(&u); err != nil {
		return nil, translate(op, err)
	}
	for i := range u.CompletedChallenges {
		u.CompletedChallenges[i].UserID = u.ID
	}
	return &u, nil
}

func (r *UserRepo) Update(ctx context.Context, id string, p models.UserPatch) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Avatar != nil {
		set["avatar"] = *p.Avatar
	}
	if p.Preferences != nil {
		set["preferences"] = *p.Preferences
	}
	if p.PasswordHash != nil {
		set["passwordHash"] = *p.PasswordHash
	}

	var updated models.User
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated); err != nil {
		return nil, translate("update user", err)
	}
	return &updated, nil
}

// completionGuard matches the user only while their log holds no entry for
// challengeID inside [dayStart, dayEnd).
func completionGuard(userID, challengeID string, dayStart, dayEnd time.Time) bson.M {
	return bson.M{
		"_id": userID,
		"completedChallenges": bson.M{"$not": bson.M{"$elemMatch": bson.M{
			"challengeId": challengeID,
			"completedAt": bson.M{"$gte": dayStart, "$lt": dayEnd},
		}}},
	}
}

// recordAttempts bounds the optimistic retries of RecordCompletion when
// concurrent completions keep changing the user's stats.
const recordAttempts = 5

// RecordCompletion reads the user's stats, derives the next ones and writes
// them only while the stored streak fields are still the ones it read.
// totalCompleted is bumped with $inc.
func (r *UserRepo) RecordCompletion(ctx context.Context, userID string, entry models.CompletionEntry, dayStart, dayEnd time.Time, advance models.StatsTransition) (models.UserStats, error) {
	guard := completionGuard(userID, entry.ChallengeID, dayStart, dayEnd)
	for attempt := 0; attempt < recordAttempts; attempt++ {
		var current struct {
			Stats models.UserStats `bson:"stats"`
		}
		err := r.col.FindOne(ctx, bson.M{"_id": userID}, options.FindOne().SetProjection(bson.M{"stats": 1})).Decode(&current)
		if err != nil {
			return models.UserStats{}, translate("record completion", err)
		}

		next := advance(current.Stats)
		filter := bson.M{
			"stats.currentStreak":    current.Stats.CurrentStreak,
			"stats.lastActivityDate": current.Stats.LastActivityDate,
		}
		for k, v := range guard {
			filter[k] = v
		}
		update := bson.M{
			"$push": bson.M{"completedChallenges": entry},
			"$inc":  bson.M{"stats.totalCompleted": 1},
			"$set": bson.M{
				"stats.currentStreak":    next.CurrentStreak,
				"stats.longestStreak":    next.LongestStreak,
				"stats.lastActivityDate": next.LastActivityDate,
				"updatedAt":              time.Now().UTC(),
			},
		}
		var updated struct {
			Stats models.UserStats `bson:"stats"`
		}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After).SetProjection(bson.M{"stats": 1})
		err = r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
		if err == nil {
			return updated.Stats, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return models.UserStats{}, models.StoreError("record completion", err)
		}

		// either today's entry exists or another completion moved the stats
		n, err := r.col.CountDocuments(ctx, guard, options.Count().SetLimit(1))
		if err != nil {
			return models.UserStats{}, models.StoreError("record completion", err)
		}
		if n == 0 {
			return models.UserStats{}, models.ErrAlreadyCompletedToday
		}
	}
	return models.UserStats{}, models.StoreError("record completion", errors.New("user stats kept changing"))
}

func (r *UserRepo) CountActive(ctx context.Context) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"isActive": true})
	if err != nil {
		return 0, models.StoreError("count users", err)
	}
	return n, nil
}
