package mongo

import (
	"context"
	"errors"
	"time"

	"randomchallenge/api/internal/models"
	"randomchallenge/api/internal/repositories"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	challengesCollection = "challenges"
	categoriesCollection = "categories"
	usersCollection      = "users"
)

type Client struct{ raw *mongo.Client }

func NewClient(ctx context.Context, uri string) (*Client, error) {
	if uri == "" {
		return nil, errors.New("MONGO_URI is empty")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return &Client{raw: c}, nil
}

func (c *Client) DB(name string) (*mongo.Database, error) {
	if c == nil || c.raw == nil {
		return nil, errors.New("mongo client not initialized")
	}
	if name == "" {
		name = "random_challenge"
	}
	return c.raw.Database(name), nil
}

func (c *Client) Disconnect(ctx context.Context) error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Disconnect(ctx)
}

// Store is the MongoDB backend. Each aggregate lives in its own collection;
// a user's completion log is embedded in the user document.
type Store struct {
	client     *Client
	db         *mongo.Database
	challenges *ChallengeRepo
	categories *CategoryRepo
	users      *UserRepo
}

var _ repositories.Store = (*Store)(nil)

// NewStore opens the database and ensures the indexes every query relies on.
func NewStore(ctx context.Context, c *Client, dbName string) (*Store, error) {
	db, err := c.DB(dbName)
	if err != nil {
		return nil, err
	}
	s := &Store{
		client:     c,
		db:         db,
		challenges: &ChallengeRepo{col: db.Collection(challengesCollection)},
		categories: &CategoryRepo{col: db.Collection(categoriesCollection)},
		users:      &UserRepo{col: db.Collection(usersCollection)},
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, models.StoreError("ensure indexes", err)
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	if _, err := s.challenges.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "categoryId", Value: 1}, {Key: "difficulty", Value: 1}, {Key: "isActive", Value: 1}}},
		{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "ratingSum", Value: -1}}},
		{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "completedCount", Value: -1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
	}); err != nil {
		return err
	}
	if _, err := s.categories.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}
	_, err := s.users.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	return err
}

func (s *Store) Challenges() repositories.ChallengeRepository { return s.challenges }
func (s *Store) Categories() repositories.CategoryRepository  { return s.categories }
func (s *Store) Users() repositories.UserRepository           { return s.users }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.raw.Ping(ctx, readpref.Primary()); err != nil {
		return models.StoreError("ping", err)
	}
	return nil
}

func (s *Store) Reset(ctx context.Context) error {
	for _, col := range []*mongo.Collection{s.challenges.col, s.categories.col, s.users.col} {
		if _, err := col.DeleteMany(ctx, bson.M{}); err != nil {
			return models.StoreError("reset "+col.Name(), err)
		}
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.raw.Disconnect(ctx)
}

// translate maps driver errors onto the error taxonomy.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return models.ErrDuplicate
	default:
		return models.StoreError(op, err)
	}
}
