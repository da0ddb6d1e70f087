package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/opsdeck/platform/internal/core/domain"
)

const clientCollection = "clients"

type MongoClientRepository struct {
	coll *mongo.Collection
}

func NewClientRepository(db *mongo.Database) *MongoClientRepository {
	return &MongoClientRepository{coll: db.Collection(clientCollection)}
}

// EnsureIndexes creates the unique active-slug index and the previous-slugs
// lookup index used by redirect resolution.
func (r *MongoClientRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "previous_slugs", Value: 1}},
		},
	})
	return err
}

type mongoClient struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Slug          string             `bson:"slug"`
	PreviousSlugs []string           `bson:"previous_slugs,omitempty"`
	PracticeName  string             `bson:"practice_name"`
	LogoURL       string             `bson:"logo_url,omitempty"`
	CRMContactID  string             `bson:"crm_contact_id,omitempty"`
	CreatedAt     int64              `bson:"created_at"`
	UpdatedAt     int64              `bson:"updated_at"`
}

func toMongoClient(c *domain.Client) mongoClient {
	return mongoClient{
		Slug:          c.Slug,
		PreviousSlugs: c.PreviousSlugs,
		PracticeName:  c.PracticeName,
		LogoURL:       c.LogoURL,
		CRMContactID:  c.CRMContactID,
		CreatedAt:     c.CreatedAt.Unix(),
		UpdatedAt:     c.UpdatedAt.Unix(),
	}
}

func (mc *mongoClient) toDomain() *domain.Client {
	return &domain.Client{
		ID:            mc.ID.Hex(),
		Slug:          mc.Slug,
		PreviousSlugs: mc.PreviousSlugs,
		PracticeName:  mc.PracticeName,
		LogoURL:       mc.LogoURL,
		CRMContactID:  mc.CRMContactID,
		CreatedAt:     unixToTime(mc.CreatedAt),
		UpdatedAt:     unixToTime(mc.UpdatedAt),
	}
}

func (r *MongoClientRepository) Create(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	doc := toMongoClient(client)

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrSlugConflict
		}
		return nil, fmt.Errorf("insert client: %w", err)
	}

	created := *client
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

func (r *MongoClientRepository) FindByID(ctx context.Context, id string) (*domain.Client, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrClientNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoClientRepository) FindBySlug(ctx context.Context, slug string) (*domain.Client, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *MongoClientRepository) FindByPreviousSlug(ctx context.Context, slug string) (*domain.Client, error) {
	return r.findOne(ctx, bson.M{"previous_slugs": slug})
}

func (r *MongoClientRepository) findOne(ctx context.Context, filter bson.M) (*domain.Client, error) {
	var mc mongoClient
	if err := r.coll.FindOne(ctx, filter).Decode(&mc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrClientNotFound
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	return mc.toDomain(), nil
}

// Rename sets the new slug and appends the old one to previous_slugs in a
// single compare-and-swap write: the filter pins the current slug so a
// concurrent rename cannot lose a history entry.
func (r *MongoClientRepository) Rename(ctx context.Context, id, newSlug string) (*domain.Client, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrClientNotFound
	}

	for attempt := 0; attempt < renameRetries; attempt++ {
		current, err := r.findOne(ctx, bson.M{"_id": oid})
		if err != nil {
			return nil, err
		}
		if current.Slug == newSlug {
			return current, nil
		}

		res, err := r.coll.UpdateOne(ctx,
			bson.M{"_id": oid, "slug": current.Slug},
			bson.M{
				"$set":  bson.M{"slug": newSlug, "updated_at": nowUnix()},
				"$push": bson.M{"previous_slugs": current.Slug},
			},
		)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, domain.ErrSlugConflict
			}
			return nil, fmt.Errorf("rename client: %w", err)
		}
		if res.ModifiedCount == 1 {
			return r.findOne(ctx, bson.M{"_id": oid})
		}
		// Lost a race with a concurrent rename; reload and retry.
	}
	return nil, fmt.Errorf("rename client: too many concurrent renames")
}

func (r *MongoClientRepository) Update(ctx context.Context, client *domain.Client) error {
	oid, err := primitive.ObjectIDFromHex(client.ID)
	if err != nil {
		return domain.ErrClientNotFound
	}

	doc := toMongoClient(client)
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrSlugConflict
		}
		return fmt.Errorf("update client: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrClientNotFound
	}
	return nil
}

func (r *MongoClientRepository) List(ctx context.Context) ([]*domain.Client, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "practice_name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer cur.Close(ctx)

	var clients []*domain.Client
	for cur.Next(ctx) {
		var mc mongoClient
		if err := cur.Decode(&mc); err != nil {
			return nil, fmt.Errorf("decode client: %w", err)
		}
		clients = append(clients, mc.toDomain())
	}
	return clients, cur.Err()
}
