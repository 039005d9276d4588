package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type productDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Price       float64            `bson:"price"`
	Stock       int                `bson:"stock"`
	ImageURL    string             `bson:"image_url,omitempty"`
	Description string             `bson:"description,omitempty"`
}

func (d productDoc) product() Product {
	return Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Price:       d.Price,
		Stock:       d.Stock,
		ImageURL:    d.ImageURL,
		Description: d.Description,
	}
}

type MongoStore struct {
	coll        *mongo.Collection
	searchIndex string
}

func NewMongoStore(coll *mongo.Collection, searchIndex string) *MongoStore {
	if searchIndex == "" {
		searchIndex = "default"
	}
	return &MongoStore{coll: coll, searchIndex: searchIndex}
}

func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	return client, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.coll.Database().Client().Ping(ctx, readpref.Primary())
	})
}

func (s *MongoStore) Get(ctx context.Context, id string) (Product, bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Product{}, false, nil
	}

	var d productDoc
	err = withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&d)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, err
	}
	return d.product(), true, nil
}

func (s *MongoStore) List(ctx context.Context) ([]Product, error) {
	return s.find(ctx, bson.D{}, options.Find())
}

func (s *MongoStore) Create(ctx context.Context, p Product) (Product, error) {
	d := productDoc{
		Name:        p.Name,
		Price:       p.Price,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		Description: p.Description,
	}

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		res, err := s.coll.InsertOne(ctx, d)
		if err != nil {
			return err
		}
		oid, ok := res.InsertedID.(primitive.ObjectID)
		if !ok {
			return fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
		}
		d.ID = oid
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	return d.product(), nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	var deleted int64
	err = withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
		if err != nil {
			return err
		}
		deleted = res.DeletedCount
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted > 0, nil
}

func (s *MongoStore) DecrementStock(ctx context.Context, id string) (Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Product{}, ErrNotFound
	}

	var d productDoc
	err = withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		err := s.coll.FindOneAndUpdate(ctx,
			bson.M{"_id": oid, "stock": bson.M{"$gt": 0}},
			bson.M{"$inc": bson.M{"stock": -1}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&d)
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return err
		}

		// The guard failed: tell a missing record apart from an empty shelf.
		n, cerr := s.coll.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
		if cerr != nil {
			return cerr
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrInsufficientStock
	})
	if err != nil {
		return Product{}, err
	}
	return d.product(), nil
}

func (s *MongoStore) FindByNamePatterns(ctx context.Context, patterns []string) ([]Product, error) {
	if len(patterns) == 0 {
		return []Product{}, nil
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1, "name": 1, "image_url": 1})
	return s.find(ctx, nameFilter(patterns), opts)
}

func (s *MongoStore) SearchText(ctx context.Context, q TextQuery) ([]Product, error) {
	var docs []productDoc
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		cur, err := s.coll.Aggregate(ctx, textSearchPipeline(s.searchIndex, q))
		if err != nil {
			return err
		}
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, err
	}
	return toProducts(docs), nil
}

func (s *MongoStore) find(ctx context.Context, filter any, opts *options.FindOptions) ([]Product, error) {
	var docs []productDoc
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		cur, err := s.coll.Find(ctx, filter, opts)
		if err != nil {
			return err
		}
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, err
	}
	return toProducts(docs), nil
}

func nameFilter(patterns []string) bson.M {
	or := make(bson.A, 0, len(patterns))
	for _, p := range patterns {
		or = append(or, bson.M{"name": bson.M{"$regex": p, "$options": "i"}})
	}
	return bson.M{"$or": or}
}

func textSearchPipeline(index string, q TextQuery) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$search", Value: bson.D{
			{Key: "index", Value: index},
			{Key: "text", Value: bson.D{
				{Key: "query", Value: q.Query},
				{Key: "path", Value: "name"},
				{Key: "fuzzy", Value: bson.D{
					{Key: "maxEdits", Value: q.MaxEdits},
					{Key: "prefixLength", Value: q.PrefixLength},
				}},
			}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 1},
			{Key: "name", Value: 1},
			{Key: "description", Value: 1},
			{Key: "price", Value: 1},
		}}},
	}
}

func toProducts(docs []productDoc) []Product {
	out := make([]Product, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.product())
	}
	return out
}
