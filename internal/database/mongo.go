package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"codepool/entity"
	"codepool/internal/config"
)

const (
	collectionUsers     = "users"
	collectionInventory = "inventory"
)

// MongoDB is the versioned document store. Inventory writes are
// compare-and-swap: an update matches only while the stored revision equals
// the one the caller read, so two racing writers can never both commit
// against the same revision.
type MongoDB struct {
	clientOptions *options.ClientOptions
	database      string
}

func NewMongoClient(conf *config.Config) *MongoDB {
	if !conf.Mongo.Enabled {
		return nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	return &MongoDB{
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
	}
}

func (m *MongoDB) connect(ctx context.Context) (*mongo.Client, error) {
	connection, err := mongo.Connect(ctx, m.clientOptions)
	if err != nil {
		return nil, &entity.StoreError{Op: "connect", Err: err}
	}
	return connection, nil
}

func (m *MongoDB) disconnect(ctx context.Context, connection *mongo.Client) {
	_ = connection.Disconnect(ctx)
}

// GetUser resolves an API token to a user record.
func (m *MongoDB) GetUser(token string) (*entity.User, error) {
	ctx := context.Background()
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionUsers)
	filter := bson.D{{Key: "token", Value: token}}
	var user entity.User
	err = collection.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, &entity.StoreError{Op: "get user", Err: err}
	}
	return &user, nil
}

// GetInventory reads a catalog document with its current revision.
func (m *MongoDB) GetInventory(ctx context.Context, docId string) (*entity.InventoryDocument, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionInventory)
	filter := bson.D{{Key: "_id", Value: docId}}
	var doc entity.InventoryDocument
	err = collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		// malformed stored documents land here too, never as undefined behavior
		return nil, &entity.StoreError{Op: "get inventory", Err: err}
	}
	if doc.Revision < 1 {
		return nil, &entity.StoreError{Op: "get inventory", Err: fmt.Errorf("document %s has no revision", docId)}
	}
	return &doc, nil
}

// PutInventory commits a catalog document if and only if its revision is
// still the one read. Revision 0 creates the document. On success the
// document's revision is advanced to the committed value.
func (m *MongoDB) PutInventory(ctx context.Context, doc *entity.InventoryDocument) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionInventory)

	if doc.Revision == 0 {
		insert := *doc
		insert.Revision = 1
		if _, err = collection.InsertOne(ctx, insert); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				// someone else created it first
				return entity.ErrConflict
			}
			return &entity.StoreError{Op: "put inventory", Err: err}
		}
		doc.Revision = 1
		return nil
	}

	filter := bson.D{{Key: "_id", Value: doc.Id}, {Key: "rev", Value: doc.Revision}}
	update := bson.D{
		{Key: "$set", Value: bson.D{{Key: "codes", Value: doc.Codes}}},
		{Key: "$inc", Value: bson.D{{Key: "rev", Value: 1}}},
	}
	res, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return &entity.StoreError{Op: "put inventory", Err: err}
	}
	if res.MatchedCount == 0 {
		// distinguish a stale revision from a concurrently deleted document
		count, err := collection.CountDocuments(ctx, bson.D{{Key: "_id", Value: doc.Id}})
		if err != nil {
			return &entity.StoreError{Op: "put inventory", Err: err}
		}
		if count == 0 {
			return entity.ErrNotFound
		}
		return entity.ErrConflict
	}
	doc.Revision++
	return nil
}
