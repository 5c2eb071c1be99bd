package database

import (
	"context"
	"fmt"
	"time"

	"installment-tracker/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// WatermarkKey names the scalar holding the last scheduled installment run.
const WatermarkKey = "lastInstallmentProcessed"

// DB wraps MongoDB operations
type DB struct {
	client     *mongo.Client
	collection *mongo.Collection
	settings   *mongo.Collection
}

// New creates a new database connection
func New(ctx context.Context, uri, dbName, collName string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err = client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(dbName)
	return &DB{
		client:     client,
		collection: database.Collection(collName),
		settings:   database.Collection("settings"),
	}, nil
}

// Close closes the database connection
func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

// Put upserts a record keyed by its id.
func (db *DB) Put(ctx context.Context, r models.Record) error {
	if err := checkPut(r); err != nil {
		return err
	}
	opts := options.Replace().SetUpsert(true)
	_, err := db.collection.ReplaceOne(ctx, bson.M{"_id": r.RecordID()}, r, opts)
	if err != nil {
		return fmt.Errorf("failed to save record %s: %w", r.RecordID(), err)
	}
	return nil
}

// GetAll returns every record in the collection.
func (db *DB) GetAll(ctx context.Context) ([]models.Record, error) {
	cursor, err := db.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.Record
	for cursor.Next(ctx) {
		records = append(records, decodeBSON(cursor.Current))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, nil
}

// Delete removes a record by id
func (db *DB) Delete(ctx context.Context, id string) error {
	_, err := db.collection.DeleteOne(ctx, idFilter(id))
	if err != nil {
		return fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	return nil
}

type watermarkDoc struct {
	ID    string    `bson:"_id"`
	Value time.Time `bson:"value"`
}

// GetWatermark returns the last scheduled processing time, if one was saved.
func (db *DB) GetWatermark(ctx context.Context) (time.Time, bool, error) {
	var doc watermarkDoc
	err := db.settings.FindOne(ctx, bson.M{"_id": WatermarkKey}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to read watermark: %w", err)
	}
	return doc.Value, true, nil
}

// SetWatermark stores the last scheduled processing time.
func (db *DB) SetWatermark(ctx context.Context, t time.Time) error {
	opts := options.Replace().SetUpsert(true)
	_, err := db.settings.ReplaceOne(ctx, bson.M{"_id": WatermarkKey}, watermarkDoc{ID: WatermarkKey, Value: t}, opts)
	if err != nil {
		return fmt.Errorf("failed to save watermark: %w", err)
	}
	return nil
}

// idFilter matches id as a string _id or, for documents written by other
// tools, as the ObjectID it is the hex form of.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{id, oid}}}
	}
	return bson.M{"_id": id}
}

// rawID returns the document id as a string; ObjectIDs are hex encoded.
func rawID(raw bson.Raw) string {
	value := raw.Lookup("_id")
	if id, ok := value.StringValueOK(); ok {
		return id
	}
	if oid, ok := value.ObjectIDOK(); ok {
		return oid.Hex()
	}
	return ""
}

func decodeBSON(raw bson.Raw) models.Record {
	id := rawID(raw)
	tag, _ := raw.Lookup("type").StringValueOK()

	if models.IsGroupType(tag) {
		var g models.InstallmentGroup
		if err := bson.Unmarshal(raw, &g); err != nil {
			return &models.Malformed{ID: id, Reason: err.Error()}
		}
		return &g
	}

	var tx models.Transaction
	if err := bson.Unmarshal(raw, &tx); err != nil {
		return &models.Malformed{ID: id, Reason: err.Error()}
	}
	return &tx
}

func checkPut(r models.Record) error {
	if r == nil || r.RecordID() == "" {
		return fmt.Errorf("record id is required")
	}
	if _, ok := r.(*models.Malformed); ok {
		return fmt.Errorf("refusing to store malformed record %s", r.RecordID())
	}
	return nil
}
