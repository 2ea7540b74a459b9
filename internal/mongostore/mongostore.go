// Package mongostore persists audit records in a MongoDB collection.
//
// The hosted deployments of the record-keeping application run on a managed
// document store; this backend maps the audit.Store contract onto one
// collection with conjunctive equality filters and a timestamp-descending
// sort, mirroring the SQLite backend's observable semantics.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/schoolwerk/auditlog/internal/audit"
	"github.com/schoolwerk/auditlog/internal/snapshot"
)

// DefaultCollection is the collection name used when config leaves it unset.
const DefaultCollection = "audit_logs"

// Store implements audit.Store over a Mongo collection.
type Store struct {
	coll *mongo.Collection
}

// New creates a Store over the given collection.
func New(coll *mongo.Collection) *Store {
	return &Store{coll: coll}
}

// Connect dials the server and returns a Store over database/collection.
// The caller owns the client's lifecycle via the returned close function.
func Connect(ctx context.Context, uri, database, collection string) (*Store, func(context.Context) error, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to document store: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ping document store: %w", err)
	}
	if collection == "" {
		collection = DefaultCollection
	}
	return New(client.Database(database).Collection(collection)), client.Disconnect, nil
}

// document is the stored shape of an audit record. Snapshots persist as
// canonical JSON strings so the stored bytes are exactly the hashed bytes,
// immune to BSON map-ordering quirks.
type document struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Action      string             `bson:"action"`
	EntityType  string             `bson:"entity_type"`
	EntityID    string             `bson:"entity_id"`
	UserID      string             `bson:"user_id"`
	UserName    string             `bson:"user_name"`
	UserRole    string             `bson:"user_role,omitempty"`
	OldData     string             `bson:"old_data,omitempty"`
	NewData     string             `bson:"new_data,omitempty"`
	Reason      string             `bson:"reason,omitempty"`
	SchoolID    string             `bson:"school_id,omitempty"`
	StudentID   string             `bson:"student_id,omitempty"`
	IPAddress   string             `bson:"ip_address,omitempty"`
	TimestampMS int64              `bson:"timestamp_ms"`
	Checksum    string             `bson:"checksum"`
}

// Insert appends one record and returns the server-assigned id.
func (s *Store) Insert(ctx context.Context, rec audit.Record) (string, error) {
	res, err := s.coll.InsertOne(ctx, toDocument(rec))
	if err != nil {
		return "", fmt.Errorf("write audit record: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("write audit record: unexpected id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

// GetByID retrieves one record, or audit.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (audit.Record, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// Malformed ids cannot name any stored record.
		return audit.Record{}, audit.ErrNotFound
	}

	var doc document
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return audit.Record{}, audit.ErrNotFound
	}
	if err != nil {
		return audit.Record{}, fmt.Errorf("load audit record: %w", err)
	}

	return fromDocument(doc)
}

// Find returns matching records newest first, limited after sorting.
// ObjectIDs are time-ordered, so the descending _id tiebreak keeps
// same-millisecond records newest first too.
func (s *Store) Find(ctx context.Context, f audit.Filter) ([]audit.Record, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp_ms", Value: -1}, {Key: "_id", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	cursor, err := s.coll.Find(ctx, compileFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer cursor.Close(ctx)

	records := []audit.Record{}
	for cursor.Next(ctx) {
		var doc document
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode audit record: %w", err)
		}
		rec, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit records: %w", err)
	}

	return records, nil
}

// compileFilter builds the conjunctive Mongo filter for an audit.Filter.
// Zero-valued fields contribute no predicate.
func compileFilter(f audit.Filter) bson.M {
	filter := bson.M{}

	if f.EntityType != "" {
		filter["entity_type"] = string(f.EntityType)
	}
	if f.EntityID != "" {
		filter["entity_id"] = f.EntityID
	}
	if f.Action != "" {
		filter["action"] = string(f.Action)
	}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	if f.SchoolID != "" {
		filter["school_id"] = f.SchoolID
	}
	if f.StudentID != "" {
		filter["student_id"] = f.StudentID
	}

	ts := bson.M{}
	if !f.Start.IsZero() {
		ts["$gte"] = f.Start.UnixMilli()
	}
	if !f.End.IsZero() {
		ts["$lt"] = f.End.UnixMilli()
	}
	if len(ts) > 0 {
		filter["timestamp_ms"] = ts
	}

	return filter
}

func toDocument(rec audit.Record) document {
	doc := document{
		Action:      string(rec.Action),
		EntityType:  string(rec.EntityType),
		EntityID:    rec.EntityID,
		UserID:      rec.UserID,
		UserName:    rec.UserName,
		UserRole:    rec.UserRole,
		Reason:      rec.Reason,
		SchoolID:    rec.SchoolID,
		StudentID:   rec.StudentID,
		IPAddress:   rec.IPAddress,
		TimestampMS: rec.TimestampMS,
		Checksum:    rec.Checksum,
	}
	if rec.OldData != nil {
		doc.OldData = snapshot.MarshalString(rec.OldData)
	}
	if rec.NewData != nil {
		doc.NewData = snapshot.MarshalString(rec.NewData)
	}
	return doc
}

func fromDocument(doc document) (audit.Record, error) {
	rec := audit.Record{
		ID:          doc.ID.Hex(),
		Action:      audit.Action(doc.Action),
		EntityType:  audit.EntityType(doc.EntityType),
		EntityID:    doc.EntityID,
		UserID:      doc.UserID,
		UserName:    doc.UserName,
		UserRole:    doc.UserRole,
		Reason:      doc.Reason,
		SchoolID:    doc.SchoolID,
		StudentID:   doc.StudentID,
		IPAddress:   doc.IPAddress,
		TimestampMS: doc.TimestampMS,
		Timestamp:   time.UnixMilli(doc.TimestampMS),
		Checksum:    doc.Checksum,
	}

	var err error
	if rec.OldData, err = snapshot.ParseObject(doc.OldData); err != nil {
		return audit.Record{}, fmt.Errorf("record %s old_data: %w", rec.ID, err)
	}
	if rec.NewData, err = snapshot.ParseObject(doc.NewData); err != nil {
		return audit.Record{}, fmt.Errorf("record %s new_data: %w", rec.ID, err)
	}

	return rec, nil
}
