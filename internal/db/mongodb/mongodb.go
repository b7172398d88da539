// Package mongodb stores users and their additional records in two MongoDB
// collections. Users point at their additional record through the "adicional"
// ObjectID field, and listing resolves it with a $lookup stage.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/patric-chuzhbe/usrinfo/internal/models"
)

const (
	UsersCollection       = "users"
	AdditionalsCollection = "adicionals"
)

type additionalDocument struct {
	ID     primitive.ObjectID `bson:"_id,omitempty"`
	Art    string             `bson:"arte"`
	Music  string             `bson:"musica"`
	Cinema string             `bson:"cine"`
}

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	Names        string             `bson:"nombres"`
	LastNames    string             `bson:"apellidos"`
	Phone        string             `bson:"telefono"`
	Address      string             `bson:"direccion"`
	AdditionalID primitive.ObjectID `bson:"adicional"`
}

// populatedUserDocument is one result of the $lookup pipeline.
type populatedUserDocument struct {
	User        userDocument         `bson:",inline"`
	Additionals []additionalDocument `bson:"adicionalDocs"`
}

func (d additionalDocument) toModel() models.Additional {
	return models.Additional{
		ID:     d.ID.Hex(),
		Art:    d.Art,
		Music:  d.Music,
		Cinema: d.Cinema,
	}
}

func (d userDocument) toModel() models.User {
	return models.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		Names:        d.Names,
		LastNames:    d.LastNames,
		Phone:        d.Phone,
		Address:      d.Address,
		AdditionalID: d.AdditionalID.Hex(),
	}
}

// MongoDB is a MongoDB-backed storage.
type MongoDB struct {
	client            *mongo.Client
	users             *mongo.Collection
	additionals       *mongo.Collection
	connectionTimeout time.Duration
}

// New connects to uri, checks the primary answers and selects the database.
func New(
	ctx context.Context,
	uri string,
	database string,
	connectionTimeout time.Duration,
) (*MongoDB, error) {
	connectCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf(
			"in internal/db/mongodb/mongodb.go/New(): error while `mongo.Connect()` calling: %w",
			err,
		)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf(
			"in internal/db/mongodb/mongodb.go/New(): error while `client.Ping()` calling: %w",
			err,
		)
	}

	db := client.Database(database)

	return &MongoDB{
		client:            client,
		users:             db.Collection(UsersCollection),
		additionals:       db.Collection(AdditionalsCollection),
		connectionTimeout: connectionTimeout,
	}, nil
}

func insertedID(res *mongo.InsertOneResult) (string, error) {
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}

	return oid.Hex(), nil
}

func (db *MongoDB) CreateAdditional(ctx context.Context, additional *models.Additional) (string, error) {
	res, err := db.additionals.InsertOne(ctx, additionalDocument{
		Art:    additional.Art,
		Music:  additional.Music,
		Cinema: additional.Cinema,
	})
	if err != nil {
		return "", fmt.Errorf("in internal/db/mongodb/mongodb.go/CreateAdditional(): error while `db.additionals.InsertOne()` calling: %w", err)
	}

	return insertedID(res)
}

// GetAdditionalByID treats an id that is not an ObjectID as not found.
func (db *MongoDB) GetAdditionalByID(ctx context.Context, additionalID string) (*models.Additional, bool, error) {
	oid, err := primitive.ObjectIDFromHex(additionalID)
	if err != nil {
		return nil, false, nil
	}

	var doc additionalDocument
	err = db.additionals.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("in internal/db/mongodb/mongodb.go/GetAdditionalByID(): error while `db.additionals.FindOne()` calling: %w", err)
	}
	additional := doc.toModel()

	return &additional, true, nil
}

func (db *MongoDB) ListAdditionals(ctx context.Context) ([]models.Additional, error) {
	cursor, err := db.additionals.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("in internal/db/mongodb/mongodb.go/ListAdditionals(): error while `db.additionals.Find()` calling: %w", err)
	}

	var docs []additionalDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("in internal/db/mongodb/mongodb.go/ListAdditionals(): error while `cursor.All()` calling: %w", err)
	}

	result := make([]models.Additional, 0, len(docs))
	for _, doc := range docs {
		result = append(result, doc.toModel())
	}

	return result, nil
}

func (db *MongoDB) UpdateAdditional(ctx context.Context, additional *models.Additional) error {
	oid, err := primitive.ObjectIDFromHex(additional.ID)
	if err != nil {
		return fmt.Errorf("invalid additional id %q: %w", additional.ID, err)
	}

	res, err := db.additionals.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"arte":   additional.Art,
		"musica": additional.Music,
		"cine":   additional.Cinema,
	}})
	if err != nil {
		return fmt.Errorf("in internal/db/mongodb/mongodb.go/UpdateAdditional(): error while `db.additionals.UpdateByID()` calling: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("no document with id %q in %s", additional.ID, AdditionalsCollection)
	}

	return nil
}

func (db *MongoDB) DeleteAdditional(ctx context.Context, additionalID string) error {
	oid, err := primitive.ObjectIDFromHex(additionalID)
	if err != nil {
		return nil
	}

	if _, err := db.additionals.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("in internal/db/mongodb/mongodb.go/DeleteAdditional(): error while `db.additionals.DeleteOne()` calling: %w", err)
	}

	return nil
}

func (db *MongoDB) GetNumberOfAdditionals(ctx context.Context) (int64, error) {
	count, err := db.additionals.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("in internal/db/mongodb/mongodb.go/GetNumberOfAdditionals(): error while `db.additionals.CountDocuments()` calling: %w", err)
	}

	return count, nil
}

func (db *MongoDB) CreateUser(ctx context.Context, usr *models.User) (string, error) {
	additionalOID, err := primitive.ObjectIDFromHex(usr.AdditionalID)
	if err != nil {
		return "", fmt.Errorf("invalid additional id %q: %w", usr.AdditionalID, err)
	}

	res, err := db.users.InsertOne(ctx, userDocument{
		Email:        usr.Email,
		Names:        usr.Names,
		LastNames:    usr.LastNames,
		Phone:        usr.Phone,
		Address:      usr.Address,
		AdditionalID: additionalOID,
	})
	if err != nil {
		return "", fmt.Errorf("in internal/db/mongodb/mongodb.go/CreateUser(): error while `db.users.InsertOne()` calling: %w", err)
	}

	return insertedID(res)
}

// FindUserByEmail returns the earliest registered user with that exact email.
func (db *MongoDB) FindUserByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	var doc userDocument
	err := db.users.FindOne(
		ctx,
		bson.M{"email": email},
		options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}}),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("in internal/db/mongodb/mongodb.go/FindUserByEmail(): error while `db.users.FindOne()` calling: %w", err)
	}
	usr := doc.toModel()

	return &usr, true, nil
}

func (db *MongoDB) ListUsersWithAdditional(ctx context.Context) ([]models.UserWithAdditional, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: AdditionalsCollection},
			{Key: "localField", Value: "adicional"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "adicionalDocs"},
		}}},
	}

	cursor, err := db.users.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("in internal/db/mongodb/mongodb.go/ListUsersWithAdditional(): error while `db.users.Aggregate()` calling: %w", err)
	}

	var docs []populatedUserDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("in internal/db/mongodb/mongodb.go/ListUsersWithAdditional(): error while `cursor.All()` calling: %w", err)
	}

	result := make([]models.UserWithAdditional, 0, len(docs))
	for _, doc := range docs {
		item := models.UserWithAdditional{User: doc.User.toModel()}
		if len(doc.Additionals) > 0 {
			additional := doc.Additionals[0].toModel()
			item.Additional = &additional
		}
		result = append(result, item)
	}

	return result, nil
}

// UpdateUser overwrites the mutable contact fields.
func (db *MongoDB) UpdateUser(ctx context.Context, usr *models.User) error {
	oid, err := primitive.ObjectIDFromHex(usr.ID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", usr.ID, err)
	}

	res, err := db.users.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"nombres":   usr.Names,
		"apellidos": usr.LastNames,
		"telefono":  usr.Phone,
		"direccion": usr.Address,
	}})
	if err != nil {
		return fmt.Errorf("in internal/db/mongodb/mongodb.go/UpdateUser(): error while `db.users.UpdateByID()` calling: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("no document with id %q in %s", usr.ID, UsersCollection)
	}

	return nil
}

func (db *MongoDB) DeleteUser(ctx context.Context, userID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	if _, err := db.users.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("in internal/db/mongodb/mongodb.go/DeleteUser(): error while `db.users.DeleteOne()` calling: %w", err)
	}

	return nil
}

func (db *MongoDB) GetNumberOfUsers(ctx context.Context) (int64, error) {
	count, err := db.users.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("in internal/db/mongodb/mongodb.go/GetNumberOfUsers(): error while `db.users.CountDocuments()` calling: %w", err)
	}

	return count, nil
}

// Ping checks the primary answers within the configured timeout.
func (db *MongoDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	if err := db.client.Ping(ctxWithTimeout, readpref.Primary()); err != nil {
		return fmt.Errorf("in internal/db/mongodb/mongodb.go/Ping(): error while `db.client.Ping()` calling: %w", err)
	}

	return nil
}

// Close disconnects the client.
func (db *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), db.connectionTimeout)
	defer cancel()

	return db.client.Disconnect(ctx)
}

// Drop removes both collections. Meant for tests.
func (db *MongoDB) Drop(ctx context.Context) error {
	if err := db.users.Drop(ctx); err != nil {
		return err
	}

	return db.additionals.Drop(ctx)
}
