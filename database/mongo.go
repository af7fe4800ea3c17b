package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"photoshare/models"
)

type MongoStore struct {
	client *mongo.Client
	users  *mongo.Collection
	photos *mongo.Collection
	likes  *mongo.Collection
}

func ConnectMongo(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	connectionString := options.Client().ApplyURI(uri)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectionString)
	if err != nil {
		log.Println("Mongo Connect error:", err)
		return nil, err
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		log.Println("Mongo Ping error:", err)
		return nil, err
	}

	db := client.Database(dbName)
	s := &MongoStore{
		client: client,
		users:  db.Collection("users"),
		photos: db.Collection("photos"),
		likes:  db.Collection("likes"),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	log.Println("MongoDB connected successfully")
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("users index: %w", err)
	}

	if _, err := s.photos.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("photos index: %w", err)
	}

	// The unique pair index is what keeps concurrent likes from duplicating.
	if _, err := s.likes.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "photo_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "photo_id", Value: 1}, {Key: "user_id", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("likes index: %w", err)
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	return err
}

func (s *MongoStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *MongoStore) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"password":   hash,
			"updated_at": time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	user := &models.User{}
	err := s.users.FindOne(ctx, filter).Decode(user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *MongoStore) CreatePhoto(ctx context.Context, photo *models.Photo) error {
	_, err := s.photos.InsertOne(ctx, photo)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	return err
}

func (s *MongoStore) GetPhoto(ctx context.Context, id string) (*models.Photo, error) {
	photo := &models.Photo{}
	err := s.photos.FindOne(ctx, bson.M{"_id": id}).Decode(photo)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return photo, nil
}

func (s *MongoStore) ListPhotos(ctx context.Context) ([]models.Photo, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := s.photos.Find(ctx, bson.M{"status": models.PhotoStored}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	photos := []models.Photo{}
	if err = cursor.All(ctx, &photos); err != nil {
		return nil, err
	}
	return photos, nil
}

func (s *MongoStore) UpdateTitle(ctx context.Context, id, title string) error {
	return s.updatePhoto(ctx, id, bson.M{
		"title":      title,
		"updated_at": time.Now(),
	})
}

func (s *MongoStore) SetVariants(ctx context.Context, id string, variants models.Variants, title *string) error {
	// A single document update, so readers see either the old or the new set.
	set := bson.M{
		"variants":   variants,
		"status":     models.PhotoStored,
		"updated_at": time.Now(),
	}
	if title != nil {
		set["title"] = *title
	}
	return s.updatePhoto(ctx, id, set)
}

func (s *MongoStore) updatePhoto(ctx context.Context, id string, set bson.M) error {
	result, err := s.photos.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeletePhoto(ctx context.Context, id string) error {
	result, err := s.photos.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	// Toggles check the photo first, so nothing new lands here once it is gone.
	if _, err := s.likes.DeleteMany(ctx, bson.M{"photo_id": id}); err != nil {
		return fmt.Errorf("delete likes: %w", err)
	}
	return nil
}

func (s *MongoStore) LikedBy(ctx context.Context, photoID, userID string) (bool, error) {
	count, err := s.likes.CountDocuments(ctx,
		bson.M{"user_id": userID, "photo_id": photoID},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *MongoStore) AddLike(ctx context.Context, photoID, userID string) error {
	_, err := s.likes.InsertOne(ctx, models.Like{UserID: userID, PhotoID: photoID})
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	return err
}

func (s *MongoStore) RemoveLike(ctx context.Context, photoID, userID string) error {
	_, err := s.likes.DeleteOne(ctx, bson.M{"user_id": userID, "photo_id": photoID})
	return err
}

func (s *MongoStore) CountLikes(ctx context.Context, photoID string) (int64, error) {
	return s.likes.CountDocuments(ctx, bson.M{"photo_id": photoID})
}
