package database

import (
	"fmt"
	"time"

	"dojohub/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func (m *MongoDB) CreateRegistrationLink(link *entity.RegistrationLink) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionLinks)
	res, err := collection.InsertOne(m.ctx, link)
	if err != nil {
		return fmt.Errorf("mongodb insert: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		link.Id = oid
	}
	return nil
}

func (m *MongoDB) GetRegistrationLinks(gym string) ([]*entity.RegistrationLink, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionLinks)
	filter := bson.D{{Key: "gym", Value: gym}}
	cursor, err := collection.Find(m.ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("mongodb find: %w", err)
	}
	defer cursor.Close(m.ctx)

	var links []*entity.RegistrationLink
	err = cursor.All(m.ctx, &links)
	if err != nil {
		return nil, err
	}
	return links, nil
}

// GetActiveRegistrationLink returns the gym's ACTIVE, not-yet-expired link,
// or nil when there is none.
func (m *MongoDB) GetActiveRegistrationLink(gym string, now time.Time) (*entity.RegistrationLink, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionLinks)
	filter := bson.D{
		{Key: "gym", Value: gym},
		{Key: "status", Value: entity.LinkActive},
		{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: now}}},
	}
	var link entity.RegistrationLink
	err = collection.FindOne(m.ctx, filter).Decode(&link)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb find: %w", err)
	}
	return &link, nil
}

// GetRegistrationLinkByToken looks up by the private token regardless of
// status. Used for the diagnostic fallback on failed validation.
func (m *MongoDB) GetRegistrationLinkByToken(token string) (*entity.RegistrationLink, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionLinks)
	filter := bson.D{{Key: "token", Value: token}}
	var link entity.RegistrationLink
	err = collection.FindOne(m.ctx, filter).Decode(&link)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb find: %w", err)
	}
	return &link, nil
}

func (m *MongoDB) GetRegistrationLinkById(id string) (*entity.RegistrationLink, error) {
	oid, err := objectId(id)
	if err != nil {
		return nil, err
	}
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionLinks)
	filter := bson.D{{Key: "_id", Value: oid}}
	var link entity.RegistrationLink
	err = collection.FindOne(m.ctx, filter).Decode(&link)
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (m *MongoDB) SetRegistrationLinkStatus(id string, status entity.LinkStatus) error {
	oid, err := objectId(id)
	if err != nil {
		return err
	}
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionLinks)
	filter := bson.D{{Key: "_id", Value: oid}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "status", Value: status}}}}
	_, err = collection.UpdateOne(m.ctx, filter, update)
	return err
}

func (m *MongoDB) SetRegistrationLinkRevoked(id, revokedBy string, revokedAt time.Time) error {
	oid, err := objectId(id)
	if err != nil {
		return err
	}
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionLinks)
	filter := bson.D{{Key: "_id", Value: oid}}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: entity.LinkRevoked},
		{Key: "revoked_by", Value: revokedBy},
		{Key: "revoked_at", Value: revokedAt},
	}}}
	_, err = collection.UpdateOne(m.ctx, filter, update)
	return err
}

// SetRegistrationLinkUsage persists a usage count read earlier by the
// caller. Deliberately not an atomic $inc; see the links service.
func (m *MongoDB) SetRegistrationLinkUsage(id string, count int) error {
	oid, err := objectId(id)
	if err != nil {
		return err
	}
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionLinks)
	filter := bson.D{{Key: "_id", Value: oid}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "usage_count", Value: count}}}}
	_, err = collection.UpdateOne(m.ctx, filter, update)
	return err
}

// ExpireStaleRegistrationLink lazily moves one overdue ACTIVE link of the
// gym to EXPIRED. Invoked at the top of every read path instead of a
// background job.
func (m *MongoDB) ExpireStaleRegistrationLink(gym string, now time.Time) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionLinks)
	filter := bson.D{
		{Key: "gym", Value: gym},
		{Key: "status", Value: entity.LinkActive},
		{Key: "expires_at", Value: bson.D{{Key: "$lt", Value: now}}},
	}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "status", Value: entity.LinkExpired}}}}
	_, err = collection.UpdateOne(m.ctx, filter, update)
	return err
}
