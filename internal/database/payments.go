package database

import (
	"fmt"
	"time"

	"dojohub/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func (m *MongoDB) CreatePayment(payment *entity.Payment) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionPayments)
	res, err := collection.InsertOne(m.ctx, payment)
	if err != nil {
		return fmt.Errorf("mongodb insert: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		payment.Id = oid
	}
	return nil
}

func (m *MongoDB) GetPayments(gym string) ([]*entity.Payment, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionPayments)
	filter := bson.D{{Key: "gym", Value: gym}}
	cursor, err := collection.Find(m.ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("mongodb find: %w", err)
	}
	defer cursor.Close(m.ctx)

	var payments []*entity.Payment
	err = cursor.All(m.ctx, &payments)
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (m *MongoDB) GetPaymentBySession(sessionId string) (*entity.Payment, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionPayments)
	filter := bson.D{{Key: "session_id", Value: sessionId}}
	var payment entity.Payment
	err = collection.FindOne(m.ctx, filter).Decode(&payment)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb find: %w", err)
	}
	return &payment, nil
}

func (m *MongoDB) SetPaymentStatus(id string, status entity.PaymentStatus, paidAt *time.Time) error {
	oid, err := objectId(id)
	if err != nil {
		return err
	}
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionPayments)
	filter := bson.D{{Key: "_id", Value: oid}}
	set := bson.D{{Key: "status", Value: status}}
	if paidAt != nil {
		set = append(set, bson.E{Key: "paid_at", Value: paidAt})
	}
	update := bson.D{{Key: "$set", Value: set}}
	_, err = collection.UpdateOne(m.ctx, filter, update)
	return err
}

// ExpireStalePayments moves gateway payments still pending after the
// cutoff to expired. Returns how many documents were touched.
func (m *MongoDB) ExpireStalePayments(cutoff time.Time) (int64, error) {
	connection, err := m.connect()
	if err != nil {
		return 0, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionPayments)
	filter := bson.D{
		{Key: "status", Value: entity.PaymentPending},
		{Key: "method", Value: entity.MethodStripe},
		{Key: "created_at", Value: bson.D{{Key: "$lt", Value: cutoff}}},
	}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "status", Value: entity.PaymentExpired}}}}
	res, err := collection.UpdateMany(m.ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("mongodb update: %w", err)
	}
	return res.ModifiedCount, nil
}
