package database

import (
	"fmt"

	"dojohub/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (m *MongoDB) CreatePlan(plan *entity.Plan) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionPlans)
	res, err := collection.InsertOne(m.ctx, plan)
	if err != nil {
		return fmt.Errorf("mongodb insert: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		plan.Id = oid
	}
	return nil
}

func (m *MongoDB) GetPlans(gym string) ([]*entity.Plan, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionPlans)
	filter := bson.D{{Key: "gym", Value: gym}}
	cursor, err := collection.Find(m.ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("mongodb find: %w", err)
	}
	defer cursor.Close(m.ctx)

	var plans []*entity.Plan
	err = cursor.All(m.ctx, &plans)
	if err != nil {
		return nil, err
	}
	return plans, nil
}

func (m *MongoDB) GetPlan(id string) (*entity.Plan, error) {
	oid, err := objectId(id)
	if err != nil {
		return nil, err
	}
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionPlans)
	filter := bson.D{{Key: "_id", Value: oid}}
	var plan entity.Plan
	err = collection.FindOne(m.ctx, filter).Decode(&plan)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (m *MongoDB) UpdatePlan(plan *entity.Plan) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionPlans)
	filter := bson.D{{Key: "_id", Value: plan.Id}}
	update := bson.D{{Key: "$set", Value: plan}}
	_, err = collection.UpdateOne(m.ctx, filter, update)
	return err
}

// DeletePlan deactivates the plan instead of removing it so that past
// payments keep a resolvable reference.
func (m *MongoDB) DeletePlan(id string) error {
	oid, err := objectId(id)
	if err != nil {
		return err
	}
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionPlans)
	filter := bson.D{{Key: "_id", Value: oid}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "active", Value: false}}}}
	_, err = collection.UpdateOne(m.ctx, filter, update)
	return err
}
