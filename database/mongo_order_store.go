package database

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yeremiapane/order-platform/models"
	"github.com/yeremiapane/order-platform/utils"
)

const (
	ordersCollection      = "orders"
	restaurantsCollection = "restaurants"
)

// MongoOrderStore keeps each order, items included, as one document.
type MongoOrderStore struct {
	orders *mongo.Collection
}

func NewMongoOrderStore(db *mongo.Database) *MongoOrderStore {
	return &MongoOrderStore{orders: db.Collection(ordersCollection)}
}

type itemDocument struct {
	Name          string               `bson:"name"`
	Price         primitive.Decimal128 `bson:"price"`
	Quantity      int                  `bson:"quantity"`
	Modifications []string             `bson:"modifications"`
}

type orderDocument struct {
	ID                 string               `bson:"_id"`
	RestaurantID       string               `bson:"restaurant_id"`
	CustomerID         *string              `bson:"customer_id,omitempty"`
	GuestInfo          *models.GuestInfo    `bson:"guest_info,omitempty"`
	Items              []itemDocument       `bson:"items"`
	TotalPrice         primitive.Decimal128 `bson:"total_price"`
	Status             string               `bson:"status"`
	EstimatedReadyTime *time.Time           `bson:"estimated_ready_time,omitempty"`
	CancellationReason *string              `bson:"cancellation_reason,omitempty"`
	Notes              string               `bson:"notes"`
	CreatedAt          time.Time            `bson:"created_at"`
	UpdatedAt          time.Time            `bson:"updated_at"`
}

// Decimal128 keeps prices exact in the document store.
func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

func fromDecimal128(d primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(d.String())
}

func toOrderDocument(order *models.Order) (orderDocument, error) {
	total, err := toDecimal128(order.TotalPrice)
	if err != nil {
		return orderDocument{}, err
	}

	doc := orderDocument{
		ID:                 order.ID,
		RestaurantID:       order.RestaurantID,
		CustomerID:         order.CustomerID,
		GuestInfo:          order.GuestInfo,
		TotalPrice:         total,
		Status:             string(order.Status),
		EstimatedReadyTime: order.EstimatedReadyTime,
		CancellationReason: order.CancellationReason,
		Notes:              order.Notes,
		CreatedAt:          order.CreatedAt,
		UpdatedAt:          order.UpdatedAt,
	}
	for _, item := range order.Items {
		price, err := toDecimal128(item.Price)
		if err != nil {
			return orderDocument{}, err
		}
		doc.Items = append(doc.Items, itemDocument{
			Name:          item.Name,
			Price:         price,
			Quantity:      item.Quantity,
			Modifications: item.Modifications,
		})
	}
	return doc, nil
}

func (doc orderDocument) toModel() (models.Order, error) {
	total, err := fromDecimal128(doc.TotalPrice)
	if err != nil {
		return models.Order{}, err
	}

	order := models.Order{
		ID:                 doc.ID,
		RestaurantID:       doc.RestaurantID,
		CustomerID:         doc.CustomerID,
		GuestInfo:          doc.GuestInfo,
		TotalPrice:         total,
		Status:             models.OrderStatus(doc.Status),
		EstimatedReadyTime: doc.EstimatedReadyTime,
		CancellationReason: doc.CancellationReason,
		Notes:              doc.Notes,
		CreatedAt:          doc.CreatedAt.UTC(),
		UpdatedAt:          doc.UpdatedAt.UTC(),
	}
	for i, item := range doc.Items {
		price, err := fromDecimal128(item.Price)
		if err != nil {
			return models.Order{}, err
		}
		order.Items = append(order.Items, models.OrderItem{
			OrderID:       doc.ID,
			Position:      i,
			Name:          item.Name,
			Price:         price,
			Quantity:      item.Quantity,
			Modifications: item.Modifications,
		})
	}
	return order, nil
}

// EnsureIndexes creates the index used by the kitchen display query.
func (s *MongoOrderStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.orders.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "restaurant_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return translate(err, "order")
}

func (s *MongoOrderStore) Create(ctx context.Context, order *models.Order) error {
	doc, err := toOrderDocument(order)
	if err != nil {
		return utils.ValidationError("invalid price: %v", err)
	}
	_, err = s.orders.InsertOne(ctx, doc)
	return translate(err, "order")
}

func (s *MongoOrderStore) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var doc orderDocument
	if err := s.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, translate(err, "order")
	}
	order, err := doc.toModel()
	if err != nil {
		return nil, utils.Internal(err, "corrupt order document %s", id)
	}
	return &order, nil
}

func (s *MongoOrderStore) ListByRestaurant(ctx context.Context, restaurantID string, statuses []models.OrderStatus) ([]models.Order, error) {
	filter := bson.M{"restaurant_id": restaurantID}
	if len(statuses) > 0 {
		names := make([]string, 0, len(statuses))
		for _, status := range statuses {
			names = append(names, string(status))
		}
		filter["status"] = bson.M{"$in": names}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.orders.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err, "order")
	}
	defer cursor.Close(ctx)

	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translate(err, "order")
	}

	orders := make([]models.Order, 0, len(docs))
	for _, doc := range docs {
		order, err := doc.toModel()
		if err != nil {
			return nil, utils.Internal(err, "corrupt order document %s", doc.ID)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (s *MongoOrderStore) UpdateStatus(ctx context.Context, order *models.Order, from models.OrderStatus) error {
	set := bson.M{
		"status":     string(order.Status),
		"updated_at": order.UpdatedAt,
	}
	unset := bson.M{}
	if order.EstimatedReadyTime != nil {
		set["estimated_ready_time"] = *order.EstimatedReadyTime
	} else {
		unset["estimated_ready_time"] = ""
	}
	if order.CancellationReason != nil {
		set["cancellation_reason"] = *order.CancellationReason
	} else {
		unset["cancellation_reason"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := s.orders.UpdateOne(ctx, bson.M{"_id": order.ID, "status": string(from)}, update)
	if err != nil {
		return translate(err, "order")
	}
	if res.MatchedCount == 1 {
		return nil
	}

	current, err := s.FindByID(ctx, order.ID)
	if err != nil {
		return err
	}
	return utils.InvalidTransition("order %s is already %s, cannot move from %s to %s",
		order.ID, current.Status, from, order.Status)
}

// MongoRestaurantStore resolves restaurants when orders live in MongoDB.
type MongoRestaurantStore struct {
	restaurants *mongo.Collection
}

func NewMongoRestaurantStore(db *mongo.Database) *MongoRestaurantStore {
	return &MongoRestaurantStore{restaurants: db.Collection(restaurantsCollection)}
}

func (s *MongoRestaurantStore) FindRestaurant(ctx context.Context, id string) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := s.restaurants.FindOne(ctx, bson.M{"_id": id}).Decode(&restaurant); err != nil {
		return nil, translate(err, "restaurant")
	}
	return &restaurant, nil
}

func (s *MongoRestaurantStore) CreateRestaurant(ctx context.Context, name string) (*models.Restaurant, error) {
	now := time.Now().UTC()
	restaurant := models.Restaurant{
		ID:        primitive.NewObjectID().Hex(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.restaurants.InsertOne(ctx, restaurant); err != nil {
		return nil, translate(err, "restaurant")
	}
	return &restaurant, nil
}
