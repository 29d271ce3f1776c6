package alertbus

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"gnssspoof/pkg/navdata"
)

// MongoSink archives alerts as documents, completing the mongo wiring the
// teacher's app/rtkrcv/rtkrcv.go left commented out.
type MongoSink struct {
	collection *mongo.Collection
}

func NewMongoSink(collection *mongo.Collection) *MongoSink {
	return &MongoSink{collection: collection}
}

type mongoAlert struct {
	navdata.SpoofingAlert `bson:",inline"`
	RecordedAt            time.Time `bson:"recorded_at"`
}

func (s *MongoSink) Handle(alert navdata.SpoofingAlert) {
	_, _ = s.collection.InsertOne(context.Background(), mongoAlert{
		SpoofingAlert: alert,
		RecordedAt:    time.Now(),
	})
}
