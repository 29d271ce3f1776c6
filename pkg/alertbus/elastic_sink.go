package alertbus

import (
	"context"
	"time"

	elastic "gopkg.in/olivere/elastic.v5"

	"gnssspoof/pkg/navdata"
)

// ElasticSink indexes every alert for operator full-text search and
// aggregation, completing the elastic wiring gnssgo's app/rtkrcv/rtkrcv.go
// left commented out.
type ElasticSink struct {
	client *elastic.Client
	index  string
}

// NewElasticSink connects to one of urls and ensures index exists.
func NewElasticSink(index string, urls ...string) (*ElasticSink, error) {
	client, err := elastic.NewClient(elastic.SetURL(urls...))
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	exists, err := client.IndexExists(index).Do(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		if _, err := client.CreateIndex(index).Do(ctx); err != nil {
			return nil, err
		}
	}
	return &ElasticSink{client: client, index: index}, nil
}

type elasticAlertDoc struct {
	CaseID      int       `json:"case_id"`
	Description string    `json:"description"`
	WallClockMs int64     `json:"wall_clock_ms"`
	RecordedAt  time.Time `json:"recorded_at"`
}

func (s *ElasticSink) Handle(alert navdata.SpoofingAlert) {
	_, _ = s.client.Index().
		Index(s.index).
		Type("spoofing_alert").
		BodyJson(elasticAlertDoc{
			CaseID:      alert.CaseID,
			Description: alert.Description,
			WallClockMs: alert.WallClockMs,
			RecordedAt:  time.Now(),
		}).
		Do(context.Background())
}
