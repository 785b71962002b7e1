package kafka

import (
	"context"
	"log/slog"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	_ port.SearchEventsCloser = (*SearchEventsProducer)(nil)
	_ port.SearchEventsCloser = NoopProducer{}
)

// schemaHeader tags every record with the value layout it was written in.
const (
	schemaHeader      = "schema"
	searchEventSchema = "search-event.v1"
)

// A SearchEventsProducer publishes the products a search surfaced.
//
// Records are keyed by query so that all hits of one search land in the
// same partition, and stamped with the time of the search.
type SearchEventsProducer struct {
	cl      ProducerClient
	encoder Encoder
}

func NewSearchEventsProducer(opts ...ProducerOpt) (SearchEventsProducer, error) {
	const op = "NewSearchEventsProducer"

	var options producerOpts
	if err := options.apply(opts...); err != nil {
		return SearchEventsProducer{}, opErr(err, op)
	}
	if options.cl == nil || options.encoder == nil {
		if options.cl != nil {
			options.cl.Close()
		}
		return SearchEventsProducer{}, opErr(ErrTooFewOpts, op)
	}

	return SearchEventsProducer{
		cl:      options.cl,
		encoder: options.encoder,
	}, nil
}

func (p SearchEventsProducer) Close() {
	const op = "SearchEventsProducer.Close"
	log := slog.With("op", op)
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p SearchEventsProducer) ProduceSearchEvents(
	ctx context.Context, vs []domain.SearchEvent,
) error {
	const op = "SearchEventsProducer.ProduceSearchEvents"

	if err := ctx.Err(); err != nil {
		return opErr(err, op)
	}
	if len(vs) == 0 {
		return nil
	}

	rs := make([]*kgo.Record, 0, len(vs))
	for _, v := range vs {
		r, err := p.record(v)
		if err != nil {
			return opErr(err, op)
		}
		rs = append(rs, r)
	}

	if err := p.cl.ProduceSync(ctx, rs...).FirstErr(); err != nil {
		return opErr(err, op)
	}
	return nil
}

func (p SearchEventsProducer) record(v domain.SearchEvent) (*kgo.Record, error) {
	s := searchEventToSchemaV1(v)
	b, err := p.encoder.Encode(s)
	if err != nil {
		return nil, err
	}
	return &kgo.Record{
		Key:       []byte(s.Query),
		Value:     b,
		Timestamp: s.OccurredAt,
		Headers: []kgo.RecordHeader{
			{Key: schemaHeader, Value: []byte(searchEventSchema)},
		},
	}, nil
}

// NoopProducer drops events. It stands in when no brokers are configured.
type NoopProducer struct{}

func (NoopProducer) ProduceSearchEvents(context.Context, []domain.SearchEvent) error {
	return nil
}

func (NoopProducer) Close() {}
