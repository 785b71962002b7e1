package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/shopspring/decimal"
	"github.com/twmb/franz-go/pkg/kgo"
)

// ErrTooFewOpts is returned when a client or codec option is missing.
var ErrTooFewOpts = errors.New("too few options")

type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl      ProducerClient
	encoder Encoder
}

func (po *producerOpts) apply(opts ...ProducerOpt) error {
	for _, opt := range opts {
		if err := opt(po); err != nil {
			return err
		}
	}
	return nil
}

// ProducerClientOpt dials seedBrokers and pings them before the producer
// is handed out; all in-sync replicas must ack. A nil tlsCfg means plaintext.
func ProducerClientOpt(
	ctx context.Context, seedBrokers []string, topic string, tlsCfg *tls.Config,
) ProducerOpt {
	return func(po *producerOpts) error {
		cl, err := kgo.NewClient(producerKgoOpts(seedBrokers, topic, tlsCfg)...)
		if err != nil {
			return err
		}
		if err := cl.Ping(ctx); err != nil {
			cl.Close()
			return err
		}
		po.cl = cl
		return nil
	}
}

func producerKgoOpts(seedBrokers []string, topic string, tlsCfg *tls.Config) []kgo.Opt {
	opts := []kgo.Opt{
		kgo.SeedBrokers(seedBrokers...),
		kgo.DefaultProduceTopicAlways(),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}
	if tlsCfg != nil {
		opts = append(opts, kgo.DialTLSConfig(tlsCfg))
	}
	return opts
}

func ProducerRawClientOpt(cl ProducerClient) ProducerOpt {
	return func(po *producerOpts) error {
		if cl == nil {
			return errors.New("client is nil")
		}
		po.cl = cl
		return nil
	}
}

func ProducerEncoderOpt(encoder Encoder) ProducerOpt {
	return func(po *producerOpts) error {
		if encoder == nil {
			return errors.New("encoder is nil")
		}
		po.encoder = encoder
		return nil
	}
}

func opErr(err error, op string) error {
	return fmt.Errorf("%s: %w", op, err)
}

func searchEventToSchemaV1(v domain.SearchEvent) (s schema.SearchEventV1) {
	s.Query = v.Query
	s.Username = v.Username
	s.ProductID = v.ProductID
	s.ProductName = v.ProductName
	s.Category = v.Category
	s.Price = v.Price.String()
	s.Rank = v.Rank
	s.OccurredAt = v.OccurredAt.UTC()
	return
}

func schemaV1ToSearchEvent(s schema.SearchEventV1) (domain.SearchEvent, error) {
	price, err := decimal.NewFromString(s.Price)
	if err != nil {
		return domain.SearchEvent{}, fmt.Errorf("price %q: %w", s.Price, err)
	}
	return domain.SearchEvent{
		Query:       s.Query,
		Username:    s.Username,
		ProductID:   s.ProductID,
		ProductName: s.ProductName,
		Category:    s.Category,
		Price:       price,
		Rank:        s.Rank,
		OccurredAt:  s.OccurredAt,
	}, nil
}
