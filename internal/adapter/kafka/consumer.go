package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.SearchEventsTailer = SearchEventsConsumer{}

const slowDownTimeout = 1 * time.Second

type ConsumerClient interface {
	PollFetches(context.Context) kgo.Fetches
	CommitUncommittedOffsets(context.Context) error
	Close()
}

type Decoder interface {
	Decode(data []byte, v any) error
}

type ConsumerOpt func(*consumerOpts) error

type consumerOpts struct {
	cl      ConsumerClient
	decoder Decoder
}

func (co *consumerOpts) apply(opts ...ConsumerOpt) error {
	for _, opt := range opts {
		if err := opt(co); err != nil {
			return err
		}
	}
	return nil
}

// ConsumerClientOpt joins group on topic. A nil tlsCfg means plaintext.
func ConsumerClientOpt(
	seedBrokers []string, topic, group string, tlsCfg *tls.Config,
) ConsumerOpt {
	return func(co *consumerOpts) error {
		kgoOpts := []kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.ConsumeTopics(topic),
			kgo.ConsumerGroup(group),
			kgo.DisableAutoCommit(),
		}
		if tlsCfg != nil {
			kgoOpts = append(kgoOpts, kgo.DialTLSConfig(tlsCfg))
		}

		cl, err := kgo.NewClient(kgoOpts...)
		if err != nil {
			return err
		}
		co.cl = cl
		return nil
	}
}

func ConsumerRawClientOpt(cl ConsumerClient) ConsumerOpt {
	return func(co *consumerOpts) error {
		if cl == nil {
			return errors.New("consumer client is nil")
		}
		co.cl = cl
		return nil
	}
}

func ConsumerDecoderOpt(decoder Decoder) ConsumerOpt {
	return func(co *consumerOpts) error {
		if decoder == nil {
			return errors.New("decoder is nil")
		}
		co.decoder = decoder
		return nil
	}
}

// A SearchEventsConsumer reads the search events topic and hands every
// decoded batch to a handler. Offsets are committed only after the
// handler accepts the batch.
type SearchEventsConsumer struct {
	cl      ConsumerClient
	decoder Decoder
}

func NewSearchEventsConsumer(opts ...ConsumerOpt) (SearchEventsConsumer, error) {
	const op = "NewSearchEventsConsumer"

	var options consumerOpts
	if err := options.apply(opts...); err != nil {
		return SearchEventsConsumer{}, opErr(err, op)
	}
	if options.cl == nil || options.decoder == nil {
		if options.cl != nil {
			options.cl.Close()
		}
		return SearchEventsConsumer{}, opErr(ErrTooFewOpts, op)
	}

	return SearchEventsConsumer{
		cl:      options.cl,
		decoder: options.decoder,
	}, nil
}

// Run polls until ctx is done.
func (c SearchEventsConsumer) Run(ctx context.Context, h port.SearchEventsHandler) {
	const op = "SearchEventsConsumer.Run"
	log := slog.With("op", op)

	log.Debug("running")

	for ctx.Err() == nil {
		err := c.consume(ctx, h)
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error("failed to consume", "err", err)
		c.slowDown(ctx)
	}
}

func (c SearchEventsConsumer) Close() {
	const op = "SearchEventsConsumer.Close"
	log := slog.With("op", op)

	log.Debug("closing consumer...")
	c.cl.Close()
	log.Debug("consumer is closed")
}

func (c SearchEventsConsumer) consume(ctx context.Context, h port.SearchEventsHandler) error {
	const op = "SearchEventsConsumer.consume"

	fetches, err := c.pollFetches(ctx)
	if err != nil {
		return opErr(err, op)
	}

	if fetches.Empty() {
		return nil
	}

	events := c.toDomain(fetches)
	if len(events) != 0 {
		if err := h.HandleSearchEvents(ctx, events); err != nil {
			return opErr(err, op)
		}
	}

	if err := c.commit(ctx); err != nil {
		return opErr(err, op)
	}
	return nil
}

func (c SearchEventsConsumer) pollFetches(ctx context.Context) (kgo.Fetches, error) {
	const op = "SearchEventsConsumer.pollFetches"

	fetches := c.cl.PollFetches(ctx)
	if err := fetches.Err0(); err != nil {
		return nil, opErr(err, op)
	}

	if err := c.handleFetchesErrs(fetches); err != nil {
		return nil, opErr(err, op)
	}
	return fetches, nil
}

func (c SearchEventsConsumer) handleFetchesErrs(fetches kgo.Fetches) error {
	var errsMessages []string
	fetches.EachError(func(t string, p int32, err error) {
		if err != nil {
			errMsg := fmt.Sprintf(
				"topic %q partition %d: %q", t, p, err,
			)
			errsMessages = append(errsMessages, errMsg)
		}
	})

	if len(errsMessages) != 0 {
		return errors.New(strings.Join(errsMessages, "; "))
	}
	return nil
}

func (c SearchEventsConsumer) commit(ctx context.Context) error {
	const op = "SearchEventsConsumer.commit"

	if err := ctx.Err(); err != nil {
		return opErr(err, op)
	}

	if err := c.cl.CommitUncommittedOffsets(ctx); err != nil {
		return opErr(err, op)
	}
	return nil
}

func (c SearchEventsConsumer) slowDown(ctx context.Context) {
	timer := time.NewTimer(slowDownTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// toDomain skips records that fail to decode.
func (c SearchEventsConsumer) toDomain(fetches kgo.Fetches) (vs []domain.SearchEvent) {
	const op = "SearchEventsConsumer.toDomain"
	log := slog.With("op", op)

	fetches.EachRecord(func(r *kgo.Record) {
		v, err := c.decodeRecValue(r)
		if err != nil {
			log.Error(
				"failed to decode value",
				"err", opErr(err, op),
				"offset", r.Offset,
			)
			return
		}
		vs = append(vs, v)
	})
	return vs
}

func (c SearchEventsConsumer) decodeRecValue(r *kgo.Record) (domain.SearchEvent, error) {
	var s schema.SearchEventV1
	if err := c.decoder.Decode(r.Value, &s); err != nil {
		return domain.SearchEvent{}, err
	}
	return schemaV1ToSearchEvent(s)
}
