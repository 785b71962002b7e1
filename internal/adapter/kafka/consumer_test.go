package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type fakeConsumerClient struct {
	mu      sync.Mutex
	batches []kgo.Fetches
	commits int
	closed  bool
}

func (c *fakeConsumerClient) PollFetches(ctx context.Context) kgo.Fetches {
	c.mu.Lock()
	if len(c.batches) != 0 {
		b := c.batches[0]
		c.batches = c.batches[1:]
		c.mu.Unlock()
		return b
	}
	c.mu.Unlock()

	<-ctx.Done()
	return fetchesOf(ctx.Err())
}

func (c *fakeConsumerClient) CommitUncommittedOffsets(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commits++
	return nil
}

func (c *fakeConsumerClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConsumerClient) committed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commits
}

func fetchesOf(err error, values ...string) kgo.Fetches {
	records := make([]*kgo.Record, len(values))
	for i, v := range values {
		records[i] = &kgo.Record{Value: []byte(v), Offset: int64(i)}
	}
	return kgo.Fetches{{
		Topics: []kgo.FetchTopic{{
			Topic: "storefront-search-events",
			Partitions: []kgo.FetchPartition{{
				Partition: 0,
				Err:       err,
				Records:   records,
			}},
		}},
	}}
}

type fakeDecoder map[string]schema.SearchEventV1

func (d fakeDecoder) Decode(data []byte, v any) error {
	s, ok := d[string(data)]
	if !ok {
		return errors.New("unknown schema id")
	}
	*v.(*schema.SearchEventV1) = s
	return nil
}

type handlerFunc func(context.Context, []domain.SearchEvent) error

func (f handlerFunc) HandleSearchEvents(ctx context.Context, es []domain.SearchEvent) error {
	return f(ctx, es)
}

func testDecoder() fakeDecoder {
	at := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	return fakeDecoder{
		"mouse-pad": {
			Query: "mouse", Username: "ana", ProductID: 2,
			ProductName: "Mouse Pad", Category: "Peripherals",
			Price: "19.90", Rank: 1, OccurredAt: at,
		},
		"bad-price": {Query: "mouse", Price: "n/a"},
	}
}

func TestNewSearchEventsConsumer(t *testing.T) {
	t.Run("TooFewOpts", func(t *testing.T) {
		cl := &fakeConsumerClient{}
		_, err := NewSearchEventsConsumer(ConsumerRawClientOpt(cl))
		require.ErrorIs(t, err, ErrTooFewOpts)
		assert.True(t, cl.closed)
	})

	t.Run("NilDecoder", func(t *testing.T) {
		_, err := NewSearchEventsConsumer(ConsumerDecoderOpt(nil))
		require.Error(t, err)
	})
}

func TestSearchEventsConsumer(t *testing.T) {
	t.Run("HandlesDecodedAndCommits", func(t *testing.T) {
		cl := &fakeConsumerClient{
			batches: []kgo.Fetches{fetchesOf(nil, "mouse-pad", "garbage", "bad-price")},
		}
		c, err := NewSearchEventsConsumer(
			ConsumerRawClientOpt(cl), ConsumerDecoderOpt(testDecoder()),
		)
		require.NoError(t, err)

		var (
			mu  sync.Mutex
			got []domain.SearchEvent
		)
		h := handlerFunc(func(_ context.Context, es []domain.SearchEvent) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, es...)
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			c.Run(ctx, h)
		}()

		assert.Eventually(t, func() bool { return cl.committed() == 1 },
			time.Second, 5*time.Millisecond)
		cancel()
		<-done

		mu.Lock()
		defer mu.Unlock()
		require.Len(t, got, 1)
		assert.Equal(t, int64(2), got[0].ProductID)
		assert.True(t, got[0].Price.Equal(decimal.RequireFromString("19.90")))
		assert.Equal(t, 1, got[0].Rank)

		c.Close()
		assert.True(t, cl.closed)
	})

	t.Run("HandlerFailureSkipsCommit", func(t *testing.T) {
		cl := &fakeConsumerClient{
			batches: []kgo.Fetches{fetchesOf(nil, "mouse-pad")},
		}
		c, err := NewSearchEventsConsumer(
			ConsumerRawClientOpt(cl), ConsumerDecoderOpt(testDecoder()),
		)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		handled := make(chan struct{})
		h := handlerFunc(func(context.Context, []domain.SearchEvent) error {
			close(handled)
			return errors.New("sink down")
		})

		done := make(chan struct{})
		go func() {
			defer close(done)
			c.Run(ctx, h)
		}()

		<-handled
		cancel()
		<-done
		assert.Zero(t, cl.committed())
	})

	t.Run("EmptyBatchHandlerNotCalled", func(t *testing.T) {
		cl := &fakeConsumerClient{
			batches: []kgo.Fetches{fetchesOf(nil, "garbage")},
		}
		c, err := NewSearchEventsConsumer(
			ConsumerRawClientOpt(cl), ConsumerDecoderOpt(testDecoder()),
		)
		require.NoError(t, err)

		h := handlerFunc(func(context.Context, []domain.SearchEvent) error {
			t.Error("handler called for an undecodable batch")
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			c.Run(ctx, h)
		}()

		assert.Eventually(t, func() bool { return cl.committed() == 1 },
			time.Second, 5*time.Millisecond)
		cancel()
		<-done
	})
}
