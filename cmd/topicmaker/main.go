package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/pkg/sigctx"
	"github.com/spf13/pflag"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

type topicSpec struct {
	partitions int32
	replicas   int16
	retention  time.Duration
}

func (s topicSpec) configs() map[string]*string {
	str := func(v string) *string { return &v }
	return map[string]*string{
		"cleanup.policy":      str("delete"),
		"min.insync.replicas": str(strconv.Itoa(max(int(s.replicas)-1, 1))),
		"retention.ms":        str(strconv.FormatInt(s.retention.Milliseconds(), 10)),
	}
}

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	var spec topicSpec
	cfgPath := pflag.StringP("config", "c", "", "config file")
	pflag.Int32VarP(&spec.partitions, "partitions", "p", 3, "partitions per topic")
	pflag.Int16VarP(&spec.replicas, "replicas", "r", 3, "replication factor")
	pflag.DurationVar(&spec.retention, "retention", 7*24*time.Hour, "how long events are kept")
	pflag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fail(err)
	}
	if !cfg.AnalyticsEnabled() {
		fail(errors.New("broker.seed_brokers and broker.topics.search_events are required"))
	}

	cl, err := adminClient(cfg)
	if err != nil {
		fail(err)
	}
	defer cl.Close()

	topic := cfg.Broker.Topics.SearchEvents
	fmt.Printf("creating %q (partitions=%d replicas=%d retention=%s)\n",
		topic, spec.partitions, spec.replicas, spec.retention)

	start := time.Now()
	if err := createTopics(sigCtx, cl, spec, topic); err != nil {
		fmt.Fprintf(os.Stderr, "topicmaker: %s\n", err)
		return
	}
	fmt.Printf("done in %s\n", time.Since(start).Round(time.Millisecond))
}

func adminClient(cfg config.Config) (*kadm.Client, error) {
	opts := []kgo.Opt{kgo.SeedBrokers(cfg.Broker.SeedBrokers...)}
	if cfg.TLSEnabled() {
		t := cfg.Broker.TLS
		tlsCfg, err := adapter.TLSFiles{CA: t.CA, Cert: t.Cert, Key: t.Key}.Config()
		if err != nil {
			return nil, err
		}
		opts = append(opts, kgo.DialTLSConfig(tlsCfg))
	}
	return kadm.NewOptClient(opts...)
}

// createTopics treats an existing topic as success.
func createTopics(
	ctx context.Context, cl *kadm.Client, spec topicSpec, topics ...string,
) error {
	responses, err := cl.CreateTopics(
		ctx, spec.partitions, spec.replicas, spec.configs(), topics...,
	)
	if err != nil {
		return err
	}

	var errs []error
	for _, res := range responses.Sorted() {
		switch {
		case res.Err == nil:
			fmt.Printf("  %s: created\n", res.Topic)
		case errors.Is(res.Err, kerr.TopicAlreadyExists):
			fmt.Printf("  %s: exists\n", res.Topic)
		default:
			errs = append(errs, fmt.Errorf("%s: %w", res.Topic, res.Err))
		}
	}
	return errors.Join(errs...)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "topicmaker: %s\n", err)
	os.Exit(2)
}
