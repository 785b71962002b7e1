package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/hamba/avro/v2"
	"github.com/twmb/franz-go/pkg/sr"
)

var (
	ErrTooFewOpts = errors.New("too few options")
	// ErrUnknownSchema is returned for records written with a schema ID
	// this serde was not built for.
	ErrUnknownSchema = errors.New("unknown schema id")
)

// A Serde frames Avro values with the schema registry wire header.
type Serde interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

type serde struct {
	srSerde *sr.Serde
}

func (s serde) Encode(v any) ([]byte, error) {
	return s.srSerde.Encode(v)
}

func (s serde) Decode(data []byte, v any) error {
	err := s.srSerde.Decode(data, v)
	if errors.Is(err, sr.ErrNotRegistered) {
		return fmt.Errorf("%w: %w", ErrUnknownSchema, err)
	}
	return err
}

type Opt func(*serdeOpts) error

type serdeOpts struct {
	subject string
	si      SchemaIdentifier
}

func SubjectOpt(subject string) Opt {
	return func(so *serdeOpts) error {
		if subject == "" {
			return errors.New("subject is empty string")
		}
		so.subject = subject
		return nil
	}
}

// TopicOpt names the subject after the topic's values.
func TopicOpt(topic string) Opt {
	return func(so *serdeOpts) error {
		if topic == "" {
			return errors.New("topic is empty string")
		}
		so.subject = SubjectFor(topic)
		return nil
	}
}

func SchemaIdentifierOpt(sc SchemaIdentifier) Opt {
	return func(so *serdeOpts) error {
		if sc == nil {
			return errors.New("schema identifier is nil")
		}
		so.si = sc
		return nil
	}
}

// SubjectFor names the value subject of a topic.
func SubjectFor(topic string) string {
	return topic + "-value"
}

// NewSearchEventSerde registers SearchEventV1 and returns a serde for it.
// A subject (SubjectOpt or TopicOpt) and a SchemaIdentifierOpt are required.
func NewSearchEventSerde(ctx context.Context, opts ...Opt) (Serde, error) {
	const op = "NewSearchEventSerde"

	s, err := newSerde[SearchEventV1](ctx, SearchEventSchemaTextV1, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

func newSerde[T any](ctx context.Context, schemaText string, opts ...Opt) (serde, error) {
	var o serdeOpts
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return serde{}, err
		}
	}
	if o.subject == "" || o.si == nil {
		return serde{}, ErrTooFewOpts
	}

	avroSchema, err := avro.Parse(schemaText)
	if err != nil {
		return serde{}, err
	}

	id, err := o.si.DetermineID(ctx, o.subject, schemaText)
	if err != nil {
		return serde{}, err
	}

	var example T
	srSerde := new(sr.Serde)
	srSerde.Register(
		id,
		example,
		sr.EncodeFn(AvroEncodeFn(avroSchema)),
		sr.DecodeFn(AvroDecodeFn(avroSchema)),
	)
	return serde{srSerde}, nil
}
