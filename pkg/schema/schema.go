package schema

import (
	"context"
	"fmt"

	"github.com/hamba/avro/v2"
	"github.com/twmb/franz-go/pkg/sr"
)

// SchemaIdentifier resolves the registry ID of a schema under a subject.
type SchemaIdentifier interface {
	DetermineID(ctx context.Context, subject string, avroSchemaText string) (id int, err error)
}

type SchemaRegistryClient interface {
	CreateSchema(ctx context.Context, subject string, s sr.Schema) (sr.SubjectSchema, error)
}

// SchemaCreater registers schemas in the registry. Registering an already
// known schema returns its existing ID.
type SchemaCreater struct {
	client SchemaRegistryClient
}

func NewSchemaCreater(client SchemaRegistryClient) SchemaCreater {
	return SchemaCreater{client}
}

func (c SchemaCreater) DetermineID(
	ctx context.Context, subject string, avroSchemaText string,
) (int, error) {
	const op = "SchemaCreater.DetermineID"

	ss, err := c.client.CreateSchema(ctx, subject, sr.Schema{
		Schema: avroSchemaText,
		Type:   sr.TypeAvro,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return ss.ID, nil
}

func AvroEncodeFn(s avro.Schema) func(v any) ([]byte, error) {
	return func(v any) ([]byte, error) {
		return avro.Marshal(s, v)
	}
}

func AvroDecodeFn(s avro.Schema) func([]byte, any) error {
	return func(data []byte, v any) error {
		return avro.Unmarshal(s, data, v)
	}
}
