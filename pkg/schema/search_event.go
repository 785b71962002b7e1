package schema

import (
	"time"

	"github.com/hamba/avro/v2"
)

const SearchEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront",
	"name": "search_event",
	"fields": [
		{"name": "query", "type": "string"},
		{"name": "username", "type": "string"},
		{"name": "product_id", "type": "long"},
		{"name": "product_name", "type": "string"},
		{"name": "category", "type": "string"},
		{"name": "price", "type": "string"},
		{"name": "rank", "type": "int"},
		{"name": "occurred_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

// SearchEventV1 carries the price as a decimal string so no precision is
// lost between the client and the analytics consumers.
type SearchEventV1 struct {
	Query       string    `avro:"query"`
	Username    string    `avro:"username"`
	ProductID   int64     `avro:"product_id"`
	ProductName string    `avro:"product_name"`
	Category    string    `avro:"category"`
	Price       string    `avro:"price"`
	Rank        int       `avro:"rank"`
	OccurredAt  time.Time `avro:"occurred_at"`
}

func SearchEventV1Avro() avro.Schema {
	return avro.MustParse(SearchEventSchemaTextV1)
}
