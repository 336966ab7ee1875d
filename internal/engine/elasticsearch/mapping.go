package elasticsearch

// DefaultIndexName is the default Elasticsearch index used for listing documents.
const DefaultIndexName = "marketplace_listings"

// buildIndexMapping returns the full JSON mapping for the listings index.
// Dynamic templates map attribute values by JSON type so term queries and
// min/max aggregations both work on attributes.* without declaring the
// per-category schema up front.
func buildIndexMapping() string {
	return `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "analyzer": {
        "listing_analyzer": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "english_stop", "english_stemmer"]
        }
      },
      "filter": {
        "english_stop": {
          "type": "stop",
          "stopwords": "_english_"
        },
        "english_stemmer": {
          "type": "stemmer",
          "language": "english"
        }
      }
    }
  },
  "mappings": {
    "dynamic_templates": [
      {
        "attribute_strings": {
          "path_match": "attributes.*",
          "match_mapping_type": "string",
          "mapping": { "type": "keyword", "ignore_above": 256 }
        }
      },
      {
        "attribute_numbers": {
          "path_match": "attributes.*",
          "match_mapping_type": "long",
          "mapping": { "type": "double" }
        }
      },
      {
        "attribute_doubles": {
          "path_match": "attributes.*",
          "match_mapping_type": "double",
          "mapping": { "type": "double" }
        }
      }
    ],
    "properties": {
      "id":          { "type": "keyword" },
      "title":       { "type": "text", "analyzer": "listing_analyzer", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } } },
      "description": { "type": "text", "analyzer": "listing_analyzer" },
      "price":       { "type": "double" },
      "currency":    { "type": "keyword" },
      "location": {
        "properties": {
          "city":    { "type": "keyword" },
          "state":   { "type": "keyword" },
          "country": { "type": "keyword" },
          "coordinates": { "properties": { "lat": { "type": "float" }, "lng": { "type": "float" } } }
        }
      },
      "categoryId":  { "type": "keyword" },
      "images":      { "type": "keyword", "index": false },
      "supplier": {
        "properties": {
          "name":     { "type": "text", "analyzer": "listing_analyzer", "fields": { "keyword": { "type": "keyword" } } },
          "email":    { "type": "keyword", "index": false },
          "phone":    { "type": "keyword", "index": false },
          "verified": { "type": "boolean" },
          "rating":   { "type": "float" }
        }
      },
      "inventory": {
        "properties": {
          "quantity": { "type": "integer" },
          "unit":     { "type": "keyword" },
          "moq":      { "type": "integer" }
        }
      },
      "status":      { "type": "keyword" },
      "featured":    { "type": "boolean" },
      "views":       { "type": "integer" },
      "inquiries":   { "type": "integer" },
      "createdAt":   { "type": "date" },
      "updatedAt":   { "type": "date" }
    }
  }
}`
}
