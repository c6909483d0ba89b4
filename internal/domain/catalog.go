package domain

import (
	"fmt"
	"sort"
)

// ModelSpec describes a hosted chat model and its published free-tier limits.
type ModelSpec struct {
	Key               string
	Name              string
	RequestsPerMinute int
	RequestsPerDay    int
	TokensPerMinute   int
	TokensPerDay      int
}

// DefaultModelKey is the catalog entry used when none is configured.
const DefaultModelKey = "fast_highlimiter"

var modelCatalog = map[string]ModelSpec{
	"fast_highlimiter": {
		Key:               "fast_highlimiter",
		Name:              "llama-3.1-8b-instant",
		RequestsPerMinute: 30,
		RequestsPerDay:    14400,
		TokensPerMinute:   6000,
		TokensPerDay:      500000,
	},
	"quality_highlimiter": {
		Key:               "quality_highlimiter",
		Name:              "llama3-70b-8192",
		RequestsPerMinute: 30,
		RequestsPerDay:    14400,
		TokensPerMinute:   6000,
		TokensPerDay:      500000,
	},
	"cutting_edge_option": {
		Key:               "cutting_edge_option",
		Name:              "meta-llama/llama-4-scout-17b-16e-instruct",
		RequestsPerMinute: 30,
		RequestsPerDay:    1000,
		TokensPerMinute:   30000,
		TokensPerDay:      500000,
	},
}

// LookupModel returns the catalog entry for key.
func LookupModel(key string) (ModelSpec, error) {
	spec, ok := modelCatalog[key]
	if !ok {
		return ModelSpec{}, fmt.Errorf("%w: %q (known: %v)", ErrUnknownModel, key, ModelKeys())
	}
	return spec, nil
}

// ModelKeys returns catalog keys in sorted order.
func ModelKeys() []string {
	keys := make([]string, 0, len(modelCatalog))
	for k := range modelCatalog {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
