package silo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	record := map[string]any{
		"name":     "collect-ec2-instances",
		"priority": 5,
		"duration": 12.5,
		"enabled":  true,
		"disabled": false,
		"tags":     []any{"aws", "ec2"},
		"config":   map[string]any{"region": "us-east-1", "limit": float64(10)},
	}

	encoded := Encode(record)

	// Scalars pass through as their literal Redis string encoding.
	assert.Equal(t, "collect-ec2-instances", encoded["name"])
	assert.Equal(t, "5", encoded["priority"])
	assert.Equal(t, "12.5", encoded["duration"])
	assert.Equal(t, "true", encoded["enabled"])
	assert.Equal(t, "false", encoded["disabled"])

	// Composite values are JSON-encoded.
	assert.Equal(t, `["aws","ec2"]`, encoded["tags"])

	decoded := Decode(encoded)
	assert.Equal(t, record["name"], decoded["name"])
	assert.Equal(t, int64(5), decoded["priority"])
	assert.Equal(t, 12.5, decoded["duration"])
	assert.Equal(t, true, decoded["enabled"])
	assert.Equal(t, false, decoded["disabled"])
	assert.Equal(t, record["tags"], decoded["tags"])
	assert.Equal(t, record["config"], decoded["config"])
}

func TestDecodePlainStringIsNotMisparsed(t *testing.T) {
	fields := map[string]string{"status": "enqueued"}
	decoded := Decode(fields)
	assert.Equal(t, "enqueued", decoded["status"])
}

func TestDecodeMalformedJSONFallsBackToString(t *testing.T) {
	fields := map[string]string{"broken": "{not valid json"}
	decoded := Decode(fields)
	assert.Equal(t, "{not valid json", decoded["broken"])
}

type taskRecord struct {
	ID       string `json:"id"`
	Priority int    `json:"priority"`
	Tags     []string `json:"tags"`
}

func TestDecodeInto(t *testing.T) {
	encoded := Encode(map[string]any{
		"id":       "task-1",
		"priority": 3,
		"tags":     []any{"a", "b"},
	})

	var dst taskRecord
	err := DecodeInto(encoded, &dst)
	assert.NoError(t, err)
	assert.Equal(t, "task-1", dst.ID)
	assert.Equal(t, 3, dst.Priority)
	assert.Equal(t, []string{"a", "b"}, dst.Tags)
}
