package template

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowgrid/flowgrid/pkg/models"
)

func testContext() *models.RunContext {
	return &models.RunContext{
		Current: map[string]any{
			"a":    "x",
			"text": "hello",
			"user": map[string]any{"name": "Ada"},
		},
		Results: map[string]models.NodeOutcome{
			"Fetch": {
				Success: true,
				Data:    map[string]any{"status": float64(200), "body": map[string]any{"id": "42"}},
				Message: "fetched",
			},
		},
	}
}

func TestResolveCurrentDataToken(t *testing.T) {
	rc := testContext()

	assert.Equal(t, "x", Resolve("{{$json.a}}", rc))
	assert.Equal(t, "Ada", Resolve("{{$json.user.name}}", rc))
	assert.Equal(t, "hello world", Resolve("{{$json.text}} world", rc))
}

func TestResolveNodeResults(t *testing.T) {
	rc := testContext()

	assert.Equal(t, "200", Resolve("{{Fetch.data.status}}", rc))
	assert.Equal(t, "42", Resolve("{{Fetch.data.body.id}}", rc))
	assert.Equal(t, "true", Resolve("{{Fetch.success}}", rc))
	assert.Equal(t, "fetched", Resolve("{{Fetch.message}}", rc))
}

func TestResolveBareKeyShorthand(t *testing.T) {
	rc := testContext()

	assert.Equal(t, "x", Resolve("{{a}}", rc))
	assert.Equal(t, "hello", Resolve("{{text}}", rc))
}

func TestResolveUnresolvedPassesThrough(t *testing.T) {
	rc := testContext()

	assert.Equal(t, "{{missing.path}}", Resolve("{{missing.path}}", rc))
	assert.Equal(t, "{{$json.nope}}", Resolve("{{$json.nope}}", rc))
	assert.Equal(t, "{{Fetch.data.nope}}", Resolve("{{Fetch.data.nope}}", rc))
	assert.Equal(t, "plain text", Resolve("plain text", rc))
	assert.Equal(t, "", Resolve("", rc))
}

func TestResolveStringifiesStructuredValues(t *testing.T) {
	rc := testContext()

	assert.Equal(t, `{"name":"Ada"}`, Resolve("{{$json.user}}", rc))
}

func TestResolveMultiplePlaceholders(t *testing.T) {
	rc := testContext()

	assert.Equal(t, "x and Ada and {{gone}}", Resolve("{{a}} and {{$json.user.name}} and {{gone}}", rc))
}

func TestResolveParams(t *testing.T) {
	rc := testContext()

	resolved := ResolveParams(map[string]any{
		"message": "{{$json.text}}",
		"chatId":  float64(7),
		"flag":    true,
	}, rc)

	assert.Equal(t, "hello", resolved["message"])
	assert.Equal(t, float64(7), resolved["chatId"])
	assert.Equal(t, true, resolved["flag"])
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "text", Stringify("text"))
	assert.Equal(t, "3.5", Stringify(3.5))
	assert.Equal(t, "true", Stringify(true))
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, `["a","b"]`, Stringify([]string{"a", "b"}))
}
