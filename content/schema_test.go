package content

import (
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlogSchemaValidRecordDefaultsTags(t *testing.T) {
	meta, err := DecodeBlogPostMetadata(map[string]any{
		"title":       "Hello",
		"date":        "2024-01-01",
		"description": "first post",
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello", meta.Title)
	assert.Equal(t, "first post", meta.Description)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), meta.Date)
	require.NotNil(t, meta.Tags)
	assert.Empty(t, meta.Tags)
}

func TestBlogSchemaKeepsTagOrder(t *testing.T) {
	meta, err := DecodeBlogPostMetadata(map[string]any{
		"title":       "Hello",
		"date":        "2024-01-01",
		"description": "first post",
		"tags":        []any{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, meta.Tags)
}

func TestBlogSchemaMissingDate(t *testing.T) {
	_, err := DecodeBlogPostMetadata(map[string]any{
		"title":       "Hello",
		"description": "first post",
	})
	require.Error(t, err)

	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	require.Contains(t, errs, "date")
	assert.Len(t, errs, 1)

	var verr validation.Error
	require.ErrorAs(t, errs["date"], &verr)
	assert.Equal(t, CodeRequired, verr.Code())
	assert.Contains(t, err.Error(), "date")
}

func TestBlogSchemaMissingRequiredFields(t *testing.T) {
	base := map[string]any{
		"title":       "Hello",
		"date":        "2024-01-01",
		"description": "first post",
	}
	for _, field := range []string{"title", "date", "description"} {
		t.Run(field, func(t *testing.T) {
			raw := map[string]any{}
			for k, v := range base {
				if k != field {
					raw[k] = v
				}
			}
			_, err := BlogSchema.Parse(raw)
			require.Error(t, err)
			var errs validation.Errors
			require.ErrorAs(t, err, &errs)
			assert.Contains(t, errs, field)
		})
	}
}

func TestBlogSchemaReportsEveryFailingField(t *testing.T) {
	_, err := BlogSchema.Parse(map[string]any{
		"title": 42,
		"date":  "not a date",
		"tags":  []any{"ok", 7},
	})
	require.Error(t, err)

	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs, "title")
	assert.Contains(t, errs, "date")
	assert.Contains(t, errs, "description")
	assert.Contains(t, errs, "tags.1")
	assert.Contains(t, errs["title"].Error(), "expected string, received number")
}

func TestBlogSchemaRejectsNullTags(t *testing.T) {
	_, err := BlogSchema.Parse(map[string]any{
		"title":       "Hello",
		"date":        "2024-01-01",
		"description": "first post",
		"tags":        nil,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "received null")
}

func TestBlogSchemaAllowsEmptyStrings(t *testing.T) {
	meta, err := DecodeBlogPostMetadata(map[string]any{
		"title":       "",
		"date":        "2024-01-01",
		"description": "",
	})
	require.NoError(t, err)
	assert.Equal(t, "", meta.Title)
}

func TestBlogSchemaStripsUnknownKeys(t *testing.T) {
	rec, err := BlogSchema.Parse(map[string]any{
		"title":       "Hello",
		"date":        "2024-01-01",
		"description": "first post",
		"draft":       true,
	})
	require.NoError(t, err)
	assert.NotContains(t, rec, "draft")
	assert.Len(t, rec, 4)
}

func TestCoerceDateMatchesDirectParse(t *testing.T) {
	cases := map[string]string{
		"2024-01-01":                "2006-01-02",
		"2024-03-05T10:30:00Z":      time.RFC3339,
		"2024-03-05T10:30:00+02:00": time.RFC3339,
	}
	for input, layout := range cases {
		t.Run(input, func(t *testing.T) {
			want, err := time.Parse(layout, input)
			require.NoError(t, err)
			got, err := CoerceDate(input)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s want %s", got, want)
		})
	}
}

func TestCoerceDateOtherInputs(t *testing.T) {
	stamp := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

	got, err := CoerceDate(stamp)
	require.NoError(t, err)
	assert.Equal(t, stamp, got)

	got, err = CoerceDate(stamp.UnixMilli())
	require.NoError(t, err)
	assert.True(t, stamp.Equal(got))

	got, err = CoerceDate(" 2023-06-01 12:00:00 ")
	require.NoError(t, err)
	assert.True(t, stamp.Equal(got))

	for _, bad := range []any{nil, "", "yesterday", true, false, []any{}} {
		_, err := CoerceDate(bad)
		assert.Error(t, err, "%v", bad)
	}
}

func TestSchemaFieldsIsACopy(t *testing.T) {
	fields := BlogSchema.Fields()
	require.Len(t, fields, 4)
	fields[0].Name = "changed"

	f, ok := BlogSchema.Field("title")
	require.True(t, ok)
	assert.Equal(t, KindString, f.Kind)
	assert.Equal(t, "title", BlogSchema.Fields()[0].Name)
}

func TestDefaultTagsAreNotShared(t *testing.T) {
	raw := map[string]any{"title": "a", "date": "2024-01-01", "description": "d"}
	first, err := DecodeBlogPostMetadata(raw)
	require.NoError(t, err)
	first.Tags = append(first.Tags, "mutated")

	second, err := DecodeBlogPostMetadata(raw)
	require.NoError(t, err)
	assert.Empty(t, second.Tags)
}

func TestJSONSchemaValidatesParsedEntries(t *testing.T) {
	compiled, err := BlogSchema.Compile()
	require.NoError(t, err)

	rec, err := BlogSchema.Parse(map[string]any{
		"title":       "Hello",
		"date":        "2024-01-01",
		"description": "first post",
		"tags":        []any{"go"},
	})
	require.NoError(t, err)

	doc, err := ToJSONValue(rec)
	require.NoError(t, err)
	assert.NoError(t, compiled.Validate(doc))

	bad, err := ToJSONValue(map[string]any{"title": "Hello"})
	require.NoError(t, err)
	assert.Error(t, compiled.Validate(bad))
}

func TestJSONSchemaShape(t *testing.T) {
	doc := BlogSchema.JSONSchema()
	assert.Equal(t, []string{"title", "date", "description"}, doc["required"])

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	tags, ok := props["tags"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "array", tags["type"])
	assert.Equal(t, []string{}, tags["default"])
}
