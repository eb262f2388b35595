package cloudant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Noaman7/BluemixPOC/errors"
)

func TestClassifyInput(t *testing.T) {
	assert.Equal(t, InputStructured, ClassifyInput(map[string]any{"a": 1}).Kind)
	assert.Equal(t, InputStructured, ClassifyInput(Document{"a": 1}).Kind)
	assert.Equal(t, InputText, ClassifyInput(`{"a":1}`).Kind)
	assert.Equal(t, InputText, ClassifyInput([]byte(`x`)).Kind)
	assert.Equal(t, InputScalar, ClassifyInput(42).Kind)
	assert.Equal(t, InputScalar, ClassifyInput(nil).Kind)
}

func TestCoerceDocument(t *testing.T) {
	t.Run("mapping passes through", func(t *testing.T) {
		doc := CoerceDocument(map[string]any{"name": "alice"}, "payload")
		assert.Equal(t, Document{"name": "alice"}, doc)
	})

	t.Run("json text is parsed", func(t *testing.T) {
		doc := CoerceDocument(`{"name":"alice"}`, "payload")
		assert.Equal(t, Document{"name": "alice"}, doc)
	})

	t.Run("non json text is wrapped", func(t *testing.T) {
		doc := CoerceDocument("hello", "payload")
		assert.Equal(t, Document{"payload": "hello"}, doc)
	})

	t.Run("json non-object text is wrapped", func(t *testing.T) {
		doc := CoerceDocument(`[1,2,3]`, "payload")
		assert.Equal(t, Document{"payload": `[1,2,3]`}, doc)
	})

	t.Run("scalar is wrapped under fallback field", func(t *testing.T) {
		doc := CoerceDocument(42, "value")
		assert.Equal(t, Document{"value": 42}, doc)
	})
}

func TestSanitize(t *testing.T) {
	t.Run("clean document unchanged", func(t *testing.T) {
		in := Document{"name": "alice", "_id": "a", "_rev": "1-x"}
		out, renamed, err := Sanitize(in)
		require.NoError(t, err)
		assert.Empty(t, renamed)
		assert.Equal(t, in, out)
	})

	t.Run("reserved fields survive", func(t *testing.T) {
		in := Document{
			"_id": "a", "_rev": "1-x", "_attachments": map[string]any{},
			"_deleted": true, "_revisions": []any{}, "_revs_info": []any{},
			"_conflicts": []any{}, "_deleted_conflicts": []any{}, "_local_seq": 1,
		}
		out, renamed, err := Sanitize(in)
		require.NoError(t, err)
		assert.Empty(t, renamed)
		assert.Equal(t, in, out)
	})

	t.Run("non reserved prefix stripped", func(t *testing.T) {
		out, renamed, err := Sanitize(Document{"_secret": "x", "name": "alice"})
		require.NoError(t, err)
		assert.Equal(t, []string{"_secret"}, renamed)
		assert.Equal(t, Document{"secret": "x", "name": "alice"}, out)
	})

	t.Run("rename collision fails", func(t *testing.T) {
		_, _, err := Sanitize(Document{"_secret": "x", "secret": "y"})
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrConflictingFieldName)
	})

	t.Run("two renames colliding fail", func(t *testing.T) {
		_, _, err := Sanitize(Document{"_a": 1, "__a": 2})
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrConflictingFieldName)
	})

	t.Run("underscore only field fails", func(t *testing.T) {
		_, _, err := Sanitize(Document{"_": 1})
		assert.Error(t, err)
	})
}

func TestDocument_IDRevision(t *testing.T) {
	doc := Document{"_id": "a", "_rev": "1-x"}

	id, ok := doc.ID()
	assert.True(t, ok)
	assert.Equal(t, "a", id)

	rev, ok := doc.Revision()
	assert.True(t, ok)
	assert.Equal(t, "1-x", rev)

	_, ok = Document{"_id": 7}.ID()
	assert.False(t, ok)
	_, ok = Document{}.Revision()
	assert.False(t, ok)
}
