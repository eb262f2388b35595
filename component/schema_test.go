package component

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchemaTag(t *testing.T) {
	directives, err := ParseSchemaTag("type:string,description:Database name,category:basic")
	require.NoError(t, err)
	assert.Equal(t, "string", directives.Type)
	assert.Equal(t, "Database name", directives.Description)
	assert.Equal(t, "basic", directives.Category)
}

func TestParseSchemaTag_Constraints(t *testing.T) {
	directives, err := ParseSchemaTag("type:int,description:Limit,min:1,max:200,default:200")
	require.NoError(t, err)
	assert.Equal(t, "int", directives.Type)
	require.NotNil(t, directives.Min)
	assert.Equal(t, 1, *directives.Min)
	require.NotNil(t, directives.Max)
	assert.Equal(t, 200, *directives.Max)
	assert.Equal(t, "200", directives.Default)
}

func TestParseSchemaTag_Enum(t *testing.T) {
	directives, err := ParseSchemaTag("type:enum,description:Operation,enum:insert|delete,default:insert")
	require.NoError(t, err)
	assert.Equal(t, []string{"insert", "delete"}, directives.Enum)
}

func TestParseSchemaTag_Flags(t *testing.T) {
	directives, err := ParseSchemaTag("required,type:string,description:API key")
	require.NoError(t, err)
	assert.True(t, directives.Required)

	directives, err = ParseSchemaTag("readonly,type:string")
	require.NoError(t, err)
	assert.True(t, directives.ReadOnly)
}

func TestParseSchemaTag_Errors(t *testing.T) {
	_, err := ParseSchemaTag("")
	assert.Error(t, err)

	// Missing type directive
	_, err = ParseSchemaTag("description:no type here")
	assert.Error(t, err)

	// Invalid type
	_, err = ParseSchemaTag("type:banana")
	assert.Error(t, err)

	// Unknown flag
	_, err = ParseSchemaTag("type:string,frobnicate")
	assert.Error(t, err)

	// Invalid category
	_, err = ParseSchemaTag("type:string,category:expert")
	assert.Error(t, err)
}

type schemaTestConfig struct {
	Database  string `json:"database"  schema:"required,type:string,description:Target database name,category:basic"`
	Operation string `json:"operation" schema:"type:enum,description:Write operation,enum:insert|delete,default:insert"`
	Limit     int    `json:"limit"     schema:"type:int,description:Result limit,min:1,max:200,default:200,category:advanced"`
	Internal  string `json:"-"`
	NoSchema  string `json:"no_schema"`
}

func TestGenerateConfigSchema(t *testing.T) {
	schema := GenerateConfigSchema(reflect.TypeOf(schemaTestConfig{}))

	require.Contains(t, schema.Properties, "database")
	require.Contains(t, schema.Properties, "operation")
	require.Contains(t, schema.Properties, "limit")
	assert.NotContains(t, schema.Properties, "-")
	assert.NotContains(t, schema.Properties, "no_schema")

	db := schema.Properties["database"]
	assert.Equal(t, "string", db.Type)
	assert.Equal(t, "basic", db.Category)

	op := schema.Properties["operation"]
	assert.Equal(t, []string{"insert", "delete"}, op.Enum)
	assert.Equal(t, "insert", op.Default)

	limit := schema.Properties["limit"]
	assert.Equal(t, 200, limit.Default)
	require.NotNil(t, limit.Minimum)
	assert.Equal(t, 1, *limit.Minimum)

	assert.Equal(t, []string{"database"}, schema.Required)
}

func TestGenerateConfigSchema_PointerAndNonStruct(t *testing.T) {
	schema := GenerateConfigSchema(reflect.TypeOf(&schemaTestConfig{}))
	assert.Contains(t, schema.Properties, "database")

	schema = GenerateConfigSchema(reflect.TypeOf("not a struct"))
	assert.Empty(t, schema.Properties)
}

func TestGeneratePortFieldSchema(t *testing.T) {
	fields := GeneratePortFieldSchema()

	require.Contains(t, fields, "subject")
	assert.True(t, fields["subject"].Editable)

	require.Contains(t, fields, "name")
	assert.False(t, fields["name"].Editable)
}
