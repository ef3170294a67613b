package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picogrid/mu-attack/pkg/config"
)

func TestEverySchemaParamIsAFlag(t *testing.T) {
	for _, sec := range schema.Sections() {
		for _, p := range sec.ParamList() {
			key := config.Key(sec.Name, p.Name)
			assert.NotNil(t, attackCmd.Flags().Lookup(key), key)
		}
	}
}

func TestDescribeSchema(t *testing.T) {
	docs := describe(schema)
	require.NotEmpty(t, docs)
	assert.Equal(t, "overall", docs[0].Name)
	assert.Equal(t, "task", docs[0].Params[0].Name)
	assert.True(t, docs[0].Params[0].Required)

	for _, d := range docs {
		if d.Name == "attacker.gcg" {
			assert.True(t, d.Conditional)
			assert.Equal(t, 256, d.Params[0].Default)
		}
	}
}
