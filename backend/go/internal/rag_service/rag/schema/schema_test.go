package schema

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToCollectionName(t *testing.T) {
	tests := []struct {
		projectID string
		suffix    string
		want      string
	}{
		{"proj1", "Answers", "Answers_proj1"},
		{"my-project.v2", "Answers", "Answers_my_project_v2"},
		{"a b/c", "Docs", "Docs_a_b_c"},
		{"ünï", "Answers", "Answers__n_"},
		{"", "Answers", "Answers_"},
	}

	for _, tt := range tests {
		t.Run(tt.projectID, func(t *testing.T) {
			assert.Equal(t, tt.want, ToCollectionName(tt.projectID, tt.suffix))
		})
	}
}

func TestToCollectionNameIsDeterministicAndSafe(t *testing.T) {
	safe := regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	inputs := []string{"p-1", "Ω∑", "x:y:z", "123", "with space", "tab\tsep"}

	for _, in := range inputs {
		first := ToCollectionName(in, "Answers")
		second := ToCollectionName(in, "Answers")
		assert.Equal(t, first, second)
		assert.Regexp(t, safe, first)
	}
}

func TestChunkPropertiesSchema(t *testing.T) {
	s := NewChunkSchema("Answers_p", VectorizerConfig{Provider: "hashing", Dimension: 8})

	assert.Equal(t, "Answers_p", s.Name)
	assert.Len(t, s.Properties, 9)

	types := map[string]DataType{}
	for _, p := range s.Properties {
		types[p.Name] = p.DataType
	}
	assert.Equal(t, DataTypeInt, types[PropChunkIndex])
	assert.Equal(t, DataTypeInt, types[PropTotalChunks])
	assert.Equal(t, DataTypeText, types[PropDocumentID])
	assert.Equal(t, DataTypeText, types[PropContent])
}
