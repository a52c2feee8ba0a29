package schema

import (
	"regexp"
)

// DataType is the storage type of a collection property.
type DataType string

const (
	DataTypeText DataType = "text"
	DataTypeInt  DataType = "int"
)

// Property names of a chunk collection.
const (
	PropChunkID     = "chunkId"
	PropContent     = "content"
	PropAnswerID    = "answerId"
	PropQuestionID  = "questionId"
	PropChunkIndex  = "chunkIndex"
	PropTotalChunks = "totalChunks"
	PropCreatedAt   = "createdAt"
	PropCategory    = "category"
	PropDocumentID  = "documentId"
)

// Property is a single named, typed field of a collection.
type Property struct {
	Name     string
	DataType DataType
}

// VectorizerConfig describes which embedding model fills the collection's
// vectors. It is supplied by the environment, never fixed by the core.
type VectorizerConfig struct {
	Provider  string
	Model     string
	Dimension int
}

// CollectionSchema is the backend-independent description of a collection.
type CollectionSchema struct {
	Name        string
	Description string
	Properties  []Property
	Vectorizer  VectorizerConfig
}

// ChunkProperties is the fixed property list every chunk collection carries.
func ChunkProperties() []Property {
	return []Property{
		{Name: PropChunkID, DataType: DataTypeText},
		{Name: PropContent, DataType: DataTypeText},
		{Name: PropAnswerID, DataType: DataTypeText},
		{Name: PropQuestionID, DataType: DataTypeText},
		{Name: PropChunkIndex, DataType: DataTypeInt},
		{Name: PropTotalChunks, DataType: DataTypeInt},
		{Name: PropCreatedAt, DataType: DataTypeText},
		{Name: PropCategory, DataType: DataTypeText},
		{Name: PropDocumentID, DataType: DataTypeText},
	}
}

// NewChunkSchema builds the schema for a project's chunk collection.
func NewChunkSchema(name string, vectorizer VectorizerConfig) CollectionSchema {
	return CollectionSchema{
		Name:        name,
		Description: "document chunks for semantic search",
		Properties:  ChunkProperties(),
		Vectorizer:  vectorizer,
	}
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// ToCollectionName maps a project id to its collection identifier as
// suffix_projectId with every character outside [A-Za-z0-9_] replaced by '_'.
// Putting the suffix first keeps the name starting with a letter.
func ToCollectionName(projectID, suffix string) string {
	return unsafeChars.ReplaceAllString(suffix+"_"+projectID, "_")
}
