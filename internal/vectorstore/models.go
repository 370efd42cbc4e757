package vectorstore

// Document represents a document to be embedded and cached.
type Document struct {
	// ID is the unique identifier, normally the owning case id.
	ID string

	// Content is the text to embed.
	Content string

	// Metadata contains additional key-value pairs stored alongside
	// the vector.
	Metadata map[string]string
}

// SearchResult is one similarity hit.
type SearchResult struct {
	// ID is the document identifier.
	ID string

	// Content is the document text content.
	Content string

	// Score is the cosine similarity to the query (higher = more
	// similar).
	Score float32

	// Metadata contains the document metadata.
	Metadata map[string]string
}
