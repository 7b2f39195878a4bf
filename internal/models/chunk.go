// Package models defines the core data structures shared by the builder, the retriever and the HTTP API.
package models

// Chunk is one retrievable passage of the knowledge base.
type Chunk struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Source string `json:"source"`
}

// RetrievalResult is a single ranked hit returned by the retriever.
type RetrievalResult struct {
	ID     string  `json:"id"`
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// RetrieveRequest is the body of POST /retrieve.
type RetrieveRequest struct {
	Query string `json:"query"`
	TopK  *int   `json:"top_k,omitempty"`
}

// RetrieveResponse is the body returned by POST /retrieve.
type RetrieveResponse struct {
	Chunks []RetrievalResult `json:"chunks"`
}

// IDs returns the chunk ids of results in rank order.
func IDs(results []RetrievalResult) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids
}
