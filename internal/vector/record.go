package vector

import "fmt"

// Metadata keys every indexed record carries.
const (
	MetaDocumentID = "document_id"
	MetaChunkID    = "chunk_id"
	MetaStart      = "start"
	MetaEnd        = "end"
	MetaFilename   = "filename"
)

// Hit is a single retrieval result, ranked by similarity.
type Hit struct {
	ID       string                 `json:"id"`
	Document string                 `json:"document"`
	Metadata map[string]interface{} `json:"metadata"`
	Distance float32                `json:"distance"`
}

// CompositeID is the globally unique record id of a chunk.
func CompositeID(documentID, chunkID string) string {
	return documentID + "__" + chunkID
}

// CheckBatch panics when the parallel upsert slices disagree in length. A
// mismatch is a programming error, never an input error.
func CheckBatch(chunkIDs, texts []string, embeddings [][]float32, metadatas []map[string]interface{}) {
	n := len(chunkIDs)
	if len(texts) != n || len(embeddings) != n || len(metadatas) != n {
		panic(fmt.Sprintf("vector: upsert batch length mismatch: ids=%d texts=%d embeddings=%d metadatas=%d",
			n, len(texts), len(embeddings), len(metadatas)))
	}
}

// TagMetadata forces document_id and chunk_id into every metadata entry,
// allocating entries the caller left nil.
func TagMetadata(documentID string, chunkIDs []string, metadatas []map[string]interface{}) {
	for i, cid := range chunkIDs {
		if metadatas[i] == nil {
			metadatas[i] = make(map[string]interface{})
		}
		metadatas[i][MetaDocumentID] = documentID
		metadatas[i][MetaChunkID] = cid
	}
}
