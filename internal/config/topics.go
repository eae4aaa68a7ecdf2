package config

const (
	// TopicDocumentIndex is the NSQ topic for (re-)indexing a stored document's chunks
	// into the vector index.
	TopicDocumentIndex = "document.index"

	// ChannelIndexWorker is the consumer channel of the index worker.
	ChannelIndexWorker = "index-worker"
)
