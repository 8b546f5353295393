package assessment

import "context"

// Assessor port (interface for the vision-capable assessment service).
// Assess returns the raw textual reply unmodified; stripping markdown and
// schema validation belong to Parse, never to the transport.
type Assessor interface {
	Assess(ctx context.Context, images [][]byte) (string, error)
}

// Repository port (interface for analysis persistence)
type Repository interface {
	// Insert stores the analysis with an empty image URL list and returns
	// the storage-assigned identifier.
	Insert(ctx context.Context, a *Analysis) (AnalysisID, error)
	// UpdateImageURLs binds the final resolved URLs to an existing record.
	UpdateImageURLs(ctx context.Context, id AnalysisID, urls []string) error
	Get(ctx context.Context, id AnalysisID) (*Analysis, error)
	Latest(ctx context.Context, limit int) ([]*Analysis, error)
	Paginate(ctx context.Context, page, pageSize int) (PaginatedResult, error)
}

// ArtifactStore port (interface for durable image storage)
type ArtifactStore interface {
	// Put writes the bytes under key and returns the absolute URL.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
