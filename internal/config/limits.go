package config

const (
	// MaxDocumentTitleLength is the maximum length for document titles.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxDocumentTitleLength = 255

	// MaxDocumentContentBytes caps a single save. Every snapshot stores the
	// full text, so this also bounds the size of one version row.
	MaxDocumentContentBytes = 5 << 20

	// MaxImportFileBytes caps an uploaded file. HTML shrinks once converted,
	// so this is larger than MaxDocumentContentBytes.
	MaxImportFileBytes = 10 << 20

	// DefaultHistoryLimit is the page size used when the caller gives none.
	DefaultHistoryLimit = 20

	// MaxHistoryLimit is the largest page GetHistory will return.
	MaxHistoryLimit = 100

	// MaxCollaborators bounds the collaborator set of one document.
	MaxCollaborators = 50
)
