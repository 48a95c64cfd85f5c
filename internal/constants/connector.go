package constants

// Error codes attached to structured query errors in API responses.
const (
	ErrorCodeParse       = "PARSE_ERROR"
	ErrorCodeIdentifier  = "IDENTIFIER_ERROR"
	ErrorCodeDatabase    = "DATABASE_ERROR"
	ErrorCodeUnsupported = "UNSUPPORTED_OPERATION"
	ErrorCodeConnection  = "CONNECTION_ERROR"
	ErrorCodeNotFound    = "COLLECTION_NOT_FOUND"
)

// CollectionCacheKeyPrefix namespaces the cached collection-name lists in
// Redis, keyed by a hash of the target deployment.
const CollectionCacheKeyPrefix = "mongobridge:collections:"
