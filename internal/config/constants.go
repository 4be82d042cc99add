package config

// Constants defining default values for application configuration
const (
	DefaultFeedsCSVPath = "./feeds.csv"
	DefaultDBPath       = "./paperwatch.db"

	DefaultServerPort = 8080
	DefaultServerHost = "" // Empty string means all interfaces

	DefaultWorkerCount     = 0  // 0 means use runtime.NumCPU()
	DefaultRunInterval     = 15 // Minutes between sync runs, 0 for one-shot
	DefaultStalenessWindow = 60 // Minutes before a feed becomes eligible again
	DefaultFetchTimeoutSec = 30 // Per-feed fetch timeout
	DefaultHTTPConcurrency = 8  // Cap on outstanding external HTTP calls

	DefaultClassifyThreshold = 0.3 // Minimum cosine similarity to accept a category
	DefaultPivotLanguage     = "en"

	DefaultTranslateTarget   = "en"
	DefaultTranslateCacheTTL = 60 // Minutes
	DefaultCacheSize         = 2048

	DefaultLogLevel = "debug"
)
