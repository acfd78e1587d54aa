package conf

import "time"

// AppName is used for the cache directory, config directory and env prefix
const AppName = "fcompdata"

const (
	// EnvPrefix prefixes every environment override, e.g. FCOMPDATA_CACHE_DIR
	EnvPrefix = "FCOMPDATA"

	// CacheDirName is the hidden per-user directory holding downloaded corpora
	CacheDirName = "." + AppName

	// ConfigFileName is the configuration file looked up in the config paths
	ConfigFileName = "config.yaml"
)

// M4 defaults
const (
	DefaultM4BaseURL = "https://raw.githubusercontent.com/Mcompetitions/M4-methods/master/Dataset"
	DefaultM4Timeout = 5 * time.Minute
	DefaultM4Retries = 3
	DefaultM4MemoTTL = 30 * time.Minute
)
