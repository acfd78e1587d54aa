// conf/defaults.go default values for settings
package conf

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// setDefaultConfig sets default values for the configuration.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")

	cacheDir := DefaultCacheDir()
	v.SetDefault("cache.dir", cacheDir)
	v.SetDefault("data.dir", filepath.Join(cacheDir, "data"))

	v.SetDefault("m4.base_url", DefaultM4BaseURL)
	v.SetDefault("m4.timeout", DefaultM4Timeout)
	v.SetDefault("m4.retries", DefaultM4Retries)
	v.SetDefault("m4.memo_ttl", DefaultM4MemoTTL)
}

// DefaultCacheDir returns ~/.fcompdata, falling back to a relative directory
// when the home directory cannot be determined.
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return CacheDirName
	}
	return filepath.Join(home, CacheDirName)
}
