package config

const (
	defaultDataDir          = "~/.local/share/drn"
	defaultLogDir           = "~/.local/share/drn/logs"
	defaultBookmarksPath    = "~/.local/share/drn/bookmarks.json"
	defaultSocketPath       = "~/.local/share/drn/drnd.sock"
	defaultAPIBind          = "127.0.0.1:7930"
	defaultPageSize         = 6
	defaultRecentPostsLimit = 5
	defaultMaxUploadMiB     = 30
	defaultUndoGraceSeconds = 5
	defaultStorageKeyPrefix = "uploads"
	defaultStorageSignTTL   = 60
	defaultStorageTimeout   = 30
	defaultAuthTimeout      = 10
	defaultNtfyTimeout      = 10
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:       defaultDataDir,
			LogDir:        defaultLogDir,
			BookmarksPath: defaultBookmarksPath,
			SocketPath:    defaultSocketPath,
			APIBind:       defaultAPIBind,
		},
		Feed: Feed{
			PageSize:         defaultPageSize,
			RecentPostsLimit: defaultRecentPostsLimit,
		},
		Composer: Composer{
			MaxUploadMiB:     defaultMaxUploadMiB,
			UndoGraceSeconds: defaultUndoGraceSeconds,
		},
		Storage: Storage{
			KeyPrefix:   defaultStorageKeyPrefix,
			SignTTL:     defaultStorageSignTTL,
			TimeoutSecs: defaultStorageTimeout,
		},
		Auth: Auth{
			TimeoutSecs: defaultAuthTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
			Publish:        true,
			Delete:         true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
