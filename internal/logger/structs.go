package logger

// Console implements a console based logger.
type Console struct {
	Enabled          bool `mapstructure:"enabled"`
	UseConsoleWriter bool `mapstructure:"useconsolewriter"`
}

// RollingFile describes one lumberjack target.
type RollingFile struct {
	Name       string `mapstructure:"name"`
	MaxSize    int    `mapstructure:"maxsize"` // megabytes
	MaxBackups int    `mapstructure:"maxbackups"`
	MaxAge     int    `mapstructure:"maxage"` // days
}

// LogFile implements a file based logger.
type LogFile struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`

	Access RollingFile `mapstructure:"access"`
	Error  RollingFile `mapstructure:"error"`
	Info   RollingFile `mapstructure:"info"`
	Trace  RollingFile `mapstructure:"trace"`
	Warn   RollingFile `mapstructure:"warn"`
}

// Log implements the logger config.
type Log struct {
	LogLevel string `mapstructure:"loglevel"` // trace, debug, info, warn, error.

	// EnableAccessLogToConsole writes the access log to stdout.
	// Does not overrule Console.Enabled.
	EnableAccessLogToConsole bool `mapstructure:"enableaccesslogtoconsole"`
	ReportCaller             bool `mapstructure:"reportcaller"`
	DisableCheckAlive        bool `mapstructure:"disablecheckalive"` // do not log /checkalive and /metrics calls

	AppName     string `mapstructure:"appname"`
	ServiceName string `mapstructure:"servicename"`

	Console Console `mapstructure:"console"`
	File    LogFile `mapstructure:"file"`
}
