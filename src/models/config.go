package models

// MConfig Structure
type MConfig struct {
	Name          string          `yaml:"name"`
	Host          string          `yaml:"host"`
	Port          int             `yaml:"port"`
	LogLevel      string          `yaml:"log_level"`
	GrpcHost      string          `yaml:"grpc_host"`
	GrpcPort      int             `yaml:"grpc_port"`
	Timezone      string          `yaml:"timezone"`
	Regions       []string        `yaml:"regions"`
	DefaultRegion string          `yaml:"default_region"`
	Cache         MCacheConfig    `yaml:"cache"`
	Upstream      MUpstreamConfig `yaml:"upstream"`
	Pipeline      MPipelineConfig `yaml:"pipeline"`
	Prewarm       MPrewarmConfig  `yaml:"prewarm"`
}

type MCacheConfig struct {
	Backend            string `yaml:"backend"` // file, sqlite or postgres
	Dir                string `yaml:"dir"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	MaxAgeSeconds      int    `yaml:"max_age_seconds"`
	Validation         string `yaml:"validation"`      // strict or loose
	MemoryLimitMB      int    `yaml:"memory_limit_mb"` // 0 sizes from host RAM
}

type MUpstreamConfig struct {
	URL            string   `yaml:"url"`
	RequestTimeout int      `yaml:"timeout"`
	AcceptLanguage string   `yaml:"accept_language"`
	Proxies        []string `yaml:"proxies"`
}

type MPipelineConfig struct {
	Endpoint string `yaml:"endpoint"` // proxy endpoint used by the CLI
	Retries  int    `yaml:"retries"`
}

type MPrewarmConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Schedule  string `yaml:"schedule"`
	DaysAhead int    `yaml:"days_ahead"`
}

// GetLogLevel lets the logger read its level without importing config.
func (c *MConfig) GetLogLevel() string {
	if c == nil {
		return ""
	}
	return c.LogLevel
}
