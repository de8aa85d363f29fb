package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// 环境变量前缀
const envPrefix = "DESIGNLOOKUP_"

// AppConfig 应用配置
type AppConfig struct {
	Server  ServerConfig  `toml:"server"`
	Data    DataConfig    `toml:"data"`
	Lookup  LookupConfig  `toml:"lookup"`
	Session SessionConfig `toml:"session"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port        int     `toml:"port"`
	DevMode     bool    `toml:"dev_mode"`
	OpenBrowser bool    `toml:"open_browser"`
	MaxUploadMB int64   `toml:"max_upload_mb"`
	RateLimit   float64 `toml:"rate_limit"` // 每个客户端每秒请求数，<= 0 关闭限流
	RateBurst   int     `toml:"rate_burst"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// LookupConfig 查询配置
type LookupConfig struct {
	SuggestionLimit int    `toml:"suggestion_limit"`
	MissingKey      string `toml:"missing_key"` // exclude | nan
}

// SessionConfig 会话配置
type SessionConfig struct {
	Secret   string `toml:"secret"`
	TTLHours int    `toml:"ttl_hours"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:        20262,
			DevMode:     false,
			OpenBrowser: true,
			MaxUploadMB: 32,
			RateLimit:   5,
			RateBurst:   20,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Lookup: LookupConfig{
			SuggestionLimit: 5,
			MissingKey:      "exclude",
		},
		Session: SessionConfig{
			Secret:   "",
			TTLHours: 12,
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultConfigPath 默认配置文件路径：可执行文件同目录下的 config.toml
// 可用环境变量 DESIGNLOOKUP_CONFIG 覆盖
func DefaultConfigPath() string {
	if v := os.Getenv(envPrefix + "CONFIG"); v != "" {
		return v
	}
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return filepath.Join(exeDir, "config.toml")
}

// LoadConfigWithInfo 从 config.toml 加载配置并返回元信息
// configPath 为空时使用 DefaultConfigPath
func LoadConfigWithInfo(configPath string) (*AppConfig, LoadConfigInfo, error) {
	if configPath == "" {
		configPath = DefaultConfigPath()
	}
	info := LoadConfigInfo{Path: configPath}
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, info, err
		}
		// 配置文件不存在，使用默认配置
	} else {
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, err
		}
	}

	if applyEnvOverrides(config) {
		info.PortSpecified = true
	}

	return config, info, nil
}

// LoadConfig 从 config.toml 加载配置
func LoadConfig(configPath string) (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo(configPath)
	return config, err
}

// applyEnvOverrides 环境变量覆盖，返回是否覆盖了端口
func applyEnvOverrides(config *AppConfig) (portSet bool) {
	if v, ok := envInt("PORT"); ok {
		config.Server.Port = v
		portSet = true
	}
	if v := os.Getenv(envPrefix + "DATA_DIR"); v != "" {
		config.Data.DataDir = v
	}
	if v := os.Getenv(envPrefix + "SESSION_SECRET"); v != "" {
		config.Session.Secret = v
	}
	if v := os.Getenv(envPrefix + "MISSING_KEY"); v != "" {
		config.Lookup.MissingKey = strings.ToLower(v)
	}
	if v, ok := envInt("SUGGESTION_LIMIT"); ok {
		config.Lookup.SuggestionLimit = v
	}
	return portSet
}

func envInt(name string) (int, bool) {
	v := os.Getenv(envPrefix + name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

// SaveConfig 保存配置到 config.toml
func SaveConfig(config *AppConfig, configPath string) error {
	if configPath == "" {
		configPath = DefaultConfigPath()
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// EnsureDataDir 确保数据目录存在
// 相对路径以可执行文件所在目录为基准
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		exeDir, err := GetExeDir()
		if err != nil {
			exeDir = "."
		}
		dataDir = filepath.Join(exeDir, dataDir)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	// 创建子目录
	subdirs := []string{"exports"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}
