// Package config 提供 YAML 配置加载与依赖装配（存储后端、过滤规则）。
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 是进程配置（YAML）。
type Config struct {
	Data struct {
		AnimeCSV  string `yaml:"anime_csv"`
		RatingCSV string `yaml:"rating_csv"`
	} `yaml:"data"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Recommend struct {
		PageSize        int    `yaml:"page_size"`
		PopularPageSize int    `yaml:"popular_page_size"`
		CandidatePool   int    `yaml:"candidate_pool"`
		HotKey          string `yaml:"hot_key"` // Store 中热门榜单的 zset key，可为空
	} `yaml:"recommend"`

	Enrich struct {
		BaseURL  string `yaml:"base_url"`
		ClientID string `yaml:"client_id"`
		Timeout  int    `yaml:"timeout"` // 秒
	} `yaml:"enrich"`

	Store struct {
		Backend   string `yaml:"backend"` // memory / redis
		RedisAddr string `yaml:"redis_addr"`
		RedisDB   int    `yaml:"redis_db"`
	} `yaml:"store"`

	// Filters 是配置驱动的过滤 Node 列表，由 BuildFilters 装配
	Filters []FilterConfig `yaml:"filters"`
}

// FilterConfig 是单个过滤器的配置。
type FilterConfig struct {
	Type   string         `yaml:"type"`   // rule / media_type / score
	Config map[string]any `yaml:"config"` // 过滤器特定配置
}

// LoadFromYAML 从 YAML 文件加载配置。
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &cfg, nil
}

// EnrichTimeout 返回单条补全超时；未配置时为 0（由引擎取默认值）。
func (c *Config) EnrichTimeout() time.Duration {
	if c.Enrich.Timeout <= 0 {
		return 0
	}
	return time.Duration(c.Enrich.Timeout) * time.Second
}
