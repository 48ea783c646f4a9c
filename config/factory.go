package config

import (
	"fmt"

	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/filter"
	"github.com/rushteam/animerec/pkg/conv"
	"github.com/rushteam/animerec/store"
)

// BuildFilters 根据配置装配过滤器列表。
func (c *Config) BuildFilters() ([]filter.Filter, error) {
	filters := make([]filter.Filter, 0, len(c.Filters))
	for _, fc := range c.Filters {
		switch fc.Type {
		case "rule":
			expr := conv.ConfigGet[string](fc.Config, "expr", "")
			if expr == "" {
				return nil, fmt.Errorf("rule filter: expr not found")
			}
			f, err := filter.NewRuleFilter(expr)
			if err != nil {
				return nil, fmt.Errorf("rule filter %q: %w", expr, err)
			}
			filters = append(filters, f)

		case "media_type":
			filters = append(filters, &filter.MediaTypeFilter{})

		case "score":
			min, ok := conv.ToFloat64(fc.Config["min"])
			if !ok {
				return nil, fmt.Errorf("score filter: min not found")
			}
			filters = append(filters, &filter.ScoreFilter{Min: min})

		default:
			return nil, fmt.Errorf("unknown filter type: %s", fc.Type)
		}
	}
	return filters, nil
}

// BuildStore 根据配置装配存储后端；未配置时默认内存实现。
func (c *Config) BuildStore() (core.Store, error) {
	switch c.Store.Backend {
	case "", "memory":
		return store.NewMemoryStore(), nil
	case "redis":
		if c.Store.RedisAddr == "" {
			return nil, fmt.Errorf("store: redis_addr not found")
		}
		return store.NewRedisStore(c.Store.RedisAddr, c.Store.RedisDB)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", c.Store.Backend)
	}
}
