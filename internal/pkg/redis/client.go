// internal/pkg/redis/client.go
package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client 封装 go-redis，并维护一个按名字索引的 Lua 脚本注册表。
// 业务适配器在初始化时加载脚本，运行期只通过名字调用，
// 保证脚本内容与调用点不会漂移。
type Client struct {
	rdb redis.UniversalClient

	mu      sync.RWMutex
	scripts map[string]*redis.Script
}

// NewClient 根据逗号分隔的地址列表创建客户端。
// 单个地址时使用普通客户端，多个地址按集群处理。
func NewClient(addrs string) (*Client, error) {
	list := strings.Split(addrs, ",")

	var rdb redis.UniversalClient
	if len(list) == 1 {
		rdb = redis.NewClient(&redis.Options{Addr: list[0]})
	} else {
		rdb = redis.NewClusterClient(&redis.ClusterOptions{Addrs: list})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb, scripts: make(map[string]*redis.Script)}, nil
}

// LoadScriptFromContent 注册一段 Lua 脚本。重复注册同名脚本会被覆盖。
func (c *Client) LoadScriptFromContent(name, content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("script %q is empty", name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scripts[name] = redis.NewScript(content)
	return nil
}

// RunScript 按名字执行已注册的脚本。
// redis.Script 内部先走 EVALSHA，未命中时自动回退 EVAL。
func (c *Client) RunScript(ctx context.Context, name string, keys []string, args ...interface{}) (interface{}, error) {
	c.mu.RLock()
	script, ok := c.scripts[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("script %q not loaded", name)
	}
	return script.Run(ctx, c.rdb, keys, args...).Result()
}

// GetClient 暴露底层客户端，给需要 pipeline 等原生能力的调用方。
func (c *Client) GetClient() redis.UniversalClient {
	return c.rdb
}

// Close 关闭底层连接。
func (c *Client) Close() error {
	return c.rdb.Close()
}
