package scoring

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// PostSource 提供某个账号最近的帖子。
type PostSource interface {
	Posts(ctx context.Context, username string) ([]string, error)
}

// postsFile 是帖子夹具文件的结构：
//
//	users:
//	  alice:
//	    - "first post"
type postsFile struct {
	Users map[string][]string `yaml:"users"`
}

// FixturePosts 是从 YAML 文件加载的内存帖子源。
type FixturePosts struct {
	mu    sync.RWMutex
	posts map[string][]string
}

// NewFixturePosts 使用给定数据创建帖子源，账号名不区分大小写。
func NewFixturePosts(users map[string][]string) *FixturePosts {
	posts := make(map[string][]string, len(users))
	for name, list := range users {
		posts[normalizeUsername(name)] = append([]string(nil), list...)
	}
	return &FixturePosts{posts: posts}
}

// LoadFixturePosts 读取 YAML 帖子夹具。
func LoadFixturePosts(path string) (*FixturePosts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read posts file: %w", err)
	}
	return ParseFixturePosts(data)
}

// ParseFixturePosts 解析 YAML 帖子夹具内容。
func ParseFixturePosts(data []byte) (*FixturePosts, error) {
	var file postsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse posts file: %w", err)
	}
	return NewFixturePosts(file.Users), nil
}

// Posts 返回账号的帖子副本，未知账号返回空列表。
func (f *FixturePosts) Posts(_ context.Context, username string) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.posts[normalizeUsername(username)]...), nil
}

func normalizeUsername(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "@"))
}
