package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/redis/go-redis/v9"
	clientv3 "go.etcd.io/etcd/client/v3"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"

	"github.com/zero-day-ai/plugkit/bag"
)

// ErrNotFound indicates the settings source holds nothing under the key.
var ErrNotFound = errors.New("settings not found")

// Parse decodes a YAML (or JSON) settings document.
func Parse(data []byte) (*Settings, error) {
	b := bag.New()
	if len(data) == 0 {
		return Empty(), nil
	}
	if err := yaml.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	return &Settings{values: Normalize(b)}, nil
}

// LoadFile reads settings from a YAML or JSON file.
func LoadFile(path string) (*Settings, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("settings file not found: %s: %w", absPath, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read settings file %s: %w", absPath, err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	return s, nil
}

// FromStruct builds settings from a protobuf Struct, as carried in RPC
// payloads. Struct field order is not preserved by protobuf, so keys are
// sorted.
func FromStruct(st *structpb.Struct) *Settings {
	if st == nil {
		return Empty()
	}
	return FromMap(st.AsMap())
}

// ToStruct converts settings to a protobuf Struct.
func (s *Settings) ToStruct() (*structpb.Struct, error) {
	st, err := structpb.NewStruct(s.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to convert settings to struct: %w", err)
	}
	return st, nil
}

// LoadEtcd reads a YAML or JSON settings document stored under key.
//
// Example:
//
//	cli, _ := clientv3.New(clientv3.Config{Endpoints: []string{"localhost:2379"}})
//	s, err := settings.LoadEtcd(ctx, cli, "/site/settings")
func LoadEtcd(ctx context.Context, kv clientv3.KV, key string) (*Settings, error) {
	resp, err := kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings from etcd key %s: %w", key, err)
	}
	if len(resp.Kvs) == 0 {
		return nil, fmt.Errorf("etcd key %s: %w", key, ErrNotFound)
	}

	s, err := Parse(resp.Kvs[0].Value)
	if err != nil {
		return nil, fmt.Errorf("etcd key %s: %w", key, err)
	}
	return s, nil
}

// LoadEtcdPrefix builds settings from every key under prefix. The part of
// each key after the prefix becomes a dotted path ("/" separators are
// turned into dots) and the raw value is normalized.
func LoadEtcdPrefix(ctx context.Context, kv clientv3.KV, prefix string) (*Settings, error) {
	resp, err := kv.Get(ctx, prefix, clientv3.WithPrefix(), clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend))
	if err != nil {
		return nil, fmt.Errorf("failed to list settings under etcd prefix %s: %w", prefix, err)
	}

	b := bag.New()
	for _, item := range resp.Kvs {
		path := keyPath(string(item.Key), prefix)
		if path == "" {
			continue
		}
		b.SetPath(path, string(item.Value))
	}
	return &Settings{values: Normalize(b)}, nil
}

// LoadRedis reads settings from the hash stored at key. Field names may be
// dotted paths; values are normalized, so "true" and "250" read as a
// boolean and a number. Values holding a JSON array, as written by
// SaveRedis, read as lists.
func LoadRedis(ctx context.Context, client redis.Cmdable, key string) (*Settings, error) {
	fields, err := client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read settings hash %s: %w", key, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("redis key %s: %w", key, ErrNotFound)
	}

	b := bag.New()
	for _, name := range sortedKeys(fields) {
		b.SetPath(name, decodeField(fields[name]))
	}
	return &Settings{values: Normalize(b)}, nil
}

// SaveRedis writes the settings as fields of the hash at key, the inverse of
// LoadRedis. Nested bags are flattened into dotted field names and lists are
// stored as JSON arrays.
func (s *Settings) SaveRedis(ctx context.Context, client redis.Cmdable, key string) error {
	fields := make(map[string]any)
	if err := flatten("", s.Bag(), fields); err != nil {
		return fmt.Errorf("failed to encode settings for hash %s: %w", key, err)
	}
	if len(fields) == 0 {
		return nil
	}
	if err := client.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("failed to write settings hash %s: %w", key, err)
	}
	return nil
}

func flatten(prefix string, b *bag.Bag, out map[string]any) error {
	var err error
	b.Each(func(k string, v any) bool {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}
		switch t := v.(type) {
		case *bag.Bag:
			err = flatten(name, t, out)
		case []any:
			var data []byte
			data, err = json.Marshal(t)
			if err != nil {
				err = fmt.Errorf("%s: %w", name, err)
			}
			out[name] = string(data)
		case nil:
			out[name] = ""
		default:
			out[name] = fmt.Sprint(t)
		}
		return err == nil
	})
	return err
}

// decodeField turns a hash field holding a JSON array back into a list.
// Anything else is returned as stored.
func decodeField(v string) any {
	if !strings.HasPrefix(v, "[") {
		return v
	}
	var list []any
	if err := json.Unmarshal([]byte(v), &list); err != nil {
		return v
	}
	return bag.Convert(list)
}
