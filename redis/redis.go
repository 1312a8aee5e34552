package redis

import (
	"context"
	"encoding/json"

	"github.com/cloudflare/cfssl/log"
	"github.com/go-redis/redis/v8"
	"github.com/hotoken/meta"
)

// 将已提交的合约日志写入 redis 列表，供前端和其他服务读取
type Publisher struct {
	rdb     *redis.Client
	listKey string
}

func NewPublisher(addr, password string, db int, listKey string) *Publisher {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Publisher{rdb: rdb, listKey: listKey}
}

func (p *Publisher) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

// list push
func (p *Publisher) Push(ctx context.Context, l meta.Log) error {
	value, err := json.Marshal(l)
	if err != nil {
		return err
	}
	if err := p.rdb.RPush(ctx, p.listKey, value).Err(); err != nil {
		log.Errorf("event push to list error: %s", err)
		return err
	}
	return nil
}

// 最近的 n 条日志（按写入顺序）
func (p *Publisher) Recent(ctx context.Context, n int64) ([]json.RawMessage, error) {
	if n <= 0 {
		return []json.RawMessage{}, nil
	}
	vals, err := p.rdb.LRange(ctx, p.listKey, -n, -1).Result()
	if err == redis.Nil {
		return []json.RawMessage{}, nil
	}
	if err != nil {
		return nil, err
	}
	res := make([]json.RawMessage, 0, len(vals))
	for _, v := range vals {
		res = append(res, json.RawMessage(v))
	}
	return res, nil
}

func (p *Publisher) Clear(ctx context.Context) error {
	return p.rdb.Del(ctx, p.listKey).Err()
}

func (p *Publisher) Close() error {
	return p.rdb.Close()
}
