package store

import (
    "context"
    "encoding/json"
    "fmt"

    redis "github.com/redis/go-redis/v9"

    "github.com/local/examforge/internal/exam"
)

// ItemStore keeps per-page extraction results while a job is in flight.
// Pages finish out of order; aggregation re-reads them in page order so the
// assembled paper preserves source question order.
type ItemStore struct {
    client *redis.Client
}

func NewItemStore(redisURL string) (*ItemStore, error) {
    opt, err := redis.ParseURL(redisURL)
    if err != nil {
        return nil, err
    }
    c := redis.NewClient(opt)
    if err := c.Ping(context.Background()).Err(); err != nil {
        return nil, err
    }
    return &ItemStore{client: c}, nil
}

func (s *ItemStore) Close() error { return s.client.Close() }

func (s *ItemStore) pageKey(jobID string, page int) string {
    return fmt.Sprintf("job:%s:page:%d", jobID, page)
}

// SavePageItems stores the questions extracted from one page, with the
// provider/model that produced them.
func (s *ItemStore) SavePageItems(ctx context.Context, jobID string, page int, items []exam.QuestionItem, provider, model string) error {
    b, err := json.Marshal(items)
    if err != nil {
        return fmt.Errorf("marshal page items: %w", err)
    }
    m := map[string]interface{}{"items": string(b)}
    if provider != "" {
        m["provider"] = provider
    }
    if model != "" {
        m["model"] = model
    }
    return s.client.HSet(ctx, s.pageKey(jobID, page), m).Err()
}

// GetPageItems returns the questions stored for a page, or nil if none yet.
func (s *ItemStore) GetPageItems(ctx context.Context, jobID string, page int) ([]exam.QuestionItem, error) {
    res, err := s.client.HGet(ctx, s.pageKey(jobID, page), "items").Result()
    if err == redis.Nil {
        return nil, nil
    }
    if err != nil {
        return nil, err
    }
    var items []exam.QuestionItem
    if err := json.Unmarshal([]byte(res), &items); err != nil {
        return nil, fmt.Errorf("unmarshal page items: %w", err)
    }
    return items, nil
}

// AggregateItems concatenates stored questions across pages in page order.
func (s *ItemStore) AggregateItems(ctx context.Context, jobID string, total int) ([]exam.QuestionItem, error) {
    var out []exam.QuestionItem
    for i := 1; i <= total; i++ {
        items, err := s.GetPageItems(ctx, jobID, i)
        if err != nil {
            return out, err
        }
        out = append(out, items...)
    }
    return out, nil
}

// DeleteJobPages removes all per-page keys for a finished job.
func (s *ItemStore) DeleteJobPages(ctx context.Context, jobID string, total int) error {
    keys := make([]string, 0, total)
    for i := 1; i <= total; i++ {
        keys = append(keys, s.pageKey(jobID, i))
    }
    if len(keys) == 0 {
        return nil
    }
    return s.client.Del(ctx, keys...).Err()
}
