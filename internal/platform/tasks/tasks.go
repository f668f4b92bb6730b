package tasks

import (
	"placelink/internal/platform/redis"

	"github.com/hibiken/asynq"
)

const (
	TaskTypeEnrich = "enrich:place"
)

type Client struct{ c *asynq.Client }

func New(r *redis.Service) *Client { return &Client{c: asynq.NewClient(r.AsynqRedisOpt())} }

func (t *Client) Enqueue(task *asynq.Task, opts ...asynq.Option) error {
	_, err := t.c.Enqueue(task, opts...)
	return err
}

func (t *Client) Close() error { return t.c.Close() }
