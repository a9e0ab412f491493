package main

import (
	"testing"

	"github.com/hibiken/asynq"
)

func TestAsynqRedisOpt(t *testing.T) {
	opt, err := asynqRedisOpt("redis://:secret@cache:6380/2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	client, ok := opt.(asynq.RedisClientOpt)
	if !ok {
		t.Fatalf("expected RedisClientOpt, got %T", opt)
	}
	if client.Addr != "cache:6380" || client.DB != 2 || client.Password != "secret" {
		t.Fatalf("unexpected options: %+v", client)
	}
}

func TestAsynqRedisOptRejectsUnknownScheme(t *testing.T) {
	if _, err := asynqRedisOpt("http://cache:6379"); err == nil {
		t.Fatalf("expected error for non-redis scheme")
	}
}
