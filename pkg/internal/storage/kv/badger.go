//go:build !no_badger

package kv

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/yeisme/certvault/pkg/configs"
	nlog "github.com/yeisme/certvault/pkg/log"
)

// BadgerKV 基于嵌入式 Badger 的 KV 实现，单实例部署时可替代 Redis 且重启后保留缓存.
type BadgerKV struct {
	db   *badger.DB
	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewBadgerKV 打开 Badger，Dir 为空时使用内存模式.
func NewBadgerKV(_ context.Context, config any) (KVStore, error) {
	cfg, ok := config.(*configs.BadgerKVConfig)
	if !ok {
		return nil, fmt.Errorf("invalid Badger config: %T", config)
	}

	opts := badger.DefaultOptions(cfg.Dir).
		WithLogger(badgerLogger{l: nlog.Logger()}).
		WithLoggingLevel(badger.WARNING)
	if cfg.Dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger %q: %w", cfg.Dir, err)
	}

	b := &BadgerKV{db: db, stop: make(chan struct{})}

	if cfg.Dir != "" && cfg.GCInterval > 0 {
		b.wg.Add(1)

		go b.gcLoop(cfg.GCInterval)
	}

	return b, nil
}

func (b *BadgerKV) gcLoop(interval time.Duration) {
	defer b.wg.Done()

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-t.C:
			// 一次成功后继续，直到没有可回收的文件
			for b.db.RunValueLogGC(0.5) == nil {
			}
		}
	}
}

func (b *BadgerKV) Get(_ context.Context, key string) ([]byte, error) {
	var val []byte

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}

		val, err = item.ValueCopy(nil)

		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("badger get %s: %w", key, err)
	}

	return val, nil
}

// Set ttl<=0 表示永不过期.
func (b *BadgerKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}

		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("badger set %s: %w", key, err)
	}

	return nil
}

func (b *BadgerKV) Delete(_ context.Context, key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("badger delete %s: %w", key, err)
	}

	return nil
}

func (b *BadgerKV) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}

	return err == nil, err
}

// Keys 遍历全部键，按 path.Match 过滤.
func (b *BadgerKV) Keys(_ context.Context, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}

	var keys []string

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			k := string(it.Item().Key())

			ok, err := path.Match(pattern, k)
			if err != nil {
				return err
			}

			if ok {
				keys = append(keys, k)
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger keys %s: %w", pattern, err)
	}

	return keys, nil
}

func (b *BadgerKV) Close() error {
	var err error

	b.once.Do(func() {
		close(b.stop)
		b.wg.Wait()
		err = b.db.Close()
	})

	return err
}

// badgerLogger 把 Badger 的日志转到 zerolog.
type badgerLogger struct {
	l *zerolog.Logger
}

func (b badgerLogger) Errorf(f string, v ...any)   { b.l.Error().Str("component", "badger").Msgf(f, v...) }
func (b badgerLogger) Warningf(f string, v ...any) { b.l.Warn().Str("component", "badger").Msgf(f, v...) }
func (b badgerLogger) Infof(f string, v ...any)    { b.l.Info().Str("component", "badger").Msgf(f, v...) }
func (b badgerLogger) Debugf(f string, v ...any)   { b.l.Debug().Str("component", "badger").Msgf(f, v...) }

func init() {
	RegisterKVFactory(KVTypeBadger, NewBadgerKV)
}
