package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"babelfeed/internal/model"

	"github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	knownLinksKey  = "links:known"
	readLinksKey   = "links:read"
	keywordZSetKey = "keywords:counts"
	articlePrefix  = "article:"
)

// HybridStore keeps fast set membership (known links, read flags, keyword
// counts) in Redis and the full article documents in Badger, keyed by link.
type HybridStore struct {
	rdb    *redis.Client
	db     *badger.DB
	logger *zap.Logger
}

// NewHybridStore initializes both databases.
// Pass badgerPath="" for a Redis-only store; that mode serves the CLI
// commands that only flip read flags and never touch article bodies.
func NewHybridStore(redisAddr, badgerPath string, logger *zap.Logger) (*HybridStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	var db *badger.DB
	var err error

	if badgerPath != "" {
		opts := badger.DefaultOptions(badgerPath)
		opts.Logger = nil // Silence default logger
		db, err = badger.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger: %w", err)
		}
	}

	return &HybridStore{rdb: rdb, db: db, logger: logger}, nil
}

// Close cleans up connections
func (s *HybridStore) Close() {
	if s.rdb != nil {
		s.rdb.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
}

// KnownLinks returns the set of every stored link.
func (s *HybridStore) KnownLinks(ctx context.Context) (map[string]struct{}, error) {
	links, err := s.rdb.SMembers(ctx, knownLinksKey).Result()
	if err != nil {
		return nil, fmt.Errorf("loading known links: %w", err)
	}

	known := make(map[string]struct{}, len(links))
	for _, link := range links {
		known[link] = struct{}{}
	}
	return known, nil
}

// ReadStatus reports whether the link has been marked read. Unknown links
// are unread.
func (s *HybridStore) ReadStatus(ctx context.Context, link string) (bool, error) {
	read, err := s.rdb.SIsMember(ctx, readLinksKey, link).Result()
	if err != nil {
		return false, fmt.Errorf("checking read status: %w", err)
	}
	return read, nil
}

// InsertBatch stores every article whose link is not already present.
// A record that fails is logged and skipped; the rest of the batch still
// commits. Returns how many records were actually inserted.
func (s *HybridStore) InsertBatch(ctx context.Context, articles []model.Article) (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("cannot insert articles: badgerdb is not initialized")
	}

	inserted := 0
	for _, article := range articles {
		if article.Link == "" {
			s.logger.Warn("Skipping article with empty link", zap.String("title", article.Title))
			continue
		}

		exists, err := s.rdb.SIsMember(ctx, knownLinksKey, article.Link).Result()
		if err != nil {
			s.logger.Error("Membership check failed, skipping record",
				zap.String("link", article.Link), zap.Error(err))
			continue
		}
		if exists {
			// The pipeline filters against its snapshot, so landing here
			// means either a duplicate inside one fetch or a caller bug.
			s.logger.Warn("Duplicate link rejected", zap.String("link", article.Link))
			continue
		}

		if err := s.insertOne(ctx, article); err != nil {
			s.logger.Error("Failed to insert article",
				zap.String("link", article.Link), zap.Error(err))
			continue
		}
		inserted++
	}

	return inserted, nil
}

func (s *HybridStore) insertOne(ctx context.Context, article model.Article) error {
	data, err := json.Marshal(article)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(articlePrefix+article.Link), data)
	})
	if err != nil {
		return err
	}

	pipe := s.rdb.Pipeline()
	pipe.SAdd(ctx, knownLinksKey, article.Link)
	if article.Read {
		pipe.SAdd(ctx, readLinksKey, article.Link)
	}
	for _, kw := range article.Keywords {
		pipe.ZIncrBy(ctx, keywordZSetKey, 1, kw)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// DeleteOlderThan removes every article published strictly before cutoff
// (a YYYY-MM-DD string) and returns the count removed. Zero matches is
// not an error.
func (s *HybridStore) DeleteOlderThan(ctx context.Context, cutoff string) (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("cannot delete articles: badgerdb is not initialized")
	}

	var victims []model.Article
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(articlePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var a model.Article
				if err := json.Unmarshal(val, &a); err != nil {
					return err
				}
				// Published is ISO formatted, so string order is date order.
				if a.Published < cutoff {
					victims = append(victims, a)
				}
				return nil
			})
			if err != nil {
				s.logger.Error("Skipping undecodable article during sweep", zap.Error(err))
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scanning for expired articles: %w", err)
	}

	deleted := 0
	for _, a := range victims {
		if err := s.deleteOne(ctx, a); err != nil {
			s.logger.Error("Failed to delete expired article",
				zap.String("link", a.Link), zap.Error(err))
			continue
		}
		deleted++
	}

	if deleted > 0 {
		// Drop keywords whose counter reached zero.
		if err := s.rdb.ZRemRangeByScore(ctx, keywordZSetKey, "-inf", "0").Err(); err != nil {
			s.logger.Error("Failed to prune keyword counters", zap.Error(err))
		}
	}

	return deleted, nil
}

func (s *HybridStore) deleteOne(ctx context.Context, article model.Article) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(articlePrefix + article.Link))
	})
	if err != nil {
		return err
	}

	pipe := s.rdb.Pipeline()
	pipe.SRem(ctx, knownLinksKey, article.Link)
	pipe.SRem(ctx, readLinksKey, article.Link)
	for _, kw := range article.Keywords {
		pipe.ZIncrBy(ctx, keywordZSetKey, -1, kw)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// List returns stored articles newest first, narrowed by the filter. The
// read flag is overlaid from Redis, which is the source of truth for it.
func (s *HybridStore) List(ctx context.Context, f Filter) ([]model.Article, error) {
	if s.db == nil {
		return nil, fmt.Errorf("cannot list articles: badgerdb is not initialized")
	}

	readLinks, err := s.rdb.SMembers(ctx, readLinksKey).Result()
	if err != nil {
		return nil, fmt.Errorf("loading read flags: %w", err)
	}
	readSet := make(map[string]struct{}, len(readLinks))
	for _, link := range readLinks {
		readSet[link] = struct{}{}
	}

	var articles []model.Article
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(articlePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var a model.Article
				if err := json.Unmarshal(val, &a); err != nil {
					return err
				}
				_, a.Read = readSet[a.Link]
				if !matches(a, f) {
					return nil
				}
				articles = append(articles, a)
				return nil
			})
			if err != nil {
				s.logger.Error("Skipping undecodable article", zap.Error(err))
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}

	sort.Slice(articles, func(i, j int) bool {
		if articles[i].Published != articles[j].Published {
			return articles[i].Published > articles[j].Published
		}
		return articles[i].FetchedAt.After(articles[j].FetchedAt)
	})

	if f.Limit > 0 && len(articles) > f.Limit {
		articles = articles[:f.Limit]
	}
	return articles, nil
}

func matches(a model.Article, f Filter) bool {
	if f.UnreadOnly && a.Read {
		return false
	}
	if f.Keyword != "" {
		kw := strings.ToLower(f.Keyword)
		for _, k := range a.Keywords {
			if k == kw {
				return true
			}
		}
		return false
	}
	return true
}

// SetRead flips the read flag of a stored link.
func (s *HybridStore) SetRead(ctx context.Context, link string, read bool) error {
	known, err := s.rdb.SIsMember(ctx, knownLinksKey, link).Result()
	if err != nil {
		return fmt.Errorf("checking link: %w", err)
	}
	if !known {
		return ErrNotFound
	}

	if read {
		err = s.rdb.SAdd(ctx, readLinksKey, link).Err()
	} else {
		err = s.rdb.SRem(ctx, readLinksKey, link).Err()
	}
	if err != nil {
		return fmt.Errorf("updating read flag: %w", err)
	}
	return nil
}

// KeywordCounts returns the most frequent stored keywords, highest first.
func (s *HybridStore) KeywordCounts(ctx context.Context, top int) ([]KeywordCount, error) {
	if top <= 0 {
		top = 50
	}

	members, err := s.rdb.ZRevRangeWithScores(ctx, keywordZSetKey, 0, int64(top-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("loading keyword counts: %w", err)
	}

	counts := make([]KeywordCount, 0, len(members))
	for _, m := range members {
		kw, ok := m.Member.(string)
		if !ok {
			continue
		}
		counts = append(counts, KeywordCount{Keyword: kw, Count: int64(m.Score)})
	}
	return counts, nil
}
