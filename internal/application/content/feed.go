package content

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/offeringbowl/backend/internal/domain/content"
	"github.com/offeringbowl/backend/internal/infrastructure/logger"
	"github.com/offeringbowl/backend/internal/infrastructure/store"
	"github.com/offeringbowl/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// feedConcurrency bounds the per-monastic queries in flight for one feed page
const feedConcurrency = 8

// sourceState is the feed position within one monastic's posts
type sourceState struct {
	Cursor string `json:"cursor,omitempty"`
	Done   bool   `json:"done,omitempty"`
}

// feedCursor maps monastic id to its position
type feedCursor map[string]sourceState

func decodeFeedCursor(raw string) (feedCursor, error) {
	state := feedCursor{}
	if raw == "" {
		return state, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, store.ErrInvalidCursor
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, store.ErrInvalidCursor
	}
	return state, nil
}

func (c feedCursor) encode() string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

type sourcePage struct {
	monasticID string
	start      string
	posts      []content.Post
	// more is set when the store has posts beyond this page
	more bool
}

// Feed merges the newest posts of every monastic patronID actively sponsors.
// The returned cursor carries one position per monastic; it is empty once
// every source is exhausted. Monastics sponsored after the first page start
// from their newest post.
func (s *PostService) Feed(ctx context.Context, patronID string, limit int32, cursor string) (*PostList, error) {
	ctx, span := telemetry.StartSpan(ctx, "posts.feed", "patron_id", patronID)
	defer span.End()

	list, err := s.feed(ctx, patronID, clampLimit(limit), cursor)
	telemetry.RecordError(span, err)
	return list, err
}

func (s *PostService) feed(ctx context.Context, patronID string, limit int32, cursor string) (*PostList, error) {
	state, err := decodeFeedCursor(cursor)
	if err != nil {
		return nil, err
	}

	monastics, err := s.contracts.ActiveMonasticIDsForPatron(ctx, patronID)
	if err != nil {
		return nil, fmt.Errorf("feed sources: %w", err)
	}

	var pending []string
	for _, id := range monastics {
		if !state[id].Done {
			pending = append(pending, id)
		}
	}
	s.opts.metrics.FeedQueried(len(pending))
	if len(pending) == 0 {
		return &PostList{Posts: []content.Post{}}, nil
	}

	pages := make([]sourcePage, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(feedConcurrency)
	for i, id := range pending {
		g.Go(func() error {
			page, err := s.store.Query(gctx, store.Query{
				Table:     store.TablePosts,
				Index:     store.IndexMonasticID,
				Partition: store.Condition{Name: "monasticId", Value: id},
				Limit:     limit,
				Cursor:    state[id].Cursor,
			})
			if err != nil {
				return fmt.Errorf("feed query %s: %w", id, err)
			}
			posts, err := decodePosts(page)
			if err != nil {
				return err
			}
			pages[i] = sourcePage{monasticID: id, start: state[id].Cursor, posts: posts, more: page.Cursor != ""}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged, consumed := mergeNewest(pages, int(limit))
	next, err := advance(pages, consumed)
	if err != nil {
		return nil, err
	}
	for _, id := range monastics {
		if _, ok := next[id]; !ok && state[id].Done {
			next[id] = state[id]
		}
	}

	logger.L(ctx).Debug("Feed page assembled",
		zap.Int("sources", len(pending)),
		zap.Int("posts", len(merged)),
	)

	result := &PostList{Posts: merged}
	if !allDone(next, monastics) {
		result.Cursor = next.encode()
	}
	return result, nil
}

// mergeNewest builds one page from the sources. Each source is read from the
// head in store order and the newest head is taken next, so what a page
// takes from a source is always a prefix of that source's page. consumed[i]
// counts the posts taken from pages[i].
func mergeNewest(pages []sourcePage, limit int) ([]content.Post, []int) {
	consumed := make([]int, len(pages))
	merged := make([]content.Post, 0, limit)
	for len(merged) < limit {
		best := -1
		for i := range pages {
			if consumed[i] == len(pages[i].posts) {
				continue
			}
			if best < 0 || content.Newer(&pages[i].posts[consumed[i]], &pages[best].posts[consumed[best]]) {
				best = i
			}
		}
		if best < 0 {
			break
		}
		merged = append(merged, pages[best].posts[consumed[best]])
		consumed[best]++
	}
	return merged, consumed
}

// advance computes each queried source's next position from how many of its
// posts the page consumed
func advance(pages []sourcePage, consumed []int) (feedCursor, error) {
	next := make(feedCursor, len(pages))
	for i, src := range pages {
		n := consumed[i]
		switch {
		case n == len(src.posts) && !src.more:
			next[src.monasticID] = sourceState{Done: true}
		case n == 0:
			next[src.monasticID] = sourceState{Cursor: src.start}
		default:
			c, err := store.CursorAt(store.TablePosts, store.IndexMonasticID, &src.posts[n-1])
			if err != nil {
				return nil, fmt.Errorf("feed cursor: %w", err)
			}
			next[src.monasticID] = sourceState{Cursor: c}
		}
	}
	return next, nil
}

func allDone(state feedCursor, monastics []string) bool {
	for _, id := range monastics {
		if !state[id].Done {
			return false
		}
	}
	return true
}
