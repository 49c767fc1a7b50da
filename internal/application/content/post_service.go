package content

import (
	"context"
	"fmt"

	activityapp "github.com/offeringbowl/backend/internal/application/activity"
	"github.com/offeringbowl/backend/internal/domain/activity"
	"github.com/offeringbowl/backend/internal/domain/content"
	"github.com/offeringbowl/backend/internal/domain/shared"
	"github.com/offeringbowl/backend/internal/infrastructure/store"
)

// Post access messages
const (
	MsgPostNotFound  = "Post not found."
	MsgPatronsOnly   = "This post is only available for active patrons."
	MsgNotPostAuthor = "User does not have the necessary permissions."
)

// PostService handles monastic posts and who may read them
type PostService struct {
	store     store.Store
	contracts ContractChecker
	activity  activityapp.Recorder
	opts      options
}

// NewPostService creates a new PostService
func NewPostService(st store.Store, contracts ContractChecker, recorder activityapp.Recorder, opts ...Option) *PostService {
	return &PostService{
		store:     st,
		contracts: contracts,
		activity:  recorder,
		opts:      buildOptions(opts),
	}
}

// PostList is one page of posts. An empty Cursor means the end.
type PostList struct {
	Posts  []content.Post
	Cursor string
}

// Create publishes a post authored by the calling monastic
func (s *PostService) Create(ctx context.Context, caller string, post content.Post) (*content.Post, error) {
	if post.MonasticID == "" {
		post.MonasticID = caller
	}
	if post.MonasticID != caller {
		return nil, shared.Forbidden(MsgNotPostAuthor)
	}
	if post.PostID == "" {
		post.PostID = s.opts.newID()
	}
	if post.CreatedAt == "" {
		post.CreatedAt = s.opts.timestamp()
	}
	if err := shared.Validate("post", &post); err != nil {
		return nil, err
	}
	post.CreatedAt = shared.NormalizeTime(post.CreatedAt)

	if err := s.store.Put(ctx, store.TablePosts, &post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	s.activity.Record(ctx, caller, activity.TypePostCreated, map[string]string{"postId": post.PostID})

	return &post, nil
}

func (s *PostService) get(ctx context.Context, postID string) (*content.Post, error) {
	var post content.Post
	found, err := s.store.Get(ctx, store.TablePosts, store.Key{"postId": postID}, &post)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if !found {
		return nil, shared.NotFound(MsgPostNotFound)
	}
	return &post, nil
}

func (s *PostService) getOwned(ctx context.Context, caller, postID string) (*content.Post, error) {
	post, err := s.get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.MonasticID != caller {
		return nil, shared.Forbidden(MsgNotPostAuthor)
	}
	return post, nil
}

// Update merges patch onto one of the caller's posts
func (s *PostService) Update(ctx context.Context, caller, postID string, patch shared.Patch) (*content.Post, error) {
	post, err := s.getOwned(ctx, caller, postID)
	if err != nil {
		return nil, err
	}

	createdAt := post.CreatedAt
	if err := patch.ApplyTo("post", post); err != nil {
		return nil, err
	}
	post.PostID, post.MonasticID, post.CreatedAt = postID, caller, createdAt

	if err := shared.Validate("post", post); err != nil {
		return nil, err
	}
	post.CreatedAt = shared.NormalizeTime(post.CreatedAt)
	if err := s.store.Put(ctx, store.TablePosts, post); err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	s.activity.Record(ctx, caller, activity.TypePostUpdated, map[string]string{"postId": postID})

	return post, nil
}

// Delete removes one of the caller's posts
func (s *PostService) Delete(ctx context.Context, caller, postID string) error {
	if _, err := s.getOwned(ctx, caller, postID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, store.TablePosts, store.Key{"postId": postID}); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	s.activity.Record(ctx, caller, activity.TypePostDeleted, map[string]string{"postId": postID})
	return nil
}

// GetPublic returns a public post. Private posts are reported as missing.
func (s *PostService) GetPublic(ctx context.Context, postID string) (*content.Post, error) {
	post, err := s.get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !post.Public() {
		return nil, shared.NotFound(MsgPostNotFound)
	}
	return post, nil
}

// ListPublicForMonastic pages through a monastic's public posts, newest
// first. The visibility filter runs after the page limit, so a page may
// hold fewer than limit posts while Cursor is still set.
func (s *PostService) ListPublicForMonastic(ctx context.Context, monasticID string, limit int32, cursor string) (*PostList, error) {
	return s.list(ctx, monasticID, true, limit, cursor)
}

// GetForViewer returns a post if it is public, authored by viewer, or
// viewer actively sponsors its author.
func (s *PostService) GetForViewer(ctx context.Context, viewer, postID string) (*content.Post, error) {
	post, err := s.get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.Public() {
		return post, nil
	}

	full, err := s.canSeeAll(ctx, viewer, post.MonasticID)
	if err != nil {
		return nil, err
	}
	if !full {
		return nil, shared.Forbidden(MsgPatronsOnly)
	}
	return post, nil
}

// ListForViewer pages through a monastic's posts as viewer sees them: all
// posts for the author and active patrons, public posts otherwise.
func (s *PostService) ListForViewer(ctx context.Context, viewer, monasticID string, limit int32, cursor string) (*PostList, error) {
	full, err := s.canSeeAll(ctx, viewer, monasticID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, monasticID, !full, limit, cursor)
}

func (s *PostService) canSeeAll(ctx context.Context, viewer, monasticID string) (bool, error) {
	if viewer != "" && viewer == monasticID {
		return true, nil
	}
	ok, err := s.contracts.HasActive(ctx, viewer, monasticID)
	if err != nil {
		return false, fmt.Errorf("check sponsorship: %w", err)
	}
	return ok, nil
}

func (s *PostService) list(ctx context.Context, monasticID string, publicOnly bool, limit int32, cursor string) (*PostList, error) {
	q := store.Query{
		Table:     store.TablePosts,
		Index:     store.IndexMonasticID,
		Partition: store.Condition{Name: "monasticId", Value: monasticID},
		Limit:     clampLimit(limit),
		Cursor:    cursor,
	}
	if publicOnly {
		q.Filter = map[string]any{"isPublic": true}
	}

	page, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	posts, err := decodePosts(page)
	if err != nil {
		return nil, err
	}
	return &PostList{Posts: posts, Cursor: page.Cursor}, nil
}

func decodePosts(page *store.Page) ([]content.Post, error) {
	var posts []content.Post
	if err := page.Decode(&posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	if posts == nil {
		posts = []content.Post{}
	}
	return posts, nil
}
