package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/openkeyhub/governance/internal/database/dbretry"
	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// DiscussionModel handles database operations for discussion posts.
type DiscussionModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewDiscussion creates a new discussion model.
func NewDiscussion(db *bun.DB, logger *zap.Logger) *DiscussionModel {
	return &DiscussionModel{
		db:     db,
		logger: logger.Named("db_discussion"),
	}
}

// CreatePost inserts a discussion post.
func (r *DiscussionModel) CreatePost(ctx context.Context, post *types.DiscussionPost) error {
	if post.Reactions == nil {
		post.Reactions = make([]types.Reaction, 0)
	}

	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		if _, err := r.db.NewInsert().Model(post).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert post: %w", err)
		}
		return nil
	})
}

// GetPost retrieves a post of a proposal's thread.
func (r *DiscussionModel) GetPost(ctx context.Context, proposalID, postID string) (*types.DiscussionPost, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.DiscussionPost, error) {
		return getPost(ctx, r.db, proposalID, postID, false)
	})
}

// ListPosts returns the posts of a proposal in creation order.
func (r *DiscussionModel) ListPosts(ctx context.Context, proposalID string) ([]*types.DiscussionPost, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.DiscussionPost, error) {
		posts := make([]*types.DiscussionPost, 0)
		err := r.db.NewSelect().
			Model(&posts).
			Where("proposal_id = ?", proposalID).
			Order("timestamp ASC", "id ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list posts: %w", err)
		}
		return posts, nil
	})
}

// UpdatePost applies fn to a post while holding its row lock.
func (r *DiscussionModel) UpdatePost(
	ctx context.Context, proposalID, postID string, fn func(post *types.DiscussionPost) error,
) (*types.DiscussionPost, error) {
	var updated *types.DiscussionPost

	err := dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		post, err := getPost(ctx, tx, proposalID, postID, true)
		if err != nil {
			return err
		}

		if err := fn(post); err != nil {
			return err
		}

		_, err = tx.NewUpdate().
			Model(post).
			Column("content", "reactions").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update post: %w", err)
		}

		updated = post
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func getPost(ctx context.Context, db bun.IDB, proposalID, postID string, lock bool) (*types.DiscussionPost, error) {
	post := new(types.DiscussionPost)

	query := db.NewSelect().
		Model(post).
		Where("id = ?", postID).
		Where("proposal_id = ?", proposalID)
	if lock {
		query.For("UPDATE")
	}

	if err := query.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	if post.Reactions == nil {
		post.Reactions = make([]types.Reaction, 0)
	}

	return post, nil
}
