package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"group-service/internal/listing"
	"group-service/internal/models"
)

var ErrCommentNotFound = errors.New("comment not found")

const commentColumns = `id, post_id, nickname, content, password, created_at`

// CommentRepository abstracts comment persistence.
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, commentID int) (models.Comment, error)
	ListComments(ctx context.Context, postID int, params listing.Params) ([]models.Comment, int, error)
	UpdateComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, commentID int) error
}

// CommentRepo is a sqlx implementation of CommentRepository.
type CommentRepo struct {
	db *sqlx.DB
}

// NewCommentRepo constructs a CommentRepo.
func NewCommentRepo(db *sqlx.DB) *CommentRepo {
	return &CommentRepo{db: db}
}

// CreateComment inserts a comment and fills in the generated columns.
func (r *CommentRepo) CreateComment(ctx context.Context, comment *models.Comment) error {
	return r.db.QueryRowxContext(ctx,
		`INSERT INTO comments (post_id, nickname, content, password) VALUES ($1, $2, $3, $4) RETURNING `+commentColumns,
		comment.PostID, comment.Nickname, comment.Content, comment.Password).
		StructScan(comment)
}

// GetComment fetches a single comment.
func (r *CommentRepo) GetComment(ctx context.Context, commentID int) (models.Comment, error) {
	var comment models.Comment
	err := r.db.GetContext(ctx, &comment, `SELECT `+commentColumns+` FROM comments WHERE id=$1`, commentID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Comment{}, ErrCommentNotFound
	}
	return comment, err
}

// ListComments returns one page of a post's comments, newest first, along
// with the total count.
func (r *CommentRepo) ListComments(ctx context.Context, postID int, params listing.Params) ([]models.Comment, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM comments WHERE post_id=$1`, postID); err != nil {
		return nil, 0, err
	}

	var comments []models.Comment
	err := r.db.SelectContext(ctx, &comments,
		`SELECT `+commentColumns+` FROM comments WHERE post_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		postID, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// UpdateComment rewrites the mutable columns and refreshes the struct.
func (r *CommentRepo) UpdateComment(ctx context.Context, comment *models.Comment) error {
	err := r.db.QueryRowxContext(ctx,
		`UPDATE comments SET nickname=$1, content=$2, password=$3 WHERE id=$4 RETURNING `+commentColumns,
		comment.Nickname, comment.Content, comment.Password, comment.ID).
		StructScan(comment)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCommentNotFound
	}
	return err
}

// DeleteComment removes a comment row.
func (r *CommentRepo) DeleteComment(ctx context.Context, commentID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id=$1`, commentID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCommentNotFound
	}
	return nil
}
