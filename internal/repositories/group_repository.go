package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"group-service/internal/listing"
	"group-service/internal/models"
)

var ErrGroupNotFound = errors.New("group not found")

const groupColumns = `id, name, image_url, description, is_public, password, like_count, post_count, badges, created_at`

// GroupRepository abstracts group persistence.
type GroupRepository interface {
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID int) (models.Group, error)
	ListGroups(ctx context.Context, params listing.Params) ([]models.Group, int, error)
	UpdateGroup(ctx context.Context, group *models.Group) error
	DeleteGroup(ctx context.Context, groupID int) error
	LikeGroup(ctx context.Context, groupID int) error
	AdjustPostCount(ctx context.Context, groupID, delta int) error
	AppendBadge(ctx context.Context, groupID int, token string) error
}

// GroupRepo is a sqlx implementation of GroupRepository.
type GroupRepo struct {
	db *sqlx.DB
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(db *sqlx.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

// CreateGroup inserts a group and fills in the generated columns.
func (r *GroupRepo) CreateGroup(ctx context.Context, group *models.Group) error {
	return r.db.QueryRowxContext(ctx,
		`INSERT INTO groups (name, image_url, description, is_public, password) VALUES ($1, $2, $3, $4, $5) RETURNING `+groupColumns,
		group.Name, group.ImageURL, group.Description, group.IsPublic, group.Password).
		StructScan(group)
}

// GetGroup fetches a single group.
func (r *GroupRepo) GetGroup(ctx context.Context, groupID int) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group, `SELECT `+groupColumns+` FROM groups WHERE id=$1`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	return group, err
}

// ListGroups returns one page of groups matching the composed filters,
// along with the total match count.
func (r *GroupRepo) ListGroups(ctx context.Context, params listing.Params) ([]models.Group, int, error) {
	where := `WHERE (name LIKE $1 OR description LIKE $1)`
	args := []interface{}{params.LikePattern()}
	if params.IsPublic != nil {
		where += fmt.Sprintf(` AND is_public = $%d`, len(args)+1)
		args = append(args, *params.IsPublic)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM groups `+where, args...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM groups %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		groupColumns, where, listing.GroupOrder(params.SortBy), len(args)+1, len(args)+2)
	args = append(args, params.PageSize, params.Offset())

	var groups []models.Group
	if err := r.db.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, 0, err
	}
	return groups, total, nil
}

// UpdateGroup rewrites the mutable columns and refreshes the struct.
func (r *GroupRepo) UpdateGroup(ctx context.Context, group *models.Group) error {
	err := r.db.QueryRowxContext(ctx,
		`UPDATE groups SET name=$1, image_url=$2, description=$3, is_public=$4 WHERE id=$5 RETURNING `+groupColumns,
		group.Name, group.ImageURL, group.Description, group.IsPublic, group.ID).
		StructScan(group)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrGroupNotFound
	}
	return err
}

// DeleteGroup removes a group row. Child posts are not cascaded.
func (r *GroupRepo) DeleteGroup(ctx context.Context, groupID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id=$1`, groupID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrGroupNotFound
	}
	return nil
}

// LikeGroup increments the like counter. Liking an absent group is a no-op,
// matching the endpoint contract.
func (r *GroupRepo) LikeGroup(ctx context.Context, groupID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE groups SET like_count = like_count + 1 WHERE id=$1`, groupID)
	return err
}

// AdjustPostCount applies a relative change to the denormalized post count.
func (r *GroupRepo) AdjustPostCount(ctx context.Context, groupID, delta int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE groups SET post_count = post_count + $2 WHERE id=$1`, groupID, delta)
	return err
}

// AppendBadge appends a badge token to the group's badge set. The NOT LIKE
// guard keeps the write idempotent under concurrent award attempts.
func (r *GroupRepo) AppendBadge(ctx context.Context, groupID int, token string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE groups SET badges = CASE WHEN badges = '' THEN $2 ELSE badges || ',' || $2 END WHERE id=$1 AND badges NOT LIKE '%' || $2 || '%'`,
		groupID, token)
	return err
}
