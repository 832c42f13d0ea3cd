package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/iliyamo/hand-pose-trainer/internal/model"
)

// Public listings are paginated; the limit is clamped to these bounds
// regardless of what the client asks for.
const (
	DefaultPublicLimit = 20
	MaxPublicLimit     = 100
)

// ResourceRepo provides persistence for one owned-resource kind
// (saved models, gesture mappings or note sequences). The three
// backing tables share an identical schema, so a single repository is
// written against the kind's table name and instantiated three times.
// All reads join the users table to carry the owner's username.
type ResourceRepo struct {
	DB   *sql.DB
	Kind model.ResourceKind
}

func NewResourceRepo(db *sql.DB, kind model.ResourceKind) *ResourceRepo {
	return &ResourceRepo{DB: db, Kind: kind}
}

// SaveInput carries the client-supplied fields of a save request.
// Description is optional; Payload is stored verbatim.
type SaveInput struct {
	Name        string
	Description *string
	Payload     json.RawMessage
	IsPublic    bool
	IsActive    bool
}

func (r *ResourceRepo) selectClause() string {
	return "SELECT r.id, r.owner_id, r.name, r.description, r.payload, r.is_active, r.is_public, r.created_at, u.username" +
		" FROM " + r.Kind.Table + " r JOIN users u ON u.id = r.owner_id"
}

// listSelectClause omits the payload column. A saved model's payload
// carries serialized network weights and can run to megabytes; listings
// only need the metadata, so the blob is fetched by GetDetail alone.
func (r *ResourceRepo) listSelectClause() string {
	return "SELECT r.id, r.owner_id, r.name, r.description, r.is_active, r.is_public, r.created_at, u.username" +
		" FROM " + r.Kind.Table + " r JOIN users u ON u.id = r.owner_id"
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanResource(row rowScanner) (model.Resource, error) {
	var res model.Resource
	var desc sql.NullString
	err := row.Scan(&res.ID, &res.OwnerID, &res.Name, &desc, &res.Payload,
		&res.IsActive, &res.IsPublic, &res.CreatedAt, &res.Author)
	if err != nil {
		return model.Resource{}, err
	}
	if desc.Valid {
		d := desc.String
		res.Description = &d
	}
	return res, nil
}

// scanResourceSummary scans a payload-less listing row; the returned
// Resource carries a nil Payload.
func scanResourceSummary(row rowScanner) (model.Resource, error) {
	var res model.Resource
	var desc sql.NullString
	err := row.Scan(&res.ID, &res.OwnerID, &res.Name, &desc,
		&res.IsActive, &res.IsPublic, &res.CreatedAt, &res.Author)
	if err != nil {
		return model.Resource{}, err
	}
	if desc.Valid {
		d := desc.String
		res.Description = &d
	}
	return res, nil
}

// ListByOwner returns every resource of this kind owned by the user,
// newest first, without payloads. Equal timestamps break ties by
// ascending id so the order is deterministic.
func (r *ResourceRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Resource, error) {
	rows, err := r.DB.QueryContext(ctx,
		r.listSelectClause()+" WHERE r.owner_id=? ORDER BY r.created_at DESC, r.id ASC",
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// ListPublic returns public resources across all owners, newest first
// and without payloads, optionally filtered by a case-insensitive
// substring match on the name. The limit is clamped to
// [1, MaxPublicLimit] and a negative offset is treated as zero.
func (r *ResourceRepo) ListPublic(ctx context.Context, search string, limit, offset int) ([]model.Resource, error) {
	if limit <= 0 {
		limit = DefaultPublicLimit
	}
	if limit > MaxPublicLimit {
		limit = MaxPublicLimit
	}
	if offset < 0 {
		offset = 0
	}

	query := r.listSelectClause() + " WHERE r.is_public=1"
	args := []interface{}{}
	if s := strings.TrimSpace(search); s != "" {
		query += " AND LOWER(r.name) LIKE ?"
		args = append(args, "%"+strings.ToLower(s)+"%")
	}
	query += " ORDER BY r.created_at DESC, r.id ASC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func collect(rows *sql.Rows) ([]model.Resource, error) {
	out := []model.Resource{}
	for rows.Next() {
		res, err := scanResourceSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// Save upserts a resource by (owner, name) inside one transaction.
// When activation is requested every sibling of the same owner is
// deactivated first, so no commit can leave two rows active. The
// existence check locks the matching row; if an insert still collides
// on the unique (owner_id, name) index — two identical requests racing
// past the check — it is retried once as an update before giving up
// with ErrConflict.
func (r *ResourceRepo) Save(ctx context.Context, ownerID uint64, in SaveInput) (model.Resource, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Resource{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if in.IsActive {
		if _, err := tx.ExecContext(ctx,
			"UPDATE "+r.Kind.Table+" SET is_active=0 WHERE owner_id=?", ownerID); err != nil {
			return model.Resource{}, err
		}
	}

	id, err := r.upsertTx(ctx, tx, ownerID, in)
	if err != nil {
		return model.Resource{}, err
	}

	var res model.Resource
	res, err = scanResource(tx.QueryRowContext(ctx, r.selectClause()+" WHERE r.id=?", id))
	if err != nil {
		return model.Resource{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Resource{}, err
	}
	return res, nil
}

func (r *ResourceRepo) upsertTx(ctx context.Context, tx *sql.Tx, ownerID uint64, in SaveInput) (uint64, error) {
	id, err := r.updateByNameTx(ctx, tx, ownerID, in)
	if err == nil {
		return id, nil
	}
	if err != ErrNotFound {
		return 0, err
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO "+r.Kind.Table+" (owner_id, name, description, payload, is_active, is_public) VALUES (?,?,?,?,?,?)",
		ownerID, in.Name, in.Description, []byte(in.Payload), in.IsActive, in.IsPublic)
	if err != nil {
		if isDuplicateKey(err, "") {
			// Lost the insert race; the row exists now, so retry as an update.
			if id, uerr := r.updateByNameTx(ctx, tx, ownerID, in); uerr == nil {
				return id, nil
			}
			return 0, ErrConflict
		}
		return 0, err
	}
	insertID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(insertID), nil
}

// updateByNameTx locates the (owner, name) row with a locking read and
// overwrites its mutable fields in place. ErrNotFound means no such
// row exists yet.
func (r *ResourceRepo) updateByNameTx(ctx context.Context, tx *sql.Tx, ownerID uint64, in SaveInput) (uint64, error) {
	var id uint64
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM "+r.Kind.Table+" WHERE owner_id=? AND name=? FOR UPDATE",
		ownerID, in.Name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE "+r.Kind.Table+" SET description=?, payload=?, is_active=?, is_public=? WHERE id=?",
		in.Description, []byte(in.Payload), in.IsActive, in.IsPublic, id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetDetail returns the full resource including its payload. Access
// policy (owner vs. public) is decided by the handler layer.
func (r *ResourceRepo) GetDetail(ctx context.Context, id uint64) (model.Resource, error) {
	res, err := scanResource(r.DB.QueryRowContext(ctx, r.selectClause()+" WHERE r.id=?", id))
	if err == sql.ErrNoRows {
		return model.Resource{}, ErrNotFound
	}
	if err != nil {
		return model.Resource{}, err
	}
	return res, nil
}

// Delete removes a resource after verifying ownership. Deleting an
// active resource leaves the owner with no active resource of this
// kind; nothing is promoted in its place.
func (r *ResourceRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	var owner uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT owner_id FROM "+r.Kind.Table+" WHERE id=?", id).Scan(&owner)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != ownerID {
		return ErrForbidden
	}
	_, err = r.DB.ExecContext(ctx, "DELETE FROM "+r.Kind.Table+" WHERE id=?", id)
	return err
}

// SetVisibility toggles is_public after verifying ownership. The
// is_active flag is never touched here.
func (r *ResourceRepo) SetVisibility(ctx context.Context, id, ownerID uint64, isPublic bool) (model.Resource, error) {
	var owner uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT owner_id FROM "+r.Kind.Table+" WHERE id=?", id).Scan(&owner)
	if err == sql.ErrNoRows {
		return model.Resource{}, ErrNotFound
	}
	if err != nil {
		return model.Resource{}, err
	}
	if owner != ownerID {
		return model.Resource{}, ErrForbidden
	}
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE "+r.Kind.Table+" SET is_public=? WHERE id=?", isPublic, id); err != nil {
		return model.Resource{}, err
	}
	return r.GetDetail(ctx, id)
}
