package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jaekwang-park/listo/internal/fakeapi"
	"github.com/jaekwang-park/listo/internal/model"
)

// PostgresChecklistRepository keeps the checklist API's users, checklists, members and items
// in PostgreSQL.
type PostgresChecklistRepository struct {
	db *sql.DB
}

func NewPostgresChecklist(db *sql.DB) *PostgresChecklistRepository {
	return &PostgresChecklistRepository{db: db}
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// withTx runs fn in a transaction, committing when it returns nil.
func (r *PostgresChecklistRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *PostgresChecklistRepository) EnsureUser(ctx context.Context, userID, email, picture string) (model.User, error) {
	query := `
		INSERT INTO users (id, email, picture)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET email = users.email
		RETURNING id, email, picture, created_at`

	return scanUser(r.db.QueryRowContext(ctx, query, userID, email, picture))
}

func (r *PostgresChecklistRepository) User(ctx context.Context, userID string) (model.User, error) {
	query := `SELECT id, email, picture, created_at FROM users WHERE id = $1`

	return scanUser(r.db.QueryRowContext(ctx, query, userID))
}

const checklistColumns = `c.id, c.owner_id, c.title, c.locked, c.created_at, c.updated_at`

func (r *PostgresChecklistRepository) Lists(ctx context.Context, userID string) ([]model.Checklist, error) {
	query := `
		SELECT ` + checklistColumns + `
		FROM checklists c
		WHERE c.owner_id = $1
		ORDER BY c.updated_at DESC`

	return r.listChecklists(ctx, query, userID)
}

func (r *PostgresChecklistRepository) SharedLists(ctx context.Context, userID string) ([]model.Checklist, error) {
	query := `
		SELECT ` + checklistColumns + `
		FROM checklists c
		JOIN checklist_members m ON m.checklist_id = c.id
		WHERE m.user_id = $1
		ORDER BY c.updated_at DESC`

	return r.listChecklists(ctx, query, userID)
}

func (r *PostgresChecklistRepository) listChecklists(ctx context.Context, query string, args ...any) ([]model.Checklist, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list checklists: %w", err)
	}
	defer rows.Close()

	lists := []model.Checklist{}
	for rows.Next() {
		c, _, err := scanChecklist(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate checklists: %w", err)
	}

	if err := fillCollaborators(ctx, r.db, lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// fillCollaborators sets the collaborators of every checklist, owner first and then members
// in the order they joined. Users that never registered show their ID as email.
func fillCollaborators(ctx context.Context, q querier, lists []model.Checklist) error {
	if len(lists) == 0 {
		return nil
	}
	ids := make([]string, len(lists))
	index := make(map[string]int, len(lists))
	for i, c := range lists {
		ids[i] = c.ID
		index[c.ID] = i
		lists[i].Collaborators = []model.Collaborator{}
	}

	query := `
		SELECT c.id, COALESCE(u.email, c.owner_id), COALESCE(u.picture, ''), 0 AS rank, c.created_at AS since
		FROM checklists c
		LEFT JOIN users u ON u.id = c.owner_id
		WHERE c.id = ANY($1)
		UNION ALL
		SELECT m.checklist_id, COALESCE(u.email, m.user_id), COALESCE(u.picture, ''), 1 AS rank, m.joined_at AS since
		FROM checklist_members m
		LEFT JOIN users u ON u.id = m.user_id
		WHERE m.checklist_id = ANY($1)
		ORDER BY 1, 4, 5`

	rows, err := q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to list collaborators: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    string
			c     model.Collaborator
			rank  int
			since sql.NullTime
		)
		if err := rows.Scan(&id, &c.Email, &c.Picture, &rank, &since); err != nil {
			return fmt.Errorf("failed to scan collaborator: %w", err)
		}
		if i, ok := index[id]; ok {
			lists[i].Collaborators = append(lists[i].Collaborators, c)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate collaborators: %w", err)
	}
	return nil
}

func (r *PostgresChecklistRepository) CreateList(ctx context.Context, userID, title string) (model.Checklist, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Checklist{}, fakeapi.ErrInvalidInput
	}
	query := `
		INSERT INTO checklists AS c (id, owner_id, title)
		VALUES ($1, $2, $3)
		RETURNING ` + checklistColumns

	c, _, err := scanChecklist(r.db.QueryRowContext(ctx, query, uuid.NewString(), userID, title))
	if err != nil {
		return model.Checklist{}, err
	}
	return r.withCollaborators(ctx, r.db, c)
}

func (r *PostgresChecklistRepository) withCollaborators(ctx context.Context, q querier, c model.Checklist) (model.Checklist, error) {
	lists := []model.Checklist{c}
	if err := fillCollaborators(ctx, q, lists); err != nil {
		return model.Checklist{}, err
	}
	return lists[0], nil
}

// access loads a checklist if userID may reach it through the own (shared=false) or
// collaborator (shared=true) path. forUpdate locks the row for the rest of the transaction.
func access(ctx context.Context, q querier, userID, id string, shared, forUpdate bool) (model.Checklist, error) {
	query := `SELECT ` + checklistColumns + ` FROM checklists c WHERE c.id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	c, owner, err := scanChecklist(q.QueryRowContext(ctx, query, id))
	if err != nil {
		return model.Checklist{}, err
	}

	if !shared {
		if owner != userID {
			return model.Checklist{}, fakeapi.ErrForbidden
		}
		return c, nil
	}
	var member bool
	err = q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM checklist_members WHERE checklist_id = $1 AND user_id = $2)`,
		id, userID,
	).Scan(&member)
	if err != nil {
		return model.Checklist{}, fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return model.Checklist{}, fakeapi.ErrForbidden
	}
	return c, nil
}

// editable is access plus the lock check used by every item mutation.
func editable(ctx context.Context, tx *sql.Tx, userID, id string, shared bool) error {
	c, err := access(ctx, tx, userID, id, shared, true)
	if err != nil {
		return err
	}
	if c.Locked {
		return fakeapi.ErrLocked
	}
	return nil
}

func touch(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `UPDATE checklists SET updated_at = now() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to touch checklist: %w", err)
	}
	return nil
}

func (r *PostgresChecklistRepository) List(ctx context.Context, userID, id string, shared bool) (model.ChecklistDetail, error) {
	c, err := access(ctx, r.db, userID, id, shared, false)
	if err != nil {
		return model.ChecklistDetail{}, err
	}
	c, err = r.withCollaborators(ctx, r.db, c)
	if err != nil {
		return model.ChecklistDetail{}, err
	}

	query := `
		SELECT id, content, checked, ordering, created_at, updated_at
		FROM items
		WHERE checklist_id = $1
		ORDER BY ordering, created_at`

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return model.ChecklistDetail{}, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return model.ChecklistDetail{}, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return model.ChecklistDetail{}, fmt.Errorf("failed to iterate items: %w", err)
	}
	return model.ChecklistDetail{Checklist: c, Items: items}, nil
}

func (r *PostgresChecklistRepository) UpdateList(ctx context.Context, userID, id string, shared bool, title string, locked bool) (model.Checklist, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Checklist{}, fakeapi.ErrInvalidInput
	}

	var out model.Checklist
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := access(ctx, tx, userID, id, shared, true); err != nil {
			return err
		}
		query := `
			UPDATE checklists AS c
			SET title = $1, locked = $2, updated_at = now()
			WHERE c.id = $3
			RETURNING ` + checklistColumns

		c, _, err := scanChecklist(tx.QueryRowContext(ctx, query, title, locked, id))
		if err != nil {
			return err
		}
		out, err = r.withCollaborators(ctx, tx, c)
		return err
	})
	return out, err
}

// DeleteList removes a checklist with its items and members. Only its owner may do that.
func (r *PostgresChecklistRepository) DeleteList(ctx context.Context, userID, id string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := access(ctx, tx, userID, id, false, true); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM checklists WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete checklist: %w", err)
		}
		return nil
	})
}

// ShareCode returns the checklist's share code, minting one on first request.
func (r *PostgresChecklistRepository) ShareCode(ctx context.Context, userID, id string) (string, error) {
	if _, err := access(ctx, r.db, userID, id, false, false); err != nil {
		return "", err
	}
	query := `
		UPDATE checklists
		SET share_code = COALESCE(share_code, $2)
		WHERE id = $1
		RETURNING share_code`

	var code string
	if err := r.db.QueryRowContext(ctx, query, id, fakeapi.NewShareCode()).Scan(&code); err != nil {
		return "", fmt.Errorf("failed to set share code: %w", err)
	}
	return code, nil
}

// Join makes userID a collaborator of the checklist behind code. Joining twice, or joining
// one's own checklist, changes nothing.
func (r *PostgresChecklistRepository) Join(ctx context.Context, userID, code string) error {
	var id, owner string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id FROM checklists WHERE share_code = $1`, code,
	).Scan(&id, &owner)
	if errors.Is(err, sql.ErrNoRows) {
		return fakeapi.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to find share code: %w", err)
	}
	if owner == userID {
		return nil
	}

	query := `
		INSERT INTO checklist_members (checklist_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (checklist_id, user_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, id, userID); err != nil {
		return fmt.Errorf("failed to join checklist: %w", err)
	}
	return nil
}

func (r *PostgresChecklistRepository) Leave(ctx context.Context, userID, id string) error {
	if _, err := access(ctx, r.db, userID, id, true, false); err != nil {
		return err
	}
	query := `DELETE FROM checklist_members WHERE checklist_id = $1 AND user_id = $2`

	if _, err := r.db.ExecContext(ctx, query, id, userID); err != nil {
		return fmt.Errorf("failed to leave checklist: %w", err)
	}
	return nil
}

const itemColumns = `id, content, checked, ordering, created_at, updated_at`

func (r *PostgresChecklistRepository) CreateItem(ctx context.Context, userID, id string, shared bool, content string, ordering int) (model.Item, error) {
	if strings.TrimSpace(content) == "" || ordering < 0 {
		return model.Item{}, fakeapi.ErrInvalidInput
	}

	var out model.Item
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := editable(ctx, tx, userID, id, shared); err != nil {
			return err
		}
		query := `
			INSERT INTO items (id, checklist_id, content, ordering)
			VALUES ($1, $2, $3, $4)
			RETURNING ` + itemColumns

		it, err := scanItem(tx.QueryRowContext(ctx, query, uuid.NewString(), id, content, ordering))
		if err != nil {
			return err
		}
		out = it
		return touch(ctx, tx, id)
	})
	return out, err
}

func (r *PostgresChecklistRepository) UpdateItem(ctx context.Context, userID, id string, shared bool, item model.Item) (model.Item, error) {
	if item.Ordering < 0 {
		return model.Item{}, fakeapi.ErrInvalidInput
	}

	var out model.Item
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := editable(ctx, tx, userID, id, shared); err != nil {
			return err
		}
		query := `
			UPDATE items
			SET content = $1, checked = $2, ordering = $3, updated_at = now()
			WHERE id = $4 AND checklist_id = $5
			RETURNING ` + itemColumns

		it, err := scanItem(tx.QueryRowContext(ctx, query,
			item.Content, item.Checked, item.Ordering, item.ID, id,
		))
		if err != nil {
			return err
		}
		out = it
		return touch(ctx, tx, id)
	})
	return out, err
}

// ToggleAll sets every item's checked state in one statement.
func (r *PostgresChecklistRepository) ToggleAll(ctx context.Context, userID, id string, shared bool, checked bool) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if err := editable(ctx, tx, userID, id, shared); err != nil {
			return err
		}
		query := `UPDATE items SET checked = $1, updated_at = now() WHERE checklist_id = $2`

		if _, err := tx.ExecContext(ctx, query, checked, id); err != nil {
			return fmt.Errorf("failed to toggle items: %w", err)
		}
		return touch(ctx, tx, id)
	})
}

func (r *PostgresChecklistRepository) DeleteItem(ctx context.Context, userID, id string, shared bool, itemID string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if err := editable(ctx, tx, userID, id, shared); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = $1 AND checklist_id = $2`, itemID, id)
		if err != nil {
			return fmt.Errorf("failed to delete item: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return fakeapi.ErrNotFound
		}
		return touch(ctx, tx, id)
	})
}

type scannable interface {
	Scan(dest ...any) error
}

func scanUser(row scannable) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Picture, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fakeapi.ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to scan user: %w", err)
	}
	return u, nil
}

// scanChecklist reads checklistColumns and returns the owner ID separately.
func scanChecklist(row scannable) (model.Checklist, string, error) {
	var (
		c     model.Checklist
		owner string
	)
	err := row.Scan(&c.ID, &owner, &c.Title, &c.Locked, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Checklist{}, "", fakeapi.ErrNotFound
	}
	if err != nil {
		return model.Checklist{}, "", fmt.Errorf("failed to scan checklist: %w", err)
	}
	return c, owner, nil
}

func scanItem(row scannable) (model.Item, error) {
	var it model.Item
	err := row.Scan(&it.ID, &it.Content, &it.Checked, &it.Ordering, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, fakeapi.ErrNotFound
	}
	if err != nil {
		return model.Item{}, fmt.Errorf("failed to scan item: %w", err)
	}
	return it, nil
}

// ensure compile-time interface compliance
var _ fakeapi.Backend = (*PostgresChecklistRepository)(nil)
