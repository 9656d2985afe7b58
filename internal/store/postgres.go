package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyagen/sectionvault/internal/models"
)

// Postgres implements Store on the section_trees table, one JSONB document
// per collection.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to dsn. Caller must call Close when done.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) GetTree(ctx context.Context, c models.Collection) (*SavedTree, error) {
	var raw []byte
	t := emptyTree(c)
	err := p.pool.QueryRow(ctx,
		`SELECT tree, revision, updated_at FROM section_trees WHERE collection = $1`,
		string(c),
	).Scan(&raw, &t.Revision, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetTree %s: %w", c, err)
	}
	t.Groups, t.Issues = models.ParseTree(raw)
	return t, nil
}

func (p *Postgres) PutTree(ctx context.Context, c models.Collection, groups []models.Group) (int64, error) {
	if groups == nil {
		groups = []models.Group{}
	}
	data, err := json.Marshal(groups)
	if err != nil {
		return 0, fmt.Errorf("PutTree %s: marshal: %w", c, err)
	}
	var rev int64
	err = p.pool.QueryRow(ctx,
		`INSERT INTO section_trees (collection, tree, revision, updated_at)
		 VALUES ($1, $2::jsonb, 1, now())
		 ON CONFLICT (collection) DO UPDATE
		   SET tree = EXCLUDED.tree,
		       revision = section_trees.revision + 1,
		       updated_at = now()
		 RETURNING revision`,
		string(c), string(data),
	).Scan(&rev)
	if err != nil {
		return 0, fmt.Errorf("PutTree %s: %w", c, err)
	}
	return rev, nil
}

func (p *Postgres) DeleteTree(ctx context.Context, c models.Collection) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM section_trees WHERE collection = $1`, string(c))
	if err != nil {
		return fmt.Errorf("DeleteTree %s: %w", c, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) ListCollections(ctx context.Context) ([]CollectionInfo, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT collection, revision,
		        CASE WHEN jsonb_typeof(tree) = 'array' THEN jsonb_array_length(tree) ELSE 0 END,
		        updated_at
		 FROM section_trees ORDER BY collection`)
	if err != nil {
		return nil, fmt.Errorf("ListCollections: %w", err)
	}
	defer rows.Close()
	var out []CollectionInfo
	for rows.Next() {
		var info CollectionInfo
		var name string
		if err := rows.Scan(&name, &info.Revision, &info.Groups, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ListCollections scan: %w", err)
		}
		info.Collection = models.Collection(name)
		out = append(out, info)
	}
	return out, rows.Err()
}
