package post

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orgball2608/viralink-scheduler/internal/domain"
	"github.com/orgball2608/viralink-scheduler/internal/repositories"
	"github.com/orgball2608/viralink-scheduler/pkg/logger"
)

const collectionsTable = "post_collections"

type PgxRepository struct {
	pool       *pgxpool.Pool
	logger     logger.Logger
	collection string
}

func NewPgxRepository(pool *pgxpool.Pool, logger logger.Logger, collection string) *PgxRepository {
	return &PgxRepository{
		pool:       pool,
		logger:     logger.WithComponent("PostCollectionRepo"),
		collection: collection,
	}
}

var _ Repository = (*PgxRepository)(nil)

// Load reads the collection document stored under the configured name
func (r *PgxRepository) Load(ctx context.Context) ([]domain.Post, error) {
	query, args, err := repositories.SqBuilder.
		Select("payload").
		From(collectionsTable).
		Where(sq.Eq{"name": r.collection}).
		ToSql()
	if err != nil {
		return nil, ErrBadQuery
	}

	var payload []byte
	err = r.pool.QueryRow(ctx, query, args...).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Info("No stored collection yet, starting empty", "collection", r.collection)
			return []domain.Post{}, nil
		}
		return nil, fmt.Errorf("failed to load collection %s: %w", r.collection, err)
	}

	return decode(payload)
}

// Save upserts the whole collection in a single statement
func (r *PgxRepository) Save(ctx context.Context, posts []domain.Post) error {
	payload, err := encode(posts)
	if err != nil {
		return err
	}

	query, args, err := repositories.SqBuilder.
		Insert(collectionsTable).
		Columns("name", "payload", "updated_at").
		Values(r.collection, payload, time.Now()).
		Suffix("ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return ErrBadQuery
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return errors.Join(err, ErrCannotCreate)
	}

	r.logger.Debug("Collection saved", "collection", r.collection, "posts", len(posts))
	return nil
}

func encode(posts []domain.Post) ([]byte, error) {
	if posts == nil {
		posts = []domain.Post{}
	}
	payload, err := json.Marshal(posts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode posts: %w", err)
	}
	return payload, nil
}

func decode(payload []byte) ([]domain.Post, error) {
	posts := []domain.Post{}
	if len(payload) == 0 {
		return posts, nil
	}
	if err := json.Unmarshal(payload, &posts); err != nil {
		return nil, errors.Join(ErrCorrupted, err)
	}
	return posts, nil
}
