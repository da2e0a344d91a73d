package pgdb

import (
	"context"
	"fmt"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/DRSN-tech/tourism-backend/pkg/tr"
	"github.com/jimlawless/whereami"
)

const (
	FavoritesTable = "favorites"
	CartTable      = "cart_items"
)

// SavedItemRepo обслуживает таблицы с одинаковой схемой: избранное и корзину.
type SavedItemRepo struct {
	pool  DB
	conv  converter.SavedItemConverter
	table string
}

func NewFavoriteRepo(pool DB, conv converter.SavedItemConverter) *SavedItemRepo {
	return &SavedItemRepo{pool: pool, conv: conv, table: FavoritesTable}
}

func NewCartRepo(pool DB, conv converter.SavedItemConverter) *SavedItemRepo {
	return &SavedItemRepo{pool: pool, conv: conv, table: CartTable}
}

// Add вставляет запись, а при конфликте возвращает уже существующую.
func (s *SavedItemRepo) Add(ctx context.Context, item *domain.SavedItem) (*domain.SavedItem, bool, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, false, e.Wrap(whereami.WhereAmI(), err)
	}

	model := s.conv.ToModel(item)
	query := fmt.Sprintf(`
		WITH ins AS (
			INSERT INTO %[1]s (user_id, item_id, category, name, image_url, location)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (user_id, item_id, category) DO NOTHING
			RETURNING id, user_id, item_id, category, name, image_url, location, created_at
		)
		SELECT id, user_id, item_id, category, name, image_url, location, created_at, true AS created
		FROM ins

		UNION ALL

		SELECT id, user_id, item_id, category, name, image_url, location, created_at, false AS created
		FROM %[1]s
		WHERE user_id = $1 AND item_id = $2 AND category = $3
		  AND NOT EXISTS (SELECT 1 FROM ins);
	`, s.table)

	var (
		saved   converter.SavedItemModel
		created bool
	)
	err = tx.QueryRow(ctx, query,
		model.UserID, model.ItemID, model.Category, model.Name, model.ImageURL, model.Location,
	).Scan(
		&saved.ID, &saved.UserID, &saved.ItemID, &saved.Category,
		&saved.Name, &saved.ImageURL, &saved.Location, &saved.CreatedAt, &created,
	)
	if err != nil {
		return nil, false, e.Wrap(whereami.WhereAmI(), err)
	}

	return s.conv.ToEntity(&saved), created, nil
}

func (s *SavedItemRepo) List(ctx context.Context, userID int64) ([]domain.SavedItem, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, item_id, category, name, image_url, location, created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC;
	`, s.table)

	rows, err := conn(ctx, s.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.SavedItem, 0)
	for rows.Next() {
		var model converter.SavedItemModel
		if err := rows.Scan(
			&model.ID, &model.UserID, &model.ItemID, &model.Category,
			&model.Name, &model.ImageURL, &model.Location, &model.CreatedAt,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		result = append(result, *s.conv.ToEntity(&model))
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

func (s *SavedItemRepo) Remove(ctx context.Context, userID int64, itemID string, category domain.Category) (bool, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1 AND item_id = $2 AND category = $3;`, s.table)

	tag, err := tx.Exec(ctx, query, userID, itemID, string(category))
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return tag.RowsAffected() > 0, nil
}

func (s *SavedItemRepo) Clear(ctx context.Context, userID int64) (int64, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	tag, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1;`, s.table), userID)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return tag.RowsAffected(), nil
}
