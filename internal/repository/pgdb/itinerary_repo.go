package pgdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/tourism-backend/internal/usecase"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/DRSN-tech/tourism-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jimlawless/whereami"
)

// ItineraryRepo хранит маршруты и их пункты.
type ItineraryRepo struct {
	pool DB
	conv converter.ItineraryConverter
}

func NewItineraryRepo(pool DB, conv converter.ItineraryConverter) *ItineraryRepo {
	return &ItineraryRepo{
		pool: pool,
		conv: conv,
	}
}

func (i *ItineraryRepo) Create(ctx context.Context, itinerary *domain.Itinerary) (*domain.Itinerary, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model := i.conv.ToModel(itinerary)
	query := `
		INSERT INTO itineraries (user_id, title, start_date, end_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at;
	`

	if err := tx.QueryRow(ctx, query, model.UserID, model.Title, model.StartDate, model.EndDate).
		Scan(&model.ID, &model.CreatedAt); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return i.conv.ToEntity(model), nil
}

func (i *ItineraryRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Itinerary, error) {
	query := `
		SELECT id, user_id, title, start_date, end_date, created_at
		FROM itineraries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC;
	`

	rows, err := conn(ctx, i.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Itinerary, 0)
	for rows.Next() {
		var model converter.ItineraryModel
		if err := rows.Scan(
			&model.ID, &model.UserID, &model.Title, &model.StartDate, &model.EndDate, &model.CreatedAt,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		result = append(result, *i.conv.ToEntity(&model))
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

// Get читает маршрут пользователя с пунктами, упорядоченными по дню и позиции.
func (i *ItineraryRepo) Get(ctx context.Context, userID, itineraryID int64) (*domain.Itinerary, error) {
	q := conn(ctx, i.pool)

	query := `
		SELECT id, user_id, title, start_date, end_date, created_at
		FROM itineraries
		WHERE id = $1 AND user_id = $2;
	`

	var model converter.ItineraryModel
	err := q.QueryRow(ctx, query, itineraryID, userID).Scan(
		&model.ID, &model.UserID, &model.Title, &model.StartDate, &model.EndDate, &model.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: itinerary %d: %w", whereami.WhereAmI(), itineraryID, e.ErrNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	itinerary := i.conv.ToEntity(&model)

	detailsQuery := `
		SELECT id, itinerary_id, day_number, item_id, name, category, image_url, location,
		       sort_order, start_time, end_time
		FROM itinerary_details
		WHERE itinerary_id = $1
		ORDER BY day_number, sort_order, id;
	`

	rows, err := q.Query(ctx, detailsQuery, itineraryID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	itinerary.Details = make([]domain.ItineraryDetail, 0)
	for rows.Next() {
		var d converter.ItineraryDetailModel
		if err := rows.Scan(
			&d.ID, &d.ItineraryID, &d.DayNumber, &d.ItemID, &d.Name, &d.Category,
			&d.ImageURL, &d.Location, &d.SortOrder, &d.StartTime, &d.EndTime,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		itinerary.Details = append(itinerary.Details, *i.conv.DetailToEntity(&d))
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return itinerary, nil
}

func (i *ItineraryRepo) Delete(ctx context.Context, userID, itineraryID int64) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM itineraries WHERE id = $1 AND user_id = $2;`, itineraryID, userID)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: itinerary %d: %w", whereami.WhereAmI(), itineraryID, e.ErrNotFound)
	}

	return nil
}

func (i *ItineraryRepo) AddDetail(ctx context.Context, detail *domain.ItineraryDetail) (*domain.ItineraryDetail, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model := i.conv.DetailToModel(detail)
	query := `
		INSERT INTO itinerary_details (
			itinerary_id, day_number, item_id, name, category, image_url, location,
			sort_order, start_time, end_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id;
	`

	if err := tx.QueryRow(ctx, query,
		model.ItineraryID, model.DayNumber, model.ItemID, model.Name, model.Category,
		model.ImageURL, model.Location, model.SortOrder, model.StartTime, model.EndTime,
	).Scan(&model.ID); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return i.conv.DetailToEntity(model), nil
}

// UpdatePositions переставляет пункты маршрута. Пункт чужого маршрута даёт e.ErrNotFound.
func (i *ItineraryRepo) UpdatePositions(ctx context.Context, itineraryID int64, positions []usecase.DetailPosition) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE itinerary_details
		SET day_number = $1, sort_order = $2
		WHERE id = $3 AND itinerary_id = $4;
	`

	for _, p := range positions {
		tag, err := tx.Exec(ctx, query, int32(p.DayNumber), int32(p.SortOrder), p.DetailID, itineraryID)
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%s: detail %d: %w", whereami.WhereAmI(), p.DetailID, e.ErrNotFound)
		}
	}

	return nil
}
