package converter

import "time"

// UserModel представляет запись таблицы users в PostgreSQL.
type UserModel struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// SavedItemModel представляет запись таблиц favorites и cart_items.
type SavedItemModel struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	ItemID    string    `db:"item_id"`
	Category  string    `db:"category"`
	Name      string    `db:"name"`
	ImageURL  string    `db:"image_url"`
	Location  string    `db:"location"`
	CreatedAt time.Time `db:"created_at"`
}

// ItineraryModel представляет запись таблицы itineraries.
type ItineraryModel struct {
	ID        int64      `db:"id"`
	UserID    int64      `db:"user_id"`
	Title     string     `db:"title"`
	StartDate *time.Time `db:"start_date"`
	EndDate   *time.Time `db:"end_date"`
	CreatedAt time.Time  `db:"created_at"`
}

// ItineraryDetailModel представляет запись таблицы itinerary_details.
type ItineraryDetailModel struct {
	ID          int64  `db:"id"`
	ItineraryID int64  `db:"itinerary_id"`
	DayNumber   int32  `db:"day_number"`
	ItemID      string `db:"item_id"`
	Name        string `db:"name"`
	Category    string `db:"category"`
	ImageURL    string `db:"image_url"`
	Location    string `db:"location"`
	SortOrder   int32  `db:"sort_order"`
	StartTime   string `db:"start_time"`
	EndTime     string `db:"end_time"`
}

// OutboxEventModel представляет запись таблицы outbox_events.
type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	AggregateID string     `db:"aggregate_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}
