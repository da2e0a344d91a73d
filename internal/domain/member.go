package domain

import "time"

// User — зарегистрированный пользователь.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// SavedItem — снимок точки интереса, сохранённый пользователем (избранное, корзина).
type SavedItem struct {
	ID        int64
	UserID    int64
	ItemID    string
	Category  Category
	Name      string
	ImageURL  string
	Location  string
	CreatedAt time.Time
}

// Favorite — запись в избранном.
type Favorite = SavedItem

// CartItem — запись в корзине планировщика.
type CartItem = SavedItem

// Itinerary — маршрут пользователя.
type Itinerary struct {
	ID        int64
	UserID    int64
	Title     string
	StartDate *time.Time
	EndDate   *time.Time
	CreatedAt time.Time
	Details   []ItineraryDetail
}

// ItineraryDetail — пункт маршрута. Порядок задаётся парой (DayNumber, SortOrder).
type ItineraryDetail struct {
	ID          int64
	ItineraryID int64
	DayNumber   int
	ItemID      string
	Name        string
	Category    Category
	ImageURL    string
	Location    string
	SortOrder   int
	StartTime   string // "09:00"
	EndTime     string
}
