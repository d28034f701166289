package types

import "time"

// Sender identifies who produced a chat entry.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderPending   Sender = "assistant-pending"
	SenderAssistant Sender = "assistant"
	SenderWelcome   Sender = "system-welcome"
)

// ChatEntry is one item in a conversation history. Insertion order is display
// order and is never reordered; a pending entry is replaced in place (same ID)
// when its turn settles.
type ChatEntry struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	Language  string    `json:"language,omitempty"`
	Animate   bool      `json:"animate,omitempty"`
	FollowUps []string  `json:"follow_ups,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Reaction is the presentational like/dislike state for a message.
type Reaction string

const (
	ReactionLike    Reaction = "like"
	ReactionDislike Reaction = "dislike"
)

// Snapshot is a read-only view of the business data the assistant answers
// about. JSON tags match the contextData shape of the inference request.
type Snapshot struct {
	Sales       []Sale     `json:"sales"`
	Expenses    []Expense  `json:"expenses"`
	Products    []Product  `json:"products"`
	Customers   []Customer `json:"customers"`
	Users       []User     `json:"users"`
	Currency    string     `json:"currency"`
	CurrentUser string     `json:"currentUser"`
}

type Sale struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id,omitempty"`
	Total      float64   `json:"total"`
	Date       time.Time `json:"date,omitempty"`
}

type Expense struct {
	ID          string  `json:"id"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount"`
}

type Product struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Stock int     `json:"stock"`
	Price float64 `json:"price"`
	Cost  float64 `json:"cost"`
}

type Customer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
