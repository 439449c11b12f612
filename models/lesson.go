package models

// Lesson is a document written in the lesson editor.
type Lesson struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Body  string   `json:"body,omitempty"`
	Tags  []string `json:"tags,omitempty"`

	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt,omitempty"`

	Deleted   bool  `json:"isDeleted,omitempty"`
	DeletedAt int64 `json:"deletedAt,omitempty"`
}

// GetID implements Record.
func (l Lesson) GetID() string { return l.ID }

// IsDeleted implements Record.
func (l Lesson) IsDeleted() bool { return l.Deleted }
