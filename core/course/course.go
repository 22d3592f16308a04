package course

import "time"

type Status string

const (
	Draft     Status = "draft"
	Published Status = "published"
	Archived  Status = "archived"
)

type Course struct {
	ID           string    `json:"id" db:"course_id"`
	Title        string    `json:"title" db:"title"`
	Description  string    `json:"description" db:"description"`
	ThumbnailURL string    `json:"thumbnailUrl" db:"thumbnail_url"`
	Instructor   string    `json:"instructor" db:"instructor"`
	Price        int       `json:"price" db:"price"`
	Status       Status    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
	Version      int       `json:"-" db:"version"`
}

// Purchasable reports whether the course may enter a cart.
func (c Course) Purchasable() bool {
	return c.Status == Published
}

type CourseNew struct {
	Title        string `json:"title" validate:"required"`
	Description  string `json:"description" validate:"required"`
	ThumbnailURL string `json:"thumbnailUrl" validate:"required"`
	Instructor   string `json:"instructor" validate:"required"`
	Price        int    `json:"price" validate:"gte=0"`
}

type CourseUp struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	ThumbnailURL *string `json:"thumbnailUrl"`
	Instructor   *string `json:"instructor"`
	Price        *int    `json:"price" validate:"omitempty,gte=0"`
	Status       *Status `json:"status" validate:"omitempty,oneof=draft published archived"`
}
