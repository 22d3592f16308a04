package cart

import (
	"errors"
	"time"

	"github.com/upskillvod/checkout/core/course"
	"github.com/upskillvod/checkout/validate"
)

// Cart is the user's pre-purchase selection. The ID is assigned here, at
// construction, and nowhere else: a persisted cart can never carry a zero
// identifier, and Order creation asserts on it again before commit.
type Cart struct {
	ID        string    `json:"id" db:"cart_id"`
	UserID    string    `json:"-" db:"user_id"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
	Version   int       `json:"-" db:"version"`
	Items     []Item    `json:"items" db:"-"`
}

func New(userID string, ttl time.Duration) (Cart, error) {
	if userID == "" {
		return Cart{}, errors.New("cart owner must not be empty")
	}

	now := time.Now().UTC()
	return Cart{
		ID:        validate.GenerateID(),
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}, nil
}

func (c Cart) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

func (c Cart) Empty() bool {
	return len(c.Items) == 0
}

// Item carries a snapshot of the course captured when it entered the cart.
// The snapshot is never refreshed from the live course row; drift between the
// two is flagged by the checkout validation, not silently corrected.
type Item struct {
	CartID       string    `json:"-" db:"cart_id"`
	CourseID     string    `json:"courseId" db:"course_id"`
	Title        string    `json:"title" db:"title"`
	ThumbnailURL string    `json:"thumbnailUrl" db:"thumbnail_url"`
	Instructor   string    `json:"instructor" db:"instructor"`
	Price        int       `json:"price" db:"price"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

func Snapshot(cartID string, c course.Course) Item {
	return Item{
		CartID:       cartID,
		CourseID:     c.ID,
		Title:        c.Title,
		ThumbnailURL: c.ThumbnailURL,
		Instructor:   c.Instructor,
		Price:        c.Price,
		CreatedAt:    time.Now().UTC(),
	}
}

type ItemNew struct {
	CourseID string `json:"courseId" validate:"required,uuid4"`
}
