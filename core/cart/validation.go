package cart

import (
	"fmt"
	"time"

	"github.com/upskillvod/checkout/config"
	"github.com/upskillvod/checkout/core/course"
)

// Validator is the stateless gate in front of every cart mutation and every
// checkout. It holds policy only; all data it judges is passed in.
type Validator struct {
	DriftMode      string
	DriftTolerance int
}

func NewValidator(cfg config.Checkout) Validator {
	return Validator{
		DriftMode:      cfg.DriftMode,
		DriftTolerance: cfg.DriftTolerance,
	}
}

// CheckAdd guards a course entering a cart. The duplicate case is not an
// error: AddCourse treats an already-present course as a no-op success.
func (v Validator) CheckAdd(c course.Course, enrolled bool) error {
	if !c.Purchasable() {
		return ErrCourseNotPublished
	}
	if enrolled {
		return ErrAlreadyEnrolled
	}
	return nil
}

// Drift records a live course price that moved away from the cart snapshot.
type Drift struct {
	CourseID string `json:"courseId"`
	Snapshot int    `json:"snapshot"`
	Live     int    `json:"live"`
}

// Checkout is the validated, checkout-eligible view of a cart returned by
// CheckCheckout. Warnings is only populated in warn mode.
type Checkout struct {
	Cart     Cart    `json:"cart"`
	Total    int     `json:"total"`
	Warnings []Drift `json:"warnings,omitempty"`
}

// CheckCheckout validates a cart for checkout against the live course rows.
// The total comes from the snapshots, never from the live prices: drift is
// flagged, not corrected.
func (v Validator) CheckCheckout(c Cart, live map[string]course.Course, now time.Time) (Checkout, error) {
	if c.Empty() {
		return Checkout{}, ErrEmptyCart
	}
	if c.Expired(now) {
		return Checkout{}, ErrCartExpired
	}

	var drifts []Drift
	var total int
	for _, it := range c.Items {
		total += it.Price

		lc, ok := live[it.CourseID]
		if !ok {
			return Checkout{}, fmt.Errorf("course[%s]: %w", it.CourseID, ErrCourseNotFound)
		}
		if !lc.Purchasable() {
			return Checkout{}, fmt.Errorf("course[%s]: %w", it.CourseID, ErrCourseNotPublished)
		}

		if exceeds(it.Price, lc.Price, v.DriftTolerance) {
			drifts = append(drifts, Drift{CourseID: it.CourseID, Snapshot: it.Price, Live: lc.Price})
		}
	}

	if len(drifts) > 0 && v.DriftMode != config.DriftWarn {
		return Checkout{}, fmt.Errorf("course[%s] moved from %d to %d: %w",
			drifts[0].CourseID, drifts[0].Snapshot, drifts[0].Live, ErrPriceDrift)
	}

	return Checkout{Cart: c, Total: total, Warnings: drifts}, nil
}

func exceeds(snapshot, live, tolerance int) bool {
	d := live - snapshot
	if d < 0 {
		d = -d
	}
	return d > tolerance
}
