package cart

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/upskillvod/checkout/config"
	"github.com/upskillvod/checkout/core/course"
)

func published(id string, price int) course.Course {
	return course.Course{ID: id, Title: "course " + id, Price: price, Status: course.Published}
}

func testCart(items ...Item) Cart {
	c, _ := New("user-1", time.Hour)
	c.Items = items
	return c
}

func TestCheckAdd(t *testing.T) {
	v := Validator{DriftMode: config.DriftBlock}

	if err := v.CheckAdd(published("a", 100), false); err != nil {
		t.Fatalf("adding a published course: %v", err)
	}

	draft := published("a", 100)
	draft.Status = course.Draft
	if err := v.CheckAdd(draft, false); !errors.Is(err, ErrCourseNotPublished) {
		t.Fatalf("expected ErrCourseNotPublished, got %v", err)
	}

	if err := v.CheckAdd(published("a", 100), true); !errors.Is(err, ErrAlreadyEnrolled) {
		t.Fatalf("expected ErrAlreadyEnrolled, got %v", err)
	}
}

func TestCheckCheckoutEmptyAndExpired(t *testing.T) {
	v := Validator{DriftMode: config.DriftBlock}
	now := time.Now().UTC()

	if _, err := v.CheckCheckout(testCart(), nil, now); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}

	c := testCart(Item{CourseID: "a", Title: "t", Price: 100})
	if _, err := v.CheckCheckout(c, map[string]course.Course{"a": published("a", 100)}, now.Add(2*time.Hour)); !errors.Is(err, ErrCartExpired) {
		t.Fatalf("expected ErrCartExpired, got %v", err)
	}
}

func TestCheckCheckoutTotalFromSnapshots(t *testing.T) {
	v := Validator{DriftMode: config.DriftBlock}
	now := time.Now().UTC()

	c := testCart(
		Item{CourseID: "a", Title: "course a", Price: 100000},
		Item{CourseID: "b", Title: "course b", Price: 50000},
	)
	live := map[string]course.Course{
		"a": published("a", 100000),
		"b": published("b", 50000),
	}

	co, err := v.CheckCheckout(c, live, now)
	if err != nil {
		t.Fatalf("validating cart: %v", err)
	}

	if co.Total != 150000 {
		t.Fatalf("expected total 150000, got %d", co.Total)
	}
	if len(co.Warnings) != 0 {
		t.Fatalf("expected no drift warnings, got %v", co.Warnings)
	}
}

func TestCheckCheckoutDrift(t *testing.T) {
	now := time.Now().UTC()

	c := testCart(Item{CourseID: "a", Title: "course a", Price: 100000})
	live := map[string]course.Course{"a": published("a", 120000)}

	block := Validator{DriftMode: config.DriftBlock}
	if _, err := block.CheckCheckout(c, live, now); !errors.Is(err, ErrPriceDrift) {
		t.Fatalf("expected ErrPriceDrift in block mode, got %v", err)
	}

	// Inside tolerance no drift is reported at all.
	tolerant := Validator{DriftMode: config.DriftBlock, DriftTolerance: 20000}
	co, err := tolerant.CheckCheckout(c, live, now)
	if err != nil {
		t.Fatalf("validating within tolerance: %v", err)
	}
	if len(co.Warnings) != 0 {
		t.Fatalf("expected no warnings within tolerance, got %v", co.Warnings)
	}

	// Warn mode proceeds on the snapshot price and surfaces the drift.
	warn := Validator{DriftMode: config.DriftWarn}
	co, err = warn.CheckCheckout(c, live, now)
	if err != nil {
		t.Fatalf("validating in warn mode: %v", err)
	}
	if co.Total != 100000 {
		t.Fatalf("total must come from the snapshot, got %d", co.Total)
	}

	want := []Drift{{CourseID: "a", Snapshot: 100000, Live: 120000}}
	if diff := cmp.Diff(want, co.Warnings); diff != "" {
		t.Fatalf("unexpected warnings (-want +got):\n%s", diff)
	}
}

func TestCheckCheckoutUnpublishedAndMissing(t *testing.T) {
	v := Validator{DriftMode: config.DriftBlock}
	now := time.Now().UTC()
	c := testCart(Item{CourseID: "a", Title: "course a", Price: 100})

	if _, err := v.CheckCheckout(c, map[string]course.Course{}, now); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}

	archived := published("a", 100)
	archived.Status = course.Archived
	if _, err := v.CheckCheckout(c, map[string]course.Course{"a": archived}, now); !errors.Is(err, ErrCourseNotPublished) {
		t.Fatalf("expected ErrCourseNotPublished, got %v", err)
	}
}

func TestNewCartAlwaysHasID(t *testing.T) {
	c, err := New("user-1", time.Hour)
	if err != nil {
		t.Fatalf("creating cart: %v", err)
	}
	if c.ID == "" {
		t.Fatal("cart must never carry an empty identifier")
	}

	if _, err := New("", time.Hour); err == nil {
		t.Fatal("cart without an owner must be rejected")
	}
}
