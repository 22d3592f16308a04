package test

import (
	"net/http"
	"testing"
)

type cartTest struct {
	*TestEnv
}

func TestCart(t *testing.T) {
	env, err := NewTestEnv(t, "cart_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}
	ct := &cartTest{env}

	c1 := ct.createCourseOK(t, 100000)
	c2 := ct.createCourseOK(t, 50000)

	if err := ct.Login(ct.UserEmail, ct.UserPass); err != nil {
		t.Fatal(err)
	}

	ct.testAddIsIdempotent(t, c1.ID)
	ct.testSnapshotCaptured(t, c1.ID, 100000)
	ct.testRemoveIsNoop(t, c2.ID)
	ct.testDriftBlocksCheckout(t, c1.ID)
}

// Adding the same course twice must leave exactly one item.
func (ct *cartTest) testAddIsIdempotent(t *testing.T, courseID string) {
	first := ct.addItemOK(t, courseID)
	second := ct.addItemOK(t, courseID)

	if len(second.Items) != 1 {
		t.Fatalf("expected one item after duplicate add, got %d", len(second.Items))
	}
	if first.ID != second.ID || second.ID == "" {
		t.Fatalf("duplicate add must not fork the cart: %q vs %q", first.ID, second.ID)
	}
}

func (ct *cartTest) testSnapshotCaptured(t *testing.T, courseID string, price int) {
	c := ct.cartOK(t)

	if len(c.Items) != 1 {
		t.Fatalf("expected one item, got %d", len(c.Items))
	}
	it := c.Items[0]
	if it.CourseID != courseID || it.Price != price || it.Title == "" || it.Instructor == "" {
		t.Fatalf("item snapshot incomplete: %+v", it)
	}
}

// Removing a course that is not in the cart is a success, not an error.
func (ct *cartTest) testRemoveIsNoop(t *testing.T, absentCourseID string) {
	ct.doJSON(t, http.MethodDelete, "/cart/items/"+absentCourseID, nil, nil, http.StatusNoContent, nil)

	c := ct.cartOK(t)
	if len(c.Items) != 1 {
		t.Fatalf("remove of an absent item changed the cart: %d items", len(c.Items))
	}
}

// A live price change must not touch the snapshot, and checkout validation
// must flag the drift instead of silently proceeding.
func (ct *cartTest) testDriftBlocksCheckout(t *testing.T, courseID string) {
	ct.setCoursePrice(t, courseID, 175000)

	if err := ct.Login(ct.UserEmail, ct.UserPass); err != nil {
		t.Fatal(err)
	}

	c := ct.cartOK(t)
	if c.Items[0].Price != 100000 {
		t.Fatalf("snapshot was refreshed to %d, must stay 100000", c.Items[0].Price)
	}

	if code := ct.errorCode(t, http.MethodPost, "/cart/validate", nil); code != "PRICE_DRIFT" {
		t.Fatalf("expected PRICE_DRIFT, got %q", code)
	}

	// Restoring the price clears the drift.
	ct.setCoursePrice(t, courseID, 100000)
	if err := ct.Login(ct.UserEmail, ct.UserPass); err != nil {
		t.Fatal(err)
	}
	ct.doJSON(t, http.MethodPost, "/cart/validate", nil, nil, http.StatusOK, nil)
}

func TestCartValidationCodes(t *testing.T) {
	env, err := NewTestEnv(t, "cart_codes_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	if err := env.Login(env.UserEmail, env.UserPass); err != nil {
		t.Fatal(err)
	}

	if code := env.errorCode(t, http.MethodPost, "/cart/validate", nil); code != "EMPTY_CART" {
		t.Fatalf("expected EMPTY_CART, got %q", code)
	}

	// A draft course cannot be added at all.
	if err := env.Login(env.AdminEmail, env.AdminPass); err != nil {
		t.Fatal(err)
	}
	var draft struct {
		ID string `json:"id"`
	}
	env.doJSON(t, http.MethodPost, "/courses", map[string]interface{}{
		"title":        "unpublished",
		"description":  "not for sale",
		"thumbnailUrl": "https://cdn.test/t.png",
		"instructor":   "jane doe",
		"price":        1000,
	}, nil, http.StatusCreated, &draft)
	if err := env.Logout(); err != nil {
		t.Fatal(err)
	}

	if err := env.Login(env.UserEmail, env.UserPass); err != nil {
		t.Fatal(err)
	}
	if code := env.errorCode(t, http.MethodPut, "/cart/items", map[string]string{"courseId": draft.ID}); code != "COURSE_NOT_PUBLISHED" {
		t.Fatalf("expected COURSE_NOT_PUBLISHED, got %q", code)
	}
}
