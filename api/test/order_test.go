package test

import (
	"net/http"
	"sync"
	"testing"

	"github.com/upskillvod/checkout/core/order"
)

type orderTest struct {
	*TestEnv
}

func TestCheckout(t *testing.T) {
	env, err := NewTestEnv(t, "order_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}
	ot := &orderTest{env}

	cA := ot.createCourseOK(t, 100000)
	cB := ot.createCourseOK(t, 50000)

	if err := ot.Login(ot.UserEmail, ot.UserPass); err != nil {
		t.Fatal(err)
	}

	ot.addItemOK(t, cA.ID)
	ot.addItemOK(t, cB.ID)

	ord := ot.testTotals(t)
	ot.testIdempotentReplay(t, ord)
	ot.testSnapshotFrozen(t, ord, cA.ID)
	ot.testConcurrentDoubleSubmit(t)
}

func (ot *orderTest) testTotals(t *testing.T) order.Order {
	ord := ot.checkoutOK(t, "checkout-key-1")

	if ord.Total != 150000 {
		t.Fatalf("expected total 150000, got %d", ord.Total)
	}
	if ord.Status != order.PendingPayment {
		t.Fatalf("expected status %s, got %s", order.PendingPayment, ord.Status)
	}
	if ord.CartID == "" {
		t.Fatal("order must reference its cart")
	}
	return ord
}

// A replay with the same key returns the same order, not a duplicate.
func (ot *orderTest) testIdempotentReplay(t *testing.T, ord order.Order) {
	again := ot.checkoutOK(t, "checkout-key-1")
	if again.ID != ord.ID {
		t.Fatalf("replay created order[%s], want order[%s]", again.ID, ord.ID)
	}

	var count int
	if err := ot.DB.Get(&count, "SELECT COUNT(*) FROM orders"); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one order, found %d", count)
	}
}

// Orders are immutable audit records: a later price change must not reach an
// existing snapshot or total.
func (ot *orderTest) testSnapshotFrozen(t *testing.T, ord order.Order, courseID string) {
	ot.setCoursePrice(t, courseID, 999999)
	if err := ot.Login(ot.UserEmail, ot.UserPass); err != nil {
		t.Fatal(err)
	}

	st := ot.orderStatusOK(t, ord.ID)
	if st.Order.Total != 150000 {
		t.Fatalf("order total drifted to %d after a price change", st.Order.Total)
	}

	items, err := st.Order.Items()
	if err != nil {
		t.Fatal(err)
	}
	for _, it := range items {
		if it.CourseID == courseID && it.Price != 100000 {
			t.Fatalf("snapshot price drifted to %d", it.Price)
		}
	}

	ot.setCoursePrice(t, courseID, 100000)
	if err := ot.Login(ot.UserEmail, ot.UserPass); err != nil {
		t.Fatal(err)
	}
}

// Two concurrent checkouts sharing a key must resolve to one order, with
// both callers seeing the same identifier.
func (ot *orderTest) testConcurrentDoubleSubmit(t *testing.T) {
	const key = "double-submit-key"

	ids := make([]string, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			r, err := http.NewRequest(http.MethodPost, ot.URL+"/orders", nil)
			if err != nil {
				t.Error(err)
				return
			}
			r.Header.Set(order.IdempotencyHeader, key)

			w, err := ot.Client().Do(r)
			if err != nil {
				t.Error(err)
				return
			}
			defer w.Body.Close()

			if w.StatusCode != http.StatusCreated {
				t.Errorf("concurrent checkout: status %s", w.Status)
				return
			}

			var ord order.Order
			if err := decodeBody(w, &ord); err != nil {
				t.Error(err)
				return
			}
			ids[i] = ord.ID
		}(i)
	}
	wg.Wait()

	if ids[0] == "" || ids[0] != ids[1] {
		t.Fatalf("concurrent checkouts diverged: %q vs %q", ids[0], ids[1])
	}

	var count int
	if err := ot.DB.Get(&count, "SELECT COUNT(*) FROM orders WHERE idempotency_key = $1", key); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one order for the shared key, found %d", count)
	}
}

func TestFreeCourseShortcut(t *testing.T) {
	env, err := NewTestEnv(t, "free_order_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}
	ot := &orderTest{env}

	free := ot.createCourseOK(t, 0)

	if err := ot.Login(ot.UserEmail, ot.UserPass); err != nil {
		t.Fatal(err)
	}
	ot.addItemOK(t, free.ID)

	ord := ot.checkoutOK(t, "")
	if ord.Total != 0 {
		t.Fatalf("expected zero total, got %d", ord.Total)
	}
	if ord.Status != order.Completed {
		t.Fatalf("free checkout must complete immediately, got %s", ord.Status)
	}

	es := ot.ownedOK(t)
	if len(es) != 1 || es[0].CourseID != free.ID {
		t.Fatalf("expected an immediate enrollment, got %+v", es)
	}

	if c := ot.cartOK(t); len(c.Items) != 0 {
		t.Fatalf("cart must be cleared after a free checkout, got %d items", len(c.Items))
	}

	// No payment attempt exists on the shortcut path.
	var count int
	if err := ot.DB.Get(&count, "SELECT COUNT(*) FROM payment_attempts"); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("free checkout must skip payment attempts, found %d", count)
	}
}
