package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/upskillvod/checkout/core/cart"
	"github.com/upskillvod/checkout/core/course"
	"github.com/upskillvod/checkout/core/enrollment"
	"github.com/upskillvod/checkout/core/order"
	"github.com/upskillvod/checkout/core/payment"
)

func (te *TestEnv) signup(email string, pass string) error {
	body := map[string]string{"name": "tester", "email": email, "password": pass}
	w, err := te.do(http.MethodPost, "/auth/signup", body, nil)
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusCreated {
		return fmt.Errorf("signup of %s: status %s", email, w.Status)
	}
	return nil
}

func (te *TestEnv) Login(email string, pass string) error {
	body := map[string]string{"email": email, "password": pass}
	w, err := te.do(http.MethodPost, "/auth/login", body, nil)
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		return fmt.Errorf("login of %s: status %s", email, w.Status)
	}
	return nil
}

func (te *TestEnv) Logout() error {
	w, err := te.do(http.MethodPost, "/auth/logout", nil, nil)
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusNoContent {
		return fmt.Errorf("logout: status %s", w.Status)
	}
	return nil
}

func (te *TestEnv) do(method string, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}

	r, err := http.NewRequest(method, te.URL+path, &buf)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		r.Header.Set(k, v)
	}

	return te.client.Do(r)
}

func decodeBody(w *http.Response, out interface{}) error {
	return json.NewDecoder(w.Body).Decode(out)
}

// doJSON runs the request and decodes the body into out, failing the test on
// an unexpected status code.
func (te *TestEnv) doJSON(t *testing.T, method string, path string, body interface{}, headers map[string]string, wantStatus int, out interface{}) {
	t.Helper()

	w, err := te.do(method, path, body, headers)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer w.Body.Close()

	if w.StatusCode != wantStatus {
		t.Fatalf("%s %s: status %s, want %d", method, path, w.Status, wantStatus)
	}

	if out != nil {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decoding response: %v", method, path, err)
		}
	}
}

// errorCode runs the request expecting a coded error response.
func (te *TestEnv) errorCode(t *testing.T, method string, path string, body interface{}) string {
	t.Helper()

	w, err := te.do(method, path, body, nil)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer w.Body.Close()

	if w.StatusCode < 400 {
		t.Fatalf("%s %s: expected an error, got status %s", method, path, w.Status)
	}

	var er struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(w.Body).Decode(&er); err != nil {
		t.Fatalf("%s %s: decoding error response: %v", method, path, err)
	}
	return er.Code
}

// createCourseOK creates and publishes a course as the admin, leaving the
// session back with the regular user.
func (te *TestEnv) createCourseOK(t *testing.T, price int) course.Course {
	t.Helper()

	if err := te.Login(te.AdminEmail, te.AdminPass); err != nil {
		t.Fatal(err)
	}

	var c course.Course
	te.doJSON(t, http.MethodPost, "/courses", map[string]interface{}{
		"title":        "test course",
		"description":  "a course for tests",
		"thumbnailUrl": "https://cdn.test/thumb.png",
		"instructor":   "jane doe",
		"price":        price,
	}, nil, http.StatusCreated, &c)

	status := string(course.Published)
	te.doJSON(t, http.MethodPut, "/courses/"+c.ID, map[string]interface{}{
		"status": status,
	}, nil, http.StatusOK, &c)

	if err := te.Logout(); err != nil {
		t.Fatal(err)
	}
	return c
}

func (te *TestEnv) setCoursePrice(t *testing.T, id string, price int) {
	t.Helper()

	if err := te.Login(te.AdminEmail, te.AdminPass); err != nil {
		t.Fatal(err)
	}
	te.doJSON(t, http.MethodPut, "/courses/"+id, map[string]interface{}{"price": price}, nil, http.StatusOK, nil)
	if err := te.Logout(); err != nil {
		t.Fatal(err)
	}
}

func (te *TestEnv) addItemOK(t *testing.T, courseID string) cart.Cart {
	t.Helper()

	var c cart.Cart
	te.doJSON(t, http.MethodPut, "/cart/items", map[string]string{"courseId": courseID}, nil, http.StatusOK, &c)
	return c
}

func (te *TestEnv) checkoutOK(t *testing.T, key string) order.Order {
	t.Helper()

	var headers map[string]string
	if key != "" {
		headers = map[string]string{order.IdempotencyHeader: key}
	}

	var ord order.Order
	te.doJSON(t, http.MethodPost, "/orders", nil, headers, http.StatusCreated, &ord)
	return ord
}

func (te *TestEnv) initiateOK(t *testing.T, orderID string) payment.Attempt {
	t.Helper()

	var a payment.Attempt
	te.doJSON(t, http.MethodPost, "/orders/"+orderID+"/attempts", nil, nil, http.StatusCreated, &a)
	return a
}

func (te *TestEnv) uploadReceiptOK(t *testing.T, attemptID string) payment.Attempt {
	t.Helper()

	var a payment.Attempt
	te.doJSON(t, http.MethodPut, "/attempts/"+attemptID+"/receipt", map[string]string{
		"imageUrl": "https://cdn.test/receipts/slip.jpg",
		"filename": "slip.jpg",
	}, nil, http.StatusOK, &a)
	return a
}

// decideOK settles an attempt as the admin and restores the user session.
func (te *TestEnv) decideOK(t *testing.T, attemptID string, approve bool, reason string) payment.Attempt {
	t.Helper()

	if err := te.Login(te.AdminEmail, te.AdminPass); err != nil {
		t.Fatal(err)
	}

	var a payment.Attempt
	te.doJSON(t, http.MethodPost, "/attempts/"+attemptID+"/decision", map[string]interface{}{
		"approve": approve,
		"reason":  reason,
	}, nil, http.StatusOK, &a)

	if err := te.Logout(); err != nil {
		t.Fatal(err)
	}
	if err := te.Login(te.UserEmail, te.UserPass); err != nil {
		t.Fatal(err)
	}
	return a
}

func (te *TestEnv) ownedOK(t *testing.T) []enrollment.Enrollment {
	t.Helper()

	var es []enrollment.Enrollment
	te.doJSON(t, http.MethodGet, "/courses/owned", nil, nil, http.StatusOK, &es)
	return es
}

func (te *TestEnv) cartOK(t *testing.T) cart.Cart {
	t.Helper()

	var c cart.Cart
	te.doJSON(t, http.MethodGet, "/cart", nil, nil, http.StatusOK, &c)
	return c
}

func (te *TestEnv) orderStatusOK(t *testing.T, orderID string) payment.OrderStatus {
	t.Helper()

	var st payment.OrderStatus
	te.doJSON(t, http.MethodGet, "/orders/"+orderID+"/status", nil, nil, http.StatusOK, &st)
	return st
}
