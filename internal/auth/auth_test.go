package auth

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestSessionRoundTrip(t *testing.T) {
	w := httptest.NewRecorder()
	CreateSession(w, 42)
	res := w.Result()
	if len(res.Cookies()) != 1 {
		t.Fatalf("expected one cookie, got %d", len(res.Cookies()))
	}

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(res.Cookies()[0])
	uid, ok := ParseSession(r)
	if !ok || uid != 42 {
		t.Fatalf("ParseSession = (%d,%v), want (42,true)", uid, ok)
	}
}

func TestSessionTamperRejected(t *testing.T) {
	w := httptest.NewRecorder()
	CreateSession(w, 42)
	c := w.Result().Cookies()[0]
	c.Value = "43" + c.Value[2:]

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(c)
	if _, ok := ParseSession(r); ok {
		t.Fatal("tampered session must not parse")
	}
}

func TestPortalToken(t *testing.T) {
	now := time.Now()
	token := SignPortalToken("quote", 7, now.Add(time.Hour))

	kind, id, ok := ParsePortalToken(token, now)
	if !ok || kind != "quote" || id != 7 {
		t.Fatalf("ParsePortalToken = (%q,%d,%v)", kind, id, ok)
	}

	if _, _, ok := ParsePortalToken(token, now.Add(2*time.Hour)); ok {
		t.Fatal("expired token must not parse")
	}
	if _, _, ok := ParsePortalToken(token+"x", now); ok {
		t.Fatal("tampered token must not parse")
	}
}
