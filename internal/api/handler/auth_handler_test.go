package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ashifa-1/cms-backend/internal/core/domain"
)

type stubAuthService struct {
	user  *domain.User
	token string
	err   error

	lastEmail, lastPassword, lastRole string
}

func (s *stubAuthService) Register(_ context.Context, email, password, role string) (*domain.User, error) {
	s.lastEmail, s.lastPassword, s.lastRole = email, password, role
	return s.user, s.err
}

func (s *stubAuthService) Login(_ context.Context, email, password string) (string, *domain.User, error) {
	s.lastEmail, s.lastPassword = email, password
	return s.token, s.user, s.err
}

func postJSON(e *echo.Echo, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthRegister(t *testing.T) {
	svc := &stubAuthService{user: &domain.User{ID: uuid.New(), Email: "a@example.com", Role: domain.RoleAuthor}}
	h := NewAuthHandler(svc)
	e := newEcho()

	c, rec := postJSON(e, "/auth/register", `{"email":"a@example.com","password":"longenough","role":"author"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("register: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Errorf("status: got %d", rec.Code)
	}
	if svc.lastRole != domain.RoleAuthor {
		t.Errorf("role not forwarded: %q", svc.lastRole)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("response must not carry password material: %s", rec.Body.String())
	}
}

func TestAuthRegister_Validation(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{})
	e := newEcho()

	cases := []struct {
		name string
		body string
	}{
		{"bad email", `{"email":"nope","password":"longenough","role":"author"}`},
		{"short password", `{"email":"a@example.com","password":"short","role":"author"}`},
		{"bad role", `{"email":"a@example.com","password":"longenough","role":"admin"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := postJSON(e, "/auth/register", tc.body)
			if err := h.Register(c); err != nil {
				t.Fatalf("register: %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400", rec.Code)
			}
		})
	}
}

func TestAuthRegister_Duplicate(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{err: domain.ErrUserExists})
	e := newEcho()

	c, rec := postJSON(e, "/auth/register", `{"email":"a@example.com","password":"longenough","role":"author"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("register: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("status: got %d, want 409", rec.Code)
	}
}

func TestAuthLogin(t *testing.T) {
	svc := &stubAuthService{
		user:  &domain.User{ID: uuid.New(), Email: "a@example.com", Role: domain.RoleAuthor},
		token: "signed.jwt.token",
	}
	h := NewAuthHandler(svc)
	e := newEcho()

	c, rec := postJSON(e, "/auth/login", `{"email":"a@example.com","password":"pw"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("login: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d", rec.Code)
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token != "signed.jwt.token" {
		t.Errorf("token: got %q", resp.Token)
	}
}

func TestAuthLogin_Failures(t *testing.T) {
	e := newEcho()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"bad password", domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{"unknown user", domain.ErrUserNotFound, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAuthHandler(&stubAuthService{err: tc.err})
			c, rec := postJSON(e, "/auth/login", `{"email":"a@example.com","password":"pw"}`)
			if err := h.Login(c); err != nil {
				t.Fatalf("login: %v", err)
			}
			if rec.Code != tc.want {
				t.Errorf("status: got %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
