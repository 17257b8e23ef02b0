// Package auth manages operator accounts and cookie sessions for the
// web API.
package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/example/hotelier/internal/db"
	"github.com/example/hotelier/internal/internaltypes"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

type Store struct {
	sc *securecookie.SecureCookie
	db *db.DB
}

type ctxKey string

const userIDKey ctxKey = "userID"

const cookieName = "hotelier_session"

func NewStore(d *db.DB, hashKey, blockKey []byte) *Store {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int((14 * 24 * time.Hour).Seconds()))
	return &Store{sc: sc, db: d}
}

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(hash, pw string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw))
	return err == nil
}

func (s *Store) CreateUser(ctx context.Context, username, password string) (string, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	if err := s.db.Exec(ctx,
		`INSERT INTO users(id, username, password_bcrypt) VALUES ($1,$2,$3)`,
		id, username, hash); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Authenticate(ctx context.Context, username, password string) (string, error) {
	var id, hash string
	err := s.db.QueryRow(ctx,
		`SELECT id, password_bcrypt FROM users WHERE username=$1`, username).Scan(&id, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", internaltypes.ErrUnauthorized
		}
		return "", err
	}
	if !CheckPassword(hash, password) {
		return "", internaltypes.ErrUnauthorized
	}
	return id, nil
}

type Session struct {
	UserID string
}

func (s *Store) SetSession(w http.ResponseWriter, r *http.Request, userID string) error {
	val := map[string]string{"uid": userID}
	encoded, err := s.sc.Encode(cookieName, val)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		MaxAge:   int((14 * 24 * time.Hour).Seconds()),
	})
	return nil
}

func (s *Store) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func (s *Store) GetSession(r *http.Request) (Session, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return Session{}, false
	}
	val := map[string]string{}
	if err := s.sc.Decode(cookieName, c.Value, &val); err != nil {
		return Session{}, false
	}
	if val["uid"] == "" {
		return Session{}, false
	}
	return Session{UserID: val["uid"]}, true
}

// RequireAuth rejects requests without a valid session cookie. The API
// is JSON, so this answers 401 rather than redirecting.
func (s *Store) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.GetSession(r)
		if !ok {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, sess.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(userIDKey).(string)
	return uid, ok
}
