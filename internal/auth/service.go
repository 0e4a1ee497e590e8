package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrInvalidCreds = errors.New("invalid credentials")
	ErrForbidden    = errors.New("forbidden")
)

const tokenTTL = 24 * time.Hour

// ResolveSecret returns the configured JWT secret, or a random one when none
// is configured. Tokens signed with a random secret do not survive restarts.
func ResolveSecret(configured string, logger *zap.Logger) ([]byte, error) {
	if secret := strings.TrimSpace(configured); secret != "" {
		return []byte(secret), nil
	}

	buf := make([]byte, 48)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate JWT fallback secret: %w", err)
	}
	logger.Warn("JWT_SECRET is not set; using ephemeral in-memory fallback secret")
	return []byte(base64.RawURLEncoding.EncodeToString(buf)), nil
}

type Service struct {
	db     *pgxpool.Pool
	secret []byte
	now    func() time.Time
}

func NewService(db *pgxpool.Pool, secret []byte) *Service {
	return &Service{db: db, secret: secret, now: time.Now}
}

func (s *Service) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	if req.Role == "" {
		req.Role = RoleApplicant
	}
	if req.Role == RoleAdmin {
		return nil, ErrForbidden
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var exists bool
	err := s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", email).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing failed: %w", err)
	}

	var user User
	var role string
	err = s.db.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, role, created_at
	`, strings.TrimSpace(req.Name), email, string(hash), string(req.Role)).Scan(&user.ID, &user.Name, &user.Email, &role, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert failed: %w", err)
	}
	user.Role = Role(role)

	token, err := s.IssueToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, User: user}, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var user User
	var role string
	err := s.db.QueryRow(ctx, "SELECT id, name, email, password_hash, role, created_at FROM users WHERE email = $1",
		strings.ToLower(strings.TrimSpace(req.Email))).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &role, &user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidCreds
	}
	if err != nil {
		return nil, err
	}
	user.Role = Role(role)

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCreds
	}

	token, err := s.IssueToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return &AuthResponse{Token: token, User: user}, nil
}

// IssueToken signs a token carrying the user id as subject and the role.
func (s *Service) IssueToken(userID uuid.UUID, role Role) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("JWT secret unavailable")
	}
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  now.Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken validates tokenString and returns the identity it carries.
func (s *Service) ParseToken(tokenString string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, errors.New("invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return Identity{}, fmt.Errorf("invalid token subject: %w", err)
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid user id in token: %w", err)
	}

	role, _ := claims["role"].(string)
	if role == "" {
		role = string(RoleApplicant)
	}
	return Identity{UserID: userID, Role: Role(role)}, nil
}
