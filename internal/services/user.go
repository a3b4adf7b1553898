package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campus-rides-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const jwtExpDays = 30

// UserStore is the storage collaborator for users
type UserStore interface {
	UserGetter
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByRoll(ctx context.Context, rollNo string) (*models.User, error)
}

// UserService handles registration, login and token validation
type UserService struct {
	users     UserStore
	jwtSecret string
}

// NewUserService creates a new user service
func NewUserService(users UserStore, jwtSecret string) *UserService {
	return &UserService{users: users, jwtSecret: jwtSecret}
}

// RegisterRequest carries the fields of a registration
type RegisterRequest struct {
	RollNo   string        `json:"roll_no"`
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Password string        `json:"password"`
	Gender   models.Gender `json:"gender"`
	Year     int           `json:"year"`
}

// Register creates a new user and returns it with an issued token
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*models.User, string, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.RollNo = strings.TrimSpace(req.RollNo)
	req.Name = strings.TrimSpace(req.Name)
	if req.Gender == "" {
		req.Gender = models.GenderUnspecified
	}

	switch {
	case req.Name == "":
		return nil, "", invalid("name", "must not be empty")
	case req.RollNo == "":
		return nil, "", invalid("roll_no", "must not be empty")
	case !strings.Contains(req.Email, "@"):
		return nil, "", invalid("email", "must be a valid address")
	case len(req.Password) < 8:
		return nil, "", invalid("password", "must be at least 8 characters")
	case !req.Gender.Valid():
		return nil, "", invalid("gender", "must be M, F or U")
	case req.Year < 1 || req.Year > 6:
		return nil, "", invalid("year", "must be between 1 and 6")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		RollNo:       req.RollNo,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Gender:       req.Gender,
		Year:         req.Year,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies credentials and returns the user with a fresh token
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", invalid("password", "wrong email or password")
	}
	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// GetByID resolves a user by id
func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// GenerateJWT generates a signed token carrying the user id
func (s *UserService) GenerateJWT(userID int64) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().AddDate(0, 0, jwtExpDays).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateJWT validates a token and returns the user id it carries
func (s *UserService) ValidateJWT(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return 0, fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("invalid token claims")
	}
	rawID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, fmt.Errorf("user_id not found in token")
	}
	return int64(rawID), nil
}
