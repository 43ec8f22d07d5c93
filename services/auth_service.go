package services

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"lingo-server/models"
	"lingo-server/utils/errors"
)

// SessionTTL is the lifetime of an issued session token and its cookie.
const SessionTTL = 7 * 24 * time.Hour

const avatarPoolSize = 100

// randomAvatar picks one of the fixed pool of placeholder avatars.
func randomAvatar() string {
	idx := rand.Intn(avatarPoolSize) + 1
	return fmt.Sprintf("https://avatar.iran.liara.run/public/%d.png", idx)
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "HASH_ERROR", "Failed to hash password", http.StatusInternalServerError)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IssueToken signs a session token embedding the user's public ID.
func (s *UserService) IssueToken(publicID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userID": publicID,
		"exp":    time.Now().Add(SessionTTL).Unix(),
	})
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", errors.Wrap(err, "JWT_ERROR", "Failed to generate token", http.StatusInternalServerError)
	}
	return signed, nil
}

// Signup creates a new user with a hashed password and a placeholder avatar,
// mirrors the identity to the chat provider and issues a session token.
//
// A mirror failure surfaces as a server error even though the user document
// is already committed; the local write is not rolled back.
func (s *UserService) Signup(ctx context.Context, fullName, email, password string) (models.User, string, error) {
	email = strings.ToLower(email)

	err := s.users.FindOne(ctx, bson.M{"email": email}).Err()
	if err == nil {
		return models.User{}, "", errors.NewAPIError("CONFLICT", "Email already exists. Please use a different one.", http.StatusBadRequest)
	}
	if err != mongo.ErrNoDocuments {
		return models.User{}, "", errors.Wrap(err, "DB_ERROR", "Failed to check email", http.StatusInternalServerError)
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return models.User{}, "", err
	}

	now := time.Now().UTC()
	user := models.User{
		PublicID:     uuid.New().String(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: passwordHash,
		ProfilePic:   randomAvatar(),
		Friends:      []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, "", errors.NewAPIError("CONFLICT", "Email already exists. Please use a different one.", http.StatusBadRequest)
		}
		return models.User{}, "", errors.Wrap(err, "DB_ERROR", "Failed to create user", http.StatusInternalServerError)
	}

	if err := s.chat.UpsertIdentity(ctx, user.PublicID, user.FullName, user.ProfilePic); err != nil {
		return models.User{}, "", errors.Wrap(err, "EXTERNAL_SERVICE_ERROR", "Failed to sync user with chat provider", http.StatusInternalServerError)
	}
	log.Infof("Chat identity synced for user %s", user.PublicID)

	token, err := s.IssueToken(user.PublicID)
	if err != nil {
		return models.User{}, "", err
	}

	s.cacheUser(ctx, user)
	return user, token, nil
}

// Login authenticates a user by email and password and issues a session token.
func (s *UserService) Login(ctx context.Context, email, password string) (models.User, string, error) {
	email = strings.ToLower(email)

	var user models.User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.User{}, "", errors.NewAPIError("NOT_FOUND", "User not found", http.StatusNotFound)
		}
		return models.User{}, "", errors.Wrap(err, "DB_ERROR", "Failed to load user", http.StatusInternalServerError)
	}

	if !checkPassword(user.PasswordHash, password) {
		return models.User{}, "", errors.NewAPIError("INVALID_CREDENTIALS", "Invalid email or password", http.StatusUnauthorized)
	}

	token, err := s.IssueToken(user.PublicID)
	if err != nil {
		return models.User{}, "", err
	}

	s.cacheUser(ctx, user)
	return user, token, nil
}
