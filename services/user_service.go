package services

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lingo-server/models"
	"lingo-server/utils/errors"
)

const userCacheTTL = 24 * time.Hour

// profileProjection is the restricted set of fields exposed in friend and
// request listings.
var profileProjection = bson.M{
	"public_id":         1,
	"full_name":         1,
	"profile_pic":       1,
	"native_language":   1,
	"learning_language": 1,
}

type UserService struct {
	users       *mongo.Collection
	redisClient *redis.Client
	chat        ChatProvider
	jwtSecret   string
}

func NewUserService(db *mongo.Database, redisClient *redis.Client, chat ChatProvider, jwtSecret string) *UserService {
	users := db.Collection("users")

	// Ensure unique indexes on email and public_id
	_, err := users.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "public_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		log.Warnf("Failed to create indexes on users: %v", err)
	}

	return &UserService{
		users:       users,
		redisClient: redisClient,
		chat:        chat,
		jwtSecret:   jwtSecret,
	}
}

// ResolveUser retrieves a user by public ID from Redis or MongoDB. Cache
// failures degrade to a plain MongoDB read.
func (s *UserService) ResolveUser(ctx context.Context, publicID string) (models.User, error) {
	var user models.User

	userJSON, err := s.redisClient.Get(ctx, "user:"+publicID).Result()
	if err == nil {
		if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
			log.Warnf("Failed to unmarshal cached user %s: %v", publicID, err)
		} else {
			return user, nil
		}
	}

	err = s.users.FindOne(ctx, bson.M{"public_id": publicID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.User{}, errors.ErrNotFound
		}
		return models.User{}, errors.Wrap(err, "DB_ERROR", "Failed to load user", http.StatusInternalServerError)
	}

	s.cacheUser(ctx, user)
	return user, nil
}

// cacheUser stores the user document in Redis, best effort.
func (s *UserService) cacheUser(ctx context.Context, user models.User) {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := s.redisClient.Set(ctx, "user:"+user.PublicID, userJSON, userCacheTTL).Err(); err != nil {
		log.Warnf("Failed to cache user %s: %v", user.PublicID, err)
	}
}

// invalidateUser drops the cached copy after a mutation so stale friend
// lists are never served.
func (s *UserService) invalidateUser(ctx context.Context, publicIDs ...string) {
	keys := make([]string, 0, len(publicIDs))
	for _, id := range publicIDs {
		keys = append(keys, "user:"+id)
	}
	if err := s.redisClient.Del(ctx, keys...).Err(); err != nil {
		log.Warnf("Failed to invalidate user cache: %v", err)
	}
}

// OnboardingInput carries the profile fields required to complete onboarding.
// ProfilePic is optional; the signup placeholder is kept when absent.
type OnboardingInput struct {
	FullName         string `json:"fullName"`
	Bio              string `json:"bio"`
	NativeLanguage   string `json:"nativeLanguage"`
	LearningLanguage string `json:"learningLanguage"`
	Location         string `json:"location"`
	ProfilePic       string `json:"profilePic"`
}

// missingOnboardingFields returns the names of every required field absent
// from the input, so the client gets the full list in one response.
func missingOnboardingFields(in OnboardingInput) []string {
	var missing []string
	if in.FullName == "" {
		missing = append(missing, "fullName")
	}
	if in.Bio == "" {
		missing = append(missing, "bio")
	}
	if in.NativeLanguage == "" {
		missing = append(missing, "nativeLanguage")
	}
	if in.LearningLanguage == "" {
		missing = append(missing, "learningLanguage")
	}
	if in.Location == "" {
		missing = append(missing, "location")
	}
	return missing
}

// Onboard completes the one-time profile setup, marks the user visible to
// recommendations and re-mirrors the identity to the chat provider.
func (s *UserService) Onboard(ctx context.Context, publicID string, in OnboardingInput) (models.User, error) {
	if missing := missingOnboardingFields(in); len(missing) > 0 {
		return models.User{}, errors.NewAPIError(
			"INVALID_INPUT",
			"Missing required fields: "+strings.Join(missing, ", "),
			http.StatusBadRequest,
		)
	}

	set := bson.M{
		"full_name":         in.FullName,
		"bio":               in.Bio,
		"native_language":   in.NativeLanguage,
		"learning_language": in.LearningLanguage,
		"location":          in.Location,
		"is_onboarded":      true,
		"updated_at":        time.Now().UTC(),
	}
	if in.ProfilePic != "" {
		set["profile_pic"] = in.ProfilePic
	}

	var user models.User
	err := s.users.FindOneAndUpdate(
		ctx,
		bson.M{"public_id": publicID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.User{}, errors.ErrNotFound
		}
		return models.User{}, errors.Wrap(err, "DB_ERROR", "Failed to update user", http.StatusInternalServerError)
	}

	s.invalidateUser(ctx, publicID)
	s.cacheUser(ctx, user)

	if err := s.chat.UpsertIdentity(ctx, user.PublicID, user.FullName, user.ProfilePic); err != nil {
		return models.User{}, errors.Wrap(err, "EXTERNAL_SERVICE_ERROR", "Failed to sync user with chat provider", http.StatusInternalServerError)
	}

	log.Infof("User %s completed onboarding", user.PublicID)
	return user, nil
}

// ListRecommended returns onboarded users excluding the caller and their
// existing friends.
func (s *UserService) ListRecommended(ctx context.Context, me models.User) ([]models.User, error) {
	exclude := append([]string{me.PublicID}, me.Friends...)
	cursor, err := s.users.Find(ctx, bson.M{
		"public_id":    bson.M{"$nin": exclude},
		"is_onboarded": true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to fetch recommended users", http.StatusInternalServerError)
	}
	defer cursor.Close(ctx)

	recommended := make([]models.User, 0)
	if err := cursor.All(ctx, &recommended); err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to decode recommended users", http.StatusInternalServerError)
	}
	return recommended, nil
}

// GetProfiles loads the restricted profile projection for a set of users.
func (s *UserService) GetProfiles(ctx context.Context, publicIDs []string) ([]models.Profile, error) {
	profiles := make([]models.Profile, 0, len(publicIDs))
	if len(publicIDs) == 0 {
		return profiles, nil
	}

	cursor, err := s.users.Find(
		ctx,
		bson.M{"public_id": bson.M{"$in": publicIDs}},
		options.Find().SetProjection(profileProjection),
	)
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to fetch profiles", http.StatusInternalServerError)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to decode profiles", http.StatusInternalServerError)
	}
	return profiles, nil
}
