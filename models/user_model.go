package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID               primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	PublicID         string             `json:"id" bson:"public_id"`
	FullName         string             `json:"fullName" bson:"full_name"`
	Email            string             `json:"email" bson:"email"`
	PasswordHash     string             `json:"-" bson:"password_hash"`
	Bio              string             `json:"bio" bson:"bio"`
	ProfilePic       string             `json:"profilePic" bson:"profile_pic"`
	NativeLanguage   string             `json:"nativeLanguage" bson:"native_language"`
	LearningLanguage string             `json:"learningLanguage" bson:"learning_language"`
	Location         string             `json:"location" bson:"location"`
	IsOnboarded      bool               `json:"isOnboarded" bson:"is_onboarded"`
	Friends          []string           `json:"friends" bson:"friends"`
	CreatedAt        time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt        time.Time          `json:"updatedAt" bson:"updated_at"`
}

// Profile is the restricted projection of a user shown to other users
// in friend and request listings.
type Profile struct {
	PublicID         string `json:"id" bson:"public_id"`
	FullName         string `json:"fullName" bson:"full_name"`
	ProfilePic       string `json:"profilePic" bson:"profile_pic"`
	NativeLanguage   string `json:"nativeLanguage" bson:"native_language"`
	LearningLanguage string `json:"learningLanguage" bson:"learning_language"`
}
