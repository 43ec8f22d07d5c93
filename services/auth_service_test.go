package services

import (
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordNeverStoresPlaintext(t *testing.T) {
	hash, err := hashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	assert.True(t, checkPassword(hash, "secret1"))
	assert.False(t, checkPassword(hash, "secret2"))
}

func TestIssueTokenRoundTrip(t *testing.T) {
	s := &UserService{jwtSecret: "test-secret"}

	signed, err := s.IssueToken("user-123")
	require.NoError(t, err)

	token, err := jwt.Parse(signed, func(token *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "user-123", claims["userID"])
	assert.Contains(t, claims, "exp")
}

func TestIssueTokenRejectsWrongSecret(t *testing.T) {
	s := &UserService{jwtSecret: "test-secret"}

	signed, err := s.IssueToken("user-123")
	require.NoError(t, err)

	_, err = jwt.Parse(signed, func(token *jwt.Token) (any, error) {
		return []byte("other-secret"), nil
	})
	assert.Error(t, err)
}

func TestRandomAvatarStaysInPool(t *testing.T) {
	for i := 0; i < 50; i++ {
		url := randomAvatar()
		assert.True(t, strings.HasPrefix(url, "https://avatar.iran.liara.run/public/"))
		assert.True(t, strings.HasSuffix(url, ".png"))
	}
}

func TestMissingOnboardingFieldsNamesAll(t *testing.T) {
	missing := missingOnboardingFields(OnboardingInput{})
	assert.Equal(t, []string{"fullName", "bio", "nativeLanguage", "learningLanguage", "location"}, missing)
}

func TestMissingOnboardingFieldsPartial(t *testing.T) {
	missing := missingOnboardingFields(OnboardingInput{
		FullName:       "Ann Lee",
		NativeLanguage: "English",
		Location:       "Berlin",
	})
	assert.Equal(t, []string{"bio", "learningLanguage"}, missing)
}

func TestMissingOnboardingFieldsComplete(t *testing.T) {
	missing := missingOnboardingFields(OnboardingInput{
		FullName:         "Ann Lee",
		Bio:              "Hi",
		NativeLanguage:   "English",
		LearningLanguage: "Spanish",
		Location:         "Berlin",
	})
	assert.Empty(t, missing)
}
