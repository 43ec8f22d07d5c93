package services

import (
	"context"
	"net/http"
	"slices"
	"time"

	log "github.com/sirupsen/logrus"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lingo-server/models"
	"lingo-server/utils/errors"
)

// FriendService owns the friend-request lifecycle: none -> pending ->
// accepted (terminal). Acceptance also maintains the symmetric friends
// arrays on both user documents.
type FriendService struct {
	client      *mongo.Client
	users       *mongo.Collection
	requests    *mongo.Collection
	userService *UserService
}

func NewFriendService(db *mongo.Database, userService *UserService) *FriendService {
	requests := db.Collection("friend_requests")

	// The unique pair_key index closes the duplicate-request race: two
	// near-simultaneous sends for the same pair collapse to one winner.
	_, err := requests.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "pair_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "sender", Value: 1}, {Key: "status", Value: 1}},
		},
	})
	if err != nil {
		log.Warnf("Failed to create indexes on friend_requests: %v", err)
	}

	return &FriendService{
		client:      db.Client(),
		users:       db.Collection("users"),
		requests:    requests,
		userService: userService,
	}
}

// pairKey builds the order-independent key for a pair of users.
func pairKey(a, b string) string {
	if a < b {
		return a + ":" + b
	}
	return b + ":" + a
}

// PopulatedRequest is a friend request joined with the counterpart's
// restricted profile.
type PopulatedRequest struct {
	ID        string          `json:"id"`
	Sender    *models.Profile `json:"sender,omitempty"`
	Recipient *models.Profile `json:"recipient,omitempty"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

// SendRequest creates a pending request from the caller to recipientID.
func (s *FriendService) SendRequest(ctx context.Context, me models.User, recipientID string) (models.FriendRequest, error) {
	if me.PublicID == recipientID {
		return models.FriendRequest{}, errors.NewAPIError("INVALID_INPUT", "You cannot send a friend request to yourself", http.StatusBadRequest)
	}

	recipient, err := s.userService.ResolveUser(ctx, recipientID)
	if err != nil {
		return models.FriendRequest{}, errors.Wrap(err, "NOT_FOUND", "Recipient not found", http.StatusNotFound)
	}

	if slices.Contains(recipient.Friends, me.PublicID) {
		return models.FriendRequest{}, errors.NewAPIError("INVALID_INPUT", "You are already friends with this user", http.StatusBadRequest)
	}

	key := pairKey(me.PublicID, recipientID)
	err = s.requests.FindOne(ctx, bson.M{"pair_key": key}).Err()
	if err == nil {
		return models.FriendRequest{}, errors.NewAPIError("CONFLICT", "Friend request already sent or received", http.StatusBadRequest)
	}
	if err != mongo.ErrNoDocuments {
		return models.FriendRequest{}, errors.Wrap(err, "DB_ERROR", "Failed to check existing request", http.StatusInternalServerError)
	}

	request := models.FriendRequest{
		Sender:    me.PublicID,
		Recipient: recipientID,
		PairKey:   key,
		Status:    models.RequestPending,
		CreatedAt: time.Now().UTC(),
	}
	result, err := s.requests.InsertOne(ctx, request)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.FriendRequest{}, errors.NewAPIError("CONFLICT", "Friend request already sent or received", http.StatusBadRequest)
		}
		return models.FriendRequest{}, errors.Wrap(err, "DB_ERROR", "Failed to create friend request", http.StatusInternalServerError)
	}
	request.ID = result.InsertedID.(primitive.ObjectID)

	log.Infof("Friend request sent from %s to %s", me.PublicID, recipientID)
	return request, nil
}

// AcceptRequest transitions a pending request to accepted and adds each
// party to the other's friends array. The status change and both friend-set
// inserts run in one transaction so a crash cannot leave an asymmetric
// friendship.
func (s *FriendService) AcceptRequest(ctx context.Context, me models.User, requestID string) (models.FriendRequest, error) {
	oid, err := primitive.ObjectIDFromHex(requestID)
	if err != nil {
		return models.FriendRequest{}, errors.NewAPIError("NOT_FOUND", "Friend request not found", http.StatusNotFound)
	}

	var request models.FriendRequest
	err = s.requests.FindOne(ctx, bson.M{"_id": oid}).Decode(&request)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.FriendRequest{}, errors.NewAPIError("NOT_FOUND", "Friend request not found", http.StatusNotFound)
		}
		return models.FriendRequest{}, errors.Wrap(err, "DB_ERROR", "Failed to load friend request", http.StatusInternalServerError)
	}

	if request.Recipient != me.PublicID {
		return models.FriendRequest{}, errors.NewAPIError("FORBIDDEN", "You are not authorized to accept this request", http.StatusForbidden)
	}

	session, err := s.client.StartSession()
	if err != nil {
		return models.FriendRequest{}, errors.Wrap(err, "DB_ERROR", "Failed to start session", http.StatusInternalServerError)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := s.requests.UpdateOne(sc,
			bson.M{"_id": request.ID},
			bson.M{"$set": bson.M{"status": models.RequestAccepted}},
		); err != nil {
			return nil, err
		}
		if _, err := s.users.UpdateOne(sc,
			bson.M{"public_id": request.Sender},
			bson.M{"$addToSet": bson.M{"friends": request.Recipient}},
		); err != nil {
			return nil, err
		}
		if _, err := s.users.UpdateOne(sc,
			bson.M{"public_id": request.Recipient},
			bson.M{"$addToSet": bson.M{"friends": request.Sender}},
		); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return models.FriendRequest{}, errors.Wrap(err, "DB_ERROR", "Failed to accept friend request", http.StatusInternalServerError)
	}

	s.userService.invalidateUser(ctx, request.Sender, request.Recipient)

	request.Status = models.RequestAccepted
	log.Infof("Friend request accepted: %s and %s are now friends", request.Sender, request.Recipient)
	return request, nil
}

// ListIncoming returns pending requests addressed to the caller, populated
// with the sender's profile.
func (s *FriendService) ListIncoming(ctx context.Context, me models.User) ([]PopulatedRequest, error) {
	return s.listPopulated(ctx, bson.M{"recipient": me.PublicID, "status": models.RequestPending}, true)
}

// ListAccepted returns requests the caller sent that were accepted,
// populated with the recipient's profile.
func (s *FriendService) ListAccepted(ctx context.Context, me models.User) ([]PopulatedRequest, error) {
	return s.listPopulated(ctx, bson.M{"sender": me.PublicID, "status": models.RequestAccepted}, false)
}

// ListOutgoing returns pending requests the caller sent, populated with the
// recipient's profile.
func (s *FriendService) ListOutgoing(ctx context.Context, me models.User) ([]PopulatedRequest, error) {
	return s.listPopulated(ctx, bson.M{"sender": me.PublicID, "status": models.RequestPending}, false)
}

func (s *FriendService) listPopulated(ctx context.Context, filter bson.M, populateSender bool) ([]PopulatedRequest, error) {
	cursor, err := s.requests.Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to fetch friend requests", http.StatusInternalServerError)
	}
	defer cursor.Close(ctx)

	var requests []models.FriendRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to decode friend requests", http.StatusInternalServerError)
	}

	counterpartOf := func(r models.FriendRequest) string {
		if populateSender {
			return r.Sender
		}
		return r.Recipient
	}

	ids := make([]string, 0, len(requests))
	for _, r := range requests {
		ids = append(ids, counterpartOf(r))
	}
	profiles, err := s.userService.GetProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.PublicID] = p
	}

	populated := make([]PopulatedRequest, 0, len(requests))
	for _, r := range requests {
		pr := PopulatedRequest{
			ID:        r.ID.Hex(),
			Status:    r.Status,
			CreatedAt: r.CreatedAt,
		}
		if p, ok := byID[counterpartOf(r)]; ok {
			if populateSender {
				pr.Sender = &p
			} else {
				pr.Recipient = &p
			}
		}
		populated = append(populated, pr)
	}
	return populated, nil
}

// ListFriends returns the caller's friends as restricted profiles.
func (s *FriendService) ListFriends(ctx context.Context, me models.User) ([]models.Profile, error) {
	return s.userService.GetProfiles(ctx, me.Friends)
}
