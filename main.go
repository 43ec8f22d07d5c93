package main

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lingo-server/handlers"
	"lingo-server/middleware"
	"lingo-server/services"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}

	logger := logrus.New()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET environment variable is not set")
	}

	ctx := context.Background()
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(getenv("MONGO_URI", "mongodb://localhost:27017")))
	if err != nil {
		logger.Fatalf("MongoDB connection failed: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	db := mongoClient.Database(getenv("MONGO_DB", "lingo"))

	redisClient := redis.NewClient(&redis.Options{
		Addr: getenv("REDIS_ADDR", "localhost:6379"),
	})

	// Chat provider client is configured once at startup and injected into
	// the services; it is never mutated afterwards.
	chat, err := services.NewStreamService(os.Getenv("STREAM_API_KEY"), os.Getenv("STREAM_API_SECRET"))
	if err != nil {
		logger.Fatalf("Stream client setup failed: %v", err)
	}

	userService := services.NewUserService(db, redisClient, chat, jwtSecret)
	friendService := services.NewFriendService(db, userService)

	secureCookies := os.Getenv("APP_ENV") == "production"
	authHandler := handlers.NewAuthHandler(userService, secureCookies)
	userHandler := handlers.NewUserHandler(userService, friendService)
	chatHandler := handlers.NewChatHandler(chat)

	r := mux.NewRouter()

	allowedOrigins := strings.Split(getenv("ALLOWED_ORIGINS", "http://localhost:5173"), ",")
	r.Use(middleware.CORSMiddleware(allowedOrigins))
	r.Use(middleware.LogMiddleware(logger))
	r.Use(middleware.ErrorMiddleware())

	authGate := middleware.AuthMiddleware(jwtSecret, userService)

	// Public auth routes
	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/signup", authHandler.Signup).Methods("POST", "OPTIONS")
	authRouter.HandleFunc("/login", authHandler.Login).Methods("POST", "OPTIONS")
	authRouter.HandleFunc("/signout", authHandler.Signout).Methods("POST", "OPTIONS")

	// Session-gated auth routes
	sessionRouter := r.PathPrefix("/auth").Subrouter()
	sessionRouter.Use(authGate)
	sessionRouter.HandleFunc("/onboarding", authHandler.Onboard).Methods("POST", "OPTIONS")
	sessionRouter.HandleFunc("/me", authHandler.Me).Methods("GET", "OPTIONS")

	// User routes
	userRouter := r.PathPrefix("/users").Subrouter()
	userRouter.Use(authGate)
	userRouter.HandleFunc("/recommended", userHandler.GetRecommended).Methods("GET", "OPTIONS")
	userRouter.HandleFunc("/friends", userHandler.GetFriends).Methods("GET", "OPTIONS")
	userRouter.HandleFunc("/friend-request/{id}/accept", userHandler.AcceptFriendRequest).Methods("POST", "OPTIONS")
	userRouter.HandleFunc("/friend-request/{id}", userHandler.SendFriendRequest).Methods("POST", "OPTIONS")
	userRouter.HandleFunc("/friend-requests/outgoing", userHandler.GetOutgoingRequests).Methods("GET", "OPTIONS")
	userRouter.HandleFunc("/friend-requests", userHandler.GetFriendRequests).Methods("GET", "OPTIONS")

	// Chat routes
	chatRouter := r.PathPrefix("/chat").Subrouter()
	chatRouter.Use(authGate)
	chatRouter.HandleFunc("/token", chatHandler.GetToken).Methods("GET", "OPTIONS")

	addr := ":" + getenv("PORT", "8080")
	logger.Infof("Server starting on %s", addr)
	logger.Fatal(http.ListenAndServe(addr, r))
}
