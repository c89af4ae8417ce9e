// Package api contains all endpoints available
package api

import (
	"fmt"
	"time"

	"bitwise74/blog-api/db"
	"bitwise74/blog-api/graph"
	"bitwise74/blog-api/middleware"
	"bitwise74/blog-api/pubsub"
	"bitwise74/blog-api/security"
	"bitwise74/blog-api/storage"
	"bitwise74/blog-api/store"

	ginzap "github.com/gin-contrib/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

type API struct {
	Router   *gin.Engine
	Schema   graphql.Schema
	Resolver *graph.Resolver
	Bus      *pubsub.Bus
	Images   storage.ImageStore
}

func NewRouter() (*API, error) {
	makeLogger()

	a := &API{
		Bus: pubsub.New(),
	}

	database, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB, %w", err)
	}

	users, err := store.NewMongoUserStore(database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize user store, %w", err)
	}

	switch viper.GetString("storage.type") {
	case "s3":
		s3, err := storage.NewS3()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 image store, %w", err)
		}
		a.Images = s3
	default:
		local, err := storage.NewLocal(viper.GetString("storage.images_dir"))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local image store, %w", err)
		}
		a.Images = local
	}

	tokens := security.NewTokenCodec(viper.GetString("jwt.secret"))

	a.Resolver = &graph.Resolver{
		Users:  users,
		Posts:  store.NewMongoPostStore(database),
		Hash:   security.New(),
		Tokens: tokens,
		Images: a.Images,
		Bus:    a.Bus,
	}

	a.Schema, err = graph.NewSchema(a.Resolver)
	if err != nil {
		return nil, fmt.Errorf("failed to build schema, %w", err)
	}

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{viper.GetString("host.cors_origin")},
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
		middleware.NewAuthMiddleware(tokens),
	)

	router.HandleMethodNotAllowed = true
	a.Router.MaxMultipartMemory = 5 << 20

	maxUploadSize := viper.GetInt64("upload.max_size")

	// GET /images/:name	-> Serves a stored post image
	if local, ok := a.Images.(*storage.Local); ok {
		router.Static("/images", local.Dir)
	} else {
		router.GET("/images/:name", a.ImageServe)
	}

	gql := router.Group("/graphql")
	{
		// POST /graphql	-> Executes queries and mutations, accepts
		// multipart uploads per the GraphQL multipart request spec
		gql.POST("", middleware.BodySizeLimiter(maxUploadSize), a.GraphQL)

		// GET /graphql		-> Upgrades to a websocket for subscriptions
		gql.GET("", a.Subscriptions)
	}

	return a, nil
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	if err := cfg.Level.UnmarshalText([]byte(viper.GetString("app.log_level"))); err != nil {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}
