package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/offeringbowl/backend/internal/infrastructure/auth"
	"github.com/offeringbowl/backend/internal/infrastructure/config"
	"github.com/offeringbowl/backend/internal/infrastructure/logger"
	"github.com/offeringbowl/backend/internal/infrastructure/storage"
	"github.com/offeringbowl/backend/internal/infrastructure/store"
	"go.uber.org/zap"
)

func main() {
	var (
		logLevel string
		timeout  time.Duration
		role     string
		ttl      time.Duration
	)

	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.DurationVar(&timeout, "timeout", 5*time.Minute, "Overall timeout")
	flag.StringVar(&role, "role", "", "Role claim for the token command (monastic, patron)")
	flag.DurationVar(&ttl, "ttl", 24*time.Hour, "Lifetime of the token command's token")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg.Log.Level = logLevel
	log := logger.New(cfg.Log, cfg.App.Env)
	defer func() {
		_ = log.Sync()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	switch command {
	case "tables":
		err = createTables(ctx, cfg, log)
	case "bucket":
		err = createBucket(ctx, cfg, log)
	case "all":
		if err = createTables(ctx, cfg, log); err == nil {
			err = createBucket(ctx, cfg, log)
		}
	case "token":
		if len(args) < 2 {
			log.Fatal("Subject required. Usage: bootstrap [-role patron] token <uid>")
		}
		err = printToken(cfg, args[1], role, ttl)
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal("Bootstrap failed", zap.String("command", command), zap.Error(err))
	}
}

func createTables(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	client, err := store.NewDynamoClient(ctx, &cfg.DynamoDB)
	if err != nil {
		return err
	}
	log.Info("Creating tables",
		zap.String("endpoint", cfg.DynamoDB.Endpoint),
		zap.String("prefix", cfg.DynamoDB.TablePrefix),
	)
	return store.EnsureTables(ctx, client, cfg.DynamoDB.TablePrefix, log)
}

func createBucket(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if cfg.Storage.Bucket == "" {
		log.Warn("No storage bucket configured, skipping")
		return nil
	}
	s3, err := storage.NewS3MediaStorage(ctx, &cfg.Storage, storage.WithLogger(log))
	if err != nil {
		return err
	}
	if err := s3.EnsureBucket(ctx); err != nil {
		return err
	}
	log.Info("Bucket ready", zap.String("bucket", s3.Bucket()))
	return nil
}

// printToken signs a development token with the configured shared secret
func printToken(cfg *config.Config, uid, role string, ttl time.Duration) error {
	if cfg.IsProduction() {
		return fmt.Errorf("refusing to sign tokens in production")
	}
	if cfg.Auth.Secret == "" {
		return fmt.Errorf("auth.secret is required to sign tokens")
	}

	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  uid,
			Issuer:   cfg.Auth.Issuer,
			Audience: audience(cfg.Auth.Audience),
		},
		Email: uid + "@localhost",
		Name:  uid,
		Role:  role,
	}
	if role != "" {
		claims.UserID = uid
	}
	token, err := auth.SignHS256(cfg.Auth.Secret, claims, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func audience(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}

func printUsage() {
	fmt.Println(`Usage: bootstrap [flags] <command> [args]

Commands:
  tables        Create document store tables and indexes
  bucket        Create the media bucket
  all           tables, then bucket
  token <uid>   Print a signed development token

Flags:`)
	flag.PrintDefaults()
}
