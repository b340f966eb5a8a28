package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/docket/docket/internal/auth"
	"github.com/docket/docket/internal/cache"
	"github.com/docket/docket/internal/model"
	"github.com/docket/docket/internal/repository"
	"github.com/docket/docket/internal/repository/gormrepo"
	"github.com/docket/docket/internal/service"
)

type store interface {
	service.UserStore
	CreateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id string) error
	GetStatusByTitle(ctx context.Context, title string) (*model.Status, error)
	CreateDocument(ctx context.Context, doc *model.Document) error
	Close()
}

type output struct {
	UserID    string   `json:"user_id"`
	Login     string   `json:"login"`
	Roles     []string `json:"roles"`
	Token     string   `json:"token,omitempty"`
	Until     string   `json:"until,omitempty"`
	Documents []string `json:"documents,omitempty"`
}

func main() {
	var (
		driver      = flag.String("driver", envOr("DATABASE_DRIVER", "postgres"), "Storage driver: postgres or sqlite")
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		sqlitePath  = flag.String("sqlite-path", envOr("SQLITE_PATH", "docket.db"), "SQLite database file")
		redisURL    = flag.String("redis-url", os.Getenv("REDIS_URL"), "Redis URL of the identity cache, if the API uses one")
		login       = flag.String("login", "", "User login (required)")
		password    = flag.String("password", "", "User password (random when empty)")
		rolesInput  = flag.String("roles", model.RoleUser, "Comma-separated roles")
		issueToken  = flag.Bool("token", false, "Issue a bearer token for the user")
		tokenTTL    = flag.Duration("token-ttl", time.Hour, "Lifetime of the issued token")
		fixtures    = flag.Int("fixtures", 0, "Number of fixture documents to create")
		remove      = flag.Bool("delete", false, "Delete the user and their documents instead")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *login == "" {
		fail("login is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := openStore(ctx, *driver, *databaseURL, *sqlitePath)
	if err != nil {
		fail(err.Error())
	}
	defer db.Close()

	if *remove {
		user, err := db.GetUserByLogin(ctx, *login)
		if err != nil {
			fail("lookup user: " + err.Error())
		}
		if err := forgetIdentity(ctx, db, *redisURL, user); err != nil {
			fail(err.Error())
		}
		if err := db.DeleteUser(ctx, user.ID); err != nil {
			fail("delete user: " + err.Error())
		}
		fmt.Printf("deleted user %s (%s)\n", user.Login, user.ID)
		return
	}

	user, err := ensureUser(ctx, db, *login, *password, parseRoles(*rolesInput))
	if err != nil {
		fail(err.Error())
	}

	result := output{UserID: user.ID, Login: user.Login, Roles: user.Roles}

	if *issueToken {
		token, err := auth.GenerateToken()
		if err != nil {
			fail("generate token: " + err.Error())
		}
		until := time.Now().Add(*tokenTTL)
		if err := db.UpdateUserToken(ctx, user.ID, token, until); err != nil {
			fail("store token: " + err.Error())
		}
		if err := forgetIdentity(ctx, db, *redisURL, user); err != nil {
			fail(err.Error())
		}
		result.Token = token
		result.Until = until.UTC().Format(time.RFC3339)
	}

	for i := range *fixtures {
		id, err := createFixture(ctx, db, user.ID, i)
		if err != nil {
			fail(err.Error())
		}
		result.Documents = append(result.Documents, id)
	}

	if *format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fail("encode output: " + err.Error())
		}
		return
	}

	fmt.Printf("user_id=%s\nlogin=%s\nroles=%s\n", result.UserID, result.Login, strings.Join(result.Roles, ","))
	if result.Token != "" {
		fmt.Printf("token=%s\nuntil=%s\n", result.Token, result.Until)
	}
	if len(result.Documents) > 0 {
		fmt.Printf("documents=%s\n", strings.Join(result.Documents, ","))
	}
}

func openStore(ctx context.Context, driver, databaseURL, sqlitePath string) (store, error) {
	switch driver {
	case "sqlite":
		s, err := gormrepo.Open(sqlitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		if databaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres driver")
		}
		repo, err := repository.New(ctx, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if err := repo.Migrate(ctx); err != nil {
			repo.Close()
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown driver %q", driver)
	}
}

func ensureUser(ctx context.Context, db store, login, password string, roles []string) (*model.User, error) {
	user, err := db.GetUserByLogin(ctx, login)
	if err == nil {
		for _, role := range roles {
			if !user.HasRole(role) {
				fmt.Fprintf(os.Stderr, "existing user %s lacks role %s; roles are left unchanged\n", login, role)
			}
		}
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if password == "" {
		if password, err = auth.GenerateToken(); err != nil {
			return nil, fmt.Errorf("generate password: %w", err)
		}
		fmt.Fprintln(os.Stderr, "generated password:", password)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user = &model.User{
		ID:           uuid.NewString(),
		Login:        login,
		PasswordHash: hash,
		Roles:        roles,
	}
	if err := db.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// forgetIdentity evicts the user's cached identity so a deleted user's token
// stops resolving immediately instead of after the cache TTL.
func forgetIdentity(ctx context.Context, db store, redisURL string, user *model.User) error {
	if redisURL == "" || user.Token == nil {
		return nil
	}
	c, err := cache.New(ctx, redisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer c.Close()

	return service.NewAuthService(db, c, service.AuthConfig{}, nil, nil).Forget(ctx, user)
}

var (
	fixtureActors  = []string{"The fox", "The dog", "The owl", "The cat"}
	fixtureTypes   = []string{"quick", "lazy", "curious"}
	fixtureColors  = []string{"brown", "red", "grey", "white"}
	fixtureActions = []string{"jump", "run", "sleep", "eat"}
)

// createFixture stores a document with a random payload, alternating
// between draft and published.
func createFixture(ctx context.Context, db store, userID string, n int) (string, error) {
	title := model.StatusDraft
	if n%2 == 1 {
		title = model.StatusPublished
	}
	status, err := db.GetStatusByTitle(ctx, title)
	if err != nil {
		return "", fmt.Errorf("lookup status %s: %w", title, err)
	}

	actions := make([]any, 0, 2)
	for range 1 + rand.IntN(2) {
		actions = append(actions, map[string]any{
			"action": pick(fixtureActions),
			"actor":  pick(fixtureActors),
		})
	}

	now := time.Now().UTC()
	doc := &model.Document{
		ID:       ulid.Make().String(),
		UserID:   userID,
		StatusID: status.ID,
		Status:   status.Title,
		Payload: model.Payload{
			"actor": pick(fixtureActors),
			"meta": map[string]any{
				"type":  pick(fixtureTypes),
				"color": pick(fixtureColors),
			},
			"actions": actions,
		},
		CreatedAt:  now,
		ModifiedAt: now,
	}
	if err := db.CreateDocument(ctx, doc); err != nil {
		return "", fmt.Errorf("create fixture: %w", err)
	}
	return doc.ID, nil
}

func pick(values []string) string {
	return values[rand.IntN(len(values))]
}

func parseRoles(input string) []string {
	var roles []string
	for _, part := range strings.Split(input, ",") {
		role := strings.ToUpper(strings.TrimSpace(part))
		if role != "" {
			roles = append(roles, role)
		}
	}
	if len(roles) == 0 {
		roles = []string{model.RoleUser}
	}
	return roles
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
