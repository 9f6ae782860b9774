//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/trailtrace/apiserver/config"
	"github.com/trailtrace/apiserver/internal/server"
)

const (
	serverPort = 18080
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestTrailLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	username := fmt.Sprintf("hiker_%d", time.Now().UnixNano())
	email := fmt.Sprintf("%s@example.com", username)
	password := "testpass123!"

	if err := registerUser(t, baseURL, username, email, password); err != nil {
		t.Fatalf("register user: %v", err)
	}

	// A second register with the same email must be rejected.
	if err := registerUser(t, baseURL, username+"x", email, password); err == nil {
		t.Fatal("expected duplicate register to fail")
	}

	token, user, err := loginUser(t, baseURL, email, password)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.User.Username != username {
		t.Fatalf("unexpected username in login response: %q", user.User.Username)
	}

	created, err := createTrail(t, baseURL, token)
	if err != nil {
		t.Fatalf("create trail: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected trail id to be set")
	}
	if created.UserID != user.User.ID {
		t.Fatalf("trail owner %d does not match logged-in user %d", created.UserID, user.User.ID)
	}
	if len(created.SpecialPoints) != 2 {
		t.Fatalf("expected 2 echoed special points, got %d", len(created.SpecialPoints))
	}

	points, err := listTrailPoints(t, baseURL, created.ID)
	if err != nil {
		t.Fatalf("list trail points: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 persisted special points, got %d", len(points))
	}

	fetched, err := getTrail(t, baseURL, created.ID)
	if err != nil {
		t.Fatalf("get trail: %v", err)
	}
	if fetched.Name != "Sunset Ridge" {
		t.Fatalf("unexpected trail name: %q", fetched.Name)
	}
	if fetched.CreatorName != username {
		t.Fatalf("unexpected creator name: %q", fetched.CreatorName)
	}

	mine, err := listMyTrails(t, baseURL, token)
	if err != nil {
		t.Fatalf("list my trails: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != created.ID {
		t.Fatalf("unexpected my-trails response: %+v", mine)
	}

	if err := updateTrail(t, baseURL, created.ID); err != nil {
		t.Fatalf("update trail: %v", err)
	}
	fetched, err = getTrail(t, baseURL, created.ID)
	if err != nil {
		t.Fatalf("get trail after update: %v", err)
	}
	if fetched.Name != "Sunset Ridge Loop" {
		t.Fatalf("trail not updated: %q", fetched.Name)
	}

	if err := deleteTrail(t, baseURL, created.ID); err != nil {
		t.Fatalf("delete trail: %v", err)
	}
	if err := expectTrailNotFound(t, baseURL, created.ID); err != nil {
		t.Fatalf("expected deleted trail to be missing: %v", err)
	}

	// Waypoints cascade with their trail.
	points, err = listTrailPoints(t, baseURL, created.ID)
	if err != nil {
		t.Fatalf("list trail points after delete: %v", err)
	}
	if len(points) != 0 {
		t.Fatalf("expected no points after trail delete, got %d", len(points))
	}
}

type trailResponse struct {
	ID            int             `json:"id"`
	UserID        int             `json:"user_id"`
	Name          string          `json:"name"`
	CreatorName   string          `json:"creator_name"`
	SpecialPoints []pointResponse `json:"special_points"`
}

type pointResponse struct {
	ID      int     `json:"id"`
	TrailID int     `json:"trail_id"`
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  struct {
		ID       int    `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

func registerUser(t *testing.T, baseURL, username, email, password string) error {
	t.Helper()

	payload := map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/users/register", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("register status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func loginUser(t *testing.T, baseURL, email, password string) (string, loginResponse, error) {
	t.Helper()

	payload := map[string]string{
		"email":    email,
		"password": password,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", loginResponse{}, err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/users/login", bytes.NewReader(body))
	if err != nil {
		return "", loginResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", loginResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", loginResponse{}, fmt.Errorf("login status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", loginResponse{}, err
	}
	if parsed.Token == "" {
		return "", loginResponse{}, fmt.Errorf("missing token in login response")
	}
	return parsed.Token, parsed, nil
}

func createTrail(t *testing.T, baseURL, token string) (trailResponse, error) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	_ = writer.WriteField("name", "Sunset Ridge")
	_ = writer.WriteField("category", "hiking")
	_ = writer.WriteField("description", "Short ridge walk with sea views.")
	_ = writer.WriteField("start_lat", "43.508")
	_ = writer.WriteField("start_lng", "16.44")
	_ = writer.WriteField("end_lat", "43.52")
	_ = writer.WriteField("end_lng", "16.46")
	_ = writer.WriteField("trail_date", "2026-08-30")
	_ = writer.WriteField("trail_time", "09:30:00")
	_ = writer.WriteField("special_points", `[{"name":"viewpoint","lat":43.51,"lng":16.45},{"name":"spring","lat":43.515,"lng":16.455}]`)

	part, err := writer.CreateFormFile("photo", "ridge.jpg")
	if err != nil {
		return trailResponse{}, err
	}
	if _, err := part.Write([]byte("jpeg bytes")); err != nil {
		return trailResponse{}, err
	}
	if err := writer.Close(); err != nil {
		return trailResponse{}, err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/trails", &body)
	if err != nil {
		return trailResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return trailResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return trailResponse{}, fmt.Errorf("create trail status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed struct {
		Data trailResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return trailResponse{}, err
	}
	return parsed.Data, nil
}

func getTrail(t *testing.T, baseURL string, id int) (trailResponse, error) {
	t.Helper()

	resp, err := http.Get(fmt.Sprintf("%s/api/trails/%d", baseURL, id))
	if err != nil {
		return trailResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return trailResponse{}, fmt.Errorf("get trail status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed trailResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return trailResponse{}, err
	}
	return parsed, nil
}

func listMyTrails(t *testing.T, baseURL, token string) ([]trailResponse, error) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/trails/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list my trails status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed []trailResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

func listTrailPoints(t *testing.T, baseURL string, trailID int) ([]pointResponse, error) {
	t.Helper()

	resp, err := http.Get(fmt.Sprintf("%s/api/special-points/trail/%d", baseURL, trailID))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list points status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed []pointResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

func updateTrail(t *testing.T, baseURL string, id int) error {
	t.Helper()

	payload := map[string]any{
		"name":              "Sunset Ridge Loop",
		"category":          "hiking",
		"short_description": "Extended loop variant.",
		"start_lat":         43.508,
		"start_lng":         16.44,
		"end_lat":           43.508,
		"end_lng":           16.44,
		"trail_date":        "2026-08-31",
		"trail_time":        "08:00:00",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPut, fmt.Sprintf("%s/api/trails/%d", baseURL, id), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("update trail status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func deleteTrail(t *testing.T, baseURL string, id int) error {
	t.Helper()

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/trails/%d", baseURL, id), nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete trail status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func expectTrailNotFound(t *testing.T, baseURL string, id int) error {
	t.Helper()

	resp, err := http.Get(fmt.Sprintf("%s/api/trails/%d", baseURL, id))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("expected 404 after delete, got %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	dsn := buildPostgresURL(cfg)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	dsn := buildPostgresURL(cfg)
	migrationsPath := filepath.Join(root, "internal", "db", "migrations")
	migrationsURL := "file://" + migrationsPath

	migrator, err := migrate.New(migrationsURL, dsn)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func buildPostgresURL(cfg config.Config) string {
	sslmode := "disable"
	if cfg.Database.UseSSL {
		sslmode = "require"
	}
	host := fmt.Sprintf("%s:%d", cfg.Database.Host, cfg.Database.Port)
	return fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		host,
		cfg.Database.DBName,
		sslmode,
	)
}

func startServer() (*server.Server, error) {
	uploadDir, err := os.MkdirTemp("", "trailtrace-uploads-")
	if err != nil {
		return nil, err
	}

	_ = os.Setenv("JWT_SECRET", "test-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "trailtrace")
	_ = os.Setenv("DB_PASSWORD", "password")
	_ = os.Setenv("DB_NAME", "wonder_map")
	_ = os.Setenv("DB_USE_SSL", "false")
	_ = os.Setenv("MEDIA_BACKEND", "local")
	_ = os.Setenv("UPLOAD_DIR", uploadDir)

	cfg := config.LoadConfig()
	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
