package handlers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/trailtrace/apiserver/internal/media"
	"github.com/trailtrace/apiserver/internal/services"
	"github.com/trailtrace/apiserver/internal/store"
	"github.com/trailtrace/apiserver/types"
)

const testSecret = "test-secret"

type stubUserRepo struct {
	users  map[int]types.User
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: map[int]types.User{}, nextID: 1}
}

func (s *stubUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	user, ok := s.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (s *stubUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	for _, existing := range s.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return types.User{}, store.ErrDuplicate
		}
	}
	user.ID = s.nextID
	s.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = user
	return user, nil
}

func (s *stubUserRepo) UpdateProfile(ctx context.Context, id int, update types.ProfileUpdate) error {
	user, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	if update.Username != nil {
		user.Username = *update.Username
	}
	if update.Bio != nil {
		user.Bio = *update.Bio
	}
	if update.ProfileImageURL != nil {
		user.ProfileImageURL = *update.ProfileImageURL
	}
	s.users[id] = user
	return nil
}

func (s *stubUserRepo) SetProfileImage(ctx context.Context, id int, imageURL string) error {
	user, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.ProfileImageURL = imageURL
	s.users[id] = user
	return nil
}

type stubTrailRepo struct {
	trails map[int]types.Trail
	nextID int
}

func newStubTrailRepo() *stubTrailRepo {
	return &stubTrailRepo{trails: map[int]types.Trail{}, nextID: 1}
}

func (s *stubTrailRepo) List(ctx context.Context) ([]types.Trail, error) {
	trails := make([]types.Trail, 0, len(s.trails))
	for _, trail := range s.trails {
		trails = append(trails, trail)
	}
	sort.Slice(trails, func(i, j int) bool {
		return trails[i].CreatedAt.After(trails[j].CreatedAt)
	})
	return trails, nil
}

func (s *stubTrailRepo) ListByUser(ctx context.Context, userID int) ([]types.Trail, error) {
	all, _ := s.List(ctx)
	trails := make([]types.Trail, 0)
	for _, trail := range all {
		if trail.UserID == userID {
			trails = append(trails, trail)
		}
	}
	return trails, nil
}

func (s *stubTrailRepo) Get(ctx context.Context, id int) (types.Trail, error) {
	trail, ok := s.trails[id]
	if !ok {
		return types.Trail{}, store.ErrNotFound
	}
	return trail, nil
}

func (s *stubTrailRepo) Create(ctx context.Context, trail types.Trail) (types.Trail, error) {
	trail.ID = s.nextID
	s.nextID++
	trail.CreatedAt = time.Now()
	s.trails[trail.ID] = trail
	return trail, nil
}

func (s *stubTrailRepo) Update(ctx context.Context, trail types.Trail) (types.Trail, error) {
	existing, ok := s.trails[trail.ID]
	if !ok {
		return types.Trail{}, store.ErrNotFound
	}
	trail.UserID = existing.UserID
	trail.CreatedAt = existing.CreatedAt
	s.trails[trail.ID] = trail
	return trail, nil
}

func (s *stubTrailRepo) Delete(ctx context.Context, id int) error {
	if _, ok := s.trails[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.trails, id)
	return nil
}

type stubPointRepo struct {
	points    map[int]types.SpecialPoint
	nextID    int
	failBatch bool
}

func newStubPointRepo() *stubPointRepo {
	return &stubPointRepo{points: map[int]types.SpecialPoint{}, nextID: 1}
}

func (s *stubPointRepo) List(ctx context.Context) ([]types.SpecialPoint, error) {
	points := make([]types.SpecialPoint, 0, len(s.points))
	ids := make([]int, 0, len(s.points))
	for id := range s.points {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		points = append(points, s.points[id])
	}
	return points, nil
}

func (s *stubPointRepo) ListByTrail(ctx context.Context, trailID int) ([]types.SpecialPoint, error) {
	all, _ := s.List(ctx)
	points := make([]types.SpecialPoint, 0)
	for _, point := range all {
		if point.TrailID == trailID {
			points = append(points, point)
		}
	}
	return points, nil
}

func (s *stubPointRepo) Get(ctx context.Context, id int) (types.SpecialPoint, error) {
	point, ok := s.points[id]
	if !ok {
		return types.SpecialPoint{}, store.ErrNotFound
	}
	return point, nil
}

func (s *stubPointRepo) Create(ctx context.Context, point types.SpecialPoint) (types.SpecialPoint, error) {
	point.ID = s.nextID
	s.nextID++
	s.points[point.ID] = point
	return point, nil
}

func (s *stubPointRepo) CreateBatch(ctx context.Context, trailID int, points []types.SpecialPoint) error {
	if s.failBatch {
		return errors.New("batch insert failed")
	}
	for _, point := range points {
		point.TrailID = trailID
		if _, err := s.Create(ctx, point); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubPointRepo) Update(ctx context.Context, point types.SpecialPoint) (types.SpecialPoint, error) {
	existing, ok := s.points[point.ID]
	if !ok {
		return types.SpecialPoint{}, store.ErrNotFound
	}
	point.TrailID = existing.TrailID
	s.points[point.ID] = point
	return point, nil
}

func (s *stubPointRepo) Delete(ctx context.Context, id int) error {
	if _, ok := s.points[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.points, id)
	return nil
}

func newTestMediaStore(t *testing.T) (*media.Store, string) {
	t.Helper()
	dir := t.TempDir()
	backend, err := media.NewLocalBackend(dir)
	if err != nil {
		t.Fatalf("new local backend: %v", err)
	}
	if err := backend.EnsureReady(context.Background()); err != nil {
		t.Fatalf("ensure ready: %v", err)
	}
	return media.NewStore(backend), dir
}

type testEnv struct {
	router    *chi.Mux
	userRepo  *stubUserRepo
	trailRepo *stubTrailRepo
	pointRepo *stubPointRepo
	mediaDir  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	userRepo := newStubUserRepo()
	trailRepo := newStubTrailRepo()
	pointRepo := newStubPointRepo()

	pointService := services.NewSpecialPointService(pointRepo)
	trailService := services.NewTrailService(trailRepo, pointRepo)
	userService := services.NewUserService(userRepo)

	mediaStore, mediaDir := newTestMediaStore(t)
	authMiddleware := RequireAuth(testSecret)

	userHandler := NewUserHandler(userService, trailService, mediaStore, testSecret)
	trailHandler := NewTrailHandler(trailService, mediaStore)
	pointHandler := NewSpecialPointHandler(pointService)

	router := chi.NewRouter()
	router.Route("/api/users", func(r chi.Router) {
		UserRouter(r, userHandler, authMiddleware)
	})
	router.Route("/api/trails", func(r chi.Router) {
		TrailRouter(r, trailHandler, authMiddleware)
	})
	router.Route("/api/special-points", func(r chi.Router) {
		SpecialPointRouter(r, pointHandler)
	})

	return &testEnv{
		router:    router,
		userRepo:  userRepo,
		trailRepo: trailRepo,
		pointRepo: pointRepo,
		mediaDir:  mediaDir,
	}
}

func (e *testEnv) tokenFor(t *testing.T, userID int, role string) string {
	t.Helper()
	token, err := issueToken(userID, role, []byte(testSecret), time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

// mediaFileCount counts regular files under the test media directory.
func mediaFileCount(t *testing.T, dir string) int {
	t.Helper()

	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk media dir: %v", err)
	}
	return count
}

func addFormFile(t *testing.T, writer *multipart.Writer, field, filename, contentType string, data []byte) {
	t.Helper()

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
}
