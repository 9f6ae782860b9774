package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/trailtrace/apiserver/internal/media"
)

const (
	maxMultipartMemory = 128 << 20
	maxTrailMediaBytes = 100 << 20
	maxProfileBytes    = 5 << 20

	formFieldPhoto        = "photo"
	formFieldVideo        = "video"
	formFieldProfileImage = "profile_image"

	namespaceProfiles    = "profiles"
	namespaceTrailPhotos = "trails/photos"
	namespaceTrailVideos = "trails/videos"
)

// profileImageExts is the extension allow-list for profile images.
var profileImageExts = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
}

// uploadRule constrains a single multipart file field.
type uploadRule struct {
	namespace  string
	mimePrefix string
	maxBytes   int64
	exts       map[string]bool
}

var (
	trailPhotoRule = uploadRule{
		namespace:  namespaceTrailPhotos,
		mimePrefix: "image/",
		maxBytes:   maxTrailMediaBytes,
	}
	trailVideoRule = uploadRule{
		namespace:  namespaceTrailVideos,
		mimePrefix: "video/",
		maxBytes:   maxTrailMediaBytes,
	}
	profileImageRule = uploadRule{
		namespace:  namespaceProfiles,
		mimePrefix: "image/",
		maxBytes:   maxProfileBytes,
		exts:       profileImageExts,
	}
)

// formFile returns the single file uploaded under the field, or nil when the
// field is absent.
func formFile(form *multipart.Form, field string) (*multipart.FileHeader, error) {
	if form == nil {
		return nil, nil
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > 1 {
		return nil, fmt.Errorf("only one %s file is allowed", field)
	}
	return files[0], nil
}

// saveUpload validates the uploaded file against the rule and stores it,
// returning the public URL. Validation happens before the store is touched.
func saveUpload(r *http.Request, store *media.Store, header *multipart.FileHeader, field string, rule uploadRule) (string, error) {
	if err := validateUpload(header, field, rule); err != nil {
		return "", err
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to read %s file: %w", field, err)
	}
	data, err := readFileLimited(file, rule.maxBytes)
	_ = file.Close()
	if err != nil {
		return "", err
	}

	key := rule.namespace + "/" + uniqueFilename(field, header.Filename)
	contentType := header.Header.Get("Content-Type")
	return store.Save(r.Context(), key, bytes.NewReader(data), int64(len(data)), contentType)
}

func validateUpload(header *multipart.FileHeader, field string, rule uploadRule) error {
	contentType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if !strings.HasPrefix(contentType, rule.mimePrefix) {
		return fmt.Errorf("not a valid %s file", strings.TrimSuffix(rule.mimePrefix, "/"))
	}
	if rule.exts != nil {
		ext := strings.ToLower(path.Ext(header.Filename))
		if !rule.exts[ext] {
			return errors.New("images only (jpeg, jpg, png)")
		}
	}
	if header.Size > rule.maxBytes {
		return errors.New("uploaded file too large")
	}
	return nil
}

// uniqueFilename composes the stored name from the field name, a
// time/random suffix, and the original extension.
func uniqueFilename(field, original string) string {
	suffix := fmt.Sprintf("%d-%d", time.Now().UnixMilli(), rand.Intn(1_000_000_000))
	return field + "-" + suffix + strings.ToLower(path.Ext(original))
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
