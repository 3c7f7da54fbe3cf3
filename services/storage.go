package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"salonica-backend/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	FileTypeLicense = "license"
	FileTypeLogo    = "logo"

	BucketSalonDocuments = "salon-documents"
	BucketSalonLogos     = "salon-logos"
)

// BucketFor maps an upload type to its bucket. Unknown types land with the
// documents.
func BucketFor(fileType string) string {
	if fileType == FileTypeLogo {
		return BucketSalonLogos
	}
	return BucketSalonDocuments
}

func IsValidFileType(fileType string) bool {
	return fileType == FileTypeLicense || fileType == FileTypeLogo
}

// FileUpload is a file received from a client.
type FileUpload struct {
	Filename string
	Body     io.Reader
}

// FileStore persists uploaded files and hands out time limited links.
type FileStore interface {
	Upload(ctx context.Context, bucket, objectPath string, body io.Reader) error
	SignedURL(bucket, objectPath string) (string, error)
}

type signedURLClaims struct {
	Bucket string `json:"bucket"`
	Path   string `json:"path"`
	jwt.RegisteredClaims
}

// LocalStorage keeps buckets as directories on disk and signs download links
// with a JWT.
type LocalStorage struct {
	root    string
	baseURL string
	secret  []byte
	expiry  time.Duration
}

func NewLocalStorage(root, baseURL, secret string, expiry time.Duration) *LocalStorage {
	return &LocalStorage{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  []byte(secret),
		expiry:  expiry,
	}
}

func (s *LocalStorage) Upload(ctx context.Context, bucket, objectPath string, body io.Reader) error {
	full, err := s.resolve(bucket, objectPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(full); err == nil {
		return fmt.Errorf("object %s/%s already exists", bucket, objectPath)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create bucket dir: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("create object: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return fmt.Errorf("write object: %w", err)
	}
	return nil
}

func (s *LocalStorage) SignedURL(bucket, objectPath string) (string, error) {
	if _, err := s.resolve(bucket, objectPath); err != nil {
		return "", err
	}
	now := time.Now()
	claims := signedURLClaims{
		Bucket: bucket,
		Path:   objectPath,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign url: %w", err)
	}

	var escaped []string
	for _, seg := range strings.Split(objectPath, "/") {
		escaped = append(escaped, url.PathEscape(seg))
	}
	return fmt.Sprintf("%s/api/files/%s/%s?token=%s", s.baseURL, bucket, strings.Join(escaped, "/"), url.QueryEscape(token)), nil
}

// Open returns the object when token was signed for exactly that object and
// has not expired.
func (s *LocalStorage) Open(bucket, objectPath, token string) (*os.File, error) {
	claims := &signedURLClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, utils.NewForbiddenError("Link has expired")
		}
		return nil, utils.NewForbiddenError("Invalid link")
	}
	if claims.Bucket != bucket || claims.Path != objectPath {
		return nil, utils.NewForbiddenError("Invalid link")
	}

	full, err := s.resolve(bucket, objectPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, utils.NewNotFoundError("File not found")
	}
	if err != nil {
		return nil, fmt.Errorf("open object: %w", err)
	}
	return f, nil
}

func (s *LocalStorage) resolve(bucket, objectPath string) (string, error) {
	if bucket != BucketSalonDocuments && bucket != BucketSalonLogos {
		return "", utils.NewValidationError("Unknown bucket")
	}
	for _, seg := range strings.Split(objectPath, "/") {
		if seg == ".." {
			return "", utils.NewValidationError("Invalid file path")
		}
	}
	clean := path.Clean("/" + objectPath)
	if clean == "/" {
		return "", utils.NewValidationError("Invalid file path")
	}
	return filepath.Join(s.root, bucket, filepath.FromSlash(clean)), nil
}

// UploadSalonFile stores a salon attachment and returns its signed URL.
func UploadSalonFile(ctx context.Context, store FileStore, salonID uuid.UUID, fileType string, file FileUpload) (string, error) {
	name := sanitizeFilename(file.Filename)
	objectPath := fmt.Sprintf("%s/%s/%s", salonID, fileType, name)
	bucket := BucketFor(fileType)

	if err := store.Upload(ctx, bucket, objectPath, file.Body); err != nil {
		return "", utils.NewUpstreamError("File upload failed", err)
	}
	signed, err := store.SignedURL(bucket, objectPath)
	if err != nil {
		return "", utils.NewUpstreamError("File upload failed", err)
	}
	return signed, nil
}

// RefreshSignedURL issues a new link for an object stored as
// <salon_id>/<file_type>/<name>.
func RefreshSignedURL(store FileStore, objectPath string) (string, error) {
	parts := strings.Split(strings.TrimPrefix(objectPath, "/"), "/")
	if len(parts) < 3 || !IsValidFileType(parts[1]) {
		return "", utils.NewValidationError("Invalid file path", "expected <salon_id>/<license|logo>/<filename>")
	}
	signed, err := store.SignedURL(BucketFor(parts[1]), strings.Join(parts, "/"))
	if err != nil {
		if utils.KindOf(err) != 0 {
			return "", err
		}
		return "", utils.NewUpstreamError("Failed to regenerate signed URL", err)
	}
	return signed, nil
}

// sanitizeFilename keeps the base name and prefixes it so repeat uploads of
// the same file do not collide.
func sanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == "_" {
		base = "file"
	}
	return uuid.NewString()[:8] + "_" + base
}
