package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/john/guildlog/internal/logging"
	"github.com/john/guildlog/internal/metrics"
	"github.com/john/guildlog/internal/recorder"
)

// objectStore is the part of *s3.Client the uploader uses
type objectStore interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Options configures the archive target
type Options struct {
	Bucket          string
	Region          string
	Prefix          string
	Endpoint        string
	RoleARN         string
	AccessKeyID     string
	SecretAccessKey string
	MaxRetries      int
}

// Uploader copies completed day files to S3. Local files are never
// modified or removed.
type Uploader struct {
	store      objectStore
	bucket     string
	prefix     string
	maxRetries int
	backoff    time.Duration
	metrics    *metrics.Metrics
	now        func() time.Time

	mu       sync.Mutex
	archived map[string]bool
}

// flyTokenRetriever implements stscreds.IdentityTokenRetriever for Fly.io OIDC
type flyTokenRetriever struct {
	socketPath string
	audience   string
}

// GetIdentityToken fetches an OIDC token from Fly.io's Unix socket API
func (f *flyTokenRetriever) GetIdentityToken() ([]byte, error) {
	client := &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				return net.Dial("unix", f.socketPath)
			},
		},
		Timeout: 5 * time.Second,
	}

	reqBody, err := json.Marshal(map[string]string{
		"aud": f.audience,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	resp, err := client.Post("http://localhost/v1/tokens/oidc", "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	token, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	return token, nil
}

// New creates an uploader. A role ARN selects OIDC web identity; otherwise
// static credentials are used.
func New(ctx context.Context, opts Options, m *metrics.Metrics) (*Uploader, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.RoleARN == "" {
		logging.Warn("Using static AWS credentials (deprecated). Migrate to OIDC for better security.")
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	if opts.RoleARN != "" {
		logging.Info("Using OIDC authentication with role: %s", opts.RoleARN)
		provider := stscreds.NewWebIdentityRoleProvider(
			sts.NewFromConfig(cfg),
			opts.RoleARN,
			&flyTokenRetriever{socketPath: "/.fly/api", audience: "sts.amazonaws.com"},
		)
		cfg.Credentials = aws.NewCredentialsCache(provider)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newWithStore(client, opts, m), nil
}

func newWithStore(store objectStore, opts Options, m *metrics.Metrics) *Uploader {
	return &Uploader{
		store:      store,
		bucket:     opts.Bucket,
		prefix:     strings.Trim(opts.Prefix, "/"),
		maxRetries: opts.MaxRetries,
		backoff:    time.Second,
		metrics:    m,
		now:        time.Now,
		archived:   make(map[string]bool),
	}
}

// Start archives closed day files from dir now and then on every tick
func (u *Uploader) Start(ctx context.Context, dir string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := u.ScanAndUpload(ctx, dir); err != nil {
			logging.Warn("Failed to scan %s for archivable files: %v", dir, err)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			logging.Info("Uploader shutting down...")
			return ctx.Err()
		}
	}
}

// ScanAndUpload uploads every day file in dir whose UTC day has ended
func (u *Uploader) ScanAndUpload(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read directory: %w", err)
	}

	today := u.now().UTC().Truncate(24 * time.Hour)
	var pending []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), recorder.FileExt) {
			continue
		}
		_, day, err := recorder.ParseFileName(entry.Name())
		if err != nil {
			logging.Debug("Skipping unrecognized file %s: %v", entry.Name(), err)
			continue
		}
		// Today's file is still being appended to
		if !day.Before(today) || u.isArchived(entry.Name()) {
			continue
		}
		pending = append(pending, entry.Name())
	}
	sort.Strings(pending)

	for _, name := range pending {
		if err := u.archive(ctx, filepath.Join(dir, name)); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.Error("Failed to archive %s: %v", name, err)
			u.metrics.FileArchived("failed")
		}
	}
	return nil
}

func (u *Uploader) isArchived(name string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.archived[name]
}

func (u *Uploader) markArchived(name string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.archived[name] = true
}

func (u *Uploader) archive(ctx context.Context, localPath string) error {
	filename := filepath.Base(localPath)
	key, err := generateS3Key(u.prefix, filename)
	if err != nil {
		return err
	}

	exists, err := u.exists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		u.markArchived(filename)
		u.metrics.FileArchived("exists")
		return nil
	}

	for attempt := 0; attempt <= u.maxRetries; attempt++ {
		err = u.uploadFile(ctx, localPath, key)
		if err == nil {
			logging.Info("Archived %s to s3://%s/%s", filename, u.bucket, key)
			u.markArchived(filename)
			u.metrics.FileArchived("uploaded")
			return nil
		}

		if attempt < u.maxRetries {
			backoff := u.backoff * time.Duration(1<<uint(attempt))
			logging.Warn("Upload attempt %d/%d failed for %s: %v. Retrying in %v",
				attempt+1, u.maxRetries, filename, err, backoff)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("upload failed after %d attempts: %w", u.maxRetries+1, err)
}

func (u *Uploader) exists(ctx context.Context, key string) (bool, error) {
	_, err := u.store.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, fmt.Errorf("head object: %w", err)
}

func (u *Uploader) uploadFile(ctx context.Context, localPath, key string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	_, err = u.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// generateS3Key generates an S3 key from a day file name
// Input: 1234567890-2025-12-30.log
// Output: <prefix>/2025/12/30/1234567890/1234567890-2025-12-30.log
func generateS3Key(prefix, filename string) (string, error) {
	guildID, day, err := recorder.ParseFileName(filename)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%04d/%02d/%02d/%s/%s", day.Year(), day.Month(), day.Day(), guildID, filename)
	if prefix != "" {
		key = path.Join(prefix, key)
	}
	return key, nil
}
