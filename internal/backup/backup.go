// Package backup archives a finished run's Result document to
// S3-compatible storage (spec §6), grounded on the teacher's
// internal/reliability.R2BackupService: same upload/list/rotate shape,
// generalized from "periodic hot-database backup" to "archive one
// finished backtest's result".
package backup

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Archiver uploads result archives to a single S3 bucket and manages
// their retention.
type Archiver struct {
	client *s3.Client
	bucket string
	prefix string
	log    zerolog.Logger
}

// New creates an Archiver targeting bucket, using the given S3 client
// (pre-configured for whichever S3-compatible endpoint the deployment
// uses — AWS S3, R2, MinIO).
func New(client *s3.Client, bucket, prefix string, log zerolog.Logger) *Archiver {
	return &Archiver{
		client: client,
		bucket: bucket,
		prefix: prefix,
		log:    log.With().Str("component", "backup").Logger(),
	}
}

// ArchiveInfo describes one archived result stored in the bucket.
type ArchiveInfo struct {
	Key       string
	Timestamp time.Time
	SizeBytes int64
	AgeHours  int64
}

// UploadResult uploads the result file at localPath under a timestamped
// key and returns that key.
func (a *Archiver) UploadResult(ctx context.Context, localPath string, runTimestamp time.Time) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("backup: failed to open result file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("backup: failed to stat result file: %w", err)
	}

	key := fmt.Sprintf("%sresult-%s.json", a.prefix, runTimestamp.UTC().Format("2006-01-02-150405"))

	uploader := manager.NewUploader(a.client)
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return "", fmt.Errorf("backup: failed to upload result: %w", err)
	}

	a.log.Info().
		Str("key", key).
		Int64("size_bytes", info.Size()).
		Msg("result archived")

	return key, nil
}

// List returns every archive currently stored under the Archiver's
// prefix, newest first.
func (a *Archiver) List(ctx context.Context) ([]ArchiveInfo, error) {
	out, err := a.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(a.prefix + "result-"),
	})
	if err != nil {
		return nil, fmt.Errorf("backup: failed to list archives: %w", err)
	}

	now := time.Now()
	var archives []ArchiveInfo
	for _, obj := range out.Contents {
		if obj.Key == nil {
			continue
		}
		key := *obj.Key
		name := strings.TrimPrefix(key, a.prefix)
		tsStr := strings.TrimSuffix(strings.TrimPrefix(name, "result-"), ".json")
		ts, err := time.Parse("2006-01-02-150405", tsStr)
		if err != nil {
			a.log.Warn().Str("key", key).Msg("skipping archive with unparsable timestamp")
			continue
		}
		var size int64
		if obj.Size != nil {
			size = *obj.Size
		}
		archives = append(archives, ArchiveInfo{
			Key:       key,
			Timestamp: ts,
			SizeBytes: size,
			AgeHours:  int64(now.Sub(ts).Hours()),
		})
	}

	sort.Slice(archives, func(i, j int) bool { return archives[i].Timestamp.After(archives[j].Timestamp) })
	return archives, nil
}

// Rotate deletes archives older than retentionDays, always keeping at
// least minKeep of the newest archives regardless of age.
func (a *Archiver) Rotate(ctx context.Context, retentionDays int, minKeep int) error {
	archives, err := a.List(ctx)
	if err != nil {
		return err
	}
	if len(archives) <= minKeep {
		return nil
	}
	if retentionDays <= 0 {
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	deleted := 0
	for i, arc := range archives {
		if i < minKeep || !arc.Timestamp.Before(cutoff) {
			continue
		}
		_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(a.bucket),
			Key:    aws.String(arc.Key),
		})
		if err != nil {
			a.log.Error().Err(err).Str("key", arc.Key).Msg("failed to delete archive")
			continue
		}
		deleted++
	}

	a.log.Info().Int("deleted", deleted).Int("remaining", len(archives)-deleted).Msg("archive rotation complete")
	return nil
}
