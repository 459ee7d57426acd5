// Package objectstore lists and fetches GLM LCFA granules from the public
// NOAA GOES S3 buckets using anonymous access.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DefaultRegion is the region NOAA's public GOES buckets live in.
const DefaultRegion = "us-east-1"

// DefaultFetchTimeout bounds every List/Fetch request when a caller passes a
// zero timeout to New, per spec.md §5's default 10s-per-request requirement.
const DefaultFetchTimeout = 10 * time.Second

// keyPattern matches NOAA's GLM LCFA object key layout:
// GLM-L2-LCFA/YYYY/DDD/HH/OR_GLM-L2-LCFA_G1x_sYYYYDDDHHMMSSs_eYYYYDDDHHMMSSs_cYYYYDDDHHMMSSs.nc
var keyPattern = regexp.MustCompile(`^GLM-L2-LCFA/(\d{4})/(\d{3})/(\d{2})/OR_GLM-L2-LCFA_G\d+_s\d{14}_e\d{14}_c\d{14}\.nc$`)

// Store lists and fetches objects from a single anonymous-access S3 bucket.
type Store struct {
	client  *s3.Client
	bucket  string
	log     *slog.Logger
	timeout time.Duration
}

// New builds a Store against the given bucket (e.g. "noaa-goes16" or
// "noaa-goes18"), using anonymous credentials — these buckets are public and
// reject signed requests with 403s if a caller accidentally attaches one.
// timeout bounds every List/Fetch request issued by the returned Store; a
// zero timeout falls back to DefaultFetchTimeout.
func New(ctx context.Context, bucket string, timeout time.Duration, log *slog.Logger) (*Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(DefaultRegion),
		config.WithCredentialsProvider(aws.AnonymousCredentials{}),
	)
	if err != nil {
		return nil, fmt.Errorf("objectstore: load aws config: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Store{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		log:     log,
		timeout: timeout,
	}, nil
}

// ValidateKey reports whether key matches the expected GLM LCFA object key
// layout. Used to reject malformed keys before ingest attempts waste an S3
// round trip.
func ValidateKey(key string) bool {
	return keyPattern.MatchString(key)
}

// ObjectInfo describes one listed granule object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// hourPrefix builds the "GLM-L2-LCFA/YYYY/DDD/HH/" prefix S3 ListObjectsV2
// accepts for a given UTC instant.
func hourPrefix(t time.Time) string {
	u := t.UTC()
	return fmt.Sprintf("GLM-L2-LCFA/%04d/%03d/%02d/", u.Year(), u.YearDay(), u.Hour())
}

// List returns every granule object under the hour prefix containing t,
// sorted by key (which sorts chronologically since keys embed start times).
// The request is bounded by the Store's configured timeout.
func (s *Store) List(ctx context.Context, t time.Time) ([]ObjectInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prefix := hourPrefix(t)

	var out []ObjectInfo
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("objectstore: list %s/%s: %w", s.bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !ValidateKey(key) {
				continue
			}
			info := ObjectInfo{Key: key, Size: aws.ToInt64(obj.Size)}
			if obj.LastModified != nil {
				info.LastModified = *obj.LastModified
			}
			out = append(out, info)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Latest returns the newest granule in the hour containing t, or else in the
// nearest earlier hour that has one, scanning backward across hour
// boundaries (and across the day-of-year boundary at UTC midnight) up to
// maxLookback before giving up. An hour whose listing fails is logged and
// skipped; an error is returned only if every hour in the horizon failed to
// list. Returns nil, nil when no granule is found.
func (s *Store) Latest(ctx context.Context, t time.Time, maxLookback time.Duration) (*ObjectInfo, error) {
	cursor := t.UTC()
	deadline := cursor.Add(-maxLookback)

	var listErr error
	listed := false
	for cursor.After(deadline) {
		objs, err := s.List(ctx, cursor)
		if err != nil {
			s.log.Warn("objectstore: list failed", "bucket", s.bucket, "cursor", cursor, "err", err)
			listErr = err
		} else {
			listed = true
			if len(objs) > 0 {
				latest := objs[len(objs)-1]
				return &latest, nil
			}
		}
		cursor = cursor.Add(-time.Hour)
	}
	if !listed && listErr != nil {
		return nil, listErr
	}
	return nil, nil
}

// Fetch downloads a granule object's full body. The request is bounded by
// the Store's configured timeout.
func (s *Store) Fetch(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore: get %s/%s: %w", s.bucket, key, err)
	}
	defer result.Body.Close()

	body, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("objectstore: read %s/%s: %w", s.bucket, key, err)
	}
	return body, nil
}

// Bucket reports the bucket this store reads from.
func (s *Store) Bucket() string {
	return s.bucket
}

// StartTime parses a granule key's scan-start timestamp (the "sYYYYDDDHHMMSSs"
// field). Returns an error if key does not match the expected layout.
func StartTime(key string) (time.Time, error) {
	const marker = "_s"
	idx := strings.Index(key, marker)
	if idx < 0 || idx+2+14 > len(key) {
		return time.Time{}, fmt.Errorf("objectstore: key %q missing start-time field", key)
	}
	field := key[idx+2 : idx+2+14]

	year, err1 := strconv.Atoi(field[0:4])
	day, err2 := strconv.Atoi(field[4:7])
	hour, err3 := strconv.Atoi(field[7:9])
	minute, err4 := strconv.Atoi(field[9:11])
	sec, err5 := strconv.Atoi(field[11:13])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
		return time.Time{}, fmt.Errorf("objectstore: key %q has non-numeric start-time field", key)
	}

	base := time.Date(year, time.January, 1, hour, minute, sec, 0, time.UTC)
	return base.AddDate(0, 0, day-1), nil
}
