package akdclient

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/bitwarden/akd-watch/internal/akdwatch"
)

// s3API is the subset of *s3.Client this package calls, so tests can
// substitute a fake without standing up a real bucket.
type s3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3DirectoryClient implements DirectoryClient against an S3-compatible
// bucket, using ListObjectsV2's prefix listing ("?list-type=2&prefix=") to
// discover whichever blob a directory server published for a given
// starting epoch.
type S3DirectoryClient struct {
	api    s3API
	bucket string
}

// NewS3DirectoryClient builds a DirectoryClient around client, typically a
// *s3.Client from s3.NewFromConfig; any type satisfying s3API works, which
// is how tests substitute a fake.
func NewS3DirectoryClient(client s3API, bucket string) *S3DirectoryClient {
	return &S3DirectoryClient{api: client, bucket: bucket}
}

func prefixFor(logDirectory string, epoch akdwatch.Epoch) string {
	return fmt.Sprintf("%s/%d-", strings.TrimSuffix(logDirectory, "/"), epoch)
}

// list returns every object key under prefix, sorted lexicographically.
// A directory server is expected to publish at most one blob per
// starting epoch, but listing defensively tolerates more than one key and
// picks deterministically.
func (c *S3DirectoryClient) list(ctx context.Context, prefix string) ([]string, error) {
	out, err := c.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("akdclient: list %s: %w", prefix, err)
	}
	keys := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		if obj.Key != nil {
			keys = append(keys, *obj.Key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (c *S3DirectoryClient) HasProof(ctx context.Context, logDirectory string, epoch akdwatch.Epoch) (bool, error) {
	keys, err := c.list(ctx, prefixFor(logDirectory, epoch))
	if err != nil {
		return false, err
	}
	return len(keys) > 0, nil
}

func (c *S3DirectoryClient) ProofName(ctx context.Context, logDirectory string, epoch akdwatch.Epoch) (AuditBlobName, error) {
	keys, err := c.list(ctx, prefixFor(logDirectory, epoch))
	if err != nil {
		return AuditBlobName{}, err
	}
	if len(keys) == 0 {
		return AuditBlobName{}, ErrProofNotFound
	}
	base := keys[0]
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	return parseAuditBlobName(base)
}

func (c *S3DirectoryClient) FetchProof(ctx context.Context, logDirectory string, name AuditBlobName) (ProofBlob, error) {
	key := fmt.Sprintf("%s/%s", strings.TrimSuffix(logDirectory, "/"), name.Key())

	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket:               aws.String(c.bucket),
		Key:                  aws.String(key),
		ResponseCacheControl: aws.String("no-store"),
	})
	if err != nil {
		if strings.Contains(err.Error(), "NoSuchKey") {
			return ProofBlob{}, ErrProofNotFound
		}
		return ProofBlob{}, fmt.Errorf("akdclient: get %s: %w", key, err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return ProofBlob{}, fmt.Errorf("akdclient: read %s: %w", key, err)
	}
	return decodeProofBlob(raw)
}

// parseAuditBlobName reverses AuditBlobName.String for a key fetched from
// object-store listing, where only the object's base name is known.
func parseAuditBlobName(base string) (AuditBlobName, error) {
	parts := strings.SplitN(base, "-", 3)
	if len(parts) != 3 {
		return AuditBlobName{}, fmt.Errorf("akdclient: malformed blob name %q", base)
	}
	var epoch uint64
	if _, err := fmt.Sscanf(parts[0], "%d", &epoch); err != nil {
		return AuditBlobName{}, fmt.Errorf("akdclient: malformed blob name %q: %w", base, err)
	}
	prev, err := akdwatch.DigestFromHex(parts[1])
	if err != nil {
		return AuditBlobName{}, fmt.Errorf("akdclient: malformed blob name %q: %w", base, err)
	}
	cur, err := akdwatch.DigestFromHex(parts[2])
	if err != nil {
		return AuditBlobName{}, fmt.Errorf("akdclient: malformed blob name %q: %w", base, err)
	}
	return AuditBlobName{Epoch: akdwatch.Epoch(epoch), PreviousHash: prev, CurrentHash: cur}, nil
}
