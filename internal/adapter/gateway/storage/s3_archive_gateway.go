package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/YoshitsuguKoike/auditjournal/internal/application/port/output"
)

// S3 object metadata keys
const (
	metaRecordID  = "record-id"
	metaJournalID = "journal-id"
	metaStoredAt  = "stored-at"
	metaArchived  = "archived-at"
)

// S3ArchiveGateway implements ArchiveGateway using AWS S3
// Bucket structure: s3://<bucket>/<prefix>/journals/<record id>.json
type S3ArchiveGateway struct {
	client     S3API
	bucketName string
	prefix     string // Optional prefix for all keys (e.g., "audit/prod")
	now        func() time.Time
}

// S3Config holds S3 archive gateway configuration
type S3Config struct {
	BucketName string // S3 bucket name
	Prefix     string // Optional key prefix
	Region     string // AWS region (optional, uses default if empty)
}

// NewS3ArchiveGateway creates an S3 archive gateway from the default AWS
// credential chain
func NewS3ArchiveGateway(ctx context.Context, cfg S3Config) (*S3ArchiveGateway, error) {
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("s3 bucket name is required")
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return NewS3ArchiveGatewayWithClient(s3.NewFromConfig(awsCfg), cfg.BucketName, cfg.Prefix), nil
}

// NewS3ArchiveGatewayWithClient creates an S3 archive gateway with a custom
// client. Tests use it with MockS3Client.
func NewS3ArchiveGatewayWithClient(client S3API, bucketName, prefix string) *S3ArchiveGateway {
	return &S3ArchiveGateway{
		client:     client,
		bucketName: bucketName,
		prefix:     prefix,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SaveJournal uploads one journal document
func (g *S3ArchiveGateway) SaveJournal(ctx context.Context, req output.SaveJournalRequest) (*output.ArchiveMetadata, error) {
	key := g.buildKey(journalsDir, archiveName(req.RecordID))
	archivedAt := g.now()

	s3Metadata := map[string]string{
		metaRecordID:  strconv.FormatInt(req.RecordID, 10),
		metaJournalID: req.JournalID,
		metaStoredAt:  req.StoredAt.UTC().Format(time.RFC3339Nano),
		metaArchived:  archivedAt.Format(time.RFC3339Nano),
	}
	for k, v := range req.Metadata {
		s3Metadata[k] = v
	}

	_, err := g.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(g.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(req.Content),
		ContentType: aws.String("application/json"),
		Metadata:    s3Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("upload to S3: %w", err)
	}

	return &output.ArchiveMetadata{
		RecordID:    req.RecordID,
		JournalID:   req.JournalID,
		StoragePath: fmt.Sprintf("s3://%s/%s", g.bucketName, key),
		Size:        int64(len(req.Content)),
		ArchivedAt:  archivedAt,
	}, nil
}

// ListArchived lists archived journals in ascending record id order
func (g *S3ArchiveGateway) ListArchived(ctx context.Context) ([]*output.ArchiveMetadata, error) {
	prefix := g.buildKey(journalsDir) + "/"
	var list []*output.ArchiveMetadata

	var token *string
	for {
		page, err := g.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(g.bucketName),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list S3 objects: %w", err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			id, ok := parseArchiveName(key)
			if !ok {
				continue
			}
			meta := &output.ArchiveMetadata{
				RecordID:    id,
				StoragePath: fmt.Sprintf("s3://%s/%s", g.bucketName, key),
				Size:        aws.ToInt64(obj.Size),
			}
			// Objects without readable metadata are still listed
			head, err := g.client.HeadObject(ctx, &s3.HeadObjectInput{
				Bucket: aws.String(g.bucketName),
				Key:    aws.String(key),
			})
			if err == nil {
				meta.JournalID = head.Metadata[metaJournalID]
				if ts, err := time.Parse(time.RFC3339Nano, head.Metadata[metaArchived]); err == nil {
					meta.ArchivedAt = ts
				}
			}
			list = append(list, meta)
		}

		if !aws.ToBool(page.IsTruncated) || page.NextContinuationToken == nil {
			break
		}
		token = page.NextContinuationToken
	}

	sort.Slice(list, func(i, j int) bool { return list[i].RecordID < list[j].RecordID })
	return list, nil
}

// buildKey builds an S3 key with the configured prefix
func (g *S3ArchiveGateway) buildKey(parts ...string) string {
	if g.prefix != "" {
		parts = append([]string{g.prefix}, parts...)
	}
	return path.Join(parts...)
}

var _ output.ArchiveGateway = (*S3ArchiveGateway)(nil)
