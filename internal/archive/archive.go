// Package archive copies a company's audit trail to S3-compatible object
// storage as JSON Lines. Rows are not removed from the database.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	oc "github.com/dmitrijs2005/orgkeeper/internal/config"
	"github.com/dmitrijs2005/orgkeeper/internal/logging"
	"github.com/dmitrijs2005/orgkeeper/internal/models"
	"github.com/google/uuid"
)

const contentType = "application/x-ndjson"

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	newUUID = uuid.New
)

// AuditReader lists the audit entries of one company.
type AuditReader interface {
	ForCompany(ctx context.Context, companyID int64) ([]*models.AuditLog, error)
}

// Exporter uploads audit trails to the bucket named in the config.
type Exporter struct {
	audit  AuditReader
	config *oc.Config
	log    logging.Logger
	now    func() time.Time
}

// NewExporter returns an Exporter reading from audit. A nil log discards
// output.
func NewExporter(audit AuditReader, cfg *oc.Config, log logging.Logger) *Exporter {
	if log == nil {
		log = logging.Nop{}
	}
	return &Exporter{
		audit:  audit,
		config: cfg,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Result describes one uploaded archive. Key is empty when there was
// nothing to upload.
type Result struct {
	Key   string
	Count int
}

// ObjectKey is audit/<company_id>/<yyyy>/<mm>/<dd>/<uuid>.jsonl.
func ObjectKey(companyID int64, at time.Time, id uuid.UUID) string {
	return fmt.Sprintf("audit/%d/%04d/%02d/%02d/%s.jsonl", companyID, at.Year(), int(at.Month()), at.Day(), id)
}

// Encode writes entries as JSON Lines, one object per line.
func Encode(entries []*models.AuditLog) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return nil, fmt.Errorf("encode audit log %d: %w", e.ID, err)
		}
	}
	return buf.Bytes(), nil
}

func (x *Exporter) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(x.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			x.config.S3RootUser,
			x.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if x.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(x.config.S3BaseEndpoint)
			// MinIO and friends serve buckets under the path
			o.UsePathStyle = true
		}
	}), nil
}

// Export uploads the audit trail of companyID as a single object.
func (x *Exporter) Export(ctx context.Context, companyID int64) (*Result, error) {
	entries, err := x.audit.ForCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("read audit trail: %w", err)
	}
	if len(entries) == 0 {
		x.log.Info(ctx, "audit archive skipped, no entries", "company_id", companyID)
		return &Result{}, nil
	}

	body, err := Encode(entries)
	if err != nil {
		return nil, err
	}

	client, err := x.client(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	key := ObjectKey(companyID, x.now(), newUUID())
	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:        aws.String(x.config.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		x.log.Error(ctx, "audit archive upload failed", "company_id", companyID, "key", key, "error", err)
		return nil, fmt.Errorf("put %s: %w", key, err)
	}

	x.log.Info(ctx, "audit archive uploaded", "company_id", companyID, "key", key, "entries", len(entries))
	return &Result{Key: key, Count: len(entries)}, nil
}
