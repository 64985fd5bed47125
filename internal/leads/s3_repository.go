package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3Putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Repository archives each lead as a JSON object under prefix/yyyy/mm/dd/<id>.json.
type S3Repository struct {
	client s3Putter
	bucket string
	prefix string
}

// NewS3Repository builds an object-store sink. prefix defaults to "leads".
func NewS3Repository(client s3Putter, bucket, prefix string) *S3Repository {
	if client == nil {
		panic("leads: s3 client cannot be nil")
	}
	if bucket == "" {
		panic("leads: bucket cannot be empty")
	}
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "leads"
	}
	return &S3Repository{client: client, bucket: bucket, prefix: prefix}
}

// ObjectKey returns the key lead is stored under.
func (r *S3Repository) ObjectKey(lead ScoredLead) string {
	t := lead.Submission.ReceivedAt.UTC()
	return fmt.Sprintf("%s/%d/%02d/%02d/%s.json", r.prefix, t.Year(), t.Month(), t.Day(), lead.ID)
}

// Append uploads the lead document.
func (r *S3Repository) Append(ctx context.Context, lead ScoredLead) error {
	data, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("leads: marshal lead: %w", err)
	}
	key := r.ObjectKey(lead)
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("leads: s3 put %s: %w", key, err)
	}
	return nil
}
