// Package artifact uploads rendered certificates to durable object
// storage and hands back the public URL recorded on the issuance.
//
// Upload failures are classified through pkg/platform/sentinel
// (ErrUnreachable, ErrAccessDenied) so the pipeline can report an
// actionable per-recipient reason instead of a generic fault.
package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"vellum/pkg/platform/sentinel"
)

// S3Config holds configuration for the S3-backed store.
type S3Config struct {
	Bucket        string
	Region        string
	Endpoint      string // optional custom endpoint (MinIO, LocalStack)
	Prefix        string // optional key prefix, e.g. "certificates/"
	PublicBaseURL string // optional base for returned URLs (CDN or proxy)
}

// S3Store persists artifacts in an S3-compatible bucket under their
// issuance identifier. Re-uploading the same identifier replaces the
// prior object, so a retried issuance never strands partial state.
type S3Store struct {
	client *s3.Client
	cfg    S3Config
}

// NewS3Store builds an S3-backed artifact store. A custom endpoint
// switches the client to path-style addressing as MinIO and LocalStack
// require.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client, cfg: cfg}, nil
}

// Upload writes the artifact bytes under the issuance identifier and
// returns the durable retrieval URL.
func (s *S3Store) Upload(ctx context.Context, issuanceID string, data []byte, contentType string) (string, error) {
	key := s.cfg.Prefix + issuanceID + extensionFor(contentType)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		if cause := classify(err); cause != nil {
			return "", fmt.Errorf("put %s: %w: %w", key, cause, err)
		}
		return "", fmt.Errorf("put %s: %w", key, err)
	}

	return s.url(key), nil
}

func (s *S3Store) url(key string) string {
	if s.cfg.PublicBaseURL != "" {
		return strings.TrimSuffix(s.cfg.PublicBaseURL, "/") + "/" + key
	}
	if s.cfg.Endpoint != "" {
		return strings.TrimSuffix(s.cfg.Endpoint, "/") + "/" + s.cfg.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "application/pdf":
		return ".pdf"
	default:
		return ""
	}
}

// classify maps a failed upload to a platform sentinel when the cause is
// recognizable. Credential and policy rejections become ErrAccessDenied;
// DNS and connectivity faults become ErrUnreachable. Anything else is
// left unclassified and surfaces as a generic upload failure.
func classify(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "AllAccessDisabled", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return sentinel.ErrAccessDenied
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return sentinel.ErrUnreachable
	}
	return nil
}
