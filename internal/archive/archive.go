// Package archive keeps a copy of every uploaded CSV file, on local disk or
// in an S3-compatible bucket.
package archive

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/JonMunkholm/salesview/internal/config"
	"github.com/JonMunkholm/salesview/internal/core"
)

// New returns the archiver selected by cfg.Type, or nil for "none".
func New(ctx context.Context, cfg config.ArchiveConfig) (core.Archiver, error) {
	switch strings.ToLower(cfg.Type) {
	case config.ArchiveNone, "":
		return nil, nil

	case config.ArchiveLocal:
		slog.Info("archiving uploads to local disk", "dir", cfg.LocalDir)
		d, err := NewLocal(cfg.LocalDir)
		if err != nil {
			return nil, err
		}
		return d, nil

	case config.ArchiveS3:
		slog.Info("archiving uploads to S3", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)

		opts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(cfg.S3Region),
		}
		if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
			creds := credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")
			opts = append(opts, awsconfig.WithCredentialsProvider(creds))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}

		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.S3Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			}
			o.UsePathStyle = cfg.S3UsePathStyle
		})
		return NewS3(client, cfg.S3Bucket, cfg.S3Prefix), nil

	default:
		return nil, fmt.Errorf("unsupported archive type: %s", cfg.Type)
	}
}

// objectKey builds "YYYY/MM/DD/<uuid>-<name>" so repeated uploads of the
// same file never collide.
func objectKey(now time.Time, name string) string {
	return path.Join(now.UTC().Format("2006/01/02"), uuid.NewString()+"-"+sanitize(name))
}

// sanitize reduces a client-supplied file name to a safe single path element.
func sanitize(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." || name == ".." {
		return "upload.csv"
	}
	return name
}
