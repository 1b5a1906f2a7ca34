// Copyright (C) 2025 The Geocoding Authors.

package download

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
)

// S3Mirror optionally mirrors a built database directory to an
// S3-compatible bucket, and hydrates a local directory back from it.
// Used when LOCAL_DB is false (§4.8, §6 Environment).
type S3Mirror struct {
	endpoint    string
	region      string
	bucket      string
	accessKeyID string
	secretKey   string
}

// NewS3Mirror builds a mirror against an S3-compatible endpoint.
func NewS3Mirror(endpoint, region, bucket, accessKeyID, secretKey string) *S3Mirror {
	return &S3Mirror{
		endpoint:    endpoint,
		region:      region,
		bucket:      bucket,
		accessKeyID: accessKeyID,
		secretKey:   secretKey,
	}
}

func (m *S3Mirror) session() (*session.Session, error) {
	return session.NewSession(&aws.Config{
		Region:      aws.String(m.region),
		Endpoint:    aws.String(m.endpoint),
		Credentials: credentials.NewStaticCredentials(m.accessKeyID, m.secretKey, ""),
	})
}

// UploadDir uploads every regular file under dir to the bucket, keyed by
// its path relative to dir. Failures here never fail an otherwise
// successful local build (§4.8): callers should log and continue.
func (m *S3Mirror) UploadDir(dir string) error {
	sess, err := m.session()
	if err != nil {
		return err
	}
	uploader := s3manager.NewUploader(sess)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		f, err := os.Open(filepath.Join(dir, e.Name()))
		if err != nil {
			return err
		}
		_, err = uploader.Upload(&s3manager.UploadInput{
			Bucket: aws.String(m.bucket),
			Key:    aws.String(e.Name()),
			Body:   f,
		})
		f.Close()
		if err != nil {
			return errors.Wrapf(err, "s3: upload %s", e.Name())
		}
	}
	return nil
}

// DownloadDir hydrates dir from every object in the bucket, for a cold
// start with no local database yet (§4.8).
func (m *S3Mirror) DownloadDir(dir string) error {
	sess, err := m.session()
	if err != nil {
		return err
	}

	svc := s3.New(sess)
	resp, err := svc.ListObjectsV2(&s3.ListObjectsV2Input{Bucket: aws.String(m.bucket)})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	downloader := s3manager.NewDownloader(sess)
	for _, item := range resp.Contents {
		if item.Key == nil || strings.HasSuffix(*item.Key, "/") {
			continue
		}
		f, err := os.Create(filepath.Join(dir, filepath.Base(*item.Key)))
		if err != nil {
			return err
		}
		_, err = downloader.Download(f, &s3.GetObjectInput{
			Bucket: aws.String(m.bucket),
			Key:    item.Key,
		})
		f.Close()
		if err != nil {
			return errors.Wrapf(err, "s3: download %s", *item.Key)
		}
	}
	return nil
}
