// Package storage holds the S3 object store for raw uploads, submission
// results and archived report exports.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/ordersheet/backend/internal/aws"
)

// ErrObjectNotFound is returned by Get when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

type ObjectStore struct {
	S3     aws.S3API
	Bucket string
}

func UploadKey(shop, uploadID, filename string) string {
	return fmt.Sprintf("uploads/%s/%s/%s", shop, uploadID, filename)
}

func ResultsKey(shop, submissionID string) string {
	return fmt.Sprintf("results/%s/%s.json", shop, submissionID)
}

func ReportKey(shop, name string) string {
	return fmt.Sprintf("reports/%s/%s", shop, name)
}

func (o *ObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := o.S3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      sdkaws.String(o.Bucket),
		Key:         sdkaws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: sdkaws.String(contentType),
		ACL:         s3types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fmt.Errorf("s3 putobject %s: %w", key, err)
	}
	return nil
}

func (o *ObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := o.S3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: sdkaws.String(o.Bucket),
		Key:    sdkaws.String(key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
			return nil, fmt.Errorf("s3 getobject %s: %w", key, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("s3 getobject %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3 object %s: %w", key, err)
	}
	return data, nil
}
