package s3blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// Reader implements domain.BlobReader over the client's bucket. Paths are
// logical: the configured key prefix is added and stripped here.
type Reader struct {
	client *Client
}

// NewReader creates a Reader.
func NewReader(c *Client) *Reader {
	return &Reader{client: c}
}

// Open streams the object at path.
func (r *Reader) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	key := r.client.key(path)
	out, err := r.client.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.client.bucket),
		Key:    aws.String(key),
	})
	switch {
	case err == nil:
		return out.Body, nil
	case isNotFound(err):
		return nil, fmt.Errorf("s3blob: open %s: %w", key, domain.ErrNotFound)
	default:
		return nil, fmt.Errorf("s3blob: open %s: %w", key, err)
	}
}

// List returns every object under prefix, oldest key first as S3 orders
// them.
func (r *Reader) List(ctx context.Context, prefix string) ([]domain.ObjectInfo, error) {
	pages := s3.NewListObjectsV2Paginator(r.client.s3, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.client.bucket),
		Prefix: aws.String(r.client.key(prefix)),
	})

	var objects []domain.ObjectInfo
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3blob: list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			objects = append(objects, domain.ObjectInfo{
				Path:         r.client.logical(aws.ToString(obj.Key)),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	return objects, nil
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var resp *smithyhttp.ResponseError
	return errors.As(err, &resp) && resp.HTTPStatusCode() == http.StatusNotFound
}
