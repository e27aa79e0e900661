package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"collection-engine/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Prefix is the object prefix documents are archived under.
const Prefix = "collections/"

const extension = ".yaml"

// Archive saves and loads documents in object storage.
type Archive struct {
	client storage.Client
	bucket string
	region string
	logger *zap.Logger
}

// NewArchive creates an archive over bucket.
func NewArchive(client storage.Client, bucket, region string, logger *zap.Logger) *Archive {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archive{client: client, bucket: bucket, region: region, logger: logger}
}

// ObjectName returns the object a document name is stored as.
func ObjectName(name string) (string, error) {
	name = strings.TrimSuffix(strings.TrimPrefix(name, Prefix), extension)
	if name == "" || strings.Contains(name, "..") || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("invalid document name %q", name)
	}
	return Prefix + path.Clean(name) + extension, nil
}

// Save stores d under name, creating the bucket if needed.
func (a *Archive) Save(ctx context.Context, name string, d *Document) (string, error) {
	object, err := ObjectName(name)
	if err != nil {
		return "", err
	}
	if err := storage.EnsureBucket(ctx, a.client, a.bucket, a.region); err != nil {
		return "", err
	}
	data, err := d.Marshal()
	if err != nil {
		return "", err
	}

	_, err = a.client.PutObject(ctx, a.bucket, object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/yaml",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", object, err)
	}
	a.logger.Info("Archived document", zap.String("object", object), zap.Int("bytes", len(data)))
	return object, nil
}

// Load fetches and parses the document stored under name.
func (a *Archive) Load(ctx context.Context, name string) (*Document, error) {
	object, err := ObjectName(name)
	if err != nil {
		return nil, err
	}
	obj, err := a.client.GetObject(ctx, a.bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", object, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", object, err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", object, err)
	}
	if d.Name == "" {
		d.Name = strings.TrimSuffix(strings.TrimPrefix(object, Prefix), extension)
	}
	return d, nil
}

// List returns the names of every archived document.
func (a *Archive) List(ctx context.Context) ([]string, error) {
	keys, err := storage.ListKeys(ctx, a.client, a.bucket, Prefix)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		if !strings.HasSuffix(k, extension) {
			continue
		}
		names = append(names, strings.TrimSuffix(strings.TrimPrefix(k, Prefix), extension))
	}
	return names, nil
}

// Delete removes the named documents.
func (a *Archive) Delete(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	if len(names) == 1 {
		object, err := ObjectName(names[0])
		if err != nil {
			return err
		}
		if err := a.client.RemoveObject(ctx, a.bucket, object, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to remove %s: %w", object, err)
		}
		return nil
	}

	objects := make(chan minio.ObjectInfo, len(names))
	for _, n := range names {
		object, err := ObjectName(n)
		if err != nil {
			close(objects)
			return err
		}
		objects <- minio.ObjectInfo{Key: object}
	}
	close(objects)

	var errs []error
	for rerr := range a.client.RemoveObjects(ctx, a.bucket, objects, minio.RemoveObjectsOptions{}) {
		errs = append(errs, fmt.Errorf("failed to remove %s: %w", rerr.ObjectName, rerr.Err))
	}
	return errors.Join(errs...)
}
