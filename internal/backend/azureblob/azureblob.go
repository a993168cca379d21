// Package azureblob implements backend.Store over an Azure Blob container
// using the azblob SDK, grounded on internal/backend/azure/azure.go.
// Authentication is a plain shared-key credential supplied by the caller —
// no SDK auth-surface broker, per the Non-goal on per-cloud SDK
// authentication surfaces.
package azureblob

import (
	"context"
	"io"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/pkg/errors"

	"github.com/duskvault/duskvault/internal/backend"
)

// Config describes how to reach an Azure Blob container.
type Config struct {
	AccountName string
	AccountKey  string
	Container   string
	Endpoint    string // e.g. https://<account>.blob.core.windows.net/
}

// Backend stores objects as blobs in an Azure Blob container.
type Backend struct {
	client    *azblob.Client
	container string
}

var _ backend.Store = (*Backend)(nil)

// New constructs a Backend from cfg using a shared-key credential.
func New(cfg Config) (*Backend, error) {
	cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, errors.Wrap(err, "NewSharedKeyCredential")
	}

	client, err := azblob.NewClientWithSharedKeyCredential(cfg.Endpoint, cred, nil)
	if err != nil {
		return nil, errors.Wrap(err, "NewClientWithSharedKeyCredential")
	}

	return &Backend{client: client, container: cfg.Container}, nil
}

func (b *Backend) Init(ctx context.Context) error {
	_, err := b.client.CreateContainer(ctx, b.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return errors.Wrap(err, "CreateContainer")
	}
	return nil
}

func (b *Backend) blobClient(path string) *blobClientHandle {
	return &blobClientHandle{c: b.client.ServiceClient().NewContainerClient(b.container).NewBlobClient(path)}
}

func (b *Backend) Exists(ctx context.Context, path string) (bool, error) {
	_, err := b.blobClient(path).c.GetProperties(ctx, nil)
	if err == nil {
		return true, nil
	}
	if b.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrap(err, "GetProperties")
}

func (b *Backend) Get(ctx context.Context, path string) ([]byte, error) {
	resp, err := b.client.DownloadStream(ctx, b.container, path, nil)
	if err != nil {
		if b.IsNotExist(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, "DownloadStream")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading blob body")
	}
	return data, nil
}

func (b *Backend) Put(ctx context.Context, path string, data []byte) error {
	_, err := b.client.UploadBuffer(ctx, b.container, path, data, &azblob.UploadBufferOptions{})
	return errors.Wrap(err, "UploadBuffer")
}

func (b *Backend) Delete(ctx context.Context, path string) error {
	_, err := b.client.DeleteBlob(ctx, b.container, path, nil)
	if b.IsNotExist(err) {
		return nil
	}
	return errors.Wrap(err, "DeleteBlob")
}

func (b *Backend) List(ctx context.Context, prefix string, fn func(path string, info backend.Info) error) error {
	pager := b.client.NewListBlobsFlatPager(b.container, &azblob.ListBlobsFlatOptions{Prefix: &prefix})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return errors.Wrap(err, "NextPage")
		}
		for _, item := range page.Segment.BlobItems {
			var size int64
			var modified time.Time
			if item.Properties != nil {
				if item.Properties.ContentLength != nil {
					size = *item.Properties.ContentLength
				}
				if item.Properties.LastModified != nil {
					modified = *item.Properties.LastModified
				}
			}
			if err := fn(*item.Name, backend.Info{Size: size, Modified: modified}); err != nil {
				return err
			}
		}
	}
	return ctx.Err()
}

func (b *Backend) Stat(ctx context.Context, path string) (backend.Info, error) {
	props, err := b.blobClient(path).c.GetProperties(ctx, nil)
	if err != nil {
		if b.IsNotExist(err) {
			return backend.Info{}, err
		}
		return backend.Info{}, errors.Wrap(err, "GetProperties")
	}
	var size int64
	if props.ContentLength != nil {
		size = *props.ContentLength
	}
	var modified time.Time
	if props.LastModified != nil {
		modified = *props.LastModified
	}
	return backend.Info{Size: size, Modified: modified}, nil
}

func (b *Backend) IsNotExist(err error) bool {
	return bloberror.HasCode(err, bloberror.BlobNotFound) || bloberror.HasCode(err, bloberror.ContainerNotFound)
}

type blobClientHandle struct {
	c *blob.Client
}
