package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/pkg/errors"
)

// AzureScheme is the locator scheme served by AzureStorage:
// az://<container>/<blob path>.
const AzureScheme = "az"

// AzureStorage downloads blobs from one storage account.
type AzureStorage struct {
	client   *azblob.Client
	maxBytes int64
}

// NewAzureStorage connects with a shared key.
func NewAzureStorage(accountName, accountKey string, maxBytes int64) (*AzureStorage, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, errors.Wrap(err, "invalid azure credentials")
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, errors.Wrap(err, "create azure client")
	}
	return NewAzureStorageWithClient(client, maxBytes), nil
}

// NewAzureStorageWithClient wraps an existing client.
func NewAzureStorageWithClient(client *azblob.Client, maxBytes int64) *AzureStorage {
	return &AzureStorage{client: client, maxBytes: maxBytes}
}

// ParseBlobLocator splits az://container/blob into its parts.
func ParseBlobLocator(locator string) (container, blob string, err error) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", "", errors.Wrap(err, "invalid blob locator")
	}
	if u.Scheme != AzureScheme {
		return "", "", errors.Errorf("blob locator must use %s:// (got %q)", AzureScheme, u.Scheme)
	}
	container = u.Host
	blob = strings.TrimPrefix(u.Path, "/")
	if container == "" || blob == "" {
		return "", "", errors.Errorf("blob locator %q needs a container and a blob name", locator)
	}
	return container, blob, nil
}

// Fetch downloads the blob named by an az:// locator.
func (s *AzureStorage) Fetch(ctx context.Context, locator string) ([]byte, error) {
	container, blob, err := ParseBlobLocator(locator)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		return nil, &FetchError{Locator: locator, Err: errors.Wrap(err, "download failed")}
	}
	defer resp.Body.Close()

	data, err := readLimited(resp.Body, s.maxBytes)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return nil, err
		}
		return nil, &FetchError{Locator: locator, Err: errors.Wrap(err, "read blob")}
	}
	return data, nil
}
