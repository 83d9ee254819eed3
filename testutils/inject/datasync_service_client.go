package inject

import (
	"context"

	datapb "go.viam.com/api/app/datasync/v1"
	"google.golang.org/grpc"
)

// DataSyncServiceClient represents a fake instance of a data sync service client.
type DataSyncServiceClient struct {
	datapb.DataSyncServiceClient
	FileUploadFunc func(ctx context.Context,
		opts ...grpc.CallOption) (datapb.DataSyncService_FileUploadClient, error)
}

// FileUpload uploads the contents and metadata for binary (image + file) data,
// where the first packet must be the UploadMetadata.
func (client *DataSyncServiceClient) FileUpload(ctx context.Context,
	opts ...grpc.CallOption,
) (datapb.DataSyncService_FileUploadClient, error) {
	if client.FileUploadFunc == nil {
		return client.DataSyncServiceClient.FileUpload(ctx, opts...)
	}
	return client.FileUploadFunc(ctx, opts...)
}

// DataSyncServiceFileUploadClient represents a fake instance of a FileUpload client.
type DataSyncServiceFileUploadClient struct {
	datapb.DataSyncService_FileUploadClient
	SendFunc         func(*datapb.FileUploadRequest) error
	CloseAndRecvFunc func() (*datapb.FileUploadResponse, error)
}

// Send sends a FileUploadRequest using the mock or actual client.
func (client *DataSyncServiceFileUploadClient) Send(req *datapb.FileUploadRequest) error {
	if client.SendFunc == nil {
		return client.DataSyncService_FileUploadClient.Send(req)
	}
	return client.SendFunc(req)
}

// CloseAndRecv closes the stream and receives a FileUploadResponse using the mock or actual client.
func (client *DataSyncServiceFileUploadClient) CloseAndRecv() (*datapb.FileUploadResponse, error) {
	if client.CloseAndRecvFunc == nil {
		return client.DataSyncService_FileUploadClient.CloseAndRecv()
	}
	return client.CloseAndRecvFunc()
}
