package inject

import (
	"context"

	datasetpb "go.viam.com/api/app/dataset/v1"
	"google.golang.org/grpc"
)

// DatasetServiceClient represents a fake instance of a dataset service client.
type DatasetServiceClient struct {
	datasetpb.DatasetServiceClient
	CreateDatasetFunc func(ctx context.Context, in *datasetpb.CreateDatasetRequest,
		opts ...grpc.CallOption) (*datasetpb.CreateDatasetResponse, error)
	ListDatasetsByOrganizationIDFunc func(ctx context.Context, in *datasetpb.ListDatasetsByOrganizationIDRequest,
		opts ...grpc.CallOption) (*datasetpb.ListDatasetsByOrganizationIDResponse, error)
}

// CreateDataset calls the injected CreateDataset or the real version.
func (client *DatasetServiceClient) CreateDataset(ctx context.Context, in *datasetpb.CreateDatasetRequest,
	opts ...grpc.CallOption,
) (*datasetpb.CreateDatasetResponse, error) {
	if client.CreateDatasetFunc == nil {
		return client.DatasetServiceClient.CreateDataset(ctx, in, opts...)
	}
	return client.CreateDatasetFunc(ctx, in, opts...)
}

// ListDatasetsByOrganizationID calls the injected ListDatasetsByOrganizationID or the real version.
func (client *DatasetServiceClient) ListDatasetsByOrganizationID(ctx context.Context, in *datasetpb.ListDatasetsByOrganizationIDRequest,
	opts ...grpc.CallOption,
) (*datasetpb.ListDatasetsByOrganizationIDResponse, error) {
	if client.ListDatasetsByOrganizationIDFunc == nil {
		return client.DatasetServiceClient.ListDatasetsByOrganizationID(ctx, in, opts...)
	}
	return client.ListDatasetsByOrganizationIDFunc(ctx, in, opts...)
}
