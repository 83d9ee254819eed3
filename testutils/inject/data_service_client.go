package inject

import (
	"context"

	datapb "go.viam.com/api/app/data/v1"
	"google.golang.org/grpc"
)

// DataServiceClient represents a fake instance of a data service client.
type DataServiceClient struct {
	datapb.DataServiceClient
	AddTagsToBinaryDataByIDsFunc func(ctx context.Context, in *datapb.AddTagsToBinaryDataByIDsRequest,
		opts ...grpc.CallOption) (*datapb.AddTagsToBinaryDataByIDsResponse, error)
	AddBoundingBoxToImageByIDFunc func(ctx context.Context, in *datapb.AddBoundingBoxToImageByIDRequest,
		opts ...grpc.CallOption) (*datapb.AddBoundingBoxToImageByIDResponse, error)
	AddBinaryDataToDatasetByIDsFunc func(ctx context.Context, in *datapb.AddBinaryDataToDatasetByIDsRequest,
		opts ...grpc.CallOption) (*datapb.AddBinaryDataToDatasetByIDsResponse, error)
}

// AddTagsToBinaryDataByIDs calls the injected AddTagsToBinaryDataByIDs or the real version.
func (client *DataServiceClient) AddTagsToBinaryDataByIDs(ctx context.Context, in *datapb.AddTagsToBinaryDataByIDsRequest,
	opts ...grpc.CallOption,
) (*datapb.AddTagsToBinaryDataByIDsResponse, error) {
	if client.AddTagsToBinaryDataByIDsFunc == nil {
		return client.DataServiceClient.AddTagsToBinaryDataByIDs(ctx, in, opts...)
	}
	return client.AddTagsToBinaryDataByIDsFunc(ctx, in, opts...)
}

// AddBoundingBoxToImageByID calls the injected AddBoundingBoxToImageByID or the real version.
func (client *DataServiceClient) AddBoundingBoxToImageByID(ctx context.Context, in *datapb.AddBoundingBoxToImageByIDRequest,
	opts ...grpc.CallOption,
) (*datapb.AddBoundingBoxToImageByIDResponse, error) {
	if client.AddBoundingBoxToImageByIDFunc == nil {
		return client.DataServiceClient.AddBoundingBoxToImageByID(ctx, in, opts...)
	}
	return client.AddBoundingBoxToImageByIDFunc(ctx, in, opts...)
}

// AddBinaryDataToDatasetByIDs calls the injected AddBinaryDataToDatasetByIDs or the real version.
func (client *DataServiceClient) AddBinaryDataToDatasetByIDs(ctx context.Context, in *datapb.AddBinaryDataToDatasetByIDsRequest,
	opts ...grpc.CallOption,
) (*datapb.AddBinaryDataToDatasetByIDsResponse, error) {
	if client.AddBinaryDataToDatasetByIDsFunc == nil {
		return client.DataServiceClient.AddBinaryDataToDatasetByIDs(ctx, in, opts...)
	}
	return client.AddBinaryDataToDatasetByIDsFunc(ctx, in, opts...)
}
