// Package viamdata implements a sink storing images in Viam data management. The organization
// plays the role of the project and every converted dataset becomes a Viam dataset.
package viamdata

import (
	"context"
	"fmt"
	"image"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	datapb "go.viam.com/api/app/data/v1"
	datasetpb "go.viam.com/api/app/dataset/v1"
	syncpb "go.viam.com/api/app/datasync/v1"
	goutils "go.viam.com/utils"
	"go.viam.com/utils/rpc"
	"google.golang.org/grpc"

	"github.com/datasetninja/modes-cattle/annotation"
	"github.com/datasetninja/modes-cattle/config"
	"github.com/datasetninja/modes-cattle/logging"
	"github.com/datasetninja/modes-cattle/sink"
	"github.com/datasetninja/modes-cattle/utils"
)

// Type is the sink type of this package.
const Type = config.SinkTypeViam

const (
	defaultBaseURL  = "https://app.viam.com:443"
	componentType   = "camera"
	componentName   = "modes-converter"
	uploadChunkSize = 1 << 20
)

func init() {
	sink.Register(Type, sink.Registration[Config]{
		Constructor: func(ctx context.Context, conf Config, logger logging.Logger) (sink.Sink, error) {
			return New(ctx, conf, logger)
		},
	})
}

// Config holds the attributes of a Viam data sink.
type Config struct {
	BaseURL        string `json:"base_url,omitempty"`
	APIKey         string `json:"api_key"`
	APIKeyID       string `json:"api_key_id"`
	OrganizationID string `json:"organization_id"`
	PartID         string `json:"part_id"`
}

// Validate ensures the credentials and the owning organization and part are set.
func (c Config) Validate(path string) error {
	if c.APIKey == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "api_key")
	}
	if c.APIKeyID == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "api_key_id")
	}
	if c.OrganizationID == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "organization_id")
	}
	if c.PartID == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "part_id")
	}
	if c.BaseURL != "" {
		if _, err := url.Parse(c.BaseURL); err != nil {
			return goutils.NewConfigValidationError(path, errors.Wrap(err, "invalid base_url"))
		}
	}
	return nil
}

func (c Config) baseURL() string {
	if c.BaseURL == "" {
		return defaultBaseURL
	}
	return c.BaseURL
}

type dataClient interface {
	AddTagsToBinaryDataByIDs(ctx context.Context, in *datapb.AddTagsToBinaryDataByIDsRequest,
		opts ...grpc.CallOption) (*datapb.AddTagsToBinaryDataByIDsResponse, error)
	AddBoundingBoxToImageByID(ctx context.Context, in *datapb.AddBoundingBoxToImageByIDRequest,
		opts ...grpc.CallOption) (*datapb.AddBoundingBoxToImageByIDResponse, error)
	AddBinaryDataToDatasetByIDs(ctx context.Context, in *datapb.AddBinaryDataToDatasetByIDsRequest,
		opts ...grpc.CallOption) (*datapb.AddBinaryDataToDatasetByIDsResponse, error)
}

type syncClient interface {
	FileUpload(ctx context.Context, opts ...grpc.CallOption) (syncpb.DataSyncService_FileUploadClient, error)
}

type datasetClient interface {
	CreateDataset(ctx context.Context, in *datasetpb.CreateDatasetRequest,
		opts ...grpc.CallOption) (*datasetpb.CreateDatasetResponse, error)
	ListDatasetsByOrganizationID(ctx context.Context, in *datasetpb.ListDatasetsByOrganizationIDRequest,
		opts ...grpc.CallOption) (*datasetpb.ListDatasetsByOrganizationIDResponse, error)
}

type viamSink struct {
	conn     rpc.ClientConn
	data     dataClient
	sync     syncClient
	datasets datasetClient
	conf     Config
	logger   logging.Logger
}

// New dials the Viam app with the api key of conf.
func New(ctx context.Context, conf Config, logger logging.Logger) (sink.Sink, error) {
	conn, err := dial(ctx, conf, logger)
	if err != nil {
		return nil, errors.Wrap(err, "cannot connect to the viam app")
	}
	return newSink(conn, datapb.NewDataServiceClient(conn), syncpb.NewDataSyncServiceClient(conn),
		datasetpb.NewDatasetServiceClient(conn), conf, logger), nil
}

func newSink(conn rpc.ClientConn, data dataClient, sync syncClient, datasets datasetClient,
	conf Config, logger logging.Logger,
) *viamSink {
	return &viamSink{conn: conn, data: data, sync: sync, datasets: datasets, conf: conf, logger: logger}
}

func dial(ctx context.Context, conf Config, logger logging.Logger) (rpc.ClientConn, error) {
	u, err := url.Parse(conf.baseURL())
	if err != nil {
		return nil, err
	}

	dialOpts := []rpc.DialOption{
		rpc.WithEntityCredentials(conf.APIKeyID, rpc.Credentials{
			Type:    rpc.CredentialsTypeAPIKey,
			Payload: conf.APIKey,
		}),
		rpc.WithUnaryClientInterceptor(logging.UnaryClientInterceptor),
	}
	if u.Scheme == "http" {
		dialOpts = append(dialOpts, rpc.WithInsecure())
	}
	return rpc.DialDirectGRPC(ctx, u.Host, logger, dialOpts...)
}

// datasetName turns a project and dataset name into a valid Viam dataset name.
func datasetName(project, dataset string) string {
	name := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return unicode.ToLower(r)
		}
		return '-'
	}, project+"-"+dataset)
	return strings.Trim(name, "-")
}

func (s *viamSink) CreateProject(ctx context.Context, spec sink.ProjectSpec) (*sink.Project, error) {
	s.logger.CDebugw(ctx, "datasets are created directly in the organization",
		"organization", s.conf.OrganizationID, "project", spec.Name)
	return &sink.Project{
		ID:   s.conf.OrganizationID,
		Name: spec.Name,
		URL:  fmt.Sprintf("%s/data/datasets", strings.TrimSuffix(strings.TrimSuffix(s.conf.baseURL(), ":443"), "/")),
	}, nil
}

func (s *viamSink) CreateDataset(ctx context.Context, project *sink.Project, name string) (*sink.Dataset, error) {
	existing, err := s.datasets.ListDatasetsByOrganizationID(ctx, &datasetpb.ListDatasetsByOrganizationIDRequest{
		OrganizationId: project.ID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "cannot list datasets")
	}
	taken := lo.SliceToMap(existing.GetDatasets(), func(ds *datasetpb.Dataset) (string, bool) {
		return ds.GetName(), true
	})
	name = sink.FreeName(datasetName(project.Name, name), taken)

	resp, err := s.datasets.CreateDataset(ctx, &datasetpb.CreateDatasetRequest{
		OrganizationId: project.ID,
		Name:           name,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "cannot create dataset %q", name)
	}
	return &sink.Dataset{ID: resp.GetId(), Name: name, ProjectID: project.ID}, nil
}

func (s *viamSink) uploadFile(ctx context.Context, name, path string) (string, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "cannot read image %q", path)
	}

	stream, err := s.sync.FileUpload(ctx)
	if err != nil {
		return "", err
	}
	if err := stream.Send(&syncpb.FileUploadRequest{
		UploadPacket: &syncpb.FileUploadRequest_Metadata{
			Metadata: &syncpb.UploadMetadata{
				PartId:        s.conf.PartID,
				ComponentType: componentType,
				ComponentName: componentName,
				Type:          syncpb.DataType_DATA_TYPE_FILE,
				FileName:      name,
				FileExtension: filepath.Ext(name),
			},
		},
	}); err != nil {
		return "", errors.Wrapf(err, "cannot send metadata of %q", name)
	}
	for _, chunk := range lo.Chunk(data, uploadChunkSize) {
		if err := stream.Send(&syncpb.FileUploadRequest{
			UploadPacket: &syncpb.FileUploadRequest_FileContents{
				FileContents: &syncpb.FileData{Data: chunk},
			},
		}); err != nil {
			return "", errors.Wrapf(err, "cannot send contents of %q", name)
		}
	}
	resp, err := stream.CloseAndRecv()
	if err != nil {
		return "", errors.Wrapf(err, "upload of %q failed", name)
	}
	return resp.GetBinaryDataId(), nil
}

func (s *viamSink) UploadImages(ctx context.Context, dataset *sink.Dataset, names, paths []string) ([]sink.ImageInfo, error) {
	if len(names) != len(paths) {
		return nil, utils.NewLengthMismatchError("names", len(names), "paths", len(paths))
	}

	infos := make([]sink.ImageInfo, 0, len(names))
	for i, name := range names {
		id, err := s.uploadFile(ctx, name, paths[i])
		if err != nil {
			return nil, err
		}
		infos = append(infos, sink.ImageInfo{ID: id, Name: name})
	}

	if _, err := s.data.AddBinaryDataToDatasetByIDs(ctx, &datapb.AddBinaryDataToDatasetByIDsRequest{
		BinaryDataIds: lo.Map(infos, func(info sink.ImageInfo, _ int) string { return info.ID }),
		DatasetId:     dataset.ID,
	}); err != nil {
		return nil, errors.Wrapf(err, "cannot add images to dataset %q", dataset.Name)
	}
	return infos, nil
}

// tagString flattens a name/value tag, since Viam tags carry no value.
func tagString(tag annotation.Tag) string {
	return tag.Name + ":" + tag.Value
}

func normalizedBox(rect image.Rectangle, size annotation.Size) (xMin, yMin, xMax, yMax float64) {
	w, h := float64(size.Width), float64(size.Height)
	return float64(rect.Min.X) / w, float64(rect.Min.Y) / h, float64(rect.Max.X) / w, float64(rect.Max.Y) / h
}

func (s *viamSink) UploadAnnotations(
	ctx context.Context, dataset *sink.Dataset, imageIDs []string, anns []*annotation.Annotation,
) error {
	if len(imageIDs) != len(anns) {
		return utils.NewLengthMismatchError("image ids", len(imageIDs), "annotations", len(anns))
	}

	// Images sharing a tag are tagged in one call.
	byTag := map[string][]string{}
	var tagOrder []string
	for i, ann := range anns {
		for _, tag := range ann.Tags {
			key := tagString(tag)
			if _, ok := byTag[key]; !ok {
				tagOrder = append(tagOrder, key)
			}
			byTag[key] = append(byTag[key], imageIDs[i])
		}
	}
	for _, tag := range tagOrder {
		if _, err := s.data.AddTagsToBinaryDataByIDs(ctx, &datapb.AddTagsToBinaryDataByIDsRequest{
			Tags:          []string{tag},
			BinaryDataIds: byTag[tag],
		}); err != nil {
			return errors.Wrapf(err, "cannot add tag %q", tag)
		}
	}

	for i, ann := range anns {
		if ann.Size.Width <= 0 || ann.Size.Height <= 0 {
			if len(ann.Labels) > 0 {
				return errors.Errorf("annotation of image %q has labels but no size", imageIDs[i])
			}
			continue
		}
		for _, label := range ann.Labels {
			xMin, yMin, xMax, yMax := normalizedBox(label.Bitmap.Rect(), ann.Size)
			resp, err := s.data.AddBoundingBoxToImageByID(ctx, &datapb.AddBoundingBoxToImageByIDRequest{
				BinaryDataId:   imageIDs[i],
				Label:          label.ClassTitle,
				XMinNormalized: xMin,
				YMinNormalized: yMin,
				XMaxNormalized: xMax,
				YMaxNormalized: yMax,
			})
			if err != nil {
				return errors.Wrapf(err, "cannot add %q box to image %q", label.ClassTitle, imageIDs[i])
			}
			s.logger.CDebugw(ctx, "added bounding box", "image", imageIDs[i], "bbox", resp.GetBboxId())
		}
	}
	return nil
}

func (s *viamSink) Close(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
