// Package supervisely implements a sink publishing to a Supervisely instance through its public
// REST API.
package supervisely

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	goutils "go.viam.com/utils"

	"github.com/datasetninja/modes-cattle/annotation"
	"github.com/datasetninja/modes-cattle/config"
	"github.com/datasetninja/modes-cattle/logging"
	"github.com/datasetninja/modes-cattle/sink"
	"github.com/datasetninja/modes-cattle/utils"
)

// Type is the sink type of this package.
const Type = config.SinkTypeSupervisely

const (
	defaultTimeout = time.Minute
	listPageSize   = 500
)

func init() {
	sink.Register(Type, sink.Registration[Config]{
		Constructor: func(ctx context.Context, conf Config, logger logging.Logger) (sink.Sink, error) {
			return New(conf, logger)
		},
	})
}

// Config holds the attributes of a Supervisely sink.
type Config struct {
	ServerAddress string `json:"server_address"`
	APIToken      string `json:"api_token"`
	WorkspaceID   int    `json:"workspace_id"`
	Timeout       string `json:"timeout,omitempty"`
}

// Validate ensures the instance, credentials and workspace are set.
func (c Config) Validate(path string) error {
	if c.ServerAddress == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "server_address")
	}
	if c.APIToken == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "api_token")
	}
	if c.WorkspaceID <= 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "workspace_id")
	}
	if c.Timeout != "" {
		if _, err := time.ParseDuration(c.Timeout); err != nil {
			return goutils.NewConfigValidationError(path, errors.Wrap(err, "invalid timeout"))
		}
	}
	return nil
}

type entity struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Title string `json:"title"`
}

func (e entity) displayName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.Title
}

type listResponse struct {
	Entities   []entity `json:"entities"`
	Total      int      `json:"total"`
	PagesCount int      `json:"pagesCount"`
}

type tagMetaInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type metaResponse struct {
	Tags []tagMetaInfo `json:"tags"`
}

type imageInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type superviselySink struct {
	client        *client
	serverAddress string
	workspaceID   int
	logger        logging.Logger
}

// New returns a sink creating projects in the workspace of conf.
func New(conf Config, logger logging.Logger) (sink.Sink, error) {
	timeout := defaultTimeout
	if conf.Timeout != "" {
		var err error
		if timeout, err = time.ParseDuration(conf.Timeout); err != nil {
			return nil, errors.Wrap(err, "invalid timeout")
		}
	}
	return &superviselySink{
		client:        newClient(conf.ServerAddress, conf.APIToken, timeout, logger),
		serverAddress: conf.ServerAddress,
		workspaceID:   conf.WorkspaceID,
		logger:        logger,
	}, nil
}

// listAll pages through a *.list method.
func (s *superviselySink) listAll(ctx context.Context, method string, payload map[string]interface{}) ([]entity, error) {
	var all []entity
	for page := 1; ; page++ {
		payload["page"] = page
		payload["per_page"] = listPageSize
		var resp listResponse
		if err := s.client.post(ctx, method, payload, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Entities...)
		if page >= resp.PagesCount || len(resp.Entities) == 0 {
			return all, nil
		}
	}
}

func takenNames(entities []entity) map[string]bool {
	return lo.SliceToMap(entities, func(e entity) (string, bool) { return e.displayName(), true })
}

func (s *superviselySink) CreateProject(ctx context.Context, spec sink.ProjectSpec) (*sink.Project, error) {
	existing, err := s.listAll(ctx, "projects.list", map[string]interface{}{"workspaceId": s.workspaceID})
	if err != nil {
		return nil, err
	}
	name := sink.FreeName(spec.Name, takenNames(existing))
	if name != spec.Name {
		s.logger.Infow("project name taken, renaming", "requested", spec.Name, "name", name)
	}

	var created entity
	if err := s.client.post(ctx, "projects.add", map[string]interface{}{
		"workspaceId": s.workspaceID,
		"title":       name,
		"description": "",
		"type":        sink.ProjectTypeImages,
	}, &created); err != nil {
		return nil, err
	}
	if err := s.client.post(ctx, "projects.meta.update", map[string]interface{}{
		"id":   created.ID,
		"meta": spec.Meta,
	}, nil); err != nil {
		return nil, err
	}

	if spec.GroupByTag != "" {
		var meta metaResponse
		if err := s.client.post(ctx, "projects.meta", map[string]interface{}{"id": created.ID}, &meta); err != nil {
			return nil, err
		}
		tag, ok := lo.Find(meta.Tags, func(tag tagMetaInfo) bool { return tag.Name == spec.GroupByTag })
		if !ok {
			return nil, errors.Errorf("tag %q is not part of the project meta", spec.GroupByTag)
		}
		if err := s.client.post(ctx, "projects.images.grouping", map[string]interface{}{
			"id":     created.ID,
			"enable": true,
			"tagId":  tag.ID,
			"sync":   false,
		}, nil); err != nil {
			return nil, err
		}
	}

	id := strconv.Itoa(created.ID)
	return &sink.Project{
		ID:   id,
		Name: name,
		URL:  fmt.Sprintf("%s/projects/%s/datasets", s.serverAddress, id),
	}, nil
}

func (s *superviselySink) CreateDataset(ctx context.Context, project *sink.Project, name string) (*sink.Dataset, error) {
	projectID, err := strconv.Atoi(project.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid project id %q", project.ID)
	}
	existing, err := s.listAll(ctx, "datasets.list", map[string]interface{}{"projectId": projectID})
	if err != nil {
		return nil, err
	}
	name = sink.FreeName(name, takenNames(existing))

	var created entity
	if err := s.client.post(ctx, "datasets.add", map[string]interface{}{
		"projectId":   projectID,
		"name":        name,
		"description": "",
	}, &created); err != nil {
		return nil, err
	}
	return &sink.Dataset{ID: strconv.Itoa(created.ID), Name: created.displayName(), ProjectID: project.ID}, nil
}

// hashData returns the content hash the API identifies uploaded files by.
func hashData(data []byte) string {
	sum := sha256.Sum256(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func (s *superviselySink) UploadImages(ctx context.Context, dataset *sink.Dataset, names, paths []string) ([]sink.ImageInfo, error) {
	if len(names) != len(paths) {
		return nil, utils.NewLengthMismatchError("names", len(names), "paths", len(paths))
	}
	datasetID, err := strconv.Atoi(dataset.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid dataset id %q", dataset.ID)
	}

	hashes := make([]string, len(paths))
	contents := make(map[string][]byte, len(paths))
	for i, path := range paths {
		//nolint:gosec
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot read image %q", path)
		}
		hashes[i] = hashData(data)
		contents[hashes[i]] = data
	}

	// Content already stored on the instance does not need to be sent again.
	var known []string
	if err := s.client.post(ctx, "images.internal.hashes.list", lo.Uniq(hashes), &known); err != nil {
		return nil, err
	}
	missing := lo.Without(lo.Uniq(hashes), known...)
	if len(missing) > 0 {
		files := make([]multipartFile, 0, len(missing))
		for i, hash := range missing {
			files = append(files, multipartFile{field: fmt.Sprintf("%d-file", i), filename: strconv.Itoa(i), data: contents[hash]})
		}
		if err := s.client.postMultipart(ctx, "images.bulk.upload", files, nil); err != nil {
			return nil, err
		}
	}

	images := make([]map[string]string, len(names))
	for i, name := range names {
		images[i] = map[string]string{"title": name, "hash": hashes[i]}
	}
	var added []imageInfo
	if err := s.client.post(ctx, "images.bulk.add", map[string]interface{}{
		"datasetId": datasetID,
		"images":    images,
	}, &added); err != nil {
		return nil, err
	}
	if len(added) != len(names) {
		return nil, utils.NewLengthMismatchError("images sent", len(names), "images added", len(added))
	}

	s.logger.Debugw("uploaded images", "dataset", dataset.Name, "count", len(added), "new_content", len(missing))
	return lo.Map(added, func(info imageInfo, _ int) sink.ImageInfo {
		return sink.ImageInfo{ID: strconv.Itoa(info.ID), Name: info.Name}
	}), nil
}

type annotationEntry struct {
	ImageID    int                    `json:"imageId"`
	Annotation *annotation.Annotation `json:"annotation"`
}

func (s *superviselySink) UploadAnnotations(
	ctx context.Context, dataset *sink.Dataset, imageIDs []string, anns []*annotation.Annotation,
) error {
	if len(imageIDs) != len(anns) {
		return utils.NewLengthMismatchError("image ids", len(imageIDs), "annotations", len(anns))
	}
	datasetID, err := strconv.Atoi(dataset.ID)
	if err != nil {
		return errors.Wrapf(err, "invalid dataset id %q", dataset.ID)
	}

	entries := make([]annotationEntry, len(anns))
	for i, id := range imageIDs {
		imageID, err := strconv.Atoi(id)
		if err != nil {
			return errors.Wrapf(err, "invalid image id %q", id)
		}
		entries[i] = annotationEntry{ImageID: imageID, Annotation: anns[i]}
	}
	return s.client.post(ctx, "annotations.bulk.add", map[string]interface{}{
		"datasetId":   datasetID,
		"annotations": entries,
	}, nil)
}

// Close is a no-op; idle connections are reaped by the http client.
func (s *superviselySink) Close(ctx context.Context) error {
	return nil
}
