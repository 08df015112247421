package registry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/aviadlevy/releasekit/internal/artifact"
	"github.com/aviadlevy/releasekit/internal/secrets"
)

const (
	// uploadAction is the form action the legacy upload endpoint expects.
	uploadAction = "file_upload"

	// protocolVersion is the legacy upload protocol version.
	protocolVersion = "1"
)

// Options configures an HTTPPublisher.
type Options struct {
	// Endpoint is the REQUIRED upload URL of the registry.
	Endpoint string

	// Name is the REQUIRED project name reported with each upload.
	Name string

	// Username is the REQUIRED basic-auth username.
	Username string

	// Password is the basic-auth password or API token.
	Password secrets.Secret

	// Client is the HTTP client used for uploads. Defaults to
	// http.DefaultClient.
	Client *http.Client

	// Log receives upload progress. Defaults to slog.Default().
	Log *slog.Logger
}

// Validate checks that the Options are properly configured.
func (o *Options) Validate() error {
	if o.Endpoint == "" {
		return WrapError(ErrInvalidOptions, "Endpoint is required")
	}
	if o.Name == "" {
		return WrapError(ErrInvalidOptions, "Name is required")
	}
	if o.Username == "" {
		return WrapError(ErrInvalidOptions, "Username is required")
	}
	return nil
}

// applyDefaults sets default values for any unset fields in Options.
func (o *Options) applyDefaults() {
	if o.Client == nil {
		o.Client = http.DefaultClient
	}
	if o.Log == nil {
		o.Log = slog.Default()
	}
}

// HTTPPublisher is the Publisher backed by the registry's legacy multipart
// upload endpoint with basic authentication.
type HTTPPublisher struct {
	options Options
}

// NewHTTPPublisher creates an HTTPPublisher from the given options.
func NewHTTPPublisher(opts *Options) (*HTTPPublisher, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()
	return &HTTPPublisher{options: *opts}, nil
}

// Upload implements Publisher. Files are uploaded one request each, in set
// order; the first failure aborts, leaving earlier files published.
func (p *HTTPPublisher) Upload(ctx context.Context, set *artifact.Set) error {
	for _, path := range set.Files() {
		if err := p.uploadFile(ctx, set.Version.String(), path); err != nil {
			return err
		}
		p.options.Log.Info("uploaded to registry", "file", filepath.Base(path))
	}
	return nil
}

func (p *HTTPPublisher) uploadFile(ctx context.Context, version, path string) error {
	body, contentType, err := p.buildForm(version, path)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.options.Endpoint, body)
	if err != nil {
		return WrapError(err, "failed to build upload request")
	}
	req.Header.Set("Content-Type", contentType)
	req.SetBasicAuth(p.options.Username, p.options.Password.Value())

	resp, err := p.options.Client.Do(req)
	if err != nil {
		return WrapErrorf(err, "failed to upload %s", filepath.Base(path))
	}
	defer resp.Body.Close()

	return p.checkResponse(resp, filepath.Base(path))
}

// buildForm assembles the multipart form for one file. Artifacts are small
// enough to buffer in memory.
func (p *HTTPPublisher) buildForm(version, path string) (io.Reader, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", WrapErrorf(err, "failed to open artifact %s", path)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fields := map[string]string{
		":action":          uploadAction,
		"protocol_version": protocolVersion,
		"name":             p.options.Name,
		"version":          version,
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", WrapError(err, "failed to write form field")
		}
	}

	part, err := writer.CreateFormFile("content", filepath.Base(path))
	if err != nil {
		return nil, "", WrapError(err, "failed to create form file")
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", WrapErrorf(err, "failed to read artifact %s", path)
	}
	if err := writer.Close(); err != nil {
		return nil, "", WrapError(err, "failed to finalize form")
	}

	return &buf, writer.FormDataContentType(), nil
}

func (p *HTTPPublisher) checkResponse(resp *http.Response, filename string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return WrapErrorf(ErrAuthFailed, "uploading %s", filename)
	case http.StatusBadRequest, http.StatusConflict:
		// The legacy endpoint reports a re-upload of an existing version
		// as 400; some registries use 409.
		return WrapErrorf(ErrDuplicateVersion, "uploading %s: %s", filename, detail)
	default:
		return fmt.Errorf("registry returned %d uploading %s: %s",
			resp.StatusCode, filename, detail)
	}
}
