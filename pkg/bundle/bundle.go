// Package bundle packages a generated project into a single downloadable
// document: the schema, its tests, the mock API and a deployment record.
package bundle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-journey360/pkg/mockapi"
	"github.com/goliatone/go-journey360/pkg/orchestrator"
	"github.com/goliatone/go-journey360/pkg/schema"
	"github.com/goliatone/go-journey360/pkg/testgen"
)

// Format selects the bundle encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Deployment environments.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Deployment statuses. A bundle is "deployed" once it records where its mock
// API is served.
const (
	StatusDraft    = "draft"
	StatusDeployed = "deployed"
)

var (
	// ErrUnknownFormat is returned for encodings other than JSON and YAML.
	ErrUnknownFormat = errors.New("bundle: unknown format")
	// ErrUnknownEnvironment is returned by WithEnvironment for unsupported names.
	ErrUnknownEnvironment = errors.New("bundle: unknown environment")
)

// ParseFormat accepts "json", "yaml" and "yml".
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
}

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// Deployment records where a bundle's mock API lives.
type Deployment struct {
	Environment string     `json:"environment"`
	Status      string     `json:"status"`
	URL         string     `json:"url,omitempty"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
}

// Bundle is the exported project document.
type Bundle struct {
	Schema      schema.FormSchema  `json:"schema"`
	Tests       []testgen.TestCase `json:"tests"`
	MockAPI     []mockapi.Endpoint `json:"mockApi"`
	Deployment  Deployment         `json:"deployment"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

// Option customises a bundle.
type Option func(*Bundle) error

// WithEnvironment sets the deployment environment.
func WithEnvironment(env string) Option {
	return func(b *Bundle) error {
		env = strings.ToLower(strings.TrimSpace(env))
		switch env {
		case "":
			return nil
		case EnvDevelopment, EnvStaging, EnvProduction:
			b.Deployment.Environment = env
			return nil
		default:
			return fmt.Errorf("%w: %q", ErrUnknownEnvironment, env)
		}
	}
}

// WithDeploymentURL marks the bundle deployed at url, stamped with the
// bundle's generation time.
func WithDeploymentURL(url string) Option {
	return func(b *Bundle) error {
		url = strings.TrimRight(strings.TrimSpace(url), "/")
		if url == "" {
			return nil
		}
		ts := b.GeneratedAt
		b.Deployment.URL = url
		b.Deployment.Status = StatusDeployed
		b.Deployment.Timestamp = &ts
		return nil
	}
}

// New packages a generation result. A nil clock uses time.Now.
func New(result orchestrator.Result, now func() time.Time, options ...Option) (Bundle, error) {
	if now == nil {
		now = time.Now
	}
	b := Bundle{
		Schema:      result.Schema.Clone(),
		Tests:       append([]testgen.TestCase(nil), result.Tests...),
		MockAPI:     append([]mockapi.Endpoint(nil), result.Endpoints...),
		Deployment:  Deployment{Environment: EnvDevelopment, Status: StatusDraft},
		GeneratedAt: now().UTC(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		if err := opt(&b); err != nil {
			return Bundle{}, err
		}
	}
	return b, nil
}

// Filename returns the conventional download name for a JSON bundle.
func Filename(form schema.FormSchema) string {
	return FilenameFor(form, FormatJSON)
}

// FilenameFor returns the download name for the given format.
func FilenameFor(form schema.FormSchema, format Format) string {
	id := strings.TrimSpace(form.ID)
	if id == "" {
		id = form.Slug()
	}
	return id + "-deployment-bundle." + format.Ext()
}

// Encode writes b in the given format. YAML output keeps the JSON key names.
func Encode(w io.Writer, b Bundle, format Format) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(b); err != nil {
			return fmt.Errorf("bundle: encode json: %w", err)
		}
		return nil
	case FormatYAML:
		generic, err := toGeneric(b)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("bundle: encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Decode reads a bundle written by Encode.
func Decode(r io.Reader, format Format) (Bundle, error) {
	var b Bundle
	switch format {
	case FormatJSON, "":
		if err := json.NewDecoder(r).Decode(&b); err != nil {
			return Bundle{}, fmt.Errorf("bundle: decode json: %w", err)
		}
		return b, nil
	case FormatYAML:
		var generic any
		if err := yaml.NewDecoder(r).Decode(&generic); err != nil {
			return Bundle{}, fmt.Errorf("bundle: decode yaml: %w", err)
		}
		data, err := json.Marshal(generic)
		if err != nil {
			return Bundle{}, fmt.Errorf("bundle: decode yaml: %w", err)
		}
		if err := json.Unmarshal(data, &b); err != nil {
			return Bundle{}, fmt.Errorf("bundle: decode yaml: %w", err)
		}
		return b, nil
	default:
		return Bundle{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteFiles writes one file per format into dir and returns their paths in
// format order.
func WriteFiles(ctx context.Context, dir string, b Bundle, formats ...Format) ([]string, error) {
	if len(formats) == 0 {
		formats = []Format{FormatJSON}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("bundle: create %s: %w", dir, err)
	}

	paths := make([]string, len(formats))
	g, gctx := errgroup.WithContext(ctx)
	for i, format := range formats {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := Encode(&buf, b, format); err != nil {
				return err
			}
			path := filepath.Join(dir, FilenameFor(b.Schema, format))
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("bundle: write %s: %w", path, err)
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func toGeneric(b Bundle) (any, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("bundle: encode: %w", err)
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("bundle: encode: %w", err)
	}
	return generic, nil
}
