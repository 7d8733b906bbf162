package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	oasyaml "github.com/oasdiff/yaml"
	"gopkg.in/yaml.v3"

	"github.com/pagopa/opex-dashboard/internal/models"
)

// DefaultHTTPTimeout bounds every remote fetch (root document and $ref targets)
const DefaultHTTPTimeout = 30 * time.Second

// DefaultMaxDocumentBytes caps the size of one remote document
const DefaultMaxDocumentBytes int64 = 32 << 20

// ErrDocumentTooLarge is returned when a remote document exceeds the size cap
var ErrDocumentTooLarge = errors.New("document too large")

// Resolver loads OpenAPI 2/3 documents and dereferences every $ref
type Resolver struct {
	client   *http.Client
	maxBytes int64
	validate bool
	logger   *slog.Logger
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithHTTPClient sets the client used for remote documents
func WithHTTPClient(client *http.Client) ResolverOption {
	return func(r *Resolver) {
		r.client = client
	}
}

// WithHTTPTimeout sets the timeout of the default HTTP client
func WithHTTPTimeout(timeout time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.client = &http.Client{Timeout: timeout}
	}
}

// WithMaxDocumentBytes caps the size of each remote document
func WithMaxDocumentBytes(n int64) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.maxBytes = n
		}
	}
}

// WithValidation enables OpenAPI schema validation of the resolved document
func WithValidation(enabled bool) ResolverOption {
	return func(r *Resolver) {
		r.validate = enabled
	}
}

// WithLogger sets the resolver logger
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a new OpenAPI resolver
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		client:   &http.Client{Timeout: DefaultHTTPTimeout},
		maxBytes: DefaultMaxDocumentBytes,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve loads the document at location (file path or http(s) URL) and
// returns it with every internal and external reference resolved.
func (r *Resolver) Resolve(ctx context.Context, location string) (*models.Spec, error) {
	loc, err := parseLocation(location)
	if err != nil {
		return nil, models.NewConfigError("oa3_spec", "invalid location "+location, err)
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = true
	loader.ReadFromURIFunc = openapi3.URIMapCache(openapi3.ReadFromURIs(r.readFromHTTP, openapi3.ReadFromFile))

	data, err := loader.ReadFromURIFunc(loader, loc)
	if err != nil {
		return nil, models.NewConfigError("oa3_spec", "cannot read "+location, err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, models.NewConfigError("oa3_spec", "cannot parse "+location, err)
	}
	version, err := detectVersion(&root)
	if err != nil {
		return nil, models.NewConfigError("oa3_spec", location, err)
	}

	r.logger.Debug("resolving OpenAPI document", "location", loc.String(), "version", version)

	spec := &models.Spec{Version: version}

	var doc *openapi3.T
	if version == models.SpecVersion2 {
		var doc2 openapi2.T
		if err := oasyaml.Unmarshal(data, &doc2); err != nil {
			return nil, models.NewConfigError("oa3_spec", "cannot parse "+location, err)
		}
		spec.Host = doc2.Host
		spec.BasePath = doc2.BasePath

		doc, err = openapi2conv.ToV3WithLoader(&doc2, loader, loc)
		if err != nil {
			return nil, models.NewConfigError("oa3_spec", "cannot resolve "+location, err)
		}
	} else {
		doc, err = loader.LoadFromDataWithPath(data, loc)
		if err != nil {
			return nil, models.NewConfigError("oa3_spec", "cannot resolve "+location, err)
		}
		spec.Servers = serverURLs(doc.Servers)
	}

	if r.validate {
		if err := doc.Validate(ctx); err != nil {
			return nil, models.NewConfigError("oa3_spec", "invalid OpenAPI document", err)
		}
	}

	if doc.Info != nil {
		spec.Title = doc.Info.Title
	}
	spec.Paths = pathItems(doc, pathOrder(&root))

	return spec, nil
}

// readFromHTTP fetches remote documents honouring the loader context
func (r *Resolver) readFromHTTP(loader *openapi3.Loader, location *url.URL) ([]byte, error) {
	if location.Scheme == "" || location.Host == "" {
		return nil, openapi3.ErrURINotSupported
	}

	ctx := loader.Context
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", location, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}
	if int64(len(data)) > r.maxBytes {
		return nil, fmt.Errorf("fetch %s: %w (limit %d bytes)", location, ErrDocumentTooLarge, r.maxBytes)
	}
	return data, nil
}

// parseLocation turns a path or URL into the absolute URI the loader expects
func parseLocation(location string) (*url.URL, error) {
	if location == "" {
		return nil, fmt.Errorf("empty location")
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return url.Parse(location)
	}

	abs, err := filepath.Abs(strings.TrimPrefix(location, "file://"))
	if err != nil {
		return nil, err
	}
	return &url.URL{Path: filepath.ToSlash(abs)}, nil
}

// detectVersion reads the swagger/openapi marker of the root document
func detectVersion(root *yaml.Node) (string, error) {
	doc := documentMapping(root)
	if doc == nil {
		return "", fmt.Errorf("document is not an object")
	}

	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, value := doc.Content[i].Value, doc.Content[i+1].Value
		switch {
		case key == "swagger" && value == models.SpecVersion2:
			return models.SpecVersion2, nil
		case key == "openapi" && strings.HasPrefix(value, models.SpecVersion3+"."):
			return value, nil
		case key == "swagger" || key == "openapi":
			return "", fmt.Errorf("unsupported %s version %q", key, value)
		}
	}
	return "", fmt.Errorf("missing swagger or openapi version field")
}

// pathOrder returns the keys of the root paths object in document order
func pathOrder(root *yaml.Node) []string {
	doc := documentMapping(root)
	if doc == nil {
		return nil
	}

	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value != "paths" || doc.Content[i+1].Kind != yaml.MappingNode {
			continue
		}
		paths := doc.Content[i+1]
		order := make([]string, 0, len(paths.Content)/2)
		for j := 0; j+1 < len(paths.Content); j += 2 {
			order = append(order, paths.Content[j].Value)
		}
		return order
	}
	return nil
}

func documentMapping(root *yaml.Node) *yaml.Node {
	node := root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	return node
}

// pathItems lists the resolved paths in document order with their verbs.
// Extension keys (x-*) are not paths and are skipped.
func pathItems(doc *openapi3.T, order []string) []models.PathItem {
	if doc.Paths == nil {
		return nil
	}

	all := doc.Paths.Map()
	seen := make(map[string]bool, len(all))
	items := make([]models.PathItem, 0, len(all))

	add := func(p string) {
		item, ok := all[p]
		if !ok || seen[p] {
			return
		}
		seen[p] = true
		items = append(items, models.PathItem{Path: p, Methods: methods(item)})
	}

	for _, p := range order {
		add(p)
	}

	// Anything the root order did not cover, sorted for determinism
	var rest []string
	for p := range all {
		if !seen[p] {
			rest = append(rest, p)
		}
	}
	sort.Strings(rest)
	for _, p := range rest {
		add(p)
	}

	return items
}

// methods returns the lowercase verbs of item in the canonical verb order
func methods(item *openapi3.PathItem) []string {
	if item == nil {
		return nil
	}
	ops := item.Operations()

	var out []string
	for _, verb := range models.HTTPVerbs {
		if _, ok := ops[strings.ToUpper(verb)]; ok {
			out = append(out, verb)
		}
	}
	return out
}

// serverURLs returns server URLs with variables replaced by their defaults
func serverURLs(servers openapi3.Servers) []string {
	out := make([]string, 0, len(servers))
	for _, server := range servers {
		if server == nil {
			continue
		}
		u := server.URL
		for name, variable := range server.Variables {
			if variable == nil {
				continue
			}
			u = strings.ReplaceAll(u, "{"+name+"}", variable.Default)
		}
		out = append(out, u)
	}
	return out
}
