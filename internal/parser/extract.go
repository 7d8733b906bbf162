package parser

import (
	"log/slog"
	"net/url"
	"path"

	"github.com/pagopa/opex-dashboard/internal/models"
)

// Extraction is the monitored surface derived from a spec
type Extraction struct {
	Hosts     []string
	Endpoints models.Endpoints
	BasePath  string
}

// Extractor derives hosts and endpoints from a resolved spec
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates a new endpoint extractor
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{logger: logger}
}

// Extract returns the deduplicated hosts and the endpoints of spec in
// document order. Every endpoint starts from defaults.
func (e *Extractor) Extract(spec *models.Spec, defaults models.EndpointConfig) (*Extraction, error) {
	if spec == nil {
		return nil, models.NewConfigError("oa3_spec", "no specification loaded", nil)
	}
	if len(spec.Paths) == 0 {
		return nil, models.NewConfigError("oa3_spec", "specification has no paths", nil)
	}

	var hosts, bases []string
	switch {
	case len(spec.Servers) > 0:
		for _, raw := range spec.Servers {
			u, err := url.Parse(raw)
			if err != nil {
				return nil, models.NewConfigError("oa3_spec", "invalid server url "+raw, err)
			}
			if u.Host == "" {
				e.logger.Warn("server url has no host", "url", raw)
			} else {
				hosts = appendUnique(hosts, u.Host)
			}
			bases = appendUnique(bases, NormalizePath(u.Path))
		}
	case spec.Host != "":
		hosts = []string{spec.Host}
		bases = []string{NormalizePath(spec.BasePath)}
	default:
		return nil, models.NewConfigError("oa3_spec", "specification declares neither servers nor host", nil)
	}

	endpoints := models.NewEndpoints()
	for _, base := range bases {
		for _, item := range spec.Paths {
			if len(item.Methods) == 0 {
				e.logger.Debug("skipping path without operations", "path", item.Path)
				continue
			}

			full := JoinPath(base, item.Path)
			if endpoints.Has(full) {
				continue
			}

			cfg := defaults
			cfg.Method = ""
			cfg.Path = full
			endpoints.Set(full, cfg)
		}
	}

	if endpoints.Len() == 0 {
		return nil, models.NewConfigError("oa3_spec", "specification has no operations to monitor", nil)
	}

	e.logger.Debug("extracted endpoints", "hosts", len(hosts), "endpoints", endpoints.Len())

	return &Extraction{
		Hosts:     hosts,
		Endpoints: endpoints,
		BasePath:  bases[0],
	}, nil
}

// NormalizePath cleans p into an absolute path without duplicate or
// trailing slashes. It is idempotent.
func NormalizePath(p string) string {
	return path.Join("/", p)
}

// JoinPath joins a server base path and an endpoint path
func JoinPath(base, endpoint string) string {
	return path.Join("/", base, endpoint)
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
