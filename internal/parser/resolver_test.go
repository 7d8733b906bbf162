package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagopa/opex-dashboard/internal/models"
)

const oa3Spec = `
openapi: 3.0.1
info:
  title: Services API
  version: 1.0.0
servers:
  - url: https://{env}.example.com/api/v1
    variables:
      env:
        default: dev
paths:
  /services:
    get:
      responses:
        '200':
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/ServiceList'
  /services/{service_id}:
    parameters:
      - name: service_id
        in: path
        required: true
        schema:
          type: string
    get:
      responses:
        '200':
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Service'
    delete:
      responses:
        '204':
          description: deleted
  /health:
    description: not an operation
components:
  schemas:
    Service:
      type: object
      properties:
        id:
          type: string
        children:
          type: array
          items:
            $ref: '#/components/schemas/Service'
    ServiceList:
      type: array
      items:
        $ref: '#/components/schemas/Service'
`

const oa2Spec = `
swagger: "2.0"
info:
  title: Services API
  version: 1.0.0
host: dev.example.com
basePath: /api/v1
paths:
  /services:
    get:
      responses:
        "200":
          description: ok
          schema:
            $ref: '#/definitions/Service'
  /services/{service_id}:
    get:
      parameters:
        - name: service_id
          in: path
          required: true
          type: string
      responses:
        "200":
          description: ok
    delete:
      parameters:
        - name: service_id
          in: path
          required: true
          type: string
      responses:
        "204":
          description: deleted
definitions:
  Service:
    type: object
    properties:
      id:
        type: string
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestResolve_OA3File(t *testing.T) {
	location := writeFile(t, t.TempDir(), "openapi.yaml", oa3Spec)

	spec, err := NewResolver().Resolve(context.Background(), location)
	require.NoError(t, err)

	assert.Equal(t, "3.0.1", spec.Version)
	assert.False(t, spec.IsV2())
	assert.Equal(t, "Services API", spec.Title)
	assert.Equal(t, []string{"https://dev.example.com/api/v1"}, spec.Servers)

	require.Len(t, spec.Paths, 3)
	assert.Equal(t, "/services", spec.Paths[0].Path)
	assert.Equal(t, []string{"get"}, spec.Paths[0].Methods)
	assert.Equal(t, "/services/{service_id}", spec.Paths[1].Path)
	assert.Equal(t, []string{"get", "delete"}, spec.Paths[1].Methods)
	assert.Equal(t, "/health", spec.Paths[2].Path)
	assert.Empty(t, spec.Paths[2].Methods)
}

func TestResolve_KeepsDocumentOrder(t *testing.T) {
	content := `
openapi: 3.0.0
info: {title: t, version: "1"}
servers: [{url: "https://h"}]
paths:
  /zeta: {get: {responses: {"200": {description: ok}}}}
  /alpha: {get: {responses: {"200": {description: ok}}}}
  /mid: {post: {responses: {"200": {description: ok}}}}
`
	location := writeFile(t, t.TempDir(), "openapi.yaml", content)

	spec, err := NewResolver().Resolve(context.Background(), location)
	require.NoError(t, err)

	var order []string
	for _, p := range spec.Paths {
		order = append(order, p.Path)
	}
	assert.Equal(t, []string{"/zeta", "/alpha", "/mid"}, order)
}

func TestResolve_OA2File(t *testing.T) {
	location := writeFile(t, t.TempDir(), "swagger.yaml", oa2Spec)

	spec, err := NewResolver().Resolve(context.Background(), location)
	require.NoError(t, err)

	assert.True(t, spec.IsV2())
	assert.Equal(t, "dev.example.com", spec.Host)
	assert.Equal(t, "/api/v1", spec.BasePath)
	assert.Empty(t, spec.Servers)
	require.Len(t, spec.Paths, 2)
	assert.Equal(t, []string{"get", "delete"}, spec.Paths[1].Methods)
}

func TestResolve_ExternalFileRef(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "paths.yaml", `
ServiceItem:
  get:
    responses:
      '200':
        description: ok
        content:
          application/json:
            schema:
              $ref: './schemas.yaml#/Service'
`)
	writeFile(t, dir, "schemas.yaml", `
Service:
  type: object
  properties:
    id:
      type: string
`)
	location := writeFile(t, dir, "openapi.yaml", `
openapi: 3.0.0
info: {title: ext, version: "1"}
servers: [{url: "https://ext.example.com"}]
paths:
  /services/{id}:
    $ref: './paths.yaml#/ServiceItem'
`)

	spec, err := NewResolver().Resolve(context.Background(), location)
	require.NoError(t, err)
	require.Len(t, spec.Paths, 1)
	assert.Equal(t, []string{"get"}, spec.Paths[0].Methods)
}

func TestResolve_HTTP(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`
openapi: 3.0.0
info: {title: remote, version: "1"}
servers: [{url: "https://remote.example.com/v1"}]
paths:
  /items:
    get:
      responses:
        '200':
          description: ok
          content:
            application/json:
              schema:
                $ref: 'schemas.yaml#/Item'
`))
	})
	mux.HandleFunc("/schemas.yaml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`
Item:
  type: object
`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	spec, err := NewResolver().Resolve(context.Background(), server.URL+"/openapi.yaml")
	require.NoError(t, err)
	assert.Equal(t, "remote", spec.Title)
	require.Len(t, spec.Paths, 1)
	assert.Equal(t, "/items", spec.Paths[0].Path)
}

func TestResolve_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := NewResolver().Resolve(context.Background(), server.URL+"/missing.yaml")
	require.Error(t, err)
	assert.True(t, models.IsConfigError(err))
}

func TestResolve_HTTPDocumentTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(oa3Spec))
	}))
	defer server.Close()

	_, err := NewResolver(WithMaxDocumentBytes(64)).Resolve(context.Background(), server.URL+"/openapi.yaml")
	require.Error(t, err)
	assert.True(t, models.IsConfigError(err))
	assert.ErrorIs(t, err, ErrDocumentTooLarge)

	spec, err := NewResolver(WithMaxDocumentBytes(int64(len(oa3Spec)))).Resolve(context.Background(), server.URL+"/openapi.yaml")
	require.NoError(t, err)
	assert.Len(t, spec.Paths, 3)
}

func TestResolve_HTTPTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	_, err := NewResolver(WithHTTPTimeout(50*time.Millisecond)).Resolve(context.Background(), server.URL+"/slow.yaml")
	require.Error(t, err)
}

func TestResolve_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		location string
	}{
		{"missing file", filepath.Join(dir, "nope.yaml")},
		{"empty location", ""},
		{"not yaml", writeFile(t, dir, "bad.yaml", "paths: [unclosed")},
		{"unknown version", writeFile(t, dir, "v1.yaml", "swagger: \"1.2\"\npaths: {}\n")},
		{"no version", writeFile(t, dir, "none.yaml", "info: {title: x}\n")},
		{"scalar document", writeFile(t, dir, "scalar.yaml", "just text\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResolver().Resolve(context.Background(), tt.location)
			require.Error(t, err)
			assert.True(t, models.IsConfigError(err), "expected ConfigError, got %v", err)
		})
	}
}

func TestResolve_Validation(t *testing.T) {
	// responses is required on every operation
	location := writeFile(t, t.TempDir(), "invalid.yaml", `
openapi: 3.0.0
info: {title: invalid, version: "1"}
servers: [{url: "https://h"}]
paths:
  /a:
    get: {}
`)

	_, err := NewResolver().Resolve(context.Background(), location)
	require.NoError(t, err)

	_, err = NewResolver(WithValidation(true)).Resolve(context.Background(), location)
	require.Error(t, err)
	assert.True(t, models.IsConfigError(err))
}
