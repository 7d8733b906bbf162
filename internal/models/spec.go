package models

// Supported OpenAPI document families
const (
	SpecVersion2 = "2.0"
	SpecVersion3 = "3"
)

// Spec is a resolved OpenAPI document reduced to what monitoring needs.
// All $ref pointers have been dereferenced before a Spec is built.
type Spec struct {
	Version  string     `json:"version"` // "2.0" or the 3.x version string
	Title    string     `json:"title"`
	Servers  []string   `json:"servers"`  // OA3 server URLs, variables already substituted
	Host     string     `json:"host"`     // OA2 only
	BasePath string     `json:"basePath"` // OA2 only
	Paths    []PathItem `json:"paths"`    // document order
}

// PathItem is one entry of the spec's paths object
type PathItem struct {
	Path    string   `json:"path"`
	Methods []string `json:"methods"` // lowercase verbs declared on the item
}

// IsV2 reports whether the spec was loaded from a Swagger 2.0 document
func (s *Spec) IsV2() bool {
	return s.Version == SpecVersion2
}

// HTTPVerbs is the fixed verb set that makes a path item monitorable
var HTTPVerbs = []string{"get", "head", "post", "put", "patch", "delete", "options", "trace"}

// IsHTTPVerb reports whether name (lowercase) belongs to HTTPVerbs
func IsHTTPVerb(name string) bool {
	for _, v := range HTTPVerbs {
		if v == name {
			return true
		}
	}
	return false
}
