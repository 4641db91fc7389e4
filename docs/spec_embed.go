// Package docs embeds the API description served at /openapi.yaml.
package docs

import _ "embed"

// OpenAPISpec is the OpenAPI document of the list API.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
