// Package api carries the OpenAPI description of the SectionVault HTTP API.
package api

import _ "embed"

// OpenAPIDocument is the OpenAPI 3.0 document served at /api/docs/openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPIDocument []byte
