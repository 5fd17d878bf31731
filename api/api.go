// Package api holds the OpenAPI description of the REST surface.
package api

import _ "embed"

// SwaggerJSON is the Swagger 2.0 document served at /openapi/user.swagger.json.
//
//go:embed swagger/user.swagger.json
var SwaggerJSON []byte
