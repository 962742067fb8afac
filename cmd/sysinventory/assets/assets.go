// Package assets embeds the OpenAPI document served under /docs/.
package assets

import _ "embed"

//go:embed openapi.yaml
var OpenApiData []byte
