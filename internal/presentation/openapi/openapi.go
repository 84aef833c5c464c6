package openapi

import _ "embed"

// Spec OpenAPI定義（/openapi.yamlで配信）
//
//go:embed openapi.yaml
var Spec []byte
