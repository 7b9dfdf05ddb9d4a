// Package api serves the embedded OpenAPI description of the items API.
package api

import (
	_ "embed"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed swagger.yaml
var swaggerYAML []byte

var (
	jsonOnce sync.Once
	jsonSpec []byte
	jsonErr  error
)

// SpecYAML returns the embedded document as written
func SpecYAML() []byte {
	return swaggerYAML
}

// SpecJSON returns the document converted to JSON. The conversion runs once.
func SpecJSON() ([]byte, error) {
	jsonOnce.Do(func() {
		var doc map[string]interface{}
		if jsonErr = yaml.Unmarshal(swaggerYAML, &doc); jsonErr != nil {
			return
		}
		jsonSpec, jsonErr = json.Marshal(doc)
	})
	return jsonSpec, jsonErr
}

// SwaggerHandler serves JSON by default and YAML when the client asks for it
func SwaggerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Accept"), "yaml") {
			w.Header().Set("Content-Type", "application/yaml")
			_, _ = w.Write(swaggerYAML)
			return
		}

		doc, err := SpecJSON()
		if err != nil {
			http.Error(w, "failed to render API description", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(doc)
	}
}
