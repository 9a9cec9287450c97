package api

import (
	"encoding/json"
	"html/template"
	"net/http"
)

var scalarPage = template.Must(template.New("scalar").Parse(`<!DOCTYPE html>
<html>
<head>
	<title>{{.Title}} - API Reference</title>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<style>body { margin: 0; }</style>
</head>
<body>
	<script id="api-reference" data-url="{{.SpecURL}}" data-configuration="{{.Configuration}}"></script>
	<script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body>
</html>`))

type scalarConfig struct {
	Layout   string            `json:"layout"`
	Theme    string            `json:"theme"`
	MetaData map[string]string `json:"metaData"`
}

// ScalarHandler serves the Scalar API reference for the document at specURL.
func ScalarHandler(specURL, title, description string) http.Handler {
	cfg := scalarConfig{
		Layout: "modern",
		Theme:  "default",
		MetaData: map[string]string{
			"title":       title,
			"description": description,
		},
	}
	encoded, err := json.Marshal(cfg)
	if err != nil {
		encoded = []byte("{}")
	}
	data := struct {
		Title         string
		SpecURL       string
		Configuration string
	}{title, specURL, string(encoded)}

	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := scalarPage.Execute(w, data); err != nil {
			http.Error(w, "failed to render API reference", http.StatusInternalServerError)
		}
	})
}
