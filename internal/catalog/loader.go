package catalog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type fileEntry struct {
	Name       string `yaml:"name"`
	Weight     int    `yaml:"weight"`
	Method     string `yaml:"method"`
	Path       string `yaml:"path"`
	Query      string `yaml:"query"`
	Acceptable []int  `yaml:"acceptable"`
}

type fileDoc struct {
	Types []fileEntry `yaml:"types"`
}

// LoadFile reads a YAML (or JSON) catalog document of the form
//
//	types:
//	  - name: get_url
//	    weight: 50
//	    method: GET
//	    path: /{id}
//	    acceptable: [307, 404]
func LoadFile(path string) ([]RequestType, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	types, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return types, nil
}

// Decode parses a catalog document. Validation happens in NewWeightTable.
func Decode(r io.Reader) ([]RequestType, error) {
	var doc fileDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, &ConfigError{Issues: []string{"catalog document is empty"}}
		}
		return nil, err
	}
	types := make([]RequestType, 0, len(doc.Types))
	for _, e := range doc.Types {
		types = append(types, RequestType{
			Name:       strings.TrimSpace(e.Name),
			Weight:     e.Weight,
			Method:     strings.ToUpper(strings.TrimSpace(e.Method)),
			Path:       strings.TrimSpace(e.Path),
			Query:      strings.TrimPrefix(strings.TrimSpace(e.Query), "?"),
			Acceptable: NewStatusSet(e.Acceptable...),
		})
	}
	return types, nil
}
