// Package schema checks request bodies against JSON schemas.
//
// A schema set is a directory: every *.json file at the root is a request schema
// named after its file, every *.json file below refs/ may be referenced by them
// through its $id.
package schema

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const refsDir = "refs"

// Validator holds the compiled request schemas by name
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

// ValidationError lists everything that is wrong with a document
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

// Load compiles the schema set found in fsys.
func Load(fsys fs.FS) (*Validator, error) {
	refs, err := readJSONFiles(fsys, refsDir)
	if err != nil {
		return nil, err
	}
	documents, err := readJSONFiles(fsys, ".")
	if err != nil {
		return nil, err
	}
	return New(documents, refs)
}

// New compiles the named schemas. Each of them may reference any of refs, but not
// each other.
func New(documents map[string]string, refs map[string]string) (*Validator, error) {
	refNames := make([]string, 0, len(refs))
	for name := range refs {
		refNames = append(refNames, name)
	}
	sort.Strings(refNames)

	v := &Validator{schemas: make(map[string]*gojsonschema.Schema, len(documents))}
	for name, document := range documents {
		sl := gojsonschema.NewSchemaLoader()
		for _, refName := range refNames {
			if err := sl.AddSchemas(gojsonschema.NewStringLoader(refs[refName])); err != nil {
				return nil, fmt.Errorf("cannot add ref %s: %w", refName, err)
			}
		}
		compiled, err := sl.Compile(gojsonschema.NewStringLoader(document))
		if err != nil {
			return nil, fmt.Errorf("cannot compile schema %s: %w", name, err)
		}
		v.schemas[name] = compiled
	}
	return v, nil
}

// Validate checks document against the named schema. A document that does not match
// yields a *ValidationError, anything else is a plain error.
func (v *Validator) Validate(document []byte, name string) error {
	s, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("there is no schema %s", name)
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("cannot validate with schema %s: %w", name, err)
	}
	if result.Valid() {
		return nil
	}
	verr := &ValidationError{}
	for _, e := range result.Errors() {
		verr.Problems = append(verr.Problems, e.Field()+": "+e.Description())
	}
	return verr
}

// readJSONFiles returns the *.json files directly in dir, keyed by name without extension
func readJSONFiles(fsys fs.FS, dir string) (map[string]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read dir %s: %w", dir, err)
	}
	files := map[string]string{}
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("cannot read file %s: %w", entry.Name(), err)
		}
		files[strings.TrimSuffix(entry.Name(), ".json")] = string(data)
	}
	return files, nil
}
