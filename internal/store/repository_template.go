// SPDX-License-Identifier: Apache-2.0

package store

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/sweep7125/sub-service/internal/logger"
)

// TextTemplateRepository loads a literal template string (the subscription
// URL template). Content is trimmed; a missing file yields an empty string.
type TextTemplateRepository struct {
	path  string
	cache *FileCache[string]
}

func NewTextTemplateRepository(path string) *TextTemplateRepository {
	return &TextTemplateRepository{
		path:  path,
		cache: NewFileCache[string](),
	}
}

func (r *TextTemplateRepository) Get() (string, error) {
	content, ok, err := r.cache.Get(r.path, func(path string) (string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	})
	if err != nil {
		return "", fmt.Errorf("error loading template from %s: %w", r.path, err)
	}
	if !ok {
		return "", nil
	}

	return content, nil
}

// JSONTemplateRepository loads a JSON template as a list of config blocks.
// A root value that is not a list is coerced to an empty list with a warning
// rather than failing the request.
type JSONTemplateRepository struct {
	path   string
	cache  *FileCache[[]map[string]any]
	logger *logger.Logger
}

func NewJSONTemplateRepository(path string, logger *logger.Logger) *JSONTemplateRepository {
	return &JSONTemplateRepository{
		path:   path,
		cache:  NewFileCache[[]map[string]any](),
		logger: logger,
	}
}

func (r *JSONTemplateRepository) Get() ([]map[string]any, error) {
	blocks, ok, err := r.cache.Get(r.path, r.loadFromFile)
	if err != nil {
		return nil, fmt.Errorf("error loading json template from %s: %w", r.path, err)
	}
	if !ok {
		return []map[string]any{}, nil
	}

	return blocks, nil
}

func (r *JSONTemplateRepository) loadFromFile(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	list, ok := root.([]any)
	if !ok {
		r.logger.Warn().Str("path", path).Msg("json template root is not a list, using empty template")
		return []map[string]any{}, nil
	}

	blocks := make([]map[string]any, 0, len(list))
	for _, item := range list {
		block, ok := item.(map[string]any)
		if !ok {
			r.logger.Warn().Str("path", path).Msg("skipping non-object json template block")
			continue
		}
		blocks = append(blocks, block)
	}

	return blocks, nil
}

// YAMLTemplateRepository loads a YAML template with insertion-ordered
// mappings. The raw decoded shape is preserved: the builder is the one
// place that decides whether a non-mapping root is fatal.
type YAMLTemplateRepository struct {
	path  string
	cache *FileCache[any]
}

func NewYAMLTemplateRepository(path string) *YAMLTemplateRepository {
	return &YAMLTemplateRepository{
		path:  path,
		cache: NewFileCache[any](),
	}
}

// Get returns the decoded template root. A missing or empty file behaves
// like an empty mapping.
func (r *YAMLTemplateRepository) Get() (any, error) {
	template, ok, err := r.cache.Get(r.path, r.loadFromFile)
	if err != nil {
		return nil, fmt.Errorf("error loading yaml template from %s: %w", r.path, err)
	}
	if !ok {
		return yaml.MapSlice{}, nil
	}

	return template, nil
}

func (r *YAMLTemplateRepository) loadFromFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var root any
	if err := yaml.UnmarshalWithOptions(data, &root, yaml.UseOrderedMap()); err != nil {
		return nil, err
	}

	if root == nil {
		// empty file behaves like an empty mapping
		return yaml.MapSlice{}, nil
	}

	return root, nil
}
