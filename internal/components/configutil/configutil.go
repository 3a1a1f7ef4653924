// Package configutil reads json5 config files that may be overridden by a
// `.local` sibling kept out of version control.
package configutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// Layer is one config file that was found, Value only holds what that file
// sets.
type Layer[T any] struct {
	Path  string
	Value T
}

// Layers lists the files of one config from lowest to highest priority.
type Layers[T any] []Layer[T]

// Merge overlays every layer onto the previous ones.
func (l Layers[T]) Merge() (T, error) {
	var out T
	for _, layer := range l {
		err := mergo.Merge(&out, layer.Value, mergo.WithOverride)
		if err != nil {
			return out, fmt.Errorf("merge %s: %w", layer.Path, err)
		}
	}
	return out, nil
}

// Source returns the path of the highest priority layer for which `set`
// is true, or "" if no layer sets the value.
func (l Layers[T]) Source(set func(T) bool) string {
	for i := len(l) - 1; i >= 0; i-- {
		if set(l[i].Value) {
			return l[i].Path
		}
	}
	return ""
}

// LocalName returns the override file of `name`, config.json5 gives
// config.local.json5.
func LocalName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

func readLayer[T any](path string) (Layer[T], bool, error) {
	contents, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(contents) == 0) {
		return Layer[T]{}, false, nil
	}
	if err != nil {
		return Layer[T]{}, false, err
	}
	layer := Layer[T]{Path: path}
	err = json5.Unmarshal(contents, &layer.Value)
	if err != nil {
		return Layer[T]{}, false, fmt.Errorf("parse %s: %w", path, err)
	}
	return layer, true, nil
}

// ReadLayers reads `name` and its local override. If neither exists,
// os.ErrNotExist is returned.
func ReadLayers[T any](name string) (Layers[T], error) {
	var layers Layers[T]
	for _, path := range []string{name, LocalName(name)} {
		layer, ok, err := readLayer[T](path)
		if err != nil {
			return nil, err
		}
		if ok {
			layers = append(layers, layer)
		}
	}
	if len(layers) == 0 {
		return nil, os.ErrNotExist
	}
	return layers, nil
}

// ReadConfig is ReadLayers merged into a single value.
func ReadConfig[T any](name string) (T, error) {
	layers, err := ReadLayers[T](name)
	if err != nil {
		var zero T
		return zero, err
	}
	return layers.Merge()
}

func readRecursivelyFrom[T any](dir, name string) (T, error) {
	for {
		config, err := ReadConfig[T](filepath.Join(dir, name))
		if err == nil || !errors.Is(err, os.ErrNotExist) {
			return config, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			var zero T
			return zero, os.ErrNotExist
		}
		dir = parent
	}
}

// ReadRecursively is ReadConfig on the first directory, walking up from the
// cwd, that holds `name`.
func ReadRecursively[T any](name string) (T, error) {
	cwd, err := os.Getwd()
	if err != nil {
		var zero T
		return zero, err
	}
	return readRecursivelyFrom[T](cwd, name)
}
