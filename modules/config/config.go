package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"reflect"

	"github.com/chebyrash/promise"
	"github.com/go-playground/validator/v10"
)

type Config[T any] struct {
	defaultValue T
	dataDir      string

	loaded bool
	value  T
}

const DATA_DIR = "data"
const CONFIG_DIR = "config"

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// New creates a config backed by `<dataDir>/config/<TypeName>.json`.
// A nil dataDir falls back to DATA_DIR.
func New[T any](defaultValue T, dataDir *string) *Config[T] {
	dir := DATA_DIR
	if dataDir != nil && *dataDir != "" {
		dir = *dataDir
	}
	return &Config[T]{defaultValue: defaultValue, dataDir: dir, value: defaultValue}
}

func (c *Config[T]) FilePath() string {
	name := reflect.TypeFor[T]().Name()
	return path.Join(c.dataDir, CONFIG_DIR, name+".json")
}

func (c *Config[T]) Init() error {
	f, err := os.Open(c.FilePath())
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		err = c.Update(func(t *T) {
			*t = c.defaultValue
		})
		if err != nil {
			return err
		}
	} else {
		defer f.Close()
		b, err := io.ReadAll(f)
		if err != nil {
			return err
		}
		value := c.defaultValue
		if err := json.Unmarshal(b, &value); err != nil {
			return fmt.Errorf("failed to decode %s: %w", c.FilePath(), err)
		}
		if err := validate(value); err != nil {
			return fmt.Errorf("invalid config %s: %w", c.FilePath(), err)
		}
		c.value = value
	}
	c.loaded = true
	return nil
}

func (c *Config[T]) Start() *promise.Promise[any] {
	return promise.New(func(resolve func(any), reject func(error)) {
		resolve(nil)
	})
}

func (c *Config[T]) Stop() error {
	return nil
}

func (c *Config[T]) Loaded() bool {
	return c.loaded
}

func (c *Config[T]) Get() T {
	return c.value
}

// Update applies updater to a copy of the current value, validates it and
// persists it before swapping it in.
func (c *Config[T]) Update(updater func(*T)) error {
	temp := c.value
	updater(&temp)
	if err := validate(temp); err != nil {
		return err
	}
	b, err := json.MarshalIndent(temp, "", "  ")
	if err != nil {
		return err
	}
	err = os.MkdirAll(path.Dir(c.FilePath()), 0755)
	if err != nil {
		return err
	}
	err = os.WriteFile(c.FilePath(), b, 0644)
	if err != nil {
		return err
	}
	c.value = temp
	return nil
}

func validate[T any](value T) error {
	if reflect.TypeFor[T]().Kind() != reflect.Struct {
		return nil
	}
	return configValidator.Struct(value)
}
