package configparser

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadAndParseYaml loads a local .env file if one exists, then the YAML
// config file, then fills cfg from the environment using `env` and
// `default` struct tags. cfg must be a pointer to a struct.
func LoadAndParseYaml(filepath string, cfg any) error {
	// .env is optional, real environments set variables directly
	_ = godotenv.Load()

	if filepath != "" {
		if err := LoadYamlFile(filepath); err != nil {
			return err
		}
	}

	return ParseEnv(cfg)
}

// ParseEnv fills struct fields from environment variables declared with
// `env` tags, falling back to `default` tags. Nested structs are walked
// recursively.
func ParseEnv(cfg any) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config must be a pointer to a struct, got %T", cfg)
	}

	return parseStruct(v.Elem())
}

func parseStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		if !fieldValue.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Duration(0)) && field.Tag.Get("env") == "" {
			if err := parseStruct(fieldValue); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		raw := os.Getenv(envName)
		if raw == "" {
			raw = field.Tag.Get("default")
		}
		if raw == "" {
			continue
		}

		if err := setField(fieldValue, raw); err != nil {
			return fmt.Errorf("field %s (%s): %w", field.Name, envName, err)
		}
	}

	return nil
}

func setField(v reflect.Value, raw string) error {
	if v.Type() == reflect.TypeOf(time.Duration(0)) {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		v.SetInt(int64(d))
		return nil
	}

	switch v.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		v.SetFloat(f)
	case reflect.Slice:
		return setSlice(v, raw)
	default:
		return fmt.Errorf("unsupported field kind %s", v.Kind())
	}

	return nil
}

func setSlice(v reflect.Value, raw string) error {
	parts := strings.Split(raw, ",")
	out := reflect.MakeSlice(v.Type(), 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		elem := reflect.New(v.Type().Elem()).Elem()
		if err := setField(elem, part); err != nil {
			return err
		}
		out = reflect.Append(out, elem)
	}

	v.Set(out)
	return nil
}
