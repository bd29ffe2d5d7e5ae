package graceful

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// ErrNotPointer is returned when SetConfigFromEnvVars receives a non-pointer value.
var ErrNotPointer = errors.New("config must be a pointer to a struct")

// GetenvOrDefault returns the value of key, or defaultValue when it is unset or blank.
func GetenvOrDefault(key string, defaultValue string) string {
	str := strings.TrimSpace(os.Getenv(key))
	if str == "" {
		return defaultValue
	}

	return str
}

// GetenvBoolOrDefault returns the value of key parsed as a bool, or defaultValue.
func GetenvBoolOrDefault(key string, defaultValue bool) bool {
	str := strings.TrimSpace(os.Getenv(key))

	val, err := strconv.ParseBool(str)
	if err != nil {
		return defaultValue
	}

	return val
}

// GetenvIntOrDefault returns the value of key parsed as an int64, or defaultValue.
func GetenvIntOrDefault(key string, defaultValue int64) int64 {
	str := strings.TrimSpace(os.Getenv(key))

	val, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return defaultValue
	}

	return val
}

// GetenvDurationOrDefault returns the value of key parsed with time.ParseDuration, or defaultValue.
func GetenvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	str := strings.TrimSpace(os.Getenv(key))

	val, err := time.ParseDuration(str)
	if err != nil {
		return defaultValue
	}

	return val
}

var durationType = reflect.TypeOf(time.Duration(0))

// SetConfigFromEnvVars fills the exported fields of s tagged with `env:"NAME"`.
//
// Supported kinds are string, bool, signed integers and time.Duration.
// Unset variables leave the field untouched so callers can pre-populate defaults.
//
//	type Config struct {
//		Address string        `env:"HTTP_ADDRESS"`
//		Timeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
//	}
func SetConfigFromEnvVars(s any) error {
	v := reflect.ValueOf(s)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return ErrNotPointer
	}

	elem := v.Elem()
	t := elem.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		tag, ok := field.Tag.Lookup("env")
		if !ok || tag == "" || !field.IsExported() {
			continue
		}

		raw, set := os.LookupEnv(tag)
		if !set || strings.TrimSpace(raw) == "" {
			continue
		}

		if err := setField(elem.Field(i), strings.TrimSpace(raw)); err != nil {
			return fmt.Errorf("env %s: %w", tag, err)
		}
	}

	return nil
}

func setField(fv reflect.Value, raw string) error {
	if fv.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}

		fv.SetInt(int64(d))

		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}

		fv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, fv.Type().Bits())
		if err != nil {
			return err
		}

		fv.SetInt(n)
	default:
		return fmt.Errorf("unsupported field kind %s", fv.Kind())
	}

	return nil
}
