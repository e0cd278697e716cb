package interpolation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// TagName marks fields for expansion: `env_interpolation:"yes"`.
const TagName = "env_interpolation"

// Struct expands tagged string fields of the struct v points to, in place.
// Tagged map[string]string and []string fields are expanded element-wise.
// Nested structs, struct pointers and slices of either are always walked, so
// tags apply at every depth.
func Struct(v any, lookup LookupFunc) error {
	if v == nil {
		return nil
	}

	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Ptr {
		return fmt.Errorf("expected pointer to struct, got %T", v)
	}
	if val.IsNil() {
		return nil
	}
	val = val.Elem()
	if val.Kind() != reflect.Struct {
		return fmt.Errorf("expected pointer to struct, got %T", v)
	}

	return walk(val, lookup)
}

func walk(val reflect.Value, lookup LookupFunc) error {
	typ := val.Type()
	var errs []error

	for i := range val.NumField() {
		field := val.Field(i)
		meta := typ.Field(i)
		if !field.CanSet() {
			continue
		}
		tagged := strings.EqualFold(meta.Tag.Get(TagName), "yes")

		if err := expandField(field, meta.Name, tagged, lookup); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func expandField(field reflect.Value, name string, tagged bool, lookup LookupFunc) error {
	switch field.Kind() {
	case reflect.String:
		if !tagged || field.String() == "" {
			return nil
		}
		out, err := Expand(field.String(), lookup)
		if err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		field.SetString(out)

	case reflect.Map:
		if !tagged || field.IsNil() ||
			field.Type().Key().Kind() != reflect.String ||
			field.Type().Elem().Kind() != reflect.String {
			return nil
		}
		var errs []error
		iter := field.MapRange()
		for iter.Next() {
			out, err := Expand(iter.Value().String(), lookup)
			if err != nil {
				errs = append(errs, fmt.Errorf("field %s[%s]: %w", name, iter.Key().String(), err))
				continue
			}
			field.SetMapIndex(iter.Key(), reflect.ValueOf(out).Convert(field.Type().Elem()))
		}
		return errors.Join(errs...)

	case reflect.Slice:
		var errs []error
		for j := range field.Len() {
			if err := expandField(field.Index(j), fmt.Sprintf("%s[%d]", name, j), tagged, lookup); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)

	case reflect.Struct:
		if err := walk(field, lookup); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}

	case reflect.Ptr:
		if field.IsNil() || field.Elem().Kind() != reflect.Struct {
			return nil
		}
		if err := walk(field.Elem(), lookup); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
	}
	return nil
}
