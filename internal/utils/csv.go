package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"
)

// CsvHeader returns the CSV header of struct type T. It uses the `csv` tag on
// struct fields, falls back to the field name and skips fields tagged "-".
func CsvHeader[T any]() []string {
	headers, _ := csvColumns(reflect.TypeFor[T]())
	return headers
}

func csvColumns(t reflect.Type) ([]string, []int) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, nil
	}

	var (
		headers []string
		fields  []int
	)
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		switch tag := field.Tag.Get("csv"); tag {
		case "-":
			continue
		case "":
		default:
			name = tag
		}
		headers = append(headers, name)
		fields = append(fields, i)
	}
	return headers, fields
}

// WriteCsv writes a header row and one row per item of data to w. Slice
// fields are joined with a semicolon.
func WriteCsv[T any](w io.Writer, data []T) error {
	headers, fields := csvColumns(reflect.TypeFor[T]())
	if headers == nil {
		return fmt.Errorf("data must be a slice of structs")
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(headers); err != nil {
		return err
	}

	row := make([]string, len(fields))
	for _, item := range data {
		v := reflect.ValueOf(item)
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				continue
			}
			v = v.Elem()
		}
		for col, idx := range fields {
			row[col] = csvValue(v.Field(idx))
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteCsvFile writes data to a new CSV file at filePath
func WriteCsvFile[T any](filePath string, data []T) error {
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	if err := WriteCsv(file, data); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func csvValue(v reflect.Value) string {
	if t, ok := v.Interface().(time.Time); ok {
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339)
	}
	if v.Kind() == reflect.Slice {
		parts := make([]string, v.Len())
		for j := range v.Len() {
			parts[j] = fmt.Sprintf("%v", v.Index(j).Interface())
		}
		return strings.Join(parts, ";")
	}
	return fmt.Sprintf("%v", v.Interface())
}
