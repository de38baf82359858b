package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// TransformSelection is the per-file choice of cleaning steps and export
// format. The zero value applies no transforms, keeps all columns and
// exports CSV.
type TransformSelection struct {
	RemoveDuplicates bool `json:"remove_duplicates"`
	FillMissing      bool `json:"fill_missing"`

	// Columns is the projection in output order. nil keeps every column.
	Columns []string `json:"columns" validate:"omitempty,max=10000,dive,required"`

	ShowChart    bool   `json:"show_chart"`
	ExportFormat Format `json:"export_format" validate:"omitempty,oneof=csv xlsx"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the selection's shape. Column names are checked against a
// dataset later, by SelectColumns.
func (s TransformSelection) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, len(verrs))
	for i, fe := range verrs {
		fields[i] = fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag())
	}
	return &SelectionError{Fields: fields}
}

// Format returns the export format, defaulting to CSV.
func (s TransformSelection) Format() Format {
	if s.ExportFormat == "" {
		return FormatCSV
	}
	return s.ExportFormat
}
