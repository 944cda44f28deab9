// Package validation checks ADJ documents before they are saved.
//
// Two layers of rules are applied:
//   - go-playground/validator struct tags on the models (required fields,
//     IPv4 board addresses, known measurement types)
//   - document rules that span entities: manifest consistency, unique board
//     ids, unique measurement and packet ids, packet variables resolving to
//     measurements on the same board
//
// # Usage Example
//
//	v := validation.New()
//	result := v.ValidateConfig(cfg)
//	if !result.Valid {
//	    for _, e := range result.Errors {
//	        fmt.Printf("%s: %s\n", e.Field, e.Message)
//	    }
//	}
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"evalgo.org/adjvalet/models"
)

// Validator validates ADJ documents.
type Validator struct {
	// structValidator validates Go struct constraints and tags
	structValidator *validator.Validate
}

// ValidationError represents a single validation error with field-level details.
type ValidationError struct {
	// Field is the document path of the offending value
	Field string `json:"field"`

	// Message describes why the validation failed
	Message string `json:"message"`

	// Value is the invalid value that caused the error (optional)
	Value interface{} `json:"value,omitempty"`
}

// ValidationResult represents the complete result of a validation operation.
type ValidationResult struct {
	// Valid is true if validation passed, false otherwise
	Valid bool `json:"valid"`

	// Errors contains all validation errors found (empty if Valid is true)
	Errors []ValidationError `json:"errors,omitempty"`
}

// Summary joins all errors into one line.
func (r *ValidationResult) Summary() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return strings.Join(parts, "; ")
}

// New creates a Validator with the ADJ specific tags registered.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails for empty tags or nil functions
	_ = v.RegisterValidation("measurement_type", func(fl validator.FieldLevel) bool { //nolint:errcheck
		return models.IsMeasurementType(fl.Field().String())
	})

	return &Validator{structValidator: v}
}

// ValidateDocument parses a JSON document and validates it.
func (v *Validator) ValidateDocument(data []byte) (*ValidationResult, error) {
	var cfg models.ADJConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{
				{
					Field:   "document",
					Message: fmt.Sprintf("Invalid JSON: %v", err),
				},
			},
		}, nil
	}
	return v.ValidateConfig(&cfg), nil
}

// ValidateConfig validates a decoded document.
func (v *Validator) ValidateConfig(cfg *models.ADJConfig) *ValidationResult {
	if cfg == nil {
		return &ValidationResult{
			Valid:  false,
			Errors: []ValidationError{{Field: "document", Message: "No configuration"}},
		}
	}

	var errs []ValidationError
	errs = append(errs, v.validateGeneralInfo(cfg)...)
	errs = append(errs, v.validateManifest(cfg)...)

	boardIDs := map[uint32]string{}
	for _, name := range cfg.BoardNames() {
		board, _ := cfg.Board(name)
		prefix := "boards." + name

		if other, taken := boardIDs[board.BoardID]; taken {
			errs = append(errs, ValidationError{
				Field:   prefix + ".board_id",
				Message: fmt.Sprintf("board_id is also used by board %q", other),
				Value:   board.BoardID,
			})
		} else {
			boardIDs[board.BoardID] = name
		}

		errs = append(errs, v.validateStruct(prefix, board)...)
		errs = append(errs, v.validateBoard(prefix, board)...)
	}

	return &ValidationResult{
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}

// validateStruct runs the struct tag rules and maps the namespaces to
// document paths.
func (v *Validator) validateStruct(prefix string, board models.BoardInfo) []ValidationError {
	err := v.structValidator.Struct(board)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []ValidationError{{Field: prefix, Message: err.Error()}}
	}

	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		out = append(out, ValidationError{
			Field:   prefix + "." + field,
			Message: tagMessage(fe),
			Value:   fe.Value(),
		})
	}
	return out
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Field is required"
	case "ipv4":
		return "Invalid IPv4 address"
	case "measurement_type":
		return "Invalid type: must be one of: " + strings.Join(models.MeasurementTypes, ", ")
	}
	return fmt.Sprintf("Failed %q rule", fe.Tag())
}

// validateBoard checks the rules that span measurements and packets.
func (v *Validator) validateBoard(prefix string, board models.BoardInfo) []ValidationError {
	var errors []ValidationError

	measurementIDs := map[string]bool{}
	for i, m := range board.Measurements {
		field := fmt.Sprintf("%s.measurements[%d]", prefix, i)

		if m.ID != "" && measurementIDs[m.ID] {
			errors = append(errors, ValidationError{
				Field:   field + ".id",
				Message: "Measurement id is not unique on this board",
				Value:   m.ID,
			})
		}
		measurementIDs[m.ID] = true

		if m.Type == models.TypeEnum && len(m.EnumValues) == 0 {
			errors = append(errors, ValidationError{
				Field:   field + ".enumValues",
				Message: "Enum measurements need at least one value",
			})
		}

		if r := m.OutOfRange; r != nil && r[0] > r[1] {
			errors = append(errors, ValidationError{
				Field:   field + ".out_of_range",
				Message: "Minimum is greater than maximum",
				Value:   *r,
			})
		}
	}

	packetIDs := map[models.PacketID]bool{}
	for i, p := range board.Packets {
		field := fmt.Sprintf("%s.packets[%d]", prefix, i)

		if p.ID != nil {
			if packetIDs[*p.ID] {
				errors = append(errors, ValidationError{
					Field:   field + ".id",
					Message: "Packet id is not unique on this board",
					Value:   uint32(*p.ID),
				})
			}
			packetIDs[*p.ID] = true
		}

		for j, ref := range p.Variables {
			if !measurementIDs[ref] {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("%s.variables[%d]", field, j),
					Message: "Variable does not reference a measurement on this board",
					Value:   ref,
				})
			}
		}
	}

	return errors
}

// validateManifest checks that board_list and boards name the same boards.
func (v *Validator) validateManifest(cfg *models.ADJConfig) []ValidationError {
	var errors []ValidationError

	for _, name := range cfg.BoardNames() {
		if _, ok := cfg.BoardList[name]; !ok {
			errors = append(errors, ValidationError{
				Field:   "board_list." + name,
				Message: "Board is missing from board_list",
			})
		}
	}

	listed := make([]string, 0, len(cfg.BoardList))
	for name := range cfg.BoardList {
		listed = append(listed, name)
	}
	sort.Strings(listed)
	for _, name := range listed {
		if _, ok := cfg.Board(name); !ok {
			errors = append(errors, ValidationError{
				Field:   "board_list." + name,
				Message: "board_list entry has no board definition",
				Value:   cfg.BoardList[name],
			})
		}
	}

	return errors
}

// validateGeneralInfo checks scalar values and port numbers.
func (v *Validator) validateGeneralInfo(cfg *models.ADJConfig) []ValidationError {
	var errors []ValidationError

	sections := make([]string, 0, len(cfg.GeneralInfo))
	for name := range cfg.GeneralInfo {
		sections = append(sections, name)
	}
	sort.Strings(sections)

	for _, section := range sections {
		keys := make([]string, 0, len(cfg.GeneralInfo[section]))
		for key := range cfg.GeneralInfo[section] {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			value := cfg.GeneralInfo[section][key]
			field := "general_info." + section + "." + key

			if !models.IsScalar(value) {
				errors = append(errors, ValidationError{
					Field:   field,
					Message: "Value must be a string or a number",
					Value:   value,
				})
				continue
			}

			if section == models.SectionPorts {
				n, ok := number(value)
				if !ok || n < 0 || n > 65535 || n != float64(int(n)) {
					errors = append(errors, ValidationError{
						Field:   field,
						Message: "Port must be an integer between 0 and 65535",
						Value:   value,
					})
				}
			}
		}
	}

	return errors
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
