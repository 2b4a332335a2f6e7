package mission

import (
	"fmt"
	"strings"
)

// ValidationError represents a single validation error with structured context.
type ValidationError struct {
	// StepID is the ID of the step where the error occurred (if applicable)
	StepID string `json:"step_id,omitempty"`

	// Field is the name of the field that failed validation (if applicable)
	Field string `json:"field,omitempty"`

	// Message is a human-readable error message
	Message string `json:"message"`

	// ErrorCode is a machine-readable error code
	ErrorCode string `json:"error_code"`
}

// Error implements the error interface for ValidationError
func (e *ValidationError) Error() string {
	parts := []string{}

	if e.StepID != "" {
		parts = append(parts, fmt.Sprintf("step=%s", e.StepID))
	}
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}

	context := ""
	if len(parts) > 0 {
		context = fmt.Sprintf(" [%s]", strings.Join(parts, ", "))
	}

	return fmt.Sprintf("%s%s: %s", e.ErrorCode, context, e.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// HasErrors returns true if the collection contains at least one error
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validate performs structural validation of a Mission and returns all
// errors found. It checks:
// - the mission has a name and at least one step
// - every step has a non-empty id, unique within the mission
// - every step type is known
// - every depends_on entry names a declared step, and no step depends on itself
// - timeout and concurrency values are positive when present
//
// Cycle detection is the graph package's concern, not the validator's.
func Validate(m *Mission) ValidationErrors {
	errors := ValidationErrors{}

	if m == nil {
		errors = append(errors, ValidationError{
			ErrorCode: "mission_nil",
			Message:   "mission cannot be nil",
		})
		return errors
	}

	if strings.TrimSpace(m.Name) == "" {
		errors = append(errors, ValidationError{
			Field:     "name",
			ErrorCode: "missing_name",
			Message:   "mission name is required",
		})
	}

	if len(m.Steps) == 0 {
		errors = append(errors, ValidationError{
			Field:     "steps",
			ErrorCode: "no_steps",
			Message:   "mission must declare at least one step",
		})
		return errors
	}

	seen := make(map[string]bool, len(m.Steps))
	for i, step := range m.Steps {
		if strings.TrimSpace(step.ID) == "" {
			errors = append(errors, ValidationError{
				Field:     "id",
				ErrorCode: "missing_step_id",
				Message:   fmt.Sprintf("step at index %d has no id", i),
			})
			continue
		}

		if seen[step.ID] {
			errors = append(errors, ValidationError{
				StepID:    step.ID,
				Field:     "id",
				ErrorCode: "duplicate_step_id",
				Message:   fmt.Sprintf("step id %q is declared more than once", step.ID),
			})
		}
		seen[step.ID] = true

		if !step.Type.IsValid() {
			errors = append(errors, ValidationError{
				StepID:    step.ID,
				Field:     "step_type",
				ErrorCode: "unknown_step_type",
				Message:   fmt.Sprintf("unknown step type %q", step.Type),
			})
		}

		if step.TimeoutSecs != nil && *step.TimeoutSecs <= 0 {
			errors = append(errors, ValidationError{
				StepID:    step.ID,
				Field:     "timeout_seconds",
				ErrorCode: "invalid_timeout",
				Message:   "timeout_seconds must be positive",
			})
		}

		for _, dep := range step.DependsOn {
			if dep == step.ID {
				errors = append(errors, ValidationError{
					StepID:    step.ID,
					Field:     "depends_on",
					ErrorCode: "self_dependency",
					Message:   fmt.Sprintf("step %q depends on itself", step.ID),
				})
			}
		}

		errors = append(errors, validateStepParams(&m.Steps[i])...)
	}

	// Dependency references are resolved after all ids are collected so
	// forward references validate correctly.
	for _, step := range m.Steps {
		for _, dep := range step.DependsOn {
			if dep != step.ID && !seen[dep] {
				errors = append(errors, ValidationError{
					StepID:    step.ID,
					Field:     "depends_on",
					ErrorCode: "unknown_dependency",
					Message:   fmt.Sprintf("step %q depends on undeclared step %q", step.ID, dep),
				})
			}
		}
	}

	if m.Config != nil {
		if m.Config.MaxParallelSteps != nil && *m.Config.MaxParallelSteps <= 0 {
			errors = append(errors, ValidationError{
				Field:     "config.max_parallel_steps",
				ErrorCode: "invalid_concurrency",
				Message:   "max_parallel_steps must be positive",
			})
		}
		if m.Config.TimeoutSecs != nil && *m.Config.TimeoutSecs <= 0 {
			errors = append(errors, ValidationError{
				Field:     "config.timeout_seconds",
				ErrorCode: "invalid_timeout",
				Message:   "timeout_seconds must be positive",
			})
		}
	}

	return errors
}

// validateStepParams checks the type-specific required parameters.
func validateStepParams(step *MissionStep) ValidationErrors {
	errors := ValidationErrors{}

	requireString := func(key string) {
		if strings.TrimSpace(step.StringParam(key)) == "" {
			errors = append(errors, ValidationError{
				StepID:    step.ID,
				Field:     "parameters." + key,
				ErrorCode: "missing_parameter",
				Message:   fmt.Sprintf("%s step requires parameter %q", step.Type, key),
			})
		}
	}

	switch step.Type {
	case StepTypeCreateFile:
		requireString("path")
	case StepTypeEditFile:
		requireString("path")
	case StepTypeDeleteFile:
		requireString("path")
	case StepTypeCommand:
		requireString("command")
	case StepTypeTool:
		requireString("tool")
	}

	return errors
}
