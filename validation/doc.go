// Package validation checks request input and reports failures as
// 400 AppErrors listing every offending field.
//
// Struct tags, using json field names in messages:
//
//	type createTodo struct {
//	    Task string `json:"task" validate:"required,max=500"`
//	}
//	if err := validation.Validate(req); err != nil { ... }
//
// Programmatic checks:
//
//	err := validation.New().Required("email", email).Validate()
package validation
