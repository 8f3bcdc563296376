// Package jsonschema derives JSON Schema documents from form schemas and
// validates submission payloads against them.
//
//	validator, err := jsonschema.Compile(form)
//	if err != nil {
//		return err
//	}
//	if problems := validator.Validate(payload); len(problems) > 0 {
//		// reject with 400
//	}
package jsonschema
