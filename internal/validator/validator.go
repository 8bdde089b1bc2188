// Package validator collects human-readable validation messages for a
// request. Handlers embed a Validator in their input struct, run Check
// against each field, and hand Errors to the error handler when any
// check failed.
package validator

type Validator struct {
	Errors []string `json:",omitempty"`
}

// Check records message when ok is false.
func (v *Validator) Check(ok bool, message string) {
	if !ok {
		v.AddError(message)
	}
}

func (v *Validator) AddError(message string) {
	v.Errors = append(v.Errors, message)
}

func (v Validator) HasErrors() bool {
	return len(v.Errors) != 0
}
