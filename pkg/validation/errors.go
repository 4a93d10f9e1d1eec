package validation

// Error is a single user-facing validation message bound to a field.
type Error struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Display formats the message the way forms print it, for example
// "Error: lastName is a required field.".
func (e Error) Display() string {
	return "Error: " + e.Message + "."
}

// Errors is an ordered list of validation failures. It is derived state:
// recomputed from scratch on every validation.
type Errors []Error

// Empty reports whether there are no failures.
func (e Errors) Empty() bool {
	return len(e) == 0
}

// Has reports whether field has a failure.
func (e Errors) Has(field string) bool {
	_, ok := e.For(field)
	return ok
}

// For returns the failure recorded for field.
func (e Errors) For(field string) (Error, bool) {
	for _, item := range e {
		if item.Field == field {
			return item, true
		}
	}
	return Error{}, false
}

// Messages returns the raw messages in order.
func (e Errors) Messages() []string {
	if len(e) == 0 {
		return nil
	}
	out := make([]string, 0, len(e))
	for _, item := range e {
		out = append(out, item.Message)
	}
	return out
}

// ByField groups messages by field name, the shape renderers consume.
func (e Errors) ByField() map[string][]string {
	if len(e) == 0 {
		return nil
	}
	out := make(map[string][]string, len(e))
	for _, item := range e {
		out[item.Field] = append(out[item.Field], item.Message)
	}
	return out
}

// Clone returns an independent copy.
func (e Errors) Clone() Errors {
	if e == nil {
		return nil
	}
	return append(Errors(nil), e...)
}
