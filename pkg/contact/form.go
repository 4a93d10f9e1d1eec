package contact

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-contactform/pkg/validation"
)

// Option configures a Form.
type Option func(*Form)

// WithValidateOnChange re-runs validation on every edit, including edits made
// before the first submit. Without it, edits re-validate only once a submit
// has been attempted.
func WithValidateOnChange(enabled bool) Option {
	return func(f *Form) {
		f.validateOnChange = enabled
	}
}

// WithClock overrides the time source used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(f *Form) {
		if now != nil {
			f.now = now
		}
	}
}

// WithIDGenerator overrides how snapshot ids are minted.
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(f *Form) {
		if fn != nil {
			f.newID = fn
		}
	}
}

// Result is the outcome of a submit attempt. Exactly one of Snapshot and
// Errors is set.
type Result struct {
	Snapshot *Snapshot
	Errors   validation.Errors
}

// OK reports whether the submit produced a snapshot.
func (r Result) OK() bool {
	return r.Snapshot != nil
}

// View is a consistent copy of the form state taken under one lock.
type View struct {
	State    State
	Values   Values
	Errors   validation.Errors
	Snapshot *Snapshot
}

// Form holds the live field values, the latest validation errors and the last
// successful submission. All methods are safe for concurrent use.
type Form struct {
	mu sync.Mutex

	validator        *validation.Validator
	validateOnChange bool
	now              func() time.Time
	newID            func() uuid.UUID

	state     State
	attempted bool
	values    Values
	errors    validation.Errors
	snapshot  *Snapshot
}

// NewForm returns an empty, pristine form validated by v.
func NewForm(v *validation.Validator, options ...Option) *Form {
	f := &Form{
		validator: v,
		now:       time.Now,
		newID:     uuid.New,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(f)
	}
	return f
}

// Set replaces the value of field and moves the form to StateEditing.
func (f *Form) Set(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setLocked(field, value)
}

// Type appends text to field one rune at a time, applying each keystroke as
// a separate edit.
func (f *Form) Type(field, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.values.With(field, ""); err != nil {
		return err
	}
	current := f.values.Value(field)
	for _, r := range text {
		current += string(r)
		if err := f.setLocked(field, current); err != nil {
			return err
		}
	}
	return nil
}

// Fill applies every field of values as edits, in declaration order.
func (f *Form) Fill(values Values) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, name := range []string{FieldFirstName, FieldLastName, FieldEmail, FieldMessage} {
		if err := f.setLocked(name, values.Value(name)); err != nil {
			return err
		}
	}
	return nil
}

func (f *Form) setLocked(field, value string) error {
	next, err := f.values.With(field, value)
	if err != nil {
		return err
	}
	f.values = next
	f.state = StateEditing
	if f.attempted || f.validateOnChange {
		f.errors = f.validator.Validate(f.values)
	}
	return nil
}

// Submit validates the current values. On success the values are copied into
// a new snapshot and errors are cleared. On failure the errors are stored and
// any earlier snapshot is kept.
func (f *Form) Submit() Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.attempted = true
	errs := f.validator.Validate(f.values)
	if !errs.Empty() {
		f.errors = errs
		f.state = StateInvalid
		return Result{Errors: errs.Clone()}
	}

	snapshot := &Snapshot{
		ID:          f.newID(),
		Values:      f.values,
		SubmittedAt: f.now().UTC(),
	}
	f.snapshot = snapshot
	f.errors = nil
	f.state = StateSubmitted

	out := *snapshot
	return Result{Snapshot: &out}
}

// Reset returns the form to its pristine state, dropping values, errors and
// the snapshot.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.values = Values{}
	f.errors = nil
	f.snapshot = nil
	f.attempted = false
	f.state = StatePristine
}

// State reports the current position in the edit/submit cycle.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Values returns a copy of the live values.
func (f *Form) Values() Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// Errors returns the errors currently on display.
func (f *Form) Errors() validation.Errors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors.Clone()
}

// Snapshot returns the last successful submission, if any.
func (f *Form) Snapshot() (Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snapshot == nil {
		return Snapshot{}, false
	}
	return *f.snapshot, true
}

// View returns a consistent copy of the whole form state.
func (f *Form) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()

	view := View{
		State:  f.state,
		Values: f.values,
		Errors: f.errors.Clone(),
	}
	if f.snapshot != nil {
		snapshot := *f.snapshot
		view.Snapshot = &snapshot
	}
	return view
}
