package form

import (
	"context"
	"fmt"
	"sync"
	"time"

	"candidate-dashboard/internal/backend"
	"candidate-dashboard/internal/common/errors"
	"candidate-dashboard/internal/common/logger"
	"candidate-dashboard/internal/location"
	"candidate-dashboard/internal/models"
)

const cityInvalidMessage = "City is not valid for the selected state"

// CityValidator is satisfied by *location.Gateway.
type CityValidator interface {
	IsValidCity(ctx context.Context, city, stateName string) bool
}

// Saver is satisfied by *backend.Client.
type Saver interface {
	SaveForm(ctx context.Context, id string, fields [][2]string, resume *backend.Resume) (string, error)
}

type Dependencies struct {
	States    location.Suggester
	Cities    location.Suggester
	Companies location.Suggester
	Validator CityValidator
	Saver     Saver
}

type Config struct {
	Debounce       time.Duration
	MinQueryLength int
}

// stateOf maps each city field to the state field that governs it.
var stateOf = map[string]string{
	models.FieldCurrentCity:   models.FieldCurrentState,
	models.FieldPreferredCity: models.FieldPreferredState,
}

var cityOf = map[string]string{
	models.FieldCurrentState:   models.FieldCurrentCity,
	models.FieldPreferredState: models.FieldPreferredCity,
}

// Orchestrator owns an add or edit form and the autocomplete fields inside it.
type Orchestrator struct {
	deps   Dependencies
	logger logger.Logger

	controllers map[string]*location.Controller

	mu          sync.Mutex
	id          string
	form        models.CandidateForm
	fieldErrors map[string]string

	// partial is set by Edit: only touched fields are validated and sent.
	partial bool
	touched map[string]bool
}

func New(cfg Config, deps Dependencies, log logger.Logger) *Orchestrator {
	o := &Orchestrator{
		deps:        deps,
		logger:      log.WithFields(map[string]interface{}{"component": "form"}),
		controllers: make(map[string]*location.Controller),
		fieldErrors: make(map[string]string),
		touched:     make(map[string]bool),
	}

	// current city is typed, preferred city is picked from the state's full list
	fields := []struct {
		name      string
		field     location.Field
		mode      location.Mode
		suggester location.Suggester
	}{
		{models.FieldCurrentState, location.FieldStates, location.ModeSearch, deps.States},
		{models.FieldCurrentCity, location.FieldCities, location.ModeSearch, deps.Cities},
		{models.FieldPreferredState, location.FieldStates, location.ModeSearch, deps.States},
		{models.FieldPreferredCity, location.FieldCities, location.ModeSelect, deps.Cities},
		{models.FieldCompanyName, location.FieldCompanies, location.ModeSearch, deps.Companies},
	}
	for _, f := range fields {
		if f.suggester == nil {
			continue
		}
		name := f.name
		o.controllers[name] = location.NewController(location.ControllerConfig{
			Field:          f.field,
			Mode:           f.mode,
			Debounce:       cfg.Debounce,
			MinQueryLength: cfg.MinQueryLength,
		}, f.suggester, log, location.WithOnSelect(func(v string) {
			o.applySelection(name, v)
		}))
	}
	return o
}

// Load pre-fills the form for editing an existing record.
func (o *Orchestrator) Load(rec models.CandidateRecord) {
	form := models.FormFromRecord(rec)

	o.mu.Lock()
	o.id = rec.ID
	o.form = form
	o.fieldErrors = make(map[string]string)
	o.partial = false
	o.touched = make(map[string]bool)
	o.mu.Unlock()

	for state, city := range cityOf {
		stateValue, cityValue := fieldValue(form, state), fieldValue(form, city)
		if c, ok := o.controllers[state]; ok {
			c.SetValue(stateValue)
		}
		if c, ok := o.controllers[city]; ok {
			c.SetParent(stateValue)
			c.SetValue(cityValue)
		}
	}
	if c, ok := o.controllers[models.FieldCompanyName]; ok {
		c.SetValue(form.CompanyName)
	}
}

// Edit starts an update of record id whose current values are not known. Only the fields
// set afterwards are validated and sent, so the backend keeps the others.
func (o *Orchestrator) Edit(id string) {
	o.mu.Lock()
	o.id = id
	o.form = models.CandidateForm{}
	o.fieldErrors = make(map[string]string)
	o.partial = true
	o.touched = make(map[string]bool)
	o.mu.Unlock()
}

// SetField records typed input. Location and company fields also drive their controller.
func (o *Orchestrator) SetField(name, value string) error {
	o.mu.Lock()
	previous := fieldValue(o.form, name)
	if !o.form.Set(name, value) {
		o.mu.Unlock()
		return errors.NewInvalidInputError(fmt.Sprintf("unknown form field %q", name))
	}
	o.touched[name] = true
	delete(o.fieldErrors, name)
	o.mu.Unlock()

	if _, isState := cityOf[name]; isState && previous != value {
		o.clearDependentCity(name, value)
	}
	if c, ok := o.controllers[name]; ok {
		c.Input(value)
	}
	return nil
}

// Select picks a suggestion for a controller-backed field.
func (o *Orchestrator) Select(name, option string) error {
	c, ok := o.controllers[name]
	if !ok {
		return errors.NewInvalidInputError(fmt.Sprintf("field %q has no suggestions", name))
	}
	c.Select(option)
	return nil
}

func (o *Orchestrator) applySelection(name, value string) {
	o.mu.Lock()
	previous := fieldValue(o.form, name)
	o.form.Set(name, value)
	o.touched[name] = true
	delete(o.fieldErrors, name)
	o.mu.Unlock()

	// re-selecting the same state keeps the city
	if _, isState := cityOf[name]; isState && previous != value {
		o.clearDependentCity(name, value)
	}
}

// clearDependentCity empties the city governed by stateField and re-parents its controller.
func (o *Orchestrator) clearDependentCity(stateField, stateValue string) {
	cityField := cityOf[stateField]

	o.mu.Lock()
	o.form.Set(cityField, "")
	o.touched[cityField] = true
	o.mu.Unlock()

	if c, ok := o.controllers[cityField]; ok {
		c.SetParent(stateValue)
	}
}

// Controller returns the autocomplete controller of a field, or nil.
func (o *Orchestrator) Controller(name string) *location.Controller {
	return o.controllers[name]
}

func (o *Orchestrator) Form() models.CandidateForm {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.form
}

func (o *Orchestrator) RecordID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.id
}

// FieldErrors returns the messages from the last Validate or Submit.
func (o *Orchestrator) FieldErrors() map[string]string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]string, len(o.fieldErrors))
	for k, v := range o.fieldErrors {
		out[k] = v
	}
	return out
}

// Validate checks the struct rules and that both cities belong to their states.
func (o *Orchestrator) Validate(ctx context.Context) map[string]string {
	o.mu.Lock()
	form, partial := o.form, o.partial
	touched := make(map[string]bool, len(o.touched))
	for k := range o.touched {
		touched[k] = true
	}
	o.mu.Unlock()

	errs := validateStruct(form)
	if partial {
		for name := range errs {
			if !touched[name] {
				delete(errs, name)
			}
		}
	}

	if o.deps.Validator != nil {
		for city, state := range stateOf {
			if partial && !touched[city] && !touched[state] {
				continue
			}
			if _, bad := errs[city]; bad {
				continue
			}
			if _, bad := errs[state]; bad {
				continue
			}
			if !o.deps.Validator.IsValidCity(ctx, fieldValue(form, city), fieldValue(form, state)) {
				errs[city] = cityInvalidMessage
			}
		}
	}

	o.mu.Lock()
	o.fieldErrors = errs
	o.mu.Unlock()

	if len(errs) > 0 {
		o.logger.Debug("form validation failed", map[string]interface{}{"fields": len(errs)})
	}
	return errs
}

// Submit validates and then creates or updates the record. Validation failures block the
// request; backend failures carry the backend's field messages when it sent any.
func (o *Orchestrator) Submit(ctx context.Context, resume *backend.Resume) (string, error) {
	if errs := o.Validate(ctx); len(errs) > 0 {
		return "", errors.NewFormValidationFailedError(errs)
	}
	if o.deps.Saver == nil {
		return "", errors.NewInvalidInputError("no backend configured for form submission")
	}

	id, fields := o.payload()
	savedID, err := o.deps.Saver.SaveForm(ctx, id, fields, resume)
	if err != nil {
		if stdErr, ok := errors.AsStandardError(err); ok {
			if fe := stdErr.FieldErrors(); len(fe) > 0 {
				o.mu.Lock()
				for k, v := range fe {
					o.fieldErrors[k] = v
				}
				o.mu.Unlock()
			}
			return "", stdErr
		}
		return "", errors.NewBackendMutationFailedError(0, err.Error(), nil)
	}

	o.mu.Lock()
	o.id = savedID
	o.mu.Unlock()

	o.logger.Info("candidate form submitted", map[string]interface{}{
		"recordId": savedID,
		"update":   id != "",
		"fields":   len(fields),
	})
	return savedID, nil
}

// payload lists the fields to send: all of them, unless the form was opened with Edit.
func (o *Orchestrator) payload() (string, [][2]string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	all := o.form.Fields()
	if !o.partial {
		return o.id, all
	}
	fields := make([][2]string, 0, len(o.touched))
	for _, kv := range all {
		if o.touched[kv[0]] {
			fields = append(fields, kv)
		}
	}
	return o.id, fields
}

// Close stops every controller.
func (o *Orchestrator) Close() {
	for _, c := range o.controllers {
		c.Close()
	}
}

func fieldValue(f models.CandidateForm, name string) string {
	for _, kv := range f.Fields() {
		if kv[0] == name {
			return kv[1]
		}
	}
	return ""
}
