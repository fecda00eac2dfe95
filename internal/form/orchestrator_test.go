package form

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candidate-dashboard/internal/backend"
	"candidate-dashboard/internal/common/errors"
	"candidate-dashboard/internal/common/logger"
	"candidate-dashboard/internal/location"
	"candidate-dashboard/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type stubValidator struct {
	mu    sync.Mutex
	valid map[string]bool
	calls []string
}

func (s *stubValidator) IsValidCity(_ context.Context, city, state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, city+"|"+state)
	return s.valid[city+"|"+state]
}

type stubSaver struct {
	gotID     string
	gotFields [][2]string
	gotResume *backend.Resume
	returnID  string
	err       error
	calls     int
}

func (s *stubSaver) SaveForm(_ context.Context, id string, fields [][2]string, resume *backend.Resume) (string, error) {
	s.calls++
	s.gotID, s.gotFields, s.gotResume = id, fields, resume
	return s.returnID, s.err
}

// sent returns the value the saver received for a field and whether it was sent at all.
func (s *stubSaver) sent(name string) (string, bool) {
	for _, kv := range s.gotFields {
		if kv[0] == name {
			return kv[1], true
		}
	}
	return "", false
}

func catalogCities(_ context.Context, query, parent string) []string {
	var out []string
	for _, c := range (location.Catalog{}).CitiesForState(parent) {
		if strings.Contains(strings.ToLower(c), strings.ToLower(query)) {
			out = append(out, c)
		}
	}
	return out
}

func catalogStates(_ context.Context, query, _ string) []string {
	return location.Catalog{}.StatesMatching(query)
}

func createTestOrchestrator(t *testing.T, v CityValidator, s Saver) *Orchestrator {
	o := New(Config{Debounce: 10 * time.Millisecond, MinQueryLength: 1}, Dependencies{
		States:    location.SuggesterFunc(catalogStates),
		Cities:    location.SuggesterFunc(catalogCities),
		Companies: location.SuggesterFunc(func(context.Context, string, string) []string { return []string{"Acme Insurance"} }),
		Validator: v,
		Saver:     s,
	}, logger.NewTestLogger(t))
	t.Cleanup(o.Close)
	return o
}

func fillValidForm(t *testing.T, o *Orchestrator) {
	values := [][2]string{
		{models.FieldFirstName, "Asha"},
		{models.FieldLastName, "Patil"},
		{models.FieldGender, "Female"},
		{models.FieldDateOfBirth, "1995-03-10"},
		{models.FieldPhone, "9876543210"},
		{models.FieldEmail, "asha@example.com"},
		{models.FieldCurrentState, "Maharashtra"},
		{models.FieldCurrentCity, "Pune"},
		{models.FieldPreferredState, "Karnataka"},
		{models.FieldPreferredCity, "Bengaluru"},
		{models.FieldDesignation, "Sales Manager"},
		{models.FieldDepartment, "Sales"},
		{models.FieldCTC, "5.5"},
		{models.FieldTotalExperience, "5"},
	}
	for _, kv := range values {
		require.NoError(t, o.SetField(kv[0], kv[1]))
	}
}

func validCities() *stubValidator {
	return &stubValidator{valid: map[string]bool{
		"Pune|Maharashtra":    true,
		"Bengaluru|Karnataka": true,
	}}
}

// ==========================
// Dependent Field Tests
// ==========================

func TestOrchestrator_StateChangeClearsCity(t *testing.T) {
	o := createTestOrchestrator(t, validCities(), &stubSaver{})

	require.NoError(t, o.SetField(models.FieldCurrentState, "Maharashtra"))
	require.NoError(t, o.SetField(models.FieldCurrentCity, "Pune"))
	assert.Equal(t, "Pune", o.Form().CurrentCity)

	require.NoError(t, o.SetField(models.FieldCurrentState, "Odisha"))
	assert.Equal(t, "", o.Form().CurrentCity)
	assert.Equal(t, "Odisha", o.Controller(models.FieldCurrentCity).Snapshot().Parent)
}

func TestOrchestrator_SameStateKeepsCity(t *testing.T) {
	o := createTestOrchestrator(t, validCities(), &stubSaver{})

	require.NoError(t, o.SetField(models.FieldCurrentState, "Maharashtra"))
	require.NoError(t, o.Select(models.FieldCurrentState, "Maharashtra"))
	require.NoError(t, o.Select(models.FieldCurrentCity, "Pune"))

	require.NoError(t, o.Select(models.FieldCurrentState, "Maharashtra"))
	assert.Equal(t, "Pune", o.Form().CurrentCity)
	assert.Equal(t, "Pune", o.Controller(models.FieldCurrentCity).Value())

	require.NoError(t, o.SetField(models.FieldCurrentState, "Maharashtra"))
	assert.Equal(t, "Pune", o.Form().CurrentCity)
	assert.Equal(t, o.Form().CurrentCity, o.Controller(models.FieldCurrentCity).Value())
}

func TestOrchestrator_CityDisabledWithoutState(t *testing.T) {
	o := createTestOrchestrator(t, validCities(), &stubSaver{})

	snap := o.Controller(models.FieldCurrentCity).Snapshot()
	assert.True(t, snap.Disabled)
	assert.Equal(t, location.StatusClosed, snap.Status)
}

func TestOrchestrator_SelectStateFromSuggestions(t *testing.T) {
	o := createTestOrchestrator(t, validCities(), &stubSaver{})

	require.NoError(t, o.SetField(models.FieldPreferredState, "Odi"))
	require.Eventually(t, func() bool {
		return o.Controller(models.FieldPreferredState).Snapshot().Status == location.StatusOpen
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, o.Select(models.FieldPreferredState, "Odisha"))
	assert.Equal(t, "Odisha", o.Form().PreferredState)

	// preferred city is a select field and preloads the state's cities
	cityCtrl := o.Controller(models.FieldPreferredCity)
	require.Eventually(t, func() bool {
		return cityCtrl.Snapshot().Status == location.StatusOpen
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, cityCtrl.Snapshot().Options, "Bhubaneswar")

	require.NoError(t, o.Select(models.FieldPreferredCity, "Cuttack"))
	assert.Equal(t, "Cuttack", o.Form().PreferredCity)
}

func TestOrchestrator_UnknownField(t *testing.T) {
	o := createTestOrchestrator(t, validCities(), &stubSaver{})

	err := o.SetField("salary", "1")
	require.Error(t, err)
	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInvalidInput, stdErr.Code)

	assert.Error(t, o.Select(models.FieldEmail, "x"))
}

// ==========================
// Validation Tests
// ==========================

func TestOrchestrator_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(o *Orchestrator)
		expected []string
	}{
		{"valid form", func(o *Orchestrator) {}, nil},
		{"missing first name", func(o *Orchestrator) { o.SetField(models.FieldFirstName, "") }, []string{models.FieldFirstName}},
		{"short phone", func(o *Orchestrator) { o.SetField(models.FieldPhone, "12345") }, []string{models.FieldPhone}},
		{"bad email", func(o *Orchestrator) { o.SetField(models.FieldEmail, "asha@") }, []string{models.FieldEmail}},
		{"bad pan", func(o *Orchestrator) { o.SetField(models.FieldPANNumber, "abcde1234f") }, []string{models.FieldPANNumber}},
		{"good pan", func(o *Orchestrator) { o.SetField(models.FieldPANNumber, "ABCDE1234F") }, nil},
		{"future birth date", func(o *Orchestrator) { o.SetField(models.FieldDateOfBirth, "2999-01-01") }, []string{models.FieldDateOfBirth}},
		{"alt phone equals phone", func(o *Orchestrator) { o.SetField(models.FieldAltPhone, "9876543210") }, []string{models.FieldAltPhone}},
		{"unknown gender", func(o *Orchestrator) { o.SetField(models.FieldGender, "X") }, []string{models.FieldGender}},
		{"city not in state", func(o *Orchestrator) {
			o.SetField(models.FieldCurrentCity, "Chennai")
		}, []string{models.FieldCurrentCity}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := createTestOrchestrator(t, validCities(), &stubSaver{})
			fillValidForm(t, o)
			tt.mutate(o)

			errs := o.Validate(context.Background())
			keys := make([]string, 0, len(errs))
			for k := range errs {
				keys = append(keys, k)
			}
			assert.ElementsMatch(t, tt.expected, keys)
			assert.Equal(t, errs, o.FieldErrors())
		})
	}
}

func TestOrchestrator_Validate_SkipsCityCheckWhenStateMissing(t *testing.T) {
	v := validCities()
	o := createTestOrchestrator(t, v, &stubSaver{})
	fillValidForm(t, o)
	require.NoError(t, o.SetField(models.FieldPreferredState, ""))

	errs := o.Validate(context.Background())
	assert.Contains(t, errs, models.FieldPreferredState)
	assert.Contains(t, errs, models.FieldPreferredCity)
	assert.Equal(t, []string{"Pune|Maharashtra"}, v.calls)
}

// ==========================
// Submit Tests
// ==========================

func TestOrchestrator_Submit_BlockedByValidation(t *testing.T) {
	saver := &stubSaver{returnID: "new-1"}
	o := createTestOrchestrator(t, validCities(), saver)
	fillValidForm(t, o)
	require.NoError(t, o.SetField(models.FieldCurrentCity, "Atlantis"))

	_, err := o.Submit(context.Background(), nil)
	require.Error(t, err)
	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeFormValidationFailed, stdErr.Code)
	assert.Equal(t, cityInvalidMessage, stdErr.FieldErrors()[models.FieldCurrentCity])
	assert.Equal(t, 0, saver.calls, "backend must not be called")
}

func TestOrchestrator_Submit_Create(t *testing.T) {
	saver := &stubSaver{returnID: "new-1"}
	o := createTestOrchestrator(t, validCities(), saver)
	fillValidForm(t, o)

	resume := &backend.Resume{Filename: "cv.pdf", Content: strings.NewReader("pdf")}
	id, err := o.Submit(context.Background(), resume)
	require.NoError(t, err)
	assert.Equal(t, "new-1", id)
	assert.Equal(t, "", saver.gotID)
	firstName, _ := saver.sent(models.FieldFirstName)
	assert.Equal(t, "Asha", firstName)
	assert.Len(t, saver.gotFields, len(models.CandidateForm{}.Fields()))
	assert.Same(t, resume, saver.gotResume)
	assert.Equal(t, "new-1", o.RecordID())
}

func TestOrchestrator_Submit_UpdateLoadedRecord(t *testing.T) {
	saver := &stubSaver{returnID: "a1"}
	o := createTestOrchestrator(t, validCities(), saver)

	ctcValue := 7.5
	o.Load(models.CandidateRecord{
		ID: "a1", FirstName: "Asha", LastName: "Patil", Gender: "Female",
		DateOfBirth: "1995-03-10T00:00:00.000Z", Phone: "9876543210", Email: "asha@example.com",
		CurrentState: "Maharashtra", CurrentCity: "Pune",
		PreferredState: "Karnataka", PreferredCity: "Bengaluru",
		Designation: "Sales Manager", Department: "Sales", CTC: &ctcValue,
	})
	assert.Equal(t, "1995-03-10", o.Form().DateOfBirth)
	assert.Equal(t, "7.5", o.Form().CTC)
	assert.Equal(t, "Maharashtra", o.Controller(models.FieldCurrentCity).Snapshot().Parent)
	assert.Equal(t, "Pune", o.Controller(models.FieldCurrentCity).Value())

	_, err := o.Submit(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "a1", saver.gotID)
	ctc, sent := saver.sent(models.FieldCTC)
	assert.True(t, sent, "a loaded record is sent in full")
	assert.Equal(t, "7.5", ctc)
}

func TestOrchestrator_Submit_EditSendsOnlySetFields(t *testing.T) {
	saver := &stubSaver{returnID: "a1"}
	o := createTestOrchestrator(t, validCities(), saver)

	o.Edit("a1")
	require.NoError(t, o.SetField(models.FieldDesignation, "Area Manager"))
	require.NoError(t, o.SetField(models.FieldPhone, "9123456780"))

	_, err := o.Submit(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "a1", saver.gotID)
	assert.Equal(t, [][2]string{
		{models.FieldPhone, "9123456780"},
		{models.FieldDesignation, "Area Manager"},
	}, saver.gotFields)

	_, sent := saver.sent(models.FieldCTC)
	assert.False(t, sent, "fields the update did not set are left to the backend")
}

func TestOrchestrator_Submit_EditValidatesSetFields(t *testing.T) {
	tests := []struct {
		name     string
		values   [][2]string
		expected []string
	}{
		{"bad phone", [][2]string{{models.FieldPhone, "123"}}, []string{models.FieldPhone}},
		{"city checked against its state", [][2]string{
			{models.FieldCurrentState, "Maharashtra"},
			{models.FieldCurrentCity, "Chennai"},
		}, []string{models.FieldCurrentCity}},
		{"state change without city", [][2]string{{models.FieldPreferredState, "Karnataka"}}, []string{models.FieldPreferredCity}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saver := &stubSaver{returnID: "a1"}
			o := createTestOrchestrator(t, validCities(), saver)
			o.Edit("a1")
			for _, kv := range tt.values {
				require.NoError(t, o.SetField(kv[0], kv[1]))
			}

			_, err := o.Submit(context.Background(), nil)
			require.Error(t, err)
			stdErr, ok := errors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeFormValidationFailed, stdErr.Code)
			keys := make([]string, 0)
			for k := range stdErr.FieldErrors() {
				keys = append(keys, k)
			}
			assert.ElementsMatch(t, tt.expected, keys)
			assert.Equal(t, 0, saver.calls)
		})
	}
}

func TestOrchestrator_Submit_BackendFieldErrors(t *testing.T) {
	saver := &stubSaver{err: errors.NewBackendMutationFailedError(400, "Validation failed",
		map[string]string{models.FieldEmail: "Email already registered"})}
	o := createTestOrchestrator(t, validCities(), saver)
	fillValidForm(t, o)

	_, err := o.Submit(context.Background(), nil)
	require.Error(t, err)
	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeBackendMutationFailed, stdErr.Code)
	assert.Equal(t, "Email already registered", o.FieldErrors()[models.FieldEmail])

	require.NoError(t, o.SetField(models.FieldEmail, "asha.p@example.com"))
	assert.NotContains(t, o.FieldErrors(), models.FieldEmail)
}
