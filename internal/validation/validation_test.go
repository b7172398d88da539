package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/usrinfo/internal/models"
)

const validCreateBody = `{
	"email": "Ana.Perez@example.com",
	"telefono": "+58 412-555-1234",
	"direccion": "Av. Bolivar 12",
	"nombres": "Ana Maria",
	"apellidos": "Perez",
	"arte": "oleo",
	"musica": "salsa",
	"cine": "drama"
}`

func decodeCreate(t *testing.T, body string) *models.CreateUserRequest {
	t.Helper()
	request := &models.CreateUserRequest{}
	require.NoError(t, json.Unmarshal([]byte(body), request))
	return request
}

func decodeUpdate(t *testing.T, body string) *models.UpdateUserRequest {
	t.Helper()
	request := &models.UpdateUserRequest{}
	require.NoError(t, json.Unmarshal([]byte(body), request))
	return request
}

func params(errs []models.ValidationError) []string {
	result := make([]string, 0, len(errs))
	for _, e := range errs {
		result = append(result, e.Param)
	}
	return result
}

func TestCheckCreateUserRequest(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	testCases := []struct {
		name       string
		body       string
		wantParams []string
		wantMsgs   []string
	}{
		{
			name:       "valid",
			body:       validCreateBody,
			wantParams: []string{},
		},
		{
			name: "nombres too short",
			body: `{"email":"a@b.co","telefono":"04125551234","direccion":"Calle 1",
				"nombres":"Ana","apellidos":"Perez","arte":"x","musica":"y","cine":"z"}`,
			wantParams: []string{"nombres"},
			wantMsgs:   []string{"must be at least 4 characters long"},
		},
		{
			name: "bad email and phone",
			body: `{"email":"not-an-email","telefono":"call me","direccion":"Calle 1",
				"nombres":"Anabel","apellidos":"Perez","arte":"x","musica":"y","cine":"z"}`,
			wantParams: []string{"email", "telefono"},
			wantMsgs:   []string{"must be a valid email", "must be a valid mobile phone number"},
		},
		{
			name: "wrong types",
			body: `{"email":"a@b.co","telefono":"04125551234","direccion":42,
				"nombres":"Anabel","apellidos":["Perez"],"arte":"x","musica":"y","cine":true}`,
			wantParams: []string{"direccion", "apellidos", "cine"},
			wantMsgs:   []string{"must be a string", "must be a string", "must be a string"},
		},
		{
			name: "empty category",
			body: `{"email":"a@b.co","telefono":"04125551234","direccion":"Calle 1",
				"nombres":"Anabel","apellidos":"Perez","arte":"","musica":"y","cine":"z"}`,
			wantParams: []string{"arte"},
			wantMsgs:   []string{"must be at least 1 characters long"},
		},
		{
			name:       "empty object",
			body:       `{}`,
			wantParams: []string{"email", "telefono", "direccion", "nombres", "apellidos", "arte", "musica", "cine"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			errs := v.Check(decodeCreate(t, testCase.body))

			assert.Equal(t, testCase.wantParams, params(errs))
			for i, msg := range testCase.wantMsgs {
				assert.Equal(t, msg, errs[i].Msg)
			}
			for _, e := range errs {
				assert.Equal(t, LocationBody, e.Location)
			}
		})
	}
}

func TestCheckReportsRawValueOfWrongType(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	errs := v.Check(decodeUpdate(t, `{"telefono": 4125551234}`))

	require.Len(t, errs, 1)
	assert.Equal(t, "telefono", errs[0].Param)
	assert.Equal(t, json.RawMessage(`4125551234`), errs[0].Value)
}

func TestCheckUpdateUserRequest(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	testCases := []struct {
		name       string
		body       string
		wantParams []string
	}{
		{name: "empty object", body: `{}`, wantParams: []string{}},
		{name: "only musica", body: `{"musica":"jazz"}`, wantParams: []string{}},
		{name: "short values are fine", body: `{"nombres":"Al","telefono":""}`, wantParams: []string{}},
		{name: "null means absent", body: `{"cine":null}`, wantParams: []string{}},
		{name: "number", body: `{"arte":1}`, wantParams: []string{"arte"}},
		{name: "object", body: `{"nombres":{"a":1},"cine":false}`, wantParams: []string{"nombres", "cine"}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			errs := v.Check(decodeUpdate(t, testCase.body))
			assert.Equal(t, testCase.wantParams, params(errs))
		})
	}
}

func TestMobilePhone(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	for phone, valid := range map[string]bool{
		"+584125551234":    true,
		"0412 555 12 34":   true,
		"(0212) 555-1234":  true,
		"555":              false,
		"+58 abc 555 1234": false,
		"":                 false,
	} {
		request := decodeCreate(t, validCreateBody)
		request.Phone = models.Some(phone)

		errs := v.Check(request)
		if valid {
			assert.Empty(t, errs, phone)
		} else {
			assert.Equal(t, []string{"telefono"}, params(errs), phone)
		}
	}
}

func TestMalformedBody(t *testing.T) {
	var target map[string]any
	err := json.Unmarshal([]byte(`{"email":`), &target)
	require.Error(t, err)

	errs := MalformedBody(err)

	require.Len(t, errs, 1)
	assert.Equal(t, LocationBody, errs[0].Location)
	assert.Contains(t, errs[0].Msg, "malformed request body")
}
