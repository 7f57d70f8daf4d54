package dialogue

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Suspend kinds understood by DecodeResume.
const (
	SuspendQuestionOrContinue = "question_or_continue"
	SuspendEndpoints          = "endpoints"
	SuspendClientCode         = "client_code"
	SuspendAuthStatus         = "auth_status"
	SuspendOffer              = "offer"
	SuspendAPIMetadata        = "api_metadata"
)

// Structured field keys.
const (
	FieldTestEndpoint    = "test_endpoint"
	FieldProdEndpoint    = "prod_endpoint"
	FieldClientIdentCode = "client_ident_code"
	FieldConfigured      = "configured"
	FieldSystemName      = "system_name"
	FieldProcess         = "process"
	FieldFilename        = "api_metadata_filename"
	FieldFileContent     = "api_metadata_content"
)

// Alternative is the shape a resume payload took.
type Alternative string

const (
	AltContinue Alternative = "continue"
	AltQuestion Alternative = "question"
	AltResponse Alternative = "response"
	AltText     Alternative = "text"
	AltFields   Alternative = "fields"
)

// Responses accepted by the "response" alternative.
const (
	ResponseSkip = "skip"
	ResponseYes  = "yes"
	ResponseNo   = "no"
)

// Resume is a validated resume payload.
type Resume struct {
	Kind   string
	Alt    Alternative
	Value  string
	Fields map[string]string
}

// Field returns a structured field value.
func (r *Resume) Field(key string) string {
	if r == nil {
		return ""
	}
	return r.Fields[key]
}

type fieldType int

const (
	fieldString fieldType = iota
	fieldBool
)

type payloadSchema struct {
	alts      []Alternative
	fields    map[string]fieldType
	required  []string
	minFields int
}

func (s payloadSchema) accepts(alt Alternative) bool {
	for _, a := range s.alts {
		if a == alt {
			return true
		}
	}
	return false
}

var schemas = map[string]payloadSchema{
	SuspendQuestionOrContinue: {
		alts: []Alternative{AltContinue, AltQuestion},
	},
	SuspendEndpoints: {
		alts:      []Alternative{AltQuestion, AltResponse, AltText},
		fields:    map[string]fieldType{FieldTestEndpoint: fieldString, FieldProdEndpoint: fieldString},
		minFields: 1,
	},
	SuspendClientCode: {
		alts:      []Alternative{AltQuestion, AltResponse, AltText},
		fields:    map[string]fieldType{FieldClientIdentCode: fieldString},
		required:  []string{FieldClientIdentCode},
		minFields: 1,
	},
	SuspendAuthStatus: {
		alts:      []Alternative{AltQuestion, AltResponse, AltText},
		fields:    map[string]fieldType{FieldConfigured: fieldBool},
		required:  []string{FieldConfigured},
		minFields: 1,
	},
	SuspendOffer: {
		alts: []Alternative{AltQuestion, AltResponse},
	},
	SuspendAPIMetadata: {
		fields: map[string]fieldType{
			FieldSystemName:  fieldString,
			FieldProcess:     fieldString,
			FieldFilename:    fieldString,
			FieldFileContent: fieldString,
		},
		required:  []string{FieldFilename, FieldFileContent},
		minFields: 2,
	},
}

var altOrder = []Alternative{AltContinue, AltQuestion, AltResponse, AltText}

// DecodeResume validates raw against the shape expected for kind.
// Every mismatch is a *PayloadError.
func DecodeResume(kind string, raw json.RawMessage) (*Resume, error) {
	schema, ok := schemas[kind]
	if !ok {
		return nil, payloadError(kind, "unknown suspend kind")
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, payloadError(kind, "payload must be a JSON object")
	}
	if len(obj) == 0 {
		return nil, payloadError(kind, "payload is empty")
	}

	for _, alt := range altOrder {
		v, present := obj[string(alt)]
		if !present {
			continue
		}
		if !schema.accepts(alt) {
			return nil, payloadError(kind, "%q is not accepted here", alt)
		}
		if len(obj) != 1 {
			return nil, payloadError(kind, "%q cannot be combined with other keys", alt)
		}
		return decodeAlternative(kind, alt, v)
	}

	if len(schema.fields) == 0 {
		return nil, payloadError(kind, "unexpected keys %s", strings.Join(sortedKeys(obj), ", "))
	}

	fields := make(map[string]string, len(obj))
	for _, k := range sortedKeys(obj) {
		typ, known := schema.fields[k]
		if !known {
			return nil, payloadError(kind, "unknown key %q", k)
		}
		switch typ {
		case fieldString:
			var s string
			if err := json.Unmarshal(obj[k], &s); err != nil {
				return nil, payloadError(kind, "%q must be a string", k)
			}
			fields[k] = strings.TrimSpace(s)
		case fieldBool:
			var b bool
			if err := json.Unmarshal(obj[k], &b); err != nil {
				return nil, payloadError(kind, "%q must be a boolean", k)
			}
			fields[k] = strconv.FormatBool(b)
		}
	}
	for _, k := range schema.required {
		if _, present := obj[k]; !present {
			return nil, payloadError(kind, "missing key %q", k)
		}
	}
	if len(fields) < schema.minFields {
		return nil, payloadError(kind, "expected at least %d field(s)", schema.minFields)
	}

	return &Resume{Kind: kind, Alt: AltFields, Fields: fields}, nil
}

func decodeAlternative(kind string, alt Alternative, v json.RawMessage) (*Resume, error) {
	if alt == AltContinue {
		var b bool
		if err := json.Unmarshal(v, &b); err != nil || !b {
			return nil, payloadError(kind, "\"continue\" must be true")
		}
		return &Resume{Kind: kind, Alt: AltContinue}, nil
	}

	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return nil, payloadError(kind, "%q must be a string", alt)
	}
	s = strings.TrimSpace(s)

	if alt == AltResponse {
		s = strings.ToLower(s)
		switch s {
		case ResponseSkip, ResponseYes, ResponseNo:
		default:
			return nil, payloadError(kind, "response must be skip, yes or no")
		}
	}
	return &Resume{Kind: kind, Alt: alt, Value: s}, nil
}

// IsEmptyPayload reports whether raw carries no payload at all.
func IsEmptyPayload(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
