package catalog

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	apperrors "github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/errors"
)

func TestValue_String(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
		kind ValueKind
	}{
		{"string", StringValue("barbell"), "barbell", KindString},
		{"true", BoolValue(true), "true", KindBool},
		{"false", BoolValue(false), "false", KindBool},
		{"zero", Value{}, "", KindInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if tt.v.Kind() != tt.kind {
				t.Errorf("Kind() = %s, want %s", tt.v.Kind(), tt.kind)
			}
		})
	}

	if _, ok := BoolValue(true).AsString(); ok {
		t.Error("bool value must not report a string payload")
	}
	if StringValue("true").Equal(BoolValue(true)) {
		t.Error("values of different kinds must not be equal")
	}
}

func TestAttributes_JSON(t *testing.T) {
	attrs := Attributes{"equipment": StringValue("barbell"), "uses_belt": BoolValue(true)}

	data, err := json.Marshal(attrs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"equipment":"barbell","uses_belt":true}` {
		t.Errorf("unexpected JSON %s", data)
	}

	var decoded Attributes
	if err := json.Unmarshal([]byte(`{"grip_width":"wide","uses_belt":false}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded["grip_width"].Equal(StringValue("wide")) || !decoded["uses_belt"].Equal(BoolValue(false)) {
		t.Errorf("unexpected decoded attributes %v", decoded.StringMap())
	}

	if err := json.Unmarshal([]byte(`{"reps": 10}`), &decoded); err == nil {
		t.Error("expected numeric attribute value to be rejected")
	}
}

func TestAttributes_YAML(t *testing.T) {
	out, err := yaml.Marshal(Attributes{"equipment": StringValue("dumbbell"), "uses_belt": BoolValue(false)})
	if err != nil {
		t.Fatalf("yaml marshal: %v", err)
	}
	if string(out) != "equipment: dumbbell\nuses_belt: false\n" {
		t.Errorf("unexpected yaml %q", out)
	}
}

func TestAttributes_CloneAndKeys(t *testing.T) {
	var nilAttrs Attributes
	if clone := nilAttrs.Clone(); clone == nil {
		t.Error("Clone of nil should be an empty map")
	}

	attrs := Attributes{"stance": StringValue("wide"), "equipment": StringValue("barbell")}
	clone := attrs.Clone()
	clone["stance"] = StringValue("narrow")
	if attrs["stance"].String() != "wide" {
		t.Error("Clone shares storage with the original")
	}

	if diff := cmp.Diff([]string{"equipment", "stance"}, attrs.Keys()); diff != "" {
		t.Errorf("Keys mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalog_Coerce(t *testing.T) {
	c, err := Parse([]byte(minimalDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tests := []struct {
		name    string
		key     string
		raw     any
		want    Value
		wantErr bool
	}{
		{"enum string", "equipment", "barbell", StringValue("barbell"), false},
		{"enum keeps unknown value for validator", "equipment", "sled", StringValue("sled"), false},
		{"enum rejects bool", "equipment", true, Value{}, true},
		{"boolean from bool", "uses_belt", true, BoolValue(true), false},
		{"boolean from string", "uses_belt", "false", BoolValue(false), false},
		{"boolean from string value", "uses_belt", StringValue("true"), BoolValue(true), false},
		{"boolean rejects word", "uses_belt", "yes", Value{}, true},
		{"unknown key keeps string", "tempo", "slow", StringValue("slow"), false},
		{"unknown key keeps bool", "paused", false, BoolValue(false), false},
		{"unknown key rejects number", "reps", 10.0, Value{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Coerce(tt.key, tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Coerce error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if apperrors.GetCode(err) != apperrors.CodeValueTypeMismatch {
					t.Errorf("expected VALUE_TYPE_MISMATCH, got %v", err)
				}
				return
			}
			if !got.Equal(tt.want) {
				t.Errorf("Coerce = %v (%s), want %v (%s)", got, got.Kind(), tt.want, tt.want.Kind())
			}
		})
	}
}

func TestCatalog_CoerceAll(t *testing.T) {
	c, err := Parse([]byte(minimalDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	attrs, err := c.CoerceAll(map[string]any{"equipment": "dumbbell", "uses_belt": "true"})
	if err != nil {
		t.Fatalf("CoerceAll: %v", err)
	}
	if diff := cmp.Diff(map[string]string{"equipment": "dumbbell", "uses_belt": "true"}, attrs.StringMap()); diff != "" {
		t.Errorf("CoerceAll mismatch (-want +got):\n%s", diff)
	}
	if attrs["uses_belt"].Kind() != KindBool {
		t.Error("boolean attribute should coerce to a bool value")
	}

	if _, err := c.CoerceAll(map[string]any{"equipment": 3.0}); err == nil {
		t.Error("expected error for numeric enum value")
	}
}

func TestAttributeDefinition_DefaultValue(t *testing.T) {
	c, err := Parse([]byte(minimalDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	angle, _ := c.Attribute("bench_angle")
	if v, ok := angle.DefaultValue(); !ok || !v.Equal(StringValue("flat")) {
		t.Errorf("bench_angle default = %v, %v", v, ok)
	}

	belt, _ := c.Attribute("uses_belt")
	if v, ok := belt.DefaultValue(); !ok || !v.Equal(BoolValue(false)) {
		t.Errorf("uses_belt default = %v, %v", v, ok)
	}

	equipment, _ := c.Attribute("equipment")
	if _, ok := equipment.DefaultValue(); ok || equipment.HasDefault() {
		t.Error("equipment declares no default")
	}
}
