package domain

import (
	"reflect"
	"testing"
)

func TestChangedFields(t *testing.T) {
	prior := Record{
		"AWB":           "12345",
		"Shipment_Mode": "Air",
		"Dimensions":    map[string]any{"l": 10.0, "w": 5.0},
	}

	cases := []struct {
		name   string
		merged Record
		want   []string
	}{
		{
			"identical values",
			Record{"AWB": "12345", "Shipment_Mode": "Air", "Dimensions": map[string]any{"l": 10.0, "w": 5.0}},
			nil,
		},
		{
			"scalar change",
			Record{"AWB": "99999", "Shipment_Mode": "Air"},
			[]string{"AWB"},
		},
		{
			"newly filled field is not a change",
			Record{"AWB": "12345", "Product_Temperature": "2-8C"},
			nil,
		},
		{
			"structured value change",
			Record{"AWB": "12345", "Dimensions": map[string]any{"l": 12.0, "w": 5.0}},
			[]string{"Dimensions"},
		},
		{
			"multiple changes sorted",
			Record{"AWB": "99999", "Shipment_Mode": "Sea"},
			[]string{"AWB", "Shipment_Mode"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.merged.ChangedFields(prior)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestCommitPayloadStripsControlAndUnpopulated(t *testing.T) {
	rec := Record{
		"AWB":                      "12345",
		"Shipment_Mode":            nil,
		"Product_Temperature":      "",
		"needs_user_confirmation":  false,
		"missing_mandatory_fields": []string{},
	}

	payload := rec.CommitPayload()
	if len(payload) != 1 || payload["AWB"] != "12345" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}
