package schema

import (
	"errors"
	"testing"

	"github.com/iblflow/orchestrator/domain"
)

const testSchema = `{
	"logistics_agent": [
		{"field": "AWB", "required": true, "dataType": "string", "description": "Air waybill number", "synonyms": ["AWB Number", "Air Waybill", "AWB/BL"]},
		{"field": "Shipment_Mode", "required": true, "dataType": "string", "description": "Mode of shipment", "seededValues": ["Air", "Sea", "Land"]},
		{"field": "Product_Temperature", "required": false, "dataType": "string", "description": "Required product temperature"}
	],
	"forwarder_agent": [
		{"field": "ATA", "required": true, "dataType": "date", "description": "Actual time of arrival"},
		{"field": "Clearance_Date", "required": false, "dataType": "date", "description": "Customs clearance date"}
	]
}`

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := Parse("test", []byte(testSchema))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return r
}

func TestParseRejectsMalformedDocument(t *testing.T) {
	_, err := Parse("test", []byte(`{"logistics_agent": "not a list"`))
	var cfgErr *domain.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestParseRejectsMissingDomain(t *testing.T) {
	_, err := Parse("test", []byte(`{"logistics_agent": [{"field": "AWB", "required": true}]}`))
	var cfgErr *domain.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError for missing forwarder_agent, got %v", err)
	}
}

func TestMandatoryAndOptionalFields(t *testing.T) {
	r := newTestRegistry(t)

	mandatory := r.MandatoryFields(domain.DomainLogistics)
	if len(mandatory) != 2 || mandatory[0] != "AWB" || mandatory[1] != "Shipment_Mode" {
		t.Fatalf("unexpected mandatory fields: %v", mandatory)
	}

	optional := r.OptionalFields(domain.DomainLogistics)
	if len(optional) != 1 || optional[0] != "Product_Temperature" {
		t.Fatalf("unexpected optional fields: %v", optional)
	}
}

func TestMissingRecomputedFromRecord(t *testing.T) {
	r := newTestRegistry(t)

	rec := domain.Record{"AWB": "12345"}
	mandatory, optional := r.Missing(domain.DomainLogistics, rec)
	if len(mandatory) != 1 || mandatory[0] != "Shipment_Mode" {
		t.Fatalf("unexpected missing mandatory: %v", mandatory)
	}
	if len(optional) != 1 || optional[0] != "Product_Temperature" {
		t.Fatalf("unexpected missing optional: %v", optional)
	}

	// Empty string values count as absent, not supplied.
	rec["Shipment_Mode"] = ""
	mandatory, _ = r.Missing(domain.DomainLogistics, rec)
	if len(mandatory) != 1 || mandatory[0] != "Shipment_Mode" {
		t.Fatalf("empty value should remain missing: %v", mandatory)
	}

	rec["Shipment_Mode"] = "Air"
	rec["Product_Temperature"] = "2-8C"
	mandatory, optional = r.Missing(domain.DomainLogistics, rec)
	if len(mandatory) != 0 || len(optional) != 0 {
		t.Fatalf("expected nothing missing, got %v / %v", mandatory, optional)
	}
}

func TestFieldDetailsKeepsSchemaOrder(t *testing.T) {
	r := newTestRegistry(t)

	details := r.FieldDetails(domain.DomainLogistics, []string{"Shipment_Mode", "AWB"})
	if len(details) != 2 || details[0].Field != "AWB" || details[1].Field != "Shipment_Mode" {
		t.Fatalf("unexpected details order: %+v", details)
	}
}
