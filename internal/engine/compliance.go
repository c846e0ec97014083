package engine

import (
	"math"
	"time"

	"backend/internal/model"
)

// Document classification constants
const (
	DocMissing  = "MISSING"
	DocValid    = "VALID"
	DocExpiring = "EXPIRING"
	DocExpired  = "EXPIRED"
)

// ExpiryWarningWindow is how close to expiry a document is flagged EXPIRING.
const ExpiryWarningWindow = 30 * 24 * time.Hour

// baselineDocuments are mandatory for every vendor type.
var baselineDocuments = []string{
	model.DocCommercialRegistration,
	model.DocVATCertificate,
	model.DocZakatCertificate,
	model.DocGOSICertificate,
	model.DocSaudization,
	model.DocNationalAddress,
	model.DocBankLetter,
	model.DocCompanyProfile,
}

// docOverride adjusts the baseline per vendor type.
type docOverride struct {
	add    []string
	remove []string
}

var documentOverrides = map[string]docOverride{
	model.VendorTypeSupplier:     {add: []string{model.DocSASOCertificate, model.DocSABERCertificate}},
	model.VendorTypeManufacturer: {add: []string{model.DocSASOCertificate, model.DocSABERCertificate}},
	model.VendorTypeDistributor:  {add: []string{model.DocSASOCertificate, model.DocSABERCertificate}},
	model.VendorTypeContractor:   {add: []string{model.DocHSEPlan}},
	model.VendorTypeSubcontractor: {
		add: []string{model.DocHSEPlan},
	},
	// Consultancies carry no workforce on site, so the labour certificates
	// do not apply to them.
	model.VendorTypeConsultant: {
		remove: []string{model.DocGOSICertificate, model.DocSaudization},
	},
}

// RequiredDocuments returns the mandatory document types for a vendor type:
// the baseline set adjusted by the per-type override table. Unknown vendor
// types get the baseline.
func RequiredDocuments(vendorType string) []string {
	override := documentOverrides[vendorType]

	removed := make(map[string]bool, len(override.remove))
	for _, t := range override.remove {
		removed[t] = true
	}

	required := make([]string, 0, len(baselineDocuments)+len(override.add))
	for _, t := range baselineDocuments {
		if !removed[t] {
			required = append(required, t)
		}
	}
	return append(required, override.add...)
}

// ClassifyDocument buckets one document version relative to asOf. A nil
// document is MISSING; a document without an expiry date is VALID once
// present.
func ClassifyDocument(doc *model.VendorDocument, asOf time.Time) string {
	switch {
	case doc == nil:
		return DocMissing
	case doc.ExpiryDate == nil:
		return DocValid
	case doc.ExpiryDate.Before(asOf):
		return DocExpired
	case !doc.ExpiryDate.After(asOf.Add(ExpiryWarningWindow)):
		return DocExpiring
	default:
		return DocValid
	}
}

// CurrentDocuments reduces an append-only version chain to the current
// document per type (highest version wins).
func CurrentDocuments(documents []model.VendorDocument) map[string]*model.VendorDocument {
	current := make(map[string]*model.VendorDocument)
	for i := range documents {
		doc := &documents[i]
		if prev, ok := current[doc.DocType]; !ok || doc.Version > prev.Version {
			current[doc.DocType] = doc
		}
	}
	return current
}

// ComplianceSummary aggregates a vendor's standing against its mandatory set.
type ComplianceSummary struct {
	CompliantCount int               `json:"compliant_count"`
	TotalMandatory int               `json:"total_mandatory"`
	Percent        int               `json:"percent"`
	Breakdown      map[string]string `json:"breakdown"` // docType -> classification
}

// Summarize counts mandatory document types classified VALID. An empty
// mandatory set is vacuously 100% compliant, not a division error.
func Summarize(required []string, documents []model.VendorDocument, asOf time.Time) ComplianceSummary {
	current := CurrentDocuments(documents)

	summary := ComplianceSummary{
		TotalMandatory: len(required),
		Breakdown:      make(map[string]string, len(required)),
	}
	for _, docType := range required {
		state := ClassifyDocument(current[docType], asOf)
		summary.Breakdown[docType] = state
		if state == DocValid {
			summary.CompliantCount++
		}
	}

	if summary.TotalMandatory == 0 {
		summary.Percent = 100
		return summary
	}
	summary.Percent = int(math.Round(float64(summary.CompliantCount) / float64(summary.TotalMandatory) * 100))
	return summary
}
