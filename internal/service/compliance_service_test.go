package service_test

import (
	"context"
	"testing"
	"time"

	"backend/internal/engine"
	"backend/internal/model"
	"backend/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type complianceFixture struct {
	svc        service.ComplianceService
	vendorRepo *mockVendorRepo
	auditRepo  *mockAuditRepo
}

func newComplianceFixture() *complianceFixture {
	vendorRepo := newMockVendorRepo()
	auditRepo := &mockAuditRepo{}
	return &complianceFixture{
		svc:        service.NewComplianceService(vendorRepo, auditRepo, &mockTxManager{}),
		vendorRepo: vendorRepo,
		auditRepo:  auditRepo,
	}
}

func (f *complianceFixture) createVendor(t *testing.T, vendorType string) service.VendorResponse {
	t.Helper()
	vendor, err := f.svc.CreateVendor(context.Background(), uuid.New(), service.CreateVendorRequest{
		Name:       "Al Bina Trading",
		VendorType: vendorType,
	})
	require.NoError(t, err)
	return vendor
}

func TestUploadDocumentAppendsVersions(t *testing.T) {
	f := newComplianceFixture()
	vendor := f.createVendor(t, model.VendorTypeSupplier)
	actor := uuid.New()

	expiry := time.Now().AddDate(1, 0, 0).Format("2006-01-02")

	first, err := f.svc.UploadDocument(context.Background(), actor, vendor.ID, service.UploadDocumentRequest{
		DocType:    model.DocVATCertificate,
		FileRef:    "s3://docs/vat-v1.pdf",
		ExpiryDate: expiry,
	})
	require.NoError(t, err)
	require.Equal(t, 1, first.Version)

	second, err := f.svc.UploadDocument(context.Background(), actor, vendor.ID, service.UploadDocumentRequest{
		DocType:    model.DocVATCertificate,
		FileRef:    "s3://docs/vat-v2.pdf",
		ExpiryDate: expiry,
	})
	require.NoError(t, err)
	require.Equal(t, 2, second.Version)

	history, err := f.svc.ListDocumentHistory(context.Background(), vendor.ID, model.DocVATCertificate)
	require.NoError(t, err)
	require.Len(t, history, 2)
}

func TestUploadDocumentRejectsUnknownType(t *testing.T) {
	f := newComplianceFixture()
	vendor := f.createVendor(t, model.VendorTypeSupplier)

	_, err := f.svc.UploadDocument(context.Background(), uuid.New(), vendor.ID, service.UploadDocumentRequest{
		DocType: "DRIVING_LICENSE",
		FileRef: "s3://docs/nope.pdf",
	})
	require.ErrorIs(t, err, service.ErrUnknownDocType)
}

func TestComplianceSummaryCountsOnlyValidDocuments(t *testing.T) {
	f := newComplianceFixture()
	vendor := f.createVendor(t, model.VendorTypeSupplier)
	actor := uuid.New()

	valid := time.Now().AddDate(1, 0, 0).Format("2006-01-02")
	expiring := time.Now().AddDate(0, 0, 10).Format("2006-01-02")
	expired := time.Now().AddDate(0, 0, -1).Format("2006-01-02")

	uploads := []service.UploadDocumentRequest{
		{DocType: model.DocCommercialRegistration, FileRef: "s3://docs/cr.pdf", ExpiryDate: valid},
		{DocType: model.DocCompanyProfile, FileRef: "s3://docs/profile.pdf"}, // never expires
		{DocType: model.DocVATCertificate, FileRef: "s3://docs/vat.pdf", ExpiryDate: expiring},
		{DocType: model.DocZakatCertificate, FileRef: "s3://docs/zakat.pdf", ExpiryDate: expired},
	}
	for _, upload := range uploads {
		_, err := f.svc.UploadDocument(context.Background(), actor, vendor.ID, upload)
		require.NoError(t, err)
	}

	summary, err := f.svc.GetComplianceSummary(context.Background(), vendor.ID)
	require.NoError(t, err)

	// Suppliers carry ten mandatory types; only the two VALID uploads count.
	require.Equal(t, 10, summary.TotalMandatory)
	require.Equal(t, 2, summary.CompliantCount)
	require.Equal(t, 20, summary.Percent)
	require.Equal(t, engine.DocExpiring, summary.Breakdown[model.DocVATCertificate])
	require.Equal(t, engine.DocExpired, summary.Breakdown[model.DocZakatCertificate])
	require.Equal(t, engine.DocMissing, summary.Breakdown[model.DocSASOCertificate])
}

func TestComplianceSummaryUsesLatestVersion(t *testing.T) {
	f := newComplianceFixture()
	vendor := f.createVendor(t, model.VendorTypeSupplier)
	actor := uuid.New()

	expired := time.Now().AddDate(0, 0, -30).Format("2006-01-02")
	valid := time.Now().AddDate(1, 0, 0).Format("2006-01-02")

	_, err := f.svc.UploadDocument(context.Background(), actor, vendor.ID, service.UploadDocumentRequest{
		DocType: model.DocGOSICertificate, FileRef: "s3://docs/gosi-v1.pdf", ExpiryDate: expired,
	})
	require.NoError(t, err)
	_, err = f.svc.UploadDocument(context.Background(), actor, vendor.ID, service.UploadDocumentRequest{
		DocType: model.DocGOSICertificate, FileRef: "s3://docs/gosi-v2.pdf", ExpiryDate: valid,
	})
	require.NoError(t, err)

	summary, err := f.svc.GetComplianceSummary(context.Background(), vendor.ID)
	require.NoError(t, err)
	require.Equal(t, engine.DocValid, summary.Breakdown[model.DocGOSICertificate])
}

func TestConsultantSkipsLabourCertificates(t *testing.T) {
	f := newComplianceFixture()
	vendor := f.createVendor(t, model.VendorTypeConsultant)

	summary, err := f.svc.GetComplianceSummary(context.Background(), vendor.ID)
	require.NoError(t, err)
	require.Equal(t, 6, summary.TotalMandatory)
	require.NotContains(t, summary.Breakdown, model.DocGOSICertificate)
	require.NotContains(t, summary.Breakdown, model.DocSaudization)
}
