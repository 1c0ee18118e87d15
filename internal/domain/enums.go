package domain

// SourceType identifies what kind of raw file a document came from.
type SourceType string

const (
	SourcePDFNative   SourceType = "pdf_native"
	SourcePDFScanned  SourceType = "pdf_scanned"
	SourceImage       SourceType = "image"
	SourceSpreadsheet SourceType = "spreadsheet"
	SourceXML         SourceType = "xml"
)

// DocumentType classifies the business document.
type DocumentType string

const (
	DocTypeInvoice    DocumentType = "invoice"
	DocTypeCreditNote DocumentType = "credit_note"
	DocTypeReceipt    DocumentType = "receipt"
	DocTypeUnknown    DocumentType = "unknown"
)

// ParseStatus is the terminal status of a parse request.
type ParseStatus string

const (
	ParseStatusValid     ParseStatus = "valid"
	ParseStatusUncertain ParseStatus = "uncertain"
	ParseStatusInvalid   ParseStatus = "invalid"
	ParseStatusFailure   ParseStatus = "failure"
)

// ValidationStatus tracks where a draft stands against the rule set.
type ValidationStatus string

const (
	ValidationStatusPending ValidationStatus = "pending"
	ValidationStatusValid   ValidationStatus = "valid"
	ValidationStatusWarning ValidationStatus = "warning"
	ValidationStatusInvalid ValidationStatus = "invalid"
)

// Severity grades a validation discrepancy.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ConfidenceLevel is the coarse tri-state trust judgment for a parsed document.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// Min returns the lower of two confidence levels.
func (l ConfidenceLevel) Min(other ConfidenceLevel) ConfidenceLevel {
	if l.rank() <= other.rank() {
		return l
	}
	return other
}

func (l ConfidenceLevel) rank() int {
	switch l {
	case ConfidenceLow:
		return 0
	case ConfidenceMedium:
		return 1
	default:
		return 2
	}
}

// AllowedExtensions maps file extensions (without dot) to the source type they imply.
// PDF resolution between native and scanned happens inside the PDF adapter.
var AllowedExtensions = map[string]SourceType{
	"pdf":  SourcePDFNative,
	"jpg":  SourceImage,
	"jpeg": SourceImage,
	"png":  SourceImage,
	"xlsx": SourceSpreadsheet,
	"xls":  SourceSpreadsheet,
	"csv":  SourceSpreadsheet,
	"xml":  SourceXML,
}

// AllowedContentTypes maps MIME content types back to a source type.
var AllowedContentTypes = map[string]SourceType{
	"application/pdf": SourcePDFNative,
	"image/jpeg":      SourceImage,
	"image/png":       SourceImage,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": SourceSpreadsheet,
	"application/vnd.ms-excel": SourceSpreadsheet,
	"text/csv":                 SourceSpreadsheet,
	"application/xml":          SourceXML,
	"text/xml":                 SourceXML,
}
