package models

// StepDefinition is a catalog entry: a step name plus its human-readable
// description.
type StepDefinition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// stepCatalog maps each verification type to its fixed, ordered pipeline.
// The orchestrator executes steps strictly in this order.
var stepCatalog = map[VerificationType][]StepDefinition{
	TypeAadhaarOTP: {
		{Name: StepDocumentUpload, Description: "Validate and register the uploaded documents"},
		{Name: StepOTPVerification, Description: "Verify the one-time password sent to the registered mobile"},
		{Name: StepUIDAIVerification, Description: "Verify Aadhaar demographics with UIDAI"},
		{Name: StepFaceMatch, Description: "Match the live photo against the document photo"},
		{Name: StepCriminalRecords, Description: "Search court and police records"},
		{Name: StepReportGeneration, Description: "Generate the verification report"},
	},
	TypeDLAadhaarOTP: {
		{Name: StepDocumentUpload, Description: "Validate and register the uploaded documents"},
		{Name: StepOTPVerification, Description: "Verify the one-time password sent to the registered mobile"},
		{Name: StepLicenseVerification, Description: "Verify the driving licence with the transport registry"},
		{Name: StepUIDAIVerification, Description: "Verify Aadhaar demographics with UIDAI"},
		{Name: StepFaceMatch, Description: "Match the live photo against the document photo"},
		{Name: StepCriminalRecords, Description: "Search court and police records"},
		{Name: StepReportGeneration, Description: "Generate the verification report"},
	},
}

// StepsForType returns the ordered step definitions for a verification type.
// It returns ErrUnknownVerificationType for types without a catalog entry.
func StepsForType(verificationType VerificationType) ([]StepDefinition, error) {
	defs, ok := stepCatalog[verificationType]
	if !ok {
		return nil, ErrUnknownVerificationType
	}

	// Return a copy so callers cannot mutate the catalog
	out := make([]StepDefinition, len(defs))
	copy(out, defs)
	return out, nil
}
