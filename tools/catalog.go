package tools

// DefaultTools returns the full catalog in prompt order: discovery,
// validation, creation, adaptation.
func DefaultTools(deps Deps, corrections CorrectionObserver) []Tool {
	return []Tool{
		NewSearchTool(deps),
		NewCompareTool(deps),
		NewValidateTool(deps).WithCorrectionObserver(corrections),
		NewSimulateTool(deps),
		NewConceptTool(deps),
		NewPublicationTool(deps),
		NewDraftTool(deps),
		NewReviewTool(deps),
		NewAdaptTool(deps),
		NewExtractTool(deps),
		NewReapplicationTool(deps),
	}
}

// NewDefaultRegistry builds the immutable registry over DefaultTools.
func NewDefaultRegistry(deps Deps, corrections CorrectionObserver) (*Registry, error) {
	return NewRegistry(DefaultTools(deps, corrections)...)
}
