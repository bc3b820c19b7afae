package pages

// TheoryFormID is the fragment swapped after an htmx submission
const TheoryFormID = "theory-form"

// TheoryFormProps holds the values to re-render; all empty for a cleared form
type TheoryFormProps struct {
	Title       string
	Description string
	Error       string
}
