package toast

import "github.com/a-h/templ"

type Variant string

const (
	VariantDefault Variant = "default"
	VariantSuccess Variant = "success"
	VariantError   Variant = "error"
)

// ContainerID is where toasts are appended, also as an OOB target
const ContainerID = "toast-container"

type Props struct {
	Title       string
	Description string
	Variant     Variant
	Dismissible bool
	Duration    int // Milliseconds before auto-dismiss, 0 keeps it open
}

func (p Props) variant() Variant {
	if p.Variant == "" {
		return VariantDefault
	}
	return p.Variant
}

func Success(description string) templ.Component {
	return Toast(Props{Title: "Success", Description: description, Variant: VariantSuccess, Dismissible: true, Duration: 5000})
}

func Error(description string) templ.Component {
	return Toast(Props{Title: "Error", Description: description, Variant: VariantError, Dismissible: true})
}
