package pages

import "github.com/theoryboard/theoryboard/internal/model"

type ProfileProps struct {
	Name    string
	Display model.Display
	Error   string
}
