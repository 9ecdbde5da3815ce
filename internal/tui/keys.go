package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/felixgeelhaar/stackwizard/internal/wizard"
)

// keyMap defines the keyboard shortcuts
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Select   key.Binding
	Next     key.Binding
	Previous key.Binding
	Finish   key.Binding
	Start    key.Binding
	Confirm  key.Binding
	Cancel   key.Binding

	ExportJSON key.Binding
	ExportYAML key.Binding
	ExportPDF  key.Binding
	Restart    key.Binding
	Quit       key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "subir"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "bajar"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "elegir"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "n"),
			key.WithHelp("→/n", wizard.LabelNext),
		),
		Previous: key.NewBinding(
			key.WithKeys("left", "p"),
			key.WithHelp("←/p", wizard.LabelPrevious),
		),
		Finish: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", wizard.LabelFinish),
		),
		Start: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", wizard.LabelStart),
		),
		Confirm: key.NewBinding(
			key.WithKeys("s", "y", "enter"),
			key.WithHelp("s", "enviar"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n", "volver"),
		),
		ExportJSON: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "exportar JSON"),
		),
		ExportYAML: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "exportar YAML"),
		),
		ExportPDF: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "exportar PDF"),
		),
		Restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "nueva consulta"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "salir"),
		),
	}
}

// forStage returns the bindings shown in the help line. finish hides the
// early-finish key when the navigation does not allow it.
func (k keyMap) forStage(stage wizard.Stage, confirming, finish bool) []key.Binding {
	switch {
	case confirming:
		return []key.Binding{k.Confirm, k.Cancel}
	case stage == wizard.StageWelcome:
		return []key.Binding{k.Start, k.Quit}
	case stage == wizard.StageAnswering && finish:
		return []key.Binding{k.Up, k.Down, k.Select, k.Previous, k.Next, k.Finish, k.Quit}
	case stage == wizard.StageAnswering:
		return []key.Binding{k.Up, k.Down, k.Select, k.Previous, k.Next, k.Quit}
	default:
		return []key.Binding{k.ExportJSON, k.ExportYAML, k.ExportPDF, k.Restart, k.Quit}
	}
}
