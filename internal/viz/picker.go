package viz

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Picker lists named entries and hands the screen to the model built for
// the chosen one.
type Picker struct {
	title  string
	items  []string
	cursor int
	start  func(item string) (tea.Model, error)
	child  tea.Model
	err    error
	styles Styles
}

func NewPicker(title string, items []string, start func(item string) (tea.Model, error)) *Picker {
	return &Picker{title: title, items: items, start: start, styles: NewStyles(Themes[0])}
}

func (p *Picker) Init() tea.Cmd { return nil }

func (p *Picker) Selected() string {
	if len(p.items) == 0 {
		return ""
	}
	return p.items[p.cursor]
}

func (p *Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if p.child != nil {
		var cmd tea.Cmd
		p.child, cmd = p.child.Update(msg)
		return p, cmd
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.items)-1 {
			p.cursor++
		}
	case "enter":
		if len(p.items) == 0 {
			return p, nil
		}
		child, err := p.start(p.Selected())
		if err != nil {
			p.err = err
			return p, nil
		}
		p.err = nil
		p.child = child
		return p, child.Init()
	}
	return p, nil
}

func (p *Picker) View() string {
	if p.child != nil {
		return p.child.View()
	}
	var s strings.Builder
	s.WriteString(p.styles.Header.Render(p.title) + "\n")
	for i, item := range p.items {
		if i == p.cursor {
			s.WriteString(p.styles.Cursor.Render("> "+item) + "\n")
		} else {
			s.WriteString("  " + p.styles.Value.Render(item) + "\n")
		}
	}
	if p.err != nil {
		s.WriteString(p.styles.Failed.Render(p.err.Error()) + "\n")
	}
	s.WriteString(p.styles.Help.Render("↑/↓ select · enter start · q quit"))
	return s.String()
}
