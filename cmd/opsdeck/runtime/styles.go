package runtime

import (
	"charm.land/lipgloss/v2"
)

type replStyles struct {
	greeting lipgloss.Style
	tagline  lipgloss.Style
	agent    lipgloss.Style
	pending  lipgloss.Style
	errText  lipgloss.Style
	notice   lipgloss.Style

	normal    lipgloss.Style
	attention lipgloss.Style
	overdue   lipgloss.Style

	header lipgloss.Style
	border lipgloss.Style
}

func newReplStyles(noColor bool) replStyles {
	if noColor {
		plain := lipgloss.NewStyle()
		return replStyles{
			greeting: plain, tagline: plain, agent: plain, pending: plain,
			errText: plain, notice: plain, normal: plain, attention: plain,
			overdue: plain, header: plain, border: plain,
		}
	}

	blue := lipgloss.Color("39")
	gray := lipgloss.Color("245")
	red := lipgloss.Color("196")
	yellow := lipgloss.Color("214")
	purple := lipgloss.Color("99")

	return replStyles{
		greeting: lipgloss.NewStyle().Foreground(blue).Bold(true),
		tagline:  lipgloss.NewStyle().Foreground(gray).Italic(true),
		agent:    lipgloss.NewStyle().Foreground(blue),
		pending:  lipgloss.NewStyle().Foreground(gray).Italic(true),
		errText:  lipgloss.NewStyle().Foreground(red),
		notice:   lipgloss.NewStyle().Foreground(gray),
		normal:    lipgloss.NewStyle(),
		attention: lipgloss.NewStyle().Foreground(yellow),
		overdue:   lipgloss.NewStyle().Foreground(red).Bold(true),
		header:    lipgloss.NewStyle().Foreground(purple).Bold(true),
		border:    lipgloss.NewStyle().Foreground(purple),
	}
}

func (s replStyles) age(hint string) lipgloss.Style {
	switch hint {
	case "overdue":
		return s.overdue
	case "attention":
		return s.attention
	default:
		return s.normal
	}
}
