// Package tui is the interactive calculator: a bubbletea program that walks
// the user through the flow steps and edits the session as they type.
package tui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"networth/internal/core"
	"networth/internal/flow"
	"networth/internal/log"
	"networth/internal/session"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	groupStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).MarginTop(1)
	labelStyle    = lipgloss.NewStyle().Width(24)
	focusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	positiveStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	negativeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	boxStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

// field is one editable input of a step.
type field struct {
	key   string
	label string
	group string
	value func(session.State) float64
}

func fieldsOf[T any](fields []core.Field[T], rec func(session.State) T) []field {
	out := make([]field, len(fields))
	for i, f := range fields {
		out[i] = field{
			key:   f.Key,
			label: f.Label,
			group: f.Group,
			value: func(st session.State) float64 { return f.Get(rec(st)) },
		}
	}
	return out
}

var stepFields = map[flow.Step][]field{
	flow.Assets:            fieldsOf(core.AssetFields, func(st session.State) core.Assets { return st.Assets }),
	flow.Liabilities:       fieldsOf(core.LiabilityFields, func(st session.State) core.Liabilities { return st.Liabilities }),
	flow.MonthlyFinancials: fieldsOf(core.MonthlyFields, func(st session.State) core.MonthlyFinancials { return st.Monthly }),
}

// Model is the wizard state. It mutates the session store directly; the
// caller closes the store when the program exits.
type Model struct {
	store  *session.Store
	flow   *flow.Controller
	logger *log.Logger

	fields []field
	inputs []textinput.Model
	focus  int

	status    string
	statusErr bool
	width     int
	quitting  bool
}

// New builds a wizard over store using the given step sequence.
func New(store *session.Store, variant flow.Variant, logger *log.Logger) *Model {
	if logger == nil {
		logger = log.Discard()
	}
	m := &Model{
		store:  store,
		flow:   flow.New(variant),
		logger: logger.WithComponent(log.ComponentFlow),
		width:  80,
	}
	m.flow.OnTransition = func(from, to flow.Step) {
		m.logger.Debug("Step changed", log.FieldStep, to.Slug(), "from", from.Slug())
		m.status = ""
		m.loadInputs()
	}
	m.loadInputs()
	return m
}

// Step returns the current step.
func (m *Model) Step() flow.Step { return m.flow.Current() }

// loadInputs rebuilds the inputs of the current step from the session and
// focuses the first one.
func (m *Model) loadInputs() {
	st := m.store.State()
	m.fields = stepFields[m.flow.Current()]
	m.inputs = make([]textinput.Model, len(m.fields))
	for i, f := range m.fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = "0"
		ti.CharLimit = 16
		ti.Width = 16
		if v := f.value(st); v != 0 {
			ti.SetValue(strconv.FormatFloat(v, 'f', -1, 64))
		}
		m.inputs[i] = ti
	}
	m.focus = 0
	if len(m.inputs) > 0 {
		m.inputs[0].Focus()
	}
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "ctrl+q":
		m.quitting = true
		return m, tea.Quit
	case "q":
		if len(m.inputs) == 0 {
			m.quitting = true
			return m, tea.Quit
		}
	case "enter":
		m.flow.Next()
		return m, nil
	case "esc":
		m.flow.Back()
		return m, nil
	case "ctrl+r":
		m.store.Reset()
		m.flow.Reset()
		m.loadInputs()
		m.setStatus("Calculator reset", false)
		return m, nil
	case "ctrl+s":
		if m.store.Save() {
			m.setStatus("Saved", false)
		} else {
			m.setStatus("Save failed", true)
		}
		return m, nil
	case "ctrl+u":
		m.cycleCurrency()
		return m, nil
	case "tab", "down":
		m.moveFocus(1)
		return m, nil
	case "shift+tab", "up":
		m.moveFocus(-1)
		return m, nil
	}

	if len(m.inputs) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	m.apply(m.focus)
	return m, cmd
}

// apply writes input i into the session. Unparsable input counts as 0.
func (m *Model) apply(i int) {
	p := core.Patch{m.fields[i].key: ParseAmount(m.inputs[i].Value())}
	switch m.flow.Current() {
	case flow.Assets:
		m.store.UpdateAssets(p)
	case flow.Liabilities:
		m.store.UpdateLiabilities(p)
	case flow.MonthlyFinancials:
		m.store.UpdateMonthlyFinancials(p)
	}
}

func (m *Model) moveFocus(delta int) {
	if len(m.inputs) == 0 {
		return
	}
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	m.inputs[m.focus].Focus()
}

func (m *Model) cycleCurrency() {
	all := core.Currencies()
	next := all[(slices.Index(all, m.store.State().Currency)+1)%len(all)]
	if _, err := m.store.UpdateCurrency(next); err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.setStatus("Currency: "+next.Label(), false)
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

// ParseAmount reads a typed amount leniently: thousands separators and a
// leading currency symbol are ignored, anything else unparsable is 0.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return !(r >= '0' && r <= '9') && r != '-' && r != '.'
	})
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return core.Sanitize(v)
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	st := m.store.State()
	var b strings.Builder

	b.WriteString(titleStyle.Render("Net Worth Calculator · " + m.flow.Current().String()))
	b.WriteString("  ")
	b.WriteString(progressStyle.Render(m.flow.Progress()))
	b.WriteString("\n")

	if m.flow.Current() == flow.Results {
		b.WriteString(m.resultsView(st))
	} else {
		b.WriteString(m.inputsView(st))
	}

	if m.status != "" {
		style := statusStyle
		if m.statusErr {
			style = errorStyle
		}
		b.WriteString("\n" + style.Render(m.status))
	}
	b.WriteString(helpStyle.Render(m.help()))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) inputsView(st session.State) string {
	var b strings.Builder
	group := ""
	for i, f := range m.fields {
		if f.group != group {
			group = f.group
			b.WriteString(groupStyle.Render(group))
			b.WriteString("\n")
		}
		label := labelStyle.Render(f.label)
		cursor := "  "
		if i == m.focus {
			label = focusStyle.Render(labelStyle.Render(f.label))
			cursor = focusStyle.Render("> ")
		}
		fmt.Fprintf(&b, "%s%s %s %s\n", cursor, label, st.Currency.Symbol(), m.inputs[i].View())
	}

	c := st.Calculations
	var total string
	switch m.flow.Current() {
	case flow.Assets:
		total = "Total Assets: " + st.Currency.Format(c.TotalAssets)
	case flow.Liabilities:
		total = "Total Liabilities: " + st.Currency.Format(c.TotalLiabilities)
	case flow.MonthlyFinancials:
		total = "Monthly Cash Flow: " + st.Currency.Format(c.MonthlyCashFlow)
	}
	b.WriteString("\n" + titleStyle.Render(total) + "\n")
	return b.String()
}

func (m *Model) resultsView(st session.State) string {
	c := st.Calculations
	cur := st.Currency

	netStyle := positiveStyle
	if c.NetWorth < 0 {
		netStyle = negativeStyle
	}
	summary := strings.Join([]string{
		fmt.Sprintf("%-22s %s", "Total Assets", cur.Format(c.TotalAssets)),
		fmt.Sprintf("%-22s %s", "Total Liabilities", cur.Format(c.TotalLiabilities)),
		fmt.Sprintf("%-22s %s", "Net Worth", netStyle.Render(cur.Format(c.NetWorth))),
		fmt.Sprintf("%-22s %d%%", "Debt-to-Asset Ratio", c.DebtToAssetRatio),
		fmt.Sprintf("%-22s %s", "Monthly Cash Flow", cur.Format(c.MonthlyCashFlow)),
	}, "\n")

	var b strings.Builder
	b.WriteString(boxStyle.Render(summary))
	b.WriteString("\n")
	writeBreakdown(&b, "Assets", cur, core.NonZero(core.AssetBreakdown(st.Assets)))
	writeBreakdown(&b, "Liabilities", cur, core.NonZero(core.LiabilityBreakdown(st.Liabilities)))
	return b.String()
}

func writeBreakdown(b *strings.Builder, title string, cur core.Currency, cats []core.CategoryTotal) {
	b.WriteString(groupStyle.Render(title))
	b.WriteString("\n")
	if len(cats) == 0 {
		b.WriteString("  none\n")
		return
	}
	for _, cat := range cats {
		fmt.Fprintf(b, "  %-26s %s\n", cat.Name, cur.Format(cat.Total))
	}
}

func (m *Model) help() string {
	keys := []string{}
	if !m.flow.IsLast() {
		keys = append(keys, "enter next")
	}
	if !m.flow.IsFirst() {
		keys = append(keys, "esc back")
	}
	if len(m.inputs) > 0 {
		keys = append(keys, "tab/↓ field")
	}
	keys = append(keys, "ctrl+u currency", "ctrl+s save", "ctrl+r reset", "ctrl+c quit")
	return strings.Join(keys, " · ")
}
