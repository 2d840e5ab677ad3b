// Package tui provides the Bubble Tea terminal interface for lpmarket.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/grooveyard/lpmarket/internal/api"
	"github.com/grooveyard/lpmarket/internal/config"
	"github.com/grooveyard/lpmarket/internal/market"
	"github.com/grooveyard/lpmarket/internal/model"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	recordStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))
)

// State represents the current view.
type State int

const (
	StateLogin State = iota
	StateSignup
	StateMain
	StateSell
)

// sale start layouts accepted by the sell form.
var sellTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state   State
	mgr     *market.Manager
	spinner spinner.Model

	// Form inputs per view; focus indexes into the active set.
	login  []textinput.Model
	signup []textinput.Model
	sell   []textinput.Model
	focus  int

	sellLimited bool

	// Catalog state for the main view.
	catalog model.Catalog
	now     time.Time
	cursor  int

	notices  []market.Notice
	noticeCh chan market.Notice

	pending bool
	formErr error

	width  int
	height int
}

// NewModel creates the TUI model. The initial view is main when a
// persisted session exists, otherwise login; the saved token is not
// validated up front, the first authenticated request decides.
func NewModel(mgr *market.Manager, noticeCh chan market.Notice) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	m := Model{
		state:    StateLogin,
		mgr:      mgr,
		spinner:  sp,
		noticeCh: noticeCh,
		now:      time.Now(),
	}
	m.login = newInputs("username", "password")
	m.signup = newInputs("username", "password", "confirm password", "nickname", "email")
	m.resetSell()

	if mgr.SignedIn() {
		m.state = StateMain
		// Init fires the first fetch for a resumed session; show the
		// spinner for it, not the empty-catalog hint.
		m.pending = true
	}
	m.focusInput(0)

	return m
}

func newInputs(placeholders ...string) []textinput.Model {
	inputs := make([]textinput.Model, len(placeholders))
	for i, ph := range placeholders {
		ti := textinput.New()
		ti.Placeholder = ph
		ti.CharLimit = 200
		ti.Width = 40
		if strings.Contains(ph, "password") {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		inputs[i] = ti
	}
	return inputs
}

func (m *Model) resetSell() {
	m.sell = newInputs(
		"album title",
		"artist",
		"price (KRW)",
		"release year",
		"condition (NM, VG+, ...)",
		"stock",
		"sale start (2026-03-01T20:00)",
		"image path",
	)
	m.sellLimited = false
}

// Sell form field indexes.
const (
	sellName = iota
	sellArtist
	sellPrice
	sellYear
	sellCondition
	sellStock
	sellStart
	sellImage
)

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick, m.waitNotice()}
	if m.state == StateMain {
		cmds = append(cmds, m.fetchCatalog(), tickClock())
	}
	return tea.Batch(cmds...)
}

// Message types
type (
	// loginDoneMsg is sent when the login request completes.
	loginDoneMsg struct{ err error }

	// signupDoneMsg is sent when the register request completes.
	signupDoneMsg struct{ err error }

	// catalogMsg carries a finished catalog fetch.
	catalogMsg struct {
		catalog model.Catalog
		err     error
	}

	// purchaseDoneMsg carries a finished purchase plus the refreshed
	// catalog snapshot.
	purchaseDoneMsg struct {
		catalog model.Catalog
		err     error
	}

	// listingDoneMsg carries a finished listing submission.
	listingDoneMsg struct {
		catalog model.Catalog
		err     error
	}

	// tickMsg drives the once-a-second availability recomputation.
	tickMsg time.Time

	// noticeMsg is a manager notice relayed into the event loop.
	noticeMsg market.Notice
)

// tickClock schedules the next availability tick. It is only
// rescheduled while the main or sell view is showing, so navigating
// back to login stops the clock.
func tickClock() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) waitNotice() tea.Cmd {
	return func() tea.Msg {
		return noticeMsg(<-m.noticeCh)
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tickMsg:
		m.now = time.Time(msg)
		if m.state == StateMain || m.state == StateSell {
			cmds = append(cmds, tickClock())
		}

	case noticeMsg:
		m.pushNotice(market.Notice(msg))
		cmds = append(cmds, m.waitNotice())

	case loginDoneMsg:
		m.pending = false
		if msg.err != nil {
			m.formErr = msg.err
			break
		}
		m.formErr = nil
		m.state = StateMain
		m.pending = true
		cmds = append(cmds, m.fetchCatalog(), tickClock())

	case signupDoneMsg:
		m.pending = false
		if msg.err != nil {
			m.formErr = msg.err
			break
		}
		// Registering does not sign in; back to the login form.
		m.formErr = nil
		m.state = StateLogin
		m.login = newInputs("username", "password")
		m.focusInput(0)

	case catalogMsg:
		m.pending = false
		if msg.err != nil {
			if errors.Is(msg.err, api.ErrUnauthorized) {
				m.toLogin()
				break
			}
			// Keep whatever was on screen; the notice log carries
			// the failure.
			m.pushNotice(market.Notice{Message: msg.err.Error(), Level: market.LevelError})
			break
		}
		m.catalog = msg.catalog
		m.clampCursor()

	case purchaseDoneMsg:
		m.pending = false
		if msg.err != nil {
			if errors.Is(msg.err, api.ErrUnauthorized) {
				m.toLogin()
				break
			}
			m.pushNotice(market.Notice{Message: msg.err.Error(), Level: market.LevelError})
			break
		}
		m.catalog = msg.catalog
		m.clampCursor()

	case listingDoneMsg:
		m.pending = false
		if msg.err != nil {
			if errors.Is(msg.err, api.ErrUnauthorized) {
				m.toLogin()
				break
			}
			m.formErr = msg.err
			break
		}
		m.formErr = nil
		m.catalog = msg.catalog
		m.state = StateMain
		m.resetSell()
		m.clampCursor()
	}

	cmds = append(cmds, m.updateInputs(msg)...)

	return m, tea.Batch(cmds...)
}

func (m *Model) toLogin() {
	m.state = StateLogin
	m.catalog = model.Catalog{}
	m.cursor = 0
	m.formErr = nil
	m.login = newInputs("username", "password")
	m.focusInput(0)
}

func (m *Model) clampCursor() {
	if m.cursor >= m.catalog.Len() {
		m.cursor = 0
	}
}

func (m *Model) pushNotice(n market.Notice) {
	m.notices = append(m.notices, n)
	// Keep only the last 8 notices
	if len(m.notices) > 8 {
		m.notices = m.notices[len(m.notices)-8:]
	}
}

// activeInputs returns the input set of the current view, or nil when
// the view has no form.
func (m *Model) activeInputs() []textinput.Model {
	switch m.state {
	case StateLogin:
		return m.login
	case StateSignup:
		return m.signup
	case StateSell:
		return m.sell
	default:
		return nil
	}
}

func (m *Model) setActiveInputs(inputs []textinput.Model) {
	switch m.state {
	case StateLogin:
		m.login = inputs
	case StateSignup:
		m.signup = inputs
	case StateSell:
		m.sell = inputs
	}
}

func (m *Model) focusInput(i int) {
	inputs := m.activeInputs()
	if len(inputs) == 0 {
		return
	}
	if i < 0 {
		i = len(inputs) - 1
	}
	if i >= len(inputs) {
		i = 0
	}
	m.focus = i
	for j := range inputs {
		if j == i {
			inputs[j].Focus()
		} else {
			inputs[j].Blur()
		}
	}
	m.setActiveInputs(inputs)
}

func (m *Model) updateInputs(msg tea.Msg) []tea.Cmd {
	inputs := m.activeInputs()
	if len(inputs) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(inputs))
	for i := range inputs {
		var cmd tea.Cmd
		inputs[i], cmd = inputs[i].Update(msg)
		cmds = append(cmds, cmd)
	}
	m.setActiveInputs(inputs)
	return cmds
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.state {
	case StateLogin:
		return m.handleLoginKey(msg)
	case StateSignup:
		return m.handleSignupKey(msg)
	case StateMain:
		return m.handleMainKey(msg)
	case StateSell:
		return m.handleSellKey(msg)
	}
	return m, nil
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit

	case "tab", "down":
		m.focusInput(m.focus + 1)
		return m, nil

	case "shift+tab", "up":
		m.focusInput(m.focus - 1)
		return m, nil

	case "ctrl+s":
		m.state = StateSignup
		m.formErr = nil
		m.signup = newInputs("username", "password", "confirm password", "nickname", "email")
		m.focusInput(0)
		return m, nil

	case "enter":
		if m.pending {
			return m, nil
		}
		username := strings.TrimSpace(m.login[0].Value())
		password := m.login[1].Value()
		if username == "" || password == "" {
			m.formErr = errors.New("username and password are required")
			return m, nil
		}
		m.pending = true
		m.formErr = nil
		return m, tea.Batch(m.doLogin(username, password), m.spinner.Tick)
	}

	cmds := m.updateInputs(msg)
	return m, tea.Batch(cmds...)
}

func (m Model) handleSignupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+s":
		m.state = StateLogin
		m.formErr = nil
		m.focusInput(0)
		return m, nil

	case "tab", "down":
		m.focusInput(m.focus + 1)
		return m, nil

	case "shift+tab", "up":
		m.focusInput(m.focus - 1)
		return m, nil

	case "enter":
		if m.pending {
			return m, nil
		}
		if m.focus < len(m.signup)-1 {
			m.focusInput(m.focus + 1)
			return m, nil
		}

		username := strings.TrimSpace(m.signup[0].Value())
		password := m.signup[1].Value()
		confirm := m.signup[2].Value()
		nickname := strings.TrimSpace(m.signup[3].Value())
		email := strings.TrimSpace(m.signup[4].Value())

		if username == "" || password == "" || nickname == "" || email == "" {
			m.formErr = errors.New("all fields are required")
			return m, nil
		}
		// Checked locally, before any request goes out.
		if password != confirm {
			m.formErr = errors.New("passwords do not match")
			return m, nil
		}

		m.pending = true
		m.formErr = nil
		return m, tea.Batch(m.doSignup(username, password, nickname, email), m.spinner.Tick)
	}

	cmds := m.updateInputs(msg)
	return m, tea.Batch(cmds...)
}

func (m Model) handleMainKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < m.catalog.Len()-1 {
			m.cursor++
		}
		return m, nil

	case "r":
		if m.pending {
			return m, nil
		}
		m.pending = true
		return m, tea.Batch(m.fetchCatalog(), m.spinner.Tick)

	case "s":
		m.state = StateSell
		m.resetSell()
		m.formErr = nil
		m.focusInput(0)
		return m, nil

	case "l":
		if err := m.mgr.Logout(); err != nil {
			m.pushNotice(market.Notice{Message: err.Error(), Level: market.LevelError})
			return m, nil
		}
		m.toLogin()
		return m, nil

	case "enter", "b":
		if m.pending {
			return m, nil
		}
		p, ok := m.selected()
		if !ok {
			return m, nil
		}
		// Gate locally so a dead buy never reaches the backend.
		if !p.PurchasableAt(m.now) {
			m.pushNotice(market.Notice{
				Message: fmt.Sprintf("%s is %s", p.Name, p.StatusAt(m.now)),
				Level:   market.LevelWarning,
			})
			return m, nil
		}
		if !m.mgr.SignedIn() {
			m.pushNotice(market.Notice{Message: market.ErrNotSignedIn.Error(), Level: market.LevelError})
			return m, nil
		}
		m.pending = true
		return m, tea.Batch(m.doPurchase(p.ID), m.spinner.Tick)
	}

	return m, nil
}

func (m Model) handleSellKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = StateMain
		m.formErr = nil
		return m, nil

	case "tab", "down":
		m.focusInput(m.nextSellField(m.focus, +1))
		return m, nil

	case "shift+tab", "up":
		m.focusInput(m.nextSellField(m.focus, -1))
		return m, nil

	case "ctrl+e":
		m.sellLimited = !m.sellLimited
		// Focus may be sitting on a field that no longer applies.
		if !m.sellLimited && (m.focus == sellStock || m.focus == sellStart) {
			m.focusInput(sellImage)
		}
		if m.sellLimited && m.focus == sellCondition {
			m.focusInput(sellStock)
		}
		return m, nil

	case "enter":
		if m.pending {
			return m, nil
		}
		if m.focus != sellImage {
			m.focusInput(m.nextSellField(m.focus, +1))
			return m, nil
		}

		in, err := m.collectListing()
		if err != nil {
			m.formErr = err
			return m, nil
		}
		m.pending = true
		m.formErr = nil
		return m, tea.Batch(m.doCreateListing(in), m.spinner.Tick)
	}

	cmds := m.updateInputs(msg)
	return m, tea.Batch(cmds...)
}

// nextSellField advances focus, skipping fields that do not apply to
// the current listing kind: stock and sale start are limited-only, and
// condition is fixed to NEW for limited pressings.
func (m *Model) nextSellField(from, dir int) int {
	i := from
	for range m.sell {
		i += dir
		if i < 0 {
			i = len(m.sell) - 1
		}
		if i >= len(m.sell) {
			i = 0
		}
		if m.sellLimited && i == sellCondition {
			continue
		}
		if !m.sellLimited && (i == sellStock || i == sellStart) {
			continue
		}
		return i
	}
	return from
}

// collectListing parses and validates the sell form.
func (m *Model) collectListing() (market.ListingInput, error) {
	var in market.ListingInput

	in.Name = strings.TrimSpace(m.sell[sellName].Value())
	in.ArtistName = strings.TrimSpace(m.sell[sellArtist].Value())
	in.IsLimited = m.sellLimited
	in.Condition = strings.TrimSpace(m.sell[sellCondition].Value())

	if v := strings.TrimSpace(m.sell[sellPrice].Value()); v != "" {
		price, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return in, fmt.Errorf("price must be a number")
		}
		in.Price = price
	}

	if v := strings.TrimSpace(m.sell[sellYear].Value()); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return in, fmt.Errorf("year must be a number")
		}
		in.Year = year
	}

	if m.sellLimited {
		stock, err := strconv.Atoi(strings.TrimSpace(m.sell[sellStock].Value()))
		if err != nil {
			return in, fmt.Errorf("stock must be a number")
		}
		in.Stock = stock

		at, err := parseSellTime(strings.TrimSpace(m.sell[sellStart].Value()))
		if err != nil {
			return in, err
		}
		in.SaleStartAt = at
	}

	path := strings.TrimSpace(m.sell[sellImage].Value())
	if path == "" {
		return in, market.ErrNoImage
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return in, fmt.Errorf("read image: %w", err)
	}
	in.Image = data
	in.ImageName = trimPathBase(path)

	return in, nil
}

func parseSellTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("a limited listing needs a sale start time")
	}
	for _, layout := range sellTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("sale start must look like 2026-03-01T20:00")
}

func trimPathBase(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// selected returns the product under the cursor. The cursor runs over
// the limited group first, then the regular group, matching the render
// order.
func (m *Model) selected() (*model.Product, bool) {
	if m.cursor < len(m.catalog.Limited) {
		return &m.catalog.Limited[m.cursor], true
	}
	i := m.cursor - len(m.catalog.Limited)
	if i >= 0 && i < len(m.catalog.Regular) {
		return &m.catalog.Regular[i], true
	}
	return nil, false
}

// Commands wrapping the blocking manager calls.

func (m Model) doLogin(username, password string) tea.Cmd {
	return func() tea.Msg {
		return loginDoneMsg{err: m.mgr.Login(context.Background(), username, password)}
	}
}

func (m Model) doSignup(username, password, nickname, email string) tea.Cmd {
	return func() tea.Msg {
		return signupDoneMsg{err: m.mgr.Register(context.Background(), username, password, nickname, email)}
	}
}

func (m Model) fetchCatalog() tea.Cmd {
	return func() tea.Msg {
		cat, err := m.mgr.FetchCatalog(context.Background())
		return catalogMsg{catalog: cat, err: err}
	}
}

func (m Model) doPurchase(productID string) tea.Cmd {
	return func() tea.Msg {
		err := m.mgr.Purchase(context.Background(), productID)
		return purchaseDoneMsg{catalog: m.mgr.Catalog(), err: err}
	}
}

func (m Model) doCreateListing(in market.ListingInput) tea.Cmd {
	return func() tea.Msg {
		err := m.mgr.CreateListing(context.Background(), in)
		return listingDoneMsg{catalog: m.mgr.Catalog(), err: err}
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("♫ LP Marketplace"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("rare and limited vinyl"))
	b.WriteString("\n\n")

	switch m.state {
	case StateLogin:
		b.WriteString(m.viewLogin())
	case StateSignup:
		b.WriteString(m.viewSignup())
	case StateMain:
		b.WriteString(m.viewMain())
	case StateSell:
		b.WriteString(m.viewSell())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpText()))

	return b.String()
}

func (m Model) viewLogin() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Sign in"))
	b.WriteString("\n\n")
	for i := range m.login {
		b.WriteString(m.login[i].View())
		b.WriteString("\n")
	}
	b.WriteString(m.viewFormStatus())

	// A forced expiry lands the user here; the notice explaining why
	// has to be visible on this view.
	if len(m.notices) > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderNotices())
	}

	return b.String()
}

func (m Model) viewSignup() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Create an account"))
	b.WriteString("\n\n")
	for i := range m.signup {
		b.WriteString(m.signup[i].View())
		b.WriteString("\n")
	}
	b.WriteString(m.viewFormStatus())

	if len(m.notices) > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderNotices())
	}

	return b.String()
}

func (m Model) viewFormStatus() string {
	var b strings.Builder
	if m.pending {
		b.WriteString("\n")
		b.WriteString(m.spinner.View())
		b.WriteString(" working...")
		b.WriteString("\n")
	}
	if m.formErr != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("✗ " + m.formErr.Error()))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewMain() string {
	var b strings.Builder

	if name := m.mgr.Session().DisplayName; name != "" {
		b.WriteString(dimStyle.Render(fmt.Sprintf("signed in as %s", name)))
		b.WriteString("\n\n")
	}

	if m.pending {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(subtitleStyle.Render("talking to the marketplace..."))
		b.WriteString("\n\n")
	}

	if m.catalog.Len() == 0 && !m.pending {
		b.WriteString(dimStyle.Render("no records yet — press r to refresh"))
		b.WriteString("\n")
	}

	if len(m.catalog.Limited) > 0 {
		b.WriteString(errorStyle.Render("⚡ Limited pressings"))
		b.WriteString("\n")
		for i := range m.catalog.Limited {
			b.WriteString(m.viewLimited(&m.catalog.Limited[i], m.cursor == i))
		}
		b.WriteString("\n")
	}

	if len(m.catalog.Regular) > 0 {
		b.WriteString(subtitleStyle.Render("On sale"))
		b.WriteString("\n")
		for i := range m.catalog.Regular {
			b.WriteString(m.viewRegular(&m.catalog.Regular[i], m.cursor == len(m.catalog.Limited)+i))
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderNotices())

	return b.String()
}

func (m Model) viewLimited(p *model.Product, selected bool) string {
	line := fmt.Sprintf("%s - %s (%d)  %s", p.ArtistName, p.Name, p.Year, formatPrice(p.Price))

	var status string
	switch p.StatusAt(m.now) {
	case model.StatusSoldOut:
		status = dimStyle.Render("SOLD OUT")
	case model.StatusWaiting:
		c := model.Remaining(p.SaleStartAt, m.now)
		status = warningStyle.Render(fmt.Sprintf("opens in %02d:%02d:%02d", c.Hours, c.Minutes, c.Seconds))
	case model.StatusAvailable:
		stock := 0
		if p.Stock != nil {
			stock = *p.Stock
		}
		status = successStyle.Render(fmt.Sprintf("BUY NOW · %d left", stock))
	}

	marker := "  "
	styled := recordStyle.Render(line)
	if selected {
		marker = "❯ "
		styled = selectedStyle.Render(line)
	}
	return fmt.Sprintf("%s%s  %s\n", marker, styled, status)
}

func (m Model) viewRegular(p *model.Product, selected bool) string {
	line := fmt.Sprintf("%s - %s (%d, %s)  %s", p.ArtistName, p.Name, p.Year, p.Condition, formatPrice(p.Price))

	var status string
	if p.InStock() {
		status = successStyle.Render("available")
	} else {
		status = dimStyle.Render("SOLD OUT")
	}

	marker := "  "
	styled := recordStyle.Render(line)
	if selected {
		marker = "❯ "
		styled = selectedStyle.Render(line)
	}
	return fmt.Sprintf("%s%s  %s\n", marker, styled, status)
}

func (m Model) viewSell() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("List a record for sale"))
	b.WriteString("\n\n")

	limitedCheck := "[ ]"
	if m.sellLimited {
		limitedCheck = "[×]"
	}
	b.WriteString(infoStyle.Render(fmt.Sprintf("%s limited pressing, time-gated sale (ctrl+e)", limitedCheck)))
	b.WriteString("\n\n")

	for i := range m.sell {
		if m.sellLimited && i == sellCondition {
			continue
		}
		if !m.sellLimited && (i == sellStock || i == sellStart) {
			continue
		}
		b.WriteString(m.sell[i].View())
		b.WriteString("\n")
	}
	if m.sellLimited {
		b.WriteString(dimStyle.Render("limited pressings always sell as NEW"))
		b.WriteString("\n")
	}
	b.WriteString(m.viewFormStatus())

	return b.String()
}

func (m Model) renderNotices() string {
	var b strings.Builder

	for _, n := range m.notices {
		var style lipgloss.Style
		prefix := "•"
		switch n.Level {
		case market.LevelError:
			style = errorStyle
			prefix = "✗"
		case market.LevelWarning:
			style = warningStyle
			prefix = "!"
		case market.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case market.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + n.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) helpText() string {
	switch m.state {
	case StateLogin:
		return "enter: sign in • tab: next field • ctrl+s: create account • esc: quit"
	case StateSignup:
		return "enter: next/submit • tab: next field • esc: back to sign in"
	case StateMain:
		return "↑/↓: select • enter: buy • s: sell • r: refresh • l: sign out • q: quit"
	case StateSell:
		return "enter: next/submit • ctrl+e: toggle limited • esc: back"
	}
	return ""
}

// formatPrice renders a won amount with thousands separators.
func formatPrice(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	out := "₩" + strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	noticeCh := make(chan market.Notice, 32)
	mgr, err := market.NewManager(settings, func(n market.Notice) {
		select {
		case noticeCh <- n:
		default: // drop rather than block the manager
		}
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(NewModel(mgr, noticeCh), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
