package repl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/nova/lang"
	"github.com/ardnew/nova/log"
)

// editProgramMsg is sent when editing produced a program that parses.
type editProgramMsg struct{ prog *lang.Program }

// editCancelledMsg is sent when the user cleared the editor content.
type editCancelledMsg struct{}

// editDeclinedMsg is sent when the user declined to re-edit after a syntax
// error.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the edit process fails for any other reason.
type editErrorMsg struct{ err error }

const (
	evalPrompt = "➜ "
	contPrompt = "… "
	ctrlPrompt = " :"
)

func helpMessage() string {
	return `
: Commands (press Esc to toggle mode):

  help     Print this help
  list     List global bindings
  edit     Edit the session program in $EDITOR and run it afresh
  reset    Discard all global bindings
  clear    Clear screen
  quit     Exit REPL

Usage:
  Type a program to run it; bindings persist between inputs
  Unfinished input (an open brace or string) continues on the next line
  Completions appear automatically as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Space to accept the current candidate
  Press Esc to toggle between eval and command modes
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within current mode only
  Use Alt+Up/Alt+Down to switch to command mode and navigate command history
    (restores original mode when reaching end of history)
  Press Ctrl+C to discard input, on an empty line or Ctrl+D to exit
`
}

// inputMode represents the current input mode.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	outputStyle     = lipgloss.NewStyle()
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// formatCommand formats the echo of an eval-mode line.
func formatCommand(prompt, input string) string {
	return promptStyle.Render(prompt) + inputStyle.Render(input)
}

// formatCtrlCommand formats the echo of a control-mode line.
func formatCtrlCommand(input string) string {
	return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input)
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc          func() context.Context
	input            textinput.Model
	session          *lang.Session
	opts             []lang.Option // parse options for edited programs
	printed          *bytes.Buffer // output of the print builtins
	transcript       []string      // inputs that ran without error
	pending          []string      // lines of an incomplete input
	logger           log.Logger
	history          *History
	historyIdx       int
	matches          fuzzy.Matches // current fuzzy match results
	candidates       []string      // backing candidate list
	wordStart        int           // byte offset of current word start
	wordEnd          int           // byte offset of current word end
	suggIdx          int           // selected candidate index
	tabActive        bool          // whether user is tab-cycling
	preTabText       string        // input text before tab-cycling began
	preTabCursor     int           // cursor position before tab-cycling began
	altNavActive     bool          // whether user is in Alt+Up/Down navigation
	altNavOrigMode   inputMode     // original mode before Alt navigation
	altNavOrigText   string        // original text before Alt navigation
	altNavOrigCursor int           // original cursor position before Alt navigation
	width            int           // terminal width for ellipsization
	quitting         bool
	mode             inputMode
	evalText         string
	evalCursor       int
	ctrlText         string
	ctrlCursor       int
}

// Run starts the interactive REPL on the terminal. Programs run in sess,
// whose print builtins must write to printed; the REPL shows that output
// after each input. History is kept in cacheDir, or only in memory if
// cacheDir is empty. Programs edited with the
// edit command are parsed with opts.
func Run(
	ctx context.Context,
	sess *lang.Session,
	printed *bytes.Buffer,
	cacheDir string,
	logger log.Logger,
	opts ...lang.Option,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	logger.TraceContext(ctx, "repl start",
		slog.String("cache_dir", cacheDir),
		slog.Int("globals", sess.Globals().Len()),
	)

	var history *History
	if cacheDir == "" {
		history = NewHistory("")
	} else {
		history = NewHistory(filepath.Join(cacheDir, baseHistory))
	}

	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history", slog.Any("error", err))
	}

	logger.TraceContext(ctx, "repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	m := newModel(ctx, sess, printed, history, logger)
	m.opts = opts

	_, err = tea.NewProgram(m, tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	sess *lang.Session,
	printed *bytes.Buffer,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	if printed == nil {
		printed = new(bytes.Buffer)
	}

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		session:    sess,
		printed:    printed,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		suggIdx:    -1,
		width:      defaultWidth,
		mode:       modeEval,
	}
}

func (m model) Init() tea.Cmd {
	if out := m.drainOutput(); out != "" {
		return tea.Batch(textinput.Blink, tea.Println(out))
	}

	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - lipgloss.Width(evalPrompt) - 2

		return m, nil

	case editProgramMsg:
		return m.runEdited(msg.prog)

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("edit cancelled"))

	case editDeclinedMsg:
		m.quitting = true

		return m, tea.Quit

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("edit failed: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	input := m.input.Value()
	viewingHistory := m.historyIdx < m.history.Len()
	call := detectFunctionCall(input, m.input.Position())

	var (
		params []string
		known  bool
	)

	if call.inCall && m.mode == modeEval {
		params, known = signature(m.session.Globals(), call.name)
	}

	switch {
	case viewingHistory:
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len())
		b.WriteString(hintStyle.Render(hint))

	case strings.TrimSpace(input) == "":
		var hint string

		switch {
		case m.mode == modeCtrl:
			hint = "Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)"
		case len(m.pending) > 0:
			hint = "Continue the input, or press Ctrl+C to discard it"
		default:
			hint = "Type a program or press Esc for commands"
		}

		b.WriteString(hintStyle.Render(hint))

	case len(m.matches) > 0 && (m.tabActive || !known):
		b.WriteString(m.renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width))

	case known:
		b.WriteString(renderSignatureHint(call.name, params, call.argIndex))
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctxFunc(), "repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" && len(m.pending) == 0 {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m = m.discardPending()
		m.tabActive = false
		m.altNavActive = false
		m.historyIdx = m.history.Len()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if !m.tabActive || len(m.matches) == 0 {
			m.altNavActive = false

			return m.executeInput()
		}

		// Lock in the current tab candidate without executing.
		m.tabActive = false
		m.altNavActive = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.cycle(1)

	case tea.KeyShiftTab:
		return m.cycle(-1)

	case tea.KeyUp:
		if msg.Alt {
			return m.historyCtrl(-1)
		}

		return m.historyPrev()

	case tea.KeyDown:
		if msg.Alt {
			return m.historyCtrl(1)
		}

		return m.historyNext()

	case tea.KeyShiftUp:
		return m.historyInMode(-1)

	case tea.KeyShiftDown:
		return m.historyInMode(1)

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		m.altNavActive = false

		return m.toggleMode()

	case tea.KeyRunes, tea.KeySpace:
		// Space accepts the candidate being cycled.
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	// Any other key (backspace, delete, arrows, ...) edits without
	// auto-confirming a completion.
	var cmd tea.Cmd

	m.tabActive = false
	m.altNavActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// cycle steps the selected completion candidate by dir, starting tab
// cycling if it is not active. A single candidate is completed at once.
func (m model) cycle(dir int) (model, tea.Cmd) {
	if len(m.matches) == 0 {
		return m, nil
	}

	if len(m.matches) == 1 {
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m, nil
	}

	switch {
	case m.tabActive:
		m.suggIdx = (m.suggIdx + dir + len(m.matches)) % len(m.matches)
	case dir > 0:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()
		m.suggIdx = 0
	default:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()
		m.suggIdx = len(m.matches) - 1
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m, nil
}

// replaceCurrentWord replaces the current word in the input with
// replacement and moves the cursor after it.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	newInput := input[:m.wordStart] + replacement + input[m.wordEnd:]
	newCursor := m.wordStart + len(replacement)

	m.input.SetValue(newInput)
	m.input.SetCursor(newCursor)

	m.wordEnd = newCursor
}

// refreshMatches recomputes fuzzy matches for the current input state.
// When autoConfirm is true it also accepts the completion when exactly one
// candidate remains and the typed word already equals it. Deletions and
// cursor movement pass false so that editing never completes unexpectedly.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.candidates, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	if word := m.input.Value()[m.wordStart:m.wordEnd]; word == m.matches[0].Str {
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

// drainOutput returns and clears what the print builtins wrote, without
// its final newline.
func (m model) drainOutput() string {
	out := strings.TrimSuffix(m.printed.String(), "\n")
	m.printed.Reset()

	return out
}

func (m model) discardPending() model {
	m.pending = nil
	if m.mode == modeEval {
		m.input.Prompt = promptStyle.Render(evalPrompt)
	}

	return m
}

func (m model) executeInput() (model, tea.Cmd) {
	line := m.input.Value()
	if strings.TrimSpace(line) == "" && len(m.pending) == 0 {
		return m, nil
	}

	m.evalText = ""
	m.evalCursor = 0
	m.ctrlText = ""
	m.ctrlCursor = 0
	m.input.SetValue("")
	refreshMatches(&m, false)

	if m.mode == modeCtrl {
		input := strings.TrimSpace(line)

		_ = m.history.Add(input, modeCtrl)
		m.historyIdx = m.history.Len()

		return m.executeCommand(input)
	}

	prompt := evalPrompt
	if len(m.pending) > 0 {
		prompt = contPrompt
	}

	echo := tea.Println(formatCommand(prompt, line))
	src := strings.Join(append(m.pending, line), "\n")

	v, err := m.session.Run(m.ctxFunc(), src)
	if lang.IsIncomplete(err) {
		m.pending = append(m.pending, line)
		m.input.Prompt = promptStyle.Render(contPrompt)

		return m, echo
	}

	m = m.discardPending()

	_ = m.history.Add(src, modeEval)
	m.historyIdx = m.history.Len()

	m.logger.TraceContext(m.ctxFunc(), "repl eval",
		slog.Int("bytes", len(src)),
		slog.Bool("success", err == nil),
	)

	if err == nil {
		m.transcript = append(m.transcript, src)
	}

	return m, tea.Sequence(append([]tea.Cmd{echo}, m.results(src, v, err)...)...)
}

// results returns the commands printing the output of the print builtins
// followed by the value or diagnostic of a run.
func (m model) results(src string, v lang.Value, err error) []tea.Cmd {
	var cmds []tea.Cmd

	if out := m.drainOutput(); out != "" {
		cmds = append(cmds, tea.Println(outputStyle.Render(out)))
	}

	switch {
	case err != nil:
		d := lang.Diagnose(err)
		text := d.String()

		if snippet := d.Snippet(src); snippet != "" {
			text += "\n" + strings.TrimSuffix(snippet, "\n")
		}

		cmds = append(cmds, tea.Println(errorStyle.Render(text)))

	case v != nil && v.Type() != lang.TypeUnit:
		cmds = append(cmds, tea.Println(resultStyle.Render(lang.Repr(v))))
	}

	return cmds
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	echo := tea.Println(formatCtrlCommand(input))
	cmd := parts[0]

	m.logger.TraceContext(m.ctxFunc(), "repl command",
		slog.String("command", cmd),
		slog.Any("args", parts[1:]),
	)

	switch cmd {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echo, tea.Println(helpMessage()))

	case "l", "list":
		return m, tea.Sequence(echo, tea.Println(m.listBindings()))

	case "r", "reset":
		m.session.Reset()
		m.transcript = nil

		return m, tea.Sequence(echo, tea.Println(resultStyle.Render("session reset")))

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(echo, m.handleEdit())

	default:
		return m, tea.Sequence(echo, tea.Println(
			errorStyle.Render("Unknown command: "+cmd+" (try 'help')"),
		))
	}
}

// source returns the session transcript as formatted source, or verbatim
// if it does not parse as a whole.
func (m model) source() string {
	src := strings.Join(m.transcript, "\n")

	prog, err := lang.Parse(m.ctxFunc(), src)
	if err != nil {
		return src
	}

	return lang.FormatString(prog)
}

func (m model) handleEdit() tea.Cmd {
	cmd := &editProgramCommand{
		source:  m.source(),
		ctxFunc: m.ctxFunc,
		opts:    m.opts,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editDeclinedMsg{}
		case err != nil:
			return editErrorMsg{err: err}
		case cmd.prog == nil:
			return editCancelledMsg{}
		default:
			return editProgramMsg{prog: cmd.prog}
		}
	})
}

// runEdited replaces the session with the result of running prog.
func (m model) runEdited(prog *lang.Program) (model, tea.Cmd) {
	src := lang.FormatString(prog)

	m.session.Reset()
	m.transcript = []string{src}

	v, err := m.session.Eval(m.ctxFunc(), prog)

	m.logger.TraceContext(m.ctxFunc(), "repl edit complete",
		slog.Int("statements", len(prog.Stmts)),
		slog.Bool("success", err == nil),
	)

	return m, tea.Sequence(append(
		[]tea.Cmd{tea.Println(hintStyle.Render("program updated"))},
		m.results(src, v, err)...,
	)...)
}

func (m model) listBindings() string {
	var b strings.Builder

	globals := m.session.Globals()

	for _, name := range globals.Names() {
		binding, _ := globals.Lookup(name)
		fmt.Fprintf(&b, "  %s %s\n", name, hintStyle.Render(formatPreview(binding)))
	}

	if b.Len() == 0 {
		return hintStyle.Render("  (no bindings)")
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// showEntry loads history entry i into the input, switching to its mode.
func (m model) showEntry(i int) model {
	entry, err := m.history.GetEntry(i)
	if err != nil {
		return m
	}

	m.historyIdx = i

	if m.mode != entry.Mode {
		m, _ = m.switchToMode(entry.Mode)
	}

	m.input.SetValue(entry.Line)
	m.input.SetCursor(len(entry.Line))
	refreshMatches(&m, false)

	return m
}

// clearEntry leaves history navigation with an empty input.
func (m model) clearEntry() model {
	m.historyIdx = m.history.Len()
	m.input.SetValue("")
	refreshMatches(&m, false)

	return m
}

func (m model) historyPrev() (model, tea.Cmd) {
	if m.historyIdx > 0 {
		m = m.showEntry(m.historyIdx - 1)
	}

	return m, nil
}

func (m model) historyNext() (model, tea.Cmd) {
	if m.historyIdx < m.history.Len()-1 {
		return m.showEntry(m.historyIdx + 1), nil
	}

	return m.clearEntry(), nil
}

// findEntry returns the index of the nearest entry in mode from historyIdx
// in direction dir, or -1.
func (m model) findEntry(mode inputMode, dir int) int {
	for i := m.historyIdx + dir; i >= 0 && i < m.history.Len(); i += dir {
		if entry, err := m.history.GetEntry(i); err == nil && entry.Mode == mode {
			return i
		}
	}

	return -1
}

// historyInMode navigates only the entries of the current mode.
func (m model) historyInMode(dir int) (model, tea.Cmd) {
	if i := m.findEntry(m.mode, dir); i >= 0 {
		return m.showEntry(i), nil
	}

	if dir > 0 && m.historyIdx < m.history.Len() {
		return m.clearEntry(), nil
	}

	return m, nil
}

// historyCtrl navigates command history, switching to control mode on the
// first step and restoring the original mode and input when it runs past
// either end.
func (m model) historyCtrl(dir int) (model, tea.Cmd) {
	if !m.altNavActive {
		m.altNavActive = true
		m.altNavOrigMode = m.mode
		m.altNavOrigText = m.input.Value()
		m.altNavOrigCursor = m.input.Position()

		if m.mode != modeCtrl {
			m, _ = m.switchToMode(modeCtrl)
		}
	}

	if i := m.findEntry(modeCtrl, dir); i >= 0 {
		return m.showEntry(i), nil
	}

	m.altNavActive = false

	if m.altNavOrigMode != m.mode {
		m, _ = m.switchToMode(m.altNavOrigMode)
	}

	m.input.SetValue(m.altNavOrigText)
	m.input.SetCursor(m.altNavOrigCursor)
	m.historyIdx = m.history.Len()
	refreshMatches(&m, false)

	return m, nil
}

// toggleMode switches between eval and control modes.
func (m model) toggleMode() (model, tea.Cmd) {
	if m.mode == modeEval {
		return m.switchToMode(modeCtrl)
	}

	return m.switchToMode(modeEval)
}

// switchToMode switches to mode, keeping each mode's unsubmitted input.
func (m model) switchToMode(mode inputMode) (model, tea.Cmd) {
	if m.mode == modeEval {
		m.evalText = m.input.Value()
		m.evalCursor = m.input.Position()
	} else {
		m.ctrlText = m.input.Value()
		m.ctrlCursor = m.input.Position()
	}

	m.mode = mode

	if mode == modeEval {
		prompt := evalPrompt
		if len(m.pending) > 0 {
			prompt = contPrompt
		}

		m.input.Prompt = promptStyle.Render(prompt)
		m.input.SetValue(m.evalText)
		m.input.SetCursor(m.evalCursor)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
		m.input.SetValue(m.ctrlText)
		m.input.SetCursor(m.ctrlCursor)
	}

	refreshMatches(&m, false)

	return m, nil
}
