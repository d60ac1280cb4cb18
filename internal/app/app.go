// Package app is the ebiten shell around the editing core: it translates
// platform input into engine frames, owns undo history and file dialogs,
// and renders the document through the software framebuffer plus GPU text.
package app

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/sqweek/dialog"
	"golang.org/x/image/font"

	"quill/internal/config"
	"quill/internal/engine"
	"quill/internal/render"
	"quill/internal/typeface"
	"quill/internal/ui"
	"quill/pkg/quill"
)

const (
	doubleClickWindow = 0.35
	fieldGapDp        = 14
	caretBlinkFrames  = 30
	fileExtension     = "qll"
)

type snapshot struct {
	doc   *quill.Document
	focus int
}

type rect struct {
	x, y, w, h int
}

func (r rect) contains(x, y int) bool {
	return x >= r.x && y >= r.y && x < r.x+r.w && y < r.y+r.h
}

type actionButton struct {
	id    string
	label string
	r     rect
}

// fieldFrame is the on-screen placement of one document field this frame.
type fieldFrame struct {
	index int
	geom  engine.Geometry
	lines []engine.VisualLine
	lineH int
	box   rect
}

type promptKind int

const (
	promptNone promptKind = iota
	promptSetPassword
	promptOpenPassword
)

type App struct {
	cfg   config.Config
	theme ui.Theme
	bank  *typeface.Bank

	session *engine.Session
	doc     *quill.Document
	focus   int

	frameBuffer *render.FrameBuffer
	canvas      *ebiten.Image

	uiScales   []float32
	uiScaleIdx int

	filePath string
	status   string

	frameTick uint64
	clock     float64

	undoHistory []snapshot
	redoHistory []snapshot
	maxHistory  int

	topActions []actionButton
	layout     ui.Layout
	frames     []fieldFrame

	compressionEnabled bool
	password           string

	prompt       promptKind
	promptInput  string
	promptTarget string

	lastClickTime float64
	lastClickX    int
	lastClickY    int

	scrollY float64
	maxY    float64

	screenW int
	screenH int
}

func New(cfg config.Config) *App {
	scales := []float32{1.0, 1.25, 1.5, 2.0}
	idx := 0
	for i, s := range scales {
		if s == cfg.Editor.UIScale {
			idx = i
		}
	}
	a := &App{
		cfg:                cfg,
		theme:              ui.DefaultTheme(),
		bank:               typeface.NewBank(),
		session:            engine.NewSession(nil),
		uiScales:           scales,
		uiScaleIdx:         idx,
		status:             "Untitled document",
		maxHistory:         200,
		undoHistory:        make([]snapshot, 0, 64),
		redoHistory:        make([]snapshot, 0, 64),
		topActions:         make([]actionButton, 0, 12),
		compressionEnabled: cfg.Storage.Compression,
	}
	a.doc = a.newDocument()
	return a
}

// newDocument builds an empty document with the configured field limits.
func (a *App) newDocument() *quill.Document {
	doc := quill.NewDocument("", "Untitled")
	doc.Fields[0].Buffer = quill.NewBuffer("", a.cfg.Editor.TitleLimit)
	doc.Fields[1].Buffer = quill.NewBuffer("", a.cfg.Editor.BodyLimit)
	return doc
}

func (a *App) Run() error {
	ebiten.SetWindowTitle("Quill")
	ebiten.SetWindowSize(a.cfg.Window.Width, a.cfg.Window.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(900, 560, -1, -1)
	if err := ebiten.RunGame(a); err != nil {
		return fmt.Errorf("run game loop: %w", err)
	}
	return nil
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth < 900 {
		outsideWidth = 900
	}
	if outsideHeight < 560 {
		outsideHeight = 560
	}
	a.screenW = outsideWidth
	a.screenH = outsideHeight
	return outsideWidth, outsideHeight
}

func (a *App) scale() float32 {
	return a.uiScales[a.uiScaleIdx]
}

func (a *App) Update() error {
	a.frameTick++
	dt := 1.0 / 60.0
	a.clock += dt

	ctrl := ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyMeta)
	shift := ebiten.IsKeyPressed(ebiten.KeyShift)

	if a.prompt != promptNone {
		a.updatePrompt(ctrl)
		return nil
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	_, wheelY := ebiten.Wheel()
	if wheelY != 0 {
		a.scrollY -= wheelY * 42
	}

	a.computeFrames()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		if id, ok := a.actionAt(x, y); ok {
			a.invokeAction(id)
			return nil
		}
	}

	if ctrl && inpututil.IsKeyJustPressed(ebiten.KeyZ) {
		a.undo()
		return nil
	}
	if ctrl && inpututil.IsKeyJustPressed(ebiten.KeyY) {
		a.redo()
		return nil
	}
	if ctrl && inpututil.IsKeyJustPressed(ebiten.KeyN) {
		a.invokeAction("new")
		return nil
	}
	if ctrl && inpututil.IsKeyJustPressed(ebiten.KeyO) {
		a.invokeAction("open")
		return nil
	}
	if ctrl && inpututil.IsKeyJustPressed(ebiten.KeyS) {
		if shift {
			a.invokeAction("save_as")
		} else {
			a.invokeAction("save")
		}
		return nil
	}
	if ctrl && inpututil.IsKeyJustPressed(ebiten.KeyE) {
		a.prompt = promptSetPassword
		a.promptInput = a.password
		return nil
	}
	if ctrl && inpututil.IsKeyJustPressed(ebiten.KeyG) {
		a.compressionEnabled = !a.compressionEnabled
		if a.compressionEnabled {
			a.status = "Compression enabled"
		} else {
			a.status = "Compression disabled"
		}
	}
	if ctrl && (inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyKPAdd)) {
		a.bumpUIScale(1)
	}
	if ctrl && (inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract)) {
		a.bumpUIScale(-1)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		if shift {
			a.moveFocus(-1, true)
		} else {
			a.moveFocus(1, true)
		}
		return nil
	}
	if ctrl && (inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyKPEnter)) {
		a.pushUndoSnapshot()
		a.focus = a.doc.InsertBodyAfter(a.focus, "", nil)
		a.session.SetState(a.fieldID(a.focus), engine.EditState{Caret: 0, SelectionStart: -1, SelectionEnd: -1})
		a.status = "Block inserted"
		return nil
	}
	if ctrl && inpututil.IsKeyJustPressed(ebiten.KeyD) {
		a.removeFocusedBlock()
		return nil
	}

	in := a.buildInput(ctrl, shift, dt)

	if in.MousePressed || in.MouseDoubleClick {
		if idx, ok := a.fieldAt(int(in.MouseX), int(in.MouseY)); ok {
			a.focus = idx
		}
	}

	field := &a.doc.Fields[a.focus]
	frame := a.frames[a.focus]
	metrics, _ := a.fieldMetrics(*field)

	mayMutate := len(in.Chars) > 0 || in.Enter ||
		in.Backspace || in.BackspaceHeld || in.Delete || in.DeleteHeld ||
		(ctrl && inpututil.IsKeyJustPressed(ebiten.KeyX)) ||
		(ctrl && inpututil.IsKeyJustPressed(ebiten.KeyV))
	if mayMutate {
		a.pushUndoSnapshot()
	}

	res := a.session.Update(a.fieldID(a.focus), field.Buffer, &field.Spans,
		in, frame.geom, metrics, engine.Options{SingleLine: field.SingleLine})

	if mayMutate && !res.Changed {
		a.popUndoSnapshot()
	}
	if res.Changed {
		a.doc.Touch()
		if field.Kind == quill.FieldKindTitle {
			a.doc.Metadata.Title = field.Buffer.String()
		}
	}

	if res.StyleToggle != 0 {
		a.applyStyleToggle(res.StyleToggle)
	}

	if res.NavigatedPastStart {
		a.chainFocus(-1, res.CaretX)
	}
	if res.NavigatedPastEnd {
		a.chainFocus(1, res.CaretX)
	}

	a.session.Sweep(a.frameTick)
	a.clampScroll()
	return nil
}

// buildInput translates one ebiten frame into the engine's input record
// for the focused field. Double clicks are detected here from click
// timing; the engine derives triple clicks on its own.
func (a *App) buildInput(ctrl, shift bool, dt float64) engine.Input {
	mx, my := ebiten.CursorPosition()
	pressed := inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)

	double := false
	if pressed {
		dx := mx - a.lastClickX
		dy := my - a.lastClickY
		if a.clock-a.lastClickTime <= doubleClickWindow && dx*dx+dy*dy < 25 {
			double = true
			pressed = false
		}
		a.lastClickTime = a.clock
		a.lastClickX = mx
		a.lastClickY = my
	}

	var chars []rune
	if !ctrl {
		for _, r := range ebiten.AppendInputChars(nil) {
			if r < 0x20 || r == 0x7F || !utf8.ValidRune(r) {
				continue
			}
			chars = append(chars, r)
		}
	}

	return engine.Input{
		Frame:     a.frameTick,
		DeltaTime: dt,
		Time:      a.clock,

		Chars: chars,
		Enter: !ctrl && (inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyKPEnter)),

		Backspace:     inpututil.IsKeyJustPressed(ebiten.KeyBackspace),
		BackspaceHeld: ebiten.IsKeyPressed(ebiten.KeyBackspace),
		Delete:        inpututil.IsKeyJustPressed(ebiten.KeyDelete),
		DeleteHeld:    ebiten.IsKeyPressed(ebiten.KeyDelete),

		Left:  inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft),
		Right: inpututil.IsKeyJustPressed(ebiten.KeyArrowRight),
		Up:    inpututil.IsKeyJustPressed(ebiten.KeyArrowUp),
		Down:  inpututil.IsKeyJustPressed(ebiten.KeyArrowDown),
		Home:  inpututil.IsKeyJustPressed(ebiten.KeyHome),
		End:   inpututil.IsKeyJustPressed(ebiten.KeyEnd),

		Ctrl:  ctrl,
		Shift: shift,

		SelectAll: ctrl && inpututil.IsKeyJustPressed(ebiten.KeyA),
		CopyDown:  ctrl && ebiten.IsKeyPressed(ebiten.KeyC),
		CutDown:   ctrl && ebiten.IsKeyPressed(ebiten.KeyX),
		PasteDown: ctrl && ebiten.IsKeyPressed(ebiten.KeyV),

		ToggleBold:      ctrl && inpututil.IsKeyJustPressed(ebiten.KeyB),
		ToggleItalic:    ctrl && inpututil.IsKeyJustPressed(ebiten.KeyI),
		ToggleUnderline: ctrl && inpututil.IsKeyJustPressed(ebiten.KeyU),

		MouseX:           float64(mx),
		MouseY:           float64(my),
		MousePressed:     pressed,
		MouseDown:        ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		MouseDoubleClick: double,
	}
}

func (a *App) fieldID(index int) engine.WidgetID {
	return engine.WidgetID(a.doc.Fields[index].ID)
}

// moveFocus shifts focus by delta fields, wrapping at the ends. atStart
// places the caret at the field start, otherwise at its end.
func (a *App) moveFocus(delta int, atStart bool) {
	next := a.focus + delta
	if next < 0 {
		next = len(a.doc.Fields) - 1
	}
	if next >= len(a.doc.Fields) {
		next = 0
	}
	a.focus = next
	caret := 0
	if !atStart {
		caret = a.doc.Fields[next].Buffer.Len()
	}
	a.session.SetState(a.fieldID(next), engine.EditState{Caret: caret, SelectionStart: -1, SelectionEnd: -1})
}

// chainFocus moves focus to the adjacent field when vertical navigation
// runs off a field's edge, landing the caret at the same pixel X on the
// nearest line of the new field.
func (a *App) chainFocus(delta int, caretX float64) {
	next := a.focus + delta
	if next < 0 || next >= len(a.doc.Fields) {
		return
	}
	a.focus = next
	field := a.doc.Fields[next]
	metrics, _ := a.fieldMetrics(field)
	frame := a.frames[next]
	line := frame.lines[0]
	if delta < 0 {
		line = frame.lines[len(frame.lines)-1]
	}
	caret := engine.OffsetForX(field.Buffer.Runes(), line, caretX, metrics)
	a.session.SetState(a.fieldID(next), engine.EditState{Caret: caret, SelectionStart: -1, SelectionEnd: -1})
}

func (a *App) removeFocusedBlock() {
	if a.focus <= 0 {
		return
	}
	a.pushUndoSnapshot()
	id := a.fieldID(a.focus)
	if a.doc.RemoveField(a.focus) {
		a.session.Remove(id)
		if a.focus >= len(a.doc.Fields) {
			a.focus = len(a.doc.Fields) - 1
		}
		a.doc.Touch()
		a.status = "Block removed"
	} else {
		a.popUndoSnapshot()
		a.status = "Cannot remove the last block"
	}
}

func (a *App) applyStyleToggle(mask quill.StyleMask) {
	st, ok := a.session.State(a.fieldID(a.focus))
	if !ok || st.SelectionStart < 0 {
		return
	}
	lo, hi := st.SelectionStart, st.SelectionEnd
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == hi {
		return
	}
	a.pushUndoSnapshot()
	field := &a.doc.Fields[a.focus]
	for _, flag := range []quill.StyleMask{quill.StyleBold, quill.StyleItalic, quill.StyleUnderline} {
		if mask.Has(flag) {
			field.Spans = quill.ToggleStyle(field.Spans, lo, hi, flag)
		}
	}
	a.doc.Touch()
	a.status = "Toggled " + mask.String()
}

func (a *App) fieldAt(x, y int) (int, bool) {
	for _, f := range a.frames {
		if f.box.contains(x, y) {
			return f.index, true
		}
	}
	return 0, false
}

func (a *App) fieldSize(f quill.Field) int {
	if f.Kind == quill.FieldKindTitle {
		return a.cfg.Editor.FontSizePt + 4
	}
	return a.cfg.Editor.FontSizePt
}

// fieldFace returns the face for a styled run inside a field. Titles
// always render bold.
func (a *App) fieldFace(f quill.Field, style quill.StyleMask) font.Face {
	bold := style.Has(quill.StyleBold) || f.Kind == quill.FieldKindTitle
	return a.bank.Face(a.fieldSize(f), bold, style.Has(quill.StyleItalic), a.scale())
}

// fieldMetrics returns the measurement adapter and pixel line height for
// a field. Caret and hit-test math always use the field's base face so
// positions stay stable across styled runs.
func (a *App) fieldMetrics(f quill.Field) (typeface.Metrics, int) {
	face := a.fieldFace(f, 0)
	gap := int(4 * a.scale())
	if gap < 2 {
		gap = 2
	}
	return typeface.NewMetrics(face), typeface.LineHeight(face) + gap
}

// computeFrames lays the document fields down the page, one stacked block
// per field, and records their geometry for hit testing and drawing.
func (a *App) computeFrames() {
	w, h := a.screenW, a.screenH
	if w == 0 || h == 0 {
		w, h = a.cfg.Window.Width, a.cfg.Window.Height
	}
	a.layout = ui.ComputeLayout(w, h, a.theme, a.scale())

	a.frames = a.frames[:0]
	gap := int(float32(fieldGapDp) * a.scale())
	y := float64(a.layout.ContentY) - a.scrollY
	for i, f := range a.doc.Fields {
		metrics, lineH := a.fieldMetrics(f)
		lines := engine.WrapLines(f.Buffer.Runes(), float64(a.layout.ContentW), metrics)
		height := len(lines) * lineH
		a.frames = append(a.frames, fieldFrame{
			index: i,
			geom: engine.Geometry{
				X:          float64(a.layout.ContentX),
				Y:          y,
				Width:      float64(a.layout.ContentW),
				LineHeight: float64(lineH),
			},
			lines: lines,
			lineH: lineH,
			box:   rect{x: a.layout.ContentX, y: int(y), w: a.layout.ContentW, h: height},
		})
		y += float64(height + gap)
	}
	a.maxY = y + a.scrollY - float64(a.layout.ContentY) - float64(a.layout.ContentH)
	if a.maxY < 0 {
		a.maxY = 0
	}
}

func (a *App) clampScroll() {
	if a.scrollY < 0 {
		a.scrollY = 0
	}
	if a.scrollY > a.maxY {
		a.scrollY = a.maxY
	}
}

func (a *App) pushUndoSnapshot() {
	a.undoHistory = append(a.undoHistory, snapshot{doc: a.doc.Clone(), focus: a.focus})
	if len(a.undoHistory) > a.maxHistory {
		a.undoHistory = a.undoHistory[1:]
	}
	a.redoHistory = a.redoHistory[:0]
}

// popUndoSnapshot discards a speculative snapshot that turned out not to
// precede any mutation.
func (a *App) popUndoSnapshot() {
	if len(a.undoHistory) > 0 {
		a.undoHistory = a.undoHistory[:len(a.undoHistory)-1]
	}
}

func (a *App) undo() {
	if len(a.undoHistory) == 0 {
		a.status = "Nothing to undo"
		return
	}
	last := a.undoHistory[len(a.undoHistory)-1]
	a.undoHistory = a.undoHistory[:len(a.undoHistory)-1]
	a.redoHistory = append(a.redoHistory, snapshot{doc: a.doc.Clone(), focus: a.focus})
	a.restoreSnapshot(last)
	a.status = "Undid last edit"
}

func (a *App) redo() {
	if len(a.redoHistory) == 0 {
		a.status = "Nothing to redo"
		return
	}
	last := a.redoHistory[len(a.redoHistory)-1]
	a.redoHistory = a.redoHistory[:len(a.redoHistory)-1]
	a.undoHistory = append(a.undoHistory, snapshot{doc: a.doc.Clone(), focus: a.focus})
	a.restoreSnapshot(last)
	a.status = "Redid last edit"
}

func (a *App) restoreSnapshot(s snapshot) {
	a.doc = s.doc
	a.focus = s.focus
	if a.focus >= len(a.doc.Fields) {
		a.focus = len(a.doc.Fields) - 1
	}
	// Stale per-field carets clamp on the next engine frame.
}

func (a *App) actionAt(x, y int) (string, bool) {
	for _, btn := range a.topActions {
		if btn.r.contains(x, y) {
			return btn.id, true
		}
	}
	return "", false
}

func (a *App) invokeAction(id string) {
	switch id {
	case "new":
		a.pushUndoSnapshot()
		a.doc = a.newDocument()
		a.session = engine.NewSession(nil)
		a.focus = 0
		a.filePath = ""
		a.scrollY = 0
		a.status = "New document"
	case "open":
		if err := a.openDocumentDialog(); err != nil {
			a.status = "Open failed: " + err.Error()
		}
	case "save":
		if err := a.saveDocument(false); err != nil {
			a.status = "Save failed: " + err.Error()
		}
	case "save_as":
		if err := a.saveDocument(true); err != nil {
			a.status = "Save As failed: " + err.Error()
		}
	case "undo":
		a.undo()
	case "redo":
		a.redo()
	case "add_block":
		a.pushUndoSnapshot()
		a.focus = a.doc.InsertBodyAfter(a.focus, "", nil)
		a.status = "Block inserted"
	case "remove_block":
		a.removeFocusedBlock()
	case "scale_down":
		a.bumpUIScale(-1)
	case "scale_up":
		a.bumpUIScale(1)
	}
}

func (a *App) bumpUIScale(delta int) {
	idx := a.uiScaleIdx + delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(a.uiScales) {
		idx = len(a.uiScales) - 1
	}
	a.uiScaleIdx = idx
	a.status = fmt.Sprintf("UI scale %.0f%%", a.uiScales[idx]*100)
}

func (a *App) openDocumentDialog() error {
	path, err := dialog.File().Filter("Quill documents", fileExtension).Title("Open document").Load()
	if err != nil {
		if errors.Is(err, dialog.ErrCancelled) {
			return nil
		}
		return err
	}
	doc, err := quill.Load(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, quill.ErrPasswordRequired) {
			a.prompt = promptOpenPassword
			a.promptInput = ""
			a.promptTarget = path
			a.status = "Encrypted document: enter password"
			return nil
		}
		return err
	}
	a.adoptDocument(doc, path)
	return nil
}

func (a *App) adoptDocument(doc *quill.Document, path string) {
	a.doc = doc
	a.session = engine.NewSession(nil)
	a.focus = 0
	a.filePath = path
	a.scrollY = 0
	a.undoHistory = a.undoHistory[:0]
	a.redoHistory = a.redoHistory[:0]
	a.status = "Opened " + filepath.Base(path)
}

func (a *App) saveDocument(saveAs bool) error {
	path := a.filePath
	if saveAs || path == "" {
		chosen, err := dialog.File().Filter("Quill documents", fileExtension).Title("Save document").Save()
		if err != nil {
			if errors.Is(err, dialog.ErrCancelled) {
				return nil
			}
			return err
		}
		if !strings.HasSuffix(strings.ToLower(chosen), "."+fileExtension) {
			chosen += "." + fileExtension
		}
		path = chosen
	}
	opts := quill.SaveOptions{Compression: a.compressionEnabled, Password: a.password}
	if err := quill.SaveWithOptions(path, a.doc, opts); err != nil {
		return err
	}
	a.filePath = path
	a.status = "Saved " + filepath.Base(path)
	return nil
}

// updatePrompt runs the modal one-line password capture used both for
// setting the save password and for opening encrypted files.
func (a *App) updatePrompt(ctrl bool) {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		a.prompt = promptNone
		a.promptInput = ""
		a.promptTarget = ""
		a.status = "Cancelled"
		return
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) && len(a.promptInput) > 0 {
		_, size := utf8.DecodeLastRuneInString(a.promptInput)
		if size <= 0 {
			size = 1
		}
		a.promptInput = a.promptInput[:len(a.promptInput)-size]
	}
	if ctrl && inpututil.IsKeyJustPressed(ebiten.KeyV) {
		if clip, err := (engine.SystemClipboard{}).ReadAll(); err == nil && clip != "" {
			a.promptInput += clip
		}
	}
	for _, r := range ebiten.AppendInputChars(nil) {
		if r < 0x20 || r == 0x7F || !utf8.ValidRune(r) {
			continue
		}
		a.promptInput += string(r)
	}
	if len(a.promptInput) > 128 {
		a.promptInput = a.promptInput[:128]
	}

	if !inpututil.IsKeyJustPressed(ebiten.KeyEnter) && !inpututil.IsKeyJustPressed(ebiten.KeyKPEnter) {
		return
	}
	switch a.prompt {
	case promptSetPassword:
		a.password = a.promptInput
		if a.password == "" {
			a.status = "Encryption disabled"
		} else {
			a.status = "Encryption password set"
		}
		a.prompt = promptNone
		a.promptInput = ""
	case promptOpenPassword:
		doc, err := quill.LoadWithOptions(filepath.Clean(a.promptTarget), quill.LoadOptions{Password: a.promptInput})
		if err != nil {
			if errors.Is(err, quill.ErrInvalidPassword) || errors.Is(err, quill.ErrPasswordRequired) {
				a.status = "Incorrect password, try again"
				a.promptInput = ""
				return
			}
			a.status = "Open failed: " + err.Error()
			a.prompt = promptNone
			a.promptInput = ""
			a.promptTarget = ""
			return
		}
		a.password = a.promptInput
		a.adoptDocument(doc, a.promptTarget)
		a.prompt = promptNone
		a.promptInput = ""
		a.promptTarget = ""
	}
}

func (a *App) Draw(screen *ebiten.Image) {
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	if a.frameBuffer == nil || a.frameBuffer.W != w || a.frameBuffer.H != h {
		a.frameBuffer = render.NewFrameBuffer(w, h)
		a.canvas = ebiten.NewImage(w, h)
	}

	ui.DrawShell(a.frameBuffer, a.theme, a.scale())
	a.computeFrames()

	menuFace := a.bank.Face(11, false, false, a.scale())
	statusFace := a.bank.Face(10, false, false, a.scale())

	a.layoutTopActions(menuFace)
	a.drawFieldDecorations()

	a.canvas.WritePixels(a.frameBuffer.Pixels)
	screen.DrawImage(a.canvas, nil)

	a.drawTopActionLabels(screen, menuFace)
	a.drawFieldText(screen)
	a.drawStatusBar(screen, statusFace, h)
	a.drawPrompt(screen, statusFace, h)
}

func (a *App) layoutTopActions(face font.Face) {
	a.topActions = a.topActions[:0]
	x := 10
	y := 4
	h := a.layout.MenuH - 8
	if h < 24 {
		h = 24
	}
	buttons := []actionButton{
		{id: "new", label: "New"},
		{id: "open", label: "Open"},
		{id: "save", label: "Save"},
		{id: "save_as", label: "Save As"},
		{id: "undo", label: "Undo"},
		{id: "redo", label: "Redo"},
		{id: "add_block", label: "Block+"},
		{id: "remove_block", label: "Block-"},
		{id: "scale_down", label: "A-"},
		{id: "scale_up", label: "A+"},
	}
	mx, my := ebiten.CursorPosition()
	for _, btn := range buttons {
		tw := typeface.MeasureString(face, btn.label)
		w := tw + 28
		if w < 56 {
			w = 56
		}
		r := rect{x: x, y: y, w: w, h: h}
		bg := color.RGBA{R: 0x4A, G: 0x50, B: 0x6E, A: 0xFF}
		if r.contains(mx, my) {
			bg = color.RGBA{R: 0x5C, G: 0x63, B: 0x85, A: 0xFF}
		}
		a.frameBuffer.FillRect(r.x, r.y, r.w, r.h, bg)
		a.frameBuffer.StrokeRect(r.x, r.y, r.w, r.h, 1, color.RGBA{R: 0x28, G: 0x2C, B: 0x3E, A: 0xFF})
		btn.r = r
		a.topActions = append(a.topActions, btn)
		x += w + 8
	}
}

func (a *App) drawTopActionLabels(screen *ebiten.Image, face font.Face) {
	labelColor := color.RGBA{R: 0xF2, G: 0xF3, B: 0xF8, A: 0xFF}
	ascent := face.Metrics().Ascent.Round()
	descent := face.Metrics().Descent.Round()
	for _, btn := range a.topActions {
		tw := typeface.MeasureString(face, btn.label)
		x := btn.r.x + (btn.r.w-tw)/2
		baseline := btn.r.y + (btn.r.h+ascent+descent)/2 - descent
		text.Draw(screen, btn.label, face, x, baseline, labelColor)
	}
}

// contentClip reports whether a row band is inside the visible page area.
// Used by the GPU text pass; framebuffer drawing relies on the clip band
// instead.
func (a *App) contentClip(y, h int) bool {
	return y+h > a.layout.ContentY && y < a.layout.ContentY+a.layout.ContentH
}

// drawFieldDecorations paints everything that sits behind the glyphs:
// focus ring, highlight and code backgrounds, selection, and the caret.
func (a *App) drawFieldDecorations() {
	codeBg := color.RGBA{R: 0xEE, G: 0xEE, B: 0xE9, A: 0xFF}
	a.frameBuffer.SetClipBand(a.layout.ContentY, a.layout.ContentY+a.layout.ContentH)
	defer a.frameBuffer.ResetClip()
	for _, frame := range a.frames {
		field := a.doc.Fields[frame.index]
		metrics, _ := a.fieldMetrics(field)
		textRunes := field.Buffer.Runes()

		if frame.index == a.focus {
			a.frameBuffer.StrokeRect(frame.box.x-4, frame.box.y-3, frame.box.w+8, frame.box.h+6, 1, a.theme.InkFaint)
		}

		st, hasState := a.session.State(a.fieldID(frame.index))
		selLo, selHi := -1, -1
		if hasState && st.SelectionStart >= 0 {
			selLo, selHi = st.SelectionStart, st.SelectionEnd
			if selLo > selHi {
				selLo, selHi = selHi, selLo
			}
		}

		for row, line := range frame.lines {
			rowY := frame.box.y + row*frame.lineH

			for _, seg := range quill.SplitSegments(field.Spans, line.Start, line.End()) {
				if !seg.Style.Has(quill.StyleHighlight) && !seg.Style.Has(quill.StyleCode) {
					continue
				}
				x0 := frame.box.x + int(engine.LineOffsetX(textRunes, line, seg.Start, metrics))
				x1 := frame.box.x + int(engine.LineOffsetX(textRunes, line, seg.End(), metrics))
				bg := a.theme.Highlight
				if !seg.Style.Has(quill.StyleHighlight) {
					bg = codeBg
				}
				a.frameBuffer.FillRect(x0, rowY, x1-x0, frame.lineH, bg)
			}

			if selLo < selHi && selLo < line.End() && selHi > line.Start {
				from := selLo
				if from < line.Start {
					from = line.Start
				}
				to := selHi
				if to > line.End() {
					to = line.End()
				}
				x0 := frame.box.x + int(engine.LineOffsetX(textRunes, line, from, metrics))
				x1 := frame.box.x + int(engine.LineOffsetX(textRunes, line, to, metrics))
				if x1 <= x0 {
					x1 = x0 + 4
				}
				a.frameBuffer.FillRect(x0, rowY, x1-x0, frame.lineH, a.theme.Selection)
			}
		}

		if frame.index == a.focus && hasState && (a.frameTick/caretBlinkFrames)%2 == 0 {
			li := engine.LineIndexFor(frame.lines, textRunes, st.Caret)
			cx := frame.box.x + int(engine.LineOffsetX(textRunes, frame.lines[li], st.Caret, metrics))
			cy := frame.box.y + li*frame.lineH
			a.frameBuffer.FillRect(cx, cy+1, 2, frame.lineH-2, a.theme.Caret)
		}
	}
}

// drawFieldText draws the styled glyph runs over the composited chrome,
// segment by segment, with underline and strikethrough rules on top.
func (a *App) drawFieldText(screen *ebiten.Image) {
	for _, frame := range a.frames {
		field := a.doc.Fields[frame.index]
		metrics, _ := a.fieldMetrics(field)
		baseFace := a.fieldFace(field, 0)
		ascent := baseFace.Metrics().Ascent.Round()
		textRunes := field.Buffer.Runes()

		for row, line := range frame.lines {
			rowY := frame.box.y + row*frame.lineH
			if !a.contentClip(rowY, frame.lineH) || line.Length == 0 {
				continue
			}
			baseline := rowY + ascent + 1

			for _, seg := range quill.SplitSegments(field.Spans, line.Start, line.End()) {
				runText := strings.TrimSuffix(string(textRunes[seg.Start:seg.End()]), "\n")
				if runText == "" {
					continue
				}
				x0 := frame.box.x + int(engine.LineOffsetX(textRunes, line, seg.Start, metrics))
				x1 := frame.box.x + int(engine.LineOffsetX(textRunes, line, seg.End(), metrics))
				ink := a.theme.Ink
				if seg.Style.Has(quill.StyleCode) {
					ink = a.theme.Accent
				}
				face := a.fieldFace(field, seg.Style)
				text.Draw(screen, runText, face, x0, baseline, ink)

				if seg.Style.Has(quill.StyleUnderline) {
					ebitenutil.DrawLine(screen, float64(x0), float64(baseline+2), float64(x1), float64(baseline+2), ink)
				}
				if seg.Style.Has(quill.StyleStrikethrough) {
					midY := float64(baseline - ascent/3)
					ebitenutil.DrawLine(screen, float64(x0), midY, float64(x1), midY, ink)
				}
			}
		}
	}
}

func (a *App) drawStatusBar(screen *ebiten.Image, face font.Face, h int) {
	name := a.filePath
	if name == "" {
		name = "Untitled"
	} else {
		name = filepath.Base(name)
	}
	caret := 0
	if st, ok := a.session.State(a.fieldID(a.focus)); ok {
		caret = st.Caret
	}
	enc := "plain"
	if a.password != "" {
		enc = "encrypted"
	}
	if a.compressionEnabled {
		enc += "+zlib"
	}
	ink := color.RGBA{R: 0x3A, G: 0x3D, B: 0x49, A: 0xFF}
	left := fmt.Sprintf("[ Block %d/%d ] [ Caret %d ] [ %s ]", a.focus+1, len(a.doc.Fields), caret, enc)
	right := fmt.Sprintf("[ %s ] [ %s ]", name, a.status)
	text.Draw(screen, left, face, 12, h-10, ink)
	text.Draw(screen, right, face, 360, h-10, ink)
}

func (a *App) drawPrompt(screen *ebiten.Image, face font.Face, h int) {
	if a.prompt == promptNone {
		return
	}
	label := "Set save password (Enter to apply, Esc to cancel): "
	if a.prompt == promptOpenPassword {
		label = "Password for " + filepath.Base(a.promptTarget) + ": "
	}
	masked := strings.Repeat("*", utf8.RuneCountInString(a.promptInput))
	if (a.frameTick/caretBlinkFrames)%2 == 0 {
		masked += "_"
	}
	text.Draw(screen, label+masked, face, 12, h-28, color.RGBA{R: 0x1B, G: 0x4F, B: 0xA8, A: 0xFF})
}
