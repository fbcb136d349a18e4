package viz

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"go.uber.org/zap"

	"github.com/san-kum/ambient/internal/config"
	"github.com/san-kum/ambient/internal/events"
	"github.com/san-kum/ambient/internal/export"
	"github.com/san-kum/ambient/internal/frame"
	"github.com/san-kum/ambient/internal/loader"
	"github.com/san-kum/ambient/internal/metrics"
	"github.com/san-kum/ambient/internal/motion"
	"github.com/san-kum/ambient/internal/particles"
	"github.com/san-kum/ambient/internal/preload"
)

const (
	width           = 80
	height          = 24
	sidebarWidth    = 34
	headerLines     = 3
	historyCapacity = 240
	idleAfter       = 2 * time.Second
	gifLimit        = 300
)

type TickMsg time.Time

// ConfigMsg carries a reloaded config into a running model.
type ConfigMsg struct{ Config *config.Config }

type preloadMsg struct {
	progress preload.Progress
	done     bool
}

type Options struct {
	Config    *config.Config
	Logger    *zap.Logger
	Resources []preload.Resource
	OutDir    string // where snapshots and recordings are written
}

// Model is the terminal hero: a particle field behind a headline whose
// animation runtime is loaded on first interaction.
type Model struct {
	cfg    *config.Config
	log    *zap.Logger
	field  *particles.Field
	bus    *events.Bus
	loader *loader.Loader
	frames *frame.Loop
	canvas *Canvas
	theme  Theme
	styles styles

	bound     motion.Module
	scrollPct motion.Value
	scroll    float64

	progress   progress.Model
	preload    preload.Progress
	preloading bool
	preloadCh  chan preloadMsg
	resources  []preload.Resource
	ctx        context.Context
	cancel     context.CancelFunc

	width, height int
	running       bool
	showHelp      bool
	recording     bool
	gif           *export.GIFRecorder
	raster        *export.Raster
	energy        []float64
	lastTick      time.Time
	lastMove      time.Time
	spin          int
	message       string
	outDir        string
}

func NewModel(opts Options) (Model, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	triggers, err := cfg.TriggerEvents()
	if err != nil {
		return Model{}, err
	}
	field, err := cfg.NewField()
	if err != nil {
		return Model{}, err
	}
	theme := GetTheme(cfg.Render.Theme)
	if len(cfg.Field.Palette) == 0 || sameColours(cfg.Field.Palette, particles.DefaultPalette()) {
		field.Repaint(theme.Palette...)
	}

	bus := events.NewBus()
	bundle := &motion.Bundle{
		Delay:     cfg.Loader.ImportDelay,
		FailFirst: cfg.Loader.FailFirst,
		FPS:       cfg.Render.FPS,
	}
	ld, err := loader.New(loader.Config{
		Eager:    cfg.Loader.Eager,
		Triggers: triggers,
		Import:   bundle.Import,
		Events:   bus,
		Logger:   log,
	})
	if err != nil {
		return Model{}, err
	}

	canvas := NewCanvas(width-sidebarWidth-4, height-headerLines-2)
	frames := frame.NewLoop()
	if err := field.Attach(frames, canvas); err != nil {
		ld.Close()
		return Model{}, err
	}
	frames.Subscribe(func(float64) {
		if a, ok := ld.Facade().(motion.Animator); ok {
			a.Tick()
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	m := Model{
		cfg:       cfg,
		log:       log,
		field:     field,
		bus:       bus,
		loader:    ld,
		frames:    frames,
		canvas:    canvas,
		theme:     theme,
		styles:    newStyles(theme),
		progress:  progress.New(progress.WithGradient(string(theme.Primary), string(theme.Accent)), progress.WithWidth(sidebarWidth-6)),
		resources: opts.Resources,
		ctx:       ctx,
		cancel:    cancel,
		width:     width,
		height:    height,
		running:   true,
		energy:    make([]float64, 0, historyCapacity),
		outDir:    opts.OutDir,
	}
	m.preload.Total = len(opts.Resources)
	m.preloading = len(opts.Resources) > 0
	if m.preloading {
		m.preloadCh = make(chan preloadMsg, len(opts.Resources)+1)
	}
	return m, nil
}

func sameColours(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

func tick(fps int) tea.Cmd {
	return tea.Tick(time.Second/time.Duration(fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tick(m.cfg.Render.FPS)}
	if m.preloading {
		cmds = append(cmds, m.startPreload(), waitPreload(m.preloadCh))
	}
	return tea.Batch(cmds...)
}

func (m Model) startPreload() tea.Cmd {
	ch, resources, ctx := m.preloadCh, m.resources, m.ctx
	p := &preload.Preloader{
		Concurrency: m.cfg.Preload.Concurrency,
		Timeout:     m.cfg.Preload.Timeout,
		Logger:      m.log,
	}
	return func() tea.Msg {
		final, _ := p.Run(ctx, resources, func(pr preload.Progress) {
			ch <- preloadMsg{progress: pr}
		})
		ch <- preloadMsg{progress: final, done: true}
		return nil
	}
}

func waitPreload(ch chan preloadMsg) tea.Cmd {
	return func() tea.Msg { return <-ch }
}

// Update handles input events and steps the field.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	case ConfigMsg:
		m.applyConfig(msg.Config)
	case preloadMsg:
		m.preload = msg.progress
		if msg.done {
			m.preloading = false
			m.message = fmt.Sprintf("preloaded %d/%d (%d failed)", m.preload.Done-m.preload.Failed, m.preload.Total, m.preload.Failed)
			return m, nil
		}
		return m, waitPreload(m.preloadCh)
	case TickMsg:
		now := time.Time(msg)
		m.step(now)
		return m, tick(m.cfg.Render.FPS)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.Close()
		return m, tea.Quit
	}

	m.bus.Emit(events.KeyDown)
	switch msg.String() {
	case " ":
		m.running = !m.running
	case "?":
		m.showHelp = !m.showHelp
	case "t":
		m.setTheme(NextTheme(m.theme.Name))
	case "r":
		m.reset()
	case "s":
		m.saveSVG()
	case "g":
		m.toggleRecording()
	case "down", "j", "pgdown":
		m.scrollBy(0.1)
	case "up", "k", "pgup":
		m.scrollBy(-0.1)
	}
	return m, nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	switch {
	case msg.Button == tea.MouseButtonWheelDown:
		m.scrollBy(0.05)
		return
	case msg.Button == tea.MouseButtonWheelUp:
		m.scrollBy(-0.05)
		return
	}

	x, y, inside := m.toField(msg.X, msg.Y)
	switch msg.Action {
	case tea.MouseActionMotion:
		m.field.SetPointer(x, y, inside)
		m.lastMove = time.Now()
		m.bus.Emit(events.PointerMove)
	case tea.MouseActionPress:
		m.field.SetPointer(x, y, inside)
		m.lastMove = time.Now()
		m.bus.Emit(events.PointerDown)
	}
}

// toField maps a terminal cell to field coordinates.
func (m *Model) toField(col, row int) (float64, float64, bool) {
	row -= headerLines
	dw, dh := m.canvas.Size()
	b := m.field.Bounds()
	if dw == 0 || dh == 0 {
		return 0, 0, false
	}
	inside := col >= 0 && row >= 0 && col < m.canvas.Width && row < m.canvas.Height
	x := (float64(col)*2 + 1) / dw * b.Width
	y := (float64(row)*4 + 2) / dh * b.Height
	return x, y, inside
}

func (m *Model) scrollBy(d float64) {
	m.scroll = clamp01(m.scroll + d)
	if s, ok := m.loader.Facade().(interface{ Scroll() *motion.ScrollValue }); ok {
		s.Scroll().Set(m.scroll)
	}
	m.bus.Emit(events.Scroll)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	cw, ch := w-sidebarWidth-4, h-headerLines-2
	if cw < 10 {
		cw = 10
	}
	if ch < 5 {
		ch = 5
	}
	m.canvas.Resize(cw, ch)
}

// step advances one frame: the field and the runtime tick through the frame
// loop, then history and recording catch up.
func (m *Model) step(now time.Time) {
	m.spin++
	if !m.running {
		m.lastTick = now
		return
	}
	dt := 1.0
	if !m.lastTick.IsZero() {
		dt = frame.Delta(now.Sub(m.lastTick), m.cfg.Render.FPS)
	}
	m.lastTick = now

	if _, _, active := m.field.Pointer(); active && now.Sub(m.lastMove) > idleAfter {
		x, y, _ := m.field.Pointer()
		m.field.SetPointer(x, y, false)
	}

	m.frames.Tick(dt)
	m.bindScroll()

	m.energy = append(m.energy, metrics.Kinetic(m.field.Particles()))
	if len(m.energy) > historyCapacity {
		m.energy = m.energy[1:]
	}
	if m.recording {
		m.field.Render(m.raster)
		m.gif.Capture(m.raster)
	}
}

// bindScroll builds the scroll indicator against whichever runtime the
// facade currently exposes.
func (m *Model) bindScroll() {
	fac := m.loader.Facade()
	if fac == m.bound {
		return
	}
	m.bound = fac
	sp := fac.Spring(fac.ScrollProgress(), motion.DefaultSpringOptions())
	m.scrollPct = fac.Transform(sp, []float64{0, 1}, []float64{0, 100})
	if s, ok := fac.(interface{ Scroll() *motion.ScrollValue }); ok {
		s.Scroll().Set(m.scroll)
	}
}

func (m *Model) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	if err := m.field.Tune(cfg.Field.Options); err != nil {
		m.message = "config rejected: " + err.Error()
		m.log.Warn("config rejected", zap.Error(err))
		return
	}
	if cfg.Render.Theme != m.theme.Name {
		m.setTheme(GetTheme(cfg.Render.Theme))
	}
	m.cfg.Field.Options = cfg.Field.Options
	m.cfg.Render = cfg.Render
	m.message = "config reloaded"
}

func (m *Model) setTheme(t Theme) {
	m.theme = t
	m.styles = newStyles(t)
	m.field.Repaint(t.Palette...)
	m.progress = progress.New(progress.WithGradient(string(t.Primary), string(t.Accent)), progress.WithWidth(sidebarWidth-6))
}

func (m *Model) reset() {
	f, err := m.cfg.NewField()
	if err != nil {
		m.message = err.Error()
		return
	}
	f.Repaint(m.theme.Palette...)
	if err := f.Attach(m.frames, m.canvas); err != nil {
		m.message = err.Error()
		return
	}
	m.field.Dispose()
	m.field = f
	m.energy = m.energy[:0]
}

func (m *Model) outPath(name string) string {
	if m.outDir == "" {
		return name
	}
	return filepath.Join(m.outDir, name)
}

func (m *Model) saveSVG() {
	path := m.outPath(fmt.Sprintf("ambient-%s.svg", time.Now().Format("20060102-150405")))
	svg := export.SVG(m.field.Particles(), m.field.Bounds(), string(m.theme.Background))
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		m.message = "snapshot failed: " + err.Error()
		return
	}
	m.message = "saved " + path
}

func (m *Model) toggleRecording() {
	if !m.recording {
		b := m.field.Bounds()
		w, h := 320, 160
		if !b.Empty() {
			h = int(float64(w) * b.Height / b.Width)
		}
		m.raster = export.NewRaster(w, h, string(m.theme.Background))
		m.gif = export.NewGIFRecorder(2, gifLimit)
		m.recording = true
		return
	}
	m.recording = false
	path := m.outPath("ambient.gif")
	if err := m.gif.Save(path); err != nil {
		m.message = "recording failed: " + err.Error()
	} else {
		m.message = fmt.Sprintf("saved %s (%d frames)", path, m.gif.Len())
	}
	m.gif, m.raster = nil, nil
}

// Close releases the loader, the field subscription and any preload work.
func (m Model) Close() {
	m.cancel()
	m.loader.Close()
	m.field.Dispose()
}

func (m Model) Loader() *loader.Loader  { return m.loader }
func (m Model) Field() *particles.Field { return m.field }

// View renders the TUI interface.
func (m Model) View() string {
	fac := m.loader.Facade()
	head := renderElement(fac.Component("h1")(headlineProps, m.cfg.Render.Headline), m.styles.headline)
	var tagline string
	for _, el := range fac.Presence(m.scroll < 0.5, fac.Component("p")(taglineProps, m.cfg.Render.Tagline)) {
		tagline = renderElement(el, m.styles.tagline)
	}
	header := head + "\n" + tagline + "\n"

	canvasView := m.canvas.String()
	main := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, m.styles.panel.Render(m.sidebar()))
	view := header + "\n" + main
	if m.showHelp {
		return helpText + "\n" + view
	}
	return view
}

func (m Model) sidebar() string {
	s := m.styles
	var b strings.Builder

	b.WriteString(GradientText("ambient · "+m.theme.Name, string(m.theme.Primary), string(m.theme.Accent)) + "\n")
	state := s.running.Render("RUNNING")
	if !m.running {
		state = s.paused.Render("PAUSED")
	}
	if m.recording {
		state += " " + s.record.Render("● REC")
	}
	b.WriteString(state + "\n\n")

	status := m.loader.Status()
	label := status.String()
	if status == loader.Loading {
		label = AnimatedSpinner(m.spin) + " " + label
	}
	b.WriteString(s.label.Render("Runtime") + s.status[status.String()].Render(label) + "\n")
	b.WriteString(s.label.Render("Attempts") + s.value.Render(fmt.Sprintf("%d", m.loader.Attempts())) + "\n")
	if err := m.loader.Err(); err != nil && status != loader.Loaded {
		b.WriteString(s.label.Render("Last error") + s.status["failed"].Render(truncate(err.Error(), sidebarWidth-16)) + "\n")
	}
	b.WriteString(s.label.Render("Particles") + s.value.Render(fmt.Sprintf("%d", m.field.Len())) + "\n")
	b.WriteString(s.label.Render("Steps") + s.value.Render(fmt.Sprintf("%d", m.field.Steps())) + "\n")
	if _, _, active := m.field.Pointer(); active {
		b.WriteString(s.label.Render("Pointer") + s.value.Render("attracting") + "\n")
	} else {
		b.WriteString(s.label.Render("Pointer") + s.value.Render("idle") + "\n")
	}
	if m.scrollPct != nil {
		b.WriteString(s.label.Render("Scroll") + s.value.Render(fmt.Sprintf("%3.0f%%", m.scrollPct.Get())) + "\n")
	}
	b.WriteString(s.label.Render("Theme") + s.value.Render(m.theme.Name) + "\n")

	if m.preload.Total > 0 {
		b.WriteString("\n" + s.label.Render("Preload") + s.value.Render(fmt.Sprintf("%d/%d", m.preload.Done, m.preload.Total)) + "\n")
		b.WriteString(m.progress.ViewAs(m.preload.Fraction()) + "\n")
	}

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(sidebarWidth-12), asciigraph.Caption("energy"))
		b.WriteString("\n" + s.graph.Render(chart) + "\n")
	}
	if m.message != "" {
		b.WriteString("\n" + s.value.Render(truncate(m.message, sidebarWidth-4)) + "\n")
	}
	b.WriteString(s.help.Render("SP:Pause T:Theme S:Snap\nG:Record R:Reset ?:Help Q:Quit"))
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Mouse    - Attract particles        ║
║  Space    - Pause/Resume             ║
║  ↑/↓ j/k  - Scroll the page          ║
║  T        - Cycle themes             ║
║  S        - Save SVG snapshot        ║
║  G        - Toggle GIF recording     ║
║  R        - Respawn the field        ║
║  Q        - Quit                     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`
