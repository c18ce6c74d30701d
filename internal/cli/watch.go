package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/followviz/followviz/pkg/config"
	"github.com/followviz/followviz/pkg/graph"
	"github.com/followviz/followviz/pkg/layout"
	"github.com/followviz/followviz/pkg/view"
)

// watchCommand creates the interactive watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		configPath string
		interval   time.Duration
		svgOut     string
		noCache    bool
		src        sourceFlags
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the topology interactively in the terminal",
		Long: `Open a terminal view of the follower topology that refreshes on demand
or on an interval. View mode, layout style, label field, and clustering can
be changed live; every change re-renders the full graph. With --svg-out the
latest rendered SVG is mirrored to a file on every refresh.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if src.url == "" {
				src.url = cfg.SourceURL
			}
			if interval == 0 {
				interval = cfg.RefreshInterval.Std()
			}

			runner, err := c.newRunner(cmd.Context(), src.newSource(), cfg, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			ctrl := view.NewController(runner, nil, c.Logger)
			model := newWatchModel(cmd.Context(), ctrl, interval, svgOut)
			p := tea.NewProgram(model, tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().DurationVar(&interval, "interval", 0, "auto-refresh interval (default from config)")
	cmd.Flags().StringVar(&svgOut, "svg-out", "", "mirror the latest rendered SVG to this file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the pipeline cache")
	src.register(cmd, config.Default())

	return cmd
}

// =============================================================================
// watchModel - Interactive topology view
// =============================================================================

type refreshedMsg struct{}

type autoTickMsg struct{}

// watchModel is the bubbletea model for the watch command.
type watchModel struct {
	ctx      context.Context
	ctrl     *view.Controller
	interval time.Duration
	svgOut   string

	searching   bool
	searchInput string
	autoRefresh bool
	refreshing  bool
	quitting    bool
}

func newWatchModel(ctx context.Context, ctrl *view.Controller, interval time.Duration, svgOut string) watchModel {
	return watchModel{ctx: ctx, ctrl: ctrl, interval: interval, svgOut: svgOut}
}

func (m watchModel) Init() tea.Cmd {
	return m.refreshCmd(false)
}

// refreshCmd runs one pipeline pass off the UI goroutine.
func (m watchModel) refreshCmd(force bool) tea.Cmd {
	return func() tea.Msg {
		if force {
			_ = m.ctrl.ForceRefresh(m.ctx)
		} else {
			_ = m.ctrl.Refresh(m.ctx)
		}
		return refreshedMsg{}
	}
}

// stateCmd applies a state mutation, which re-renders as a side effect.
func (m watchModel) stateCmd(apply func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		_ = apply(m.ctx)
		return refreshedMsg{}
	}
}

func (m watchModel) autoTickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return autoTickMsg{} })
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshedMsg:
		m.refreshing = false
		m.writeSVG()
		return m, nil

	case autoTickMsg:
		if !m.autoRefresh {
			return m, nil
		}
		m.refreshing = true
		return m, tea.Batch(m.refreshCmd(true), m.autoTickCmd())

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}

		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.refreshing = true
			return m, m.refreshCmd(false)
		case "R":
			m.refreshing = true
			return m, m.refreshCmd(true)
		case "v":
			next := nextViewMode(m.ctrl.State().ViewMode)
			m.refreshing = true
			return m, m.stateCmd(func(ctx context.Context) error {
				return m.ctrl.SetViewMode(ctx, next)
			})
		case "s":
			next := nextStyle(m.ctrl.State().Style)
			m.refreshing = true
			return m, m.stateCmd(func(ctx context.Context) error {
				return m.ctrl.SetStyle(ctx, next)
			})
		case "l":
			next := nextLabel(m.ctrl.State().Label)
			m.refreshing = true
			return m, m.stateCmd(func(ctx context.Context) error {
				return m.ctrl.SetLabel(ctx, next)
			})
		case "g":
			m.refreshing = true
			return m, m.stateCmd(m.ctrl.ToggleClusters)
		case "/":
			m.searching = true
			m.searchInput = m.ctrl.State().Search
			return m, nil
		case "a":
			m.autoRefresh = !m.autoRefresh
			if m.autoRefresh {
				return m, m.autoTickCmd()
			}
			return m, nil
		}
	}
	return m, nil
}

func (m watchModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		query := m.searchInput
		m.refreshing = true
		return m, m.stateCmd(func(ctx context.Context) error {
			return m.ctrl.SetSearch(ctx, query)
		})
	case "esc":
		m.searching = false
		m.searchInput = ""
		return m, nil
	case "backspace":
		if len(m.searchInput) > 0 {
			m.searchInput = m.searchInput[:len(m.searchInput)-1]
		}
		return m, nil
	default:
		if msg.Type == tea.KeyRunes {
			m.searchInput += string(msg.Runes)
		}
		return m, nil
	}
}

// writeSVG mirrors the latest rendered document to disk, if requested.
func (m watchModel) writeSVG() {
	if m.svgOut == "" {
		return
	}
	snap := m.ctrl.Snapshot()
	if snap == nil || len(snap.SVG) == 0 {
		return
	}
	_ = os.WriteFile(m.svgOut, snap.SVG, 0o644)
}

func (m watchModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(StyleTitle.Render("Followviz"))
	if m.refreshing {
		b.WriteString("  " + StyleDim.Render("refreshing..."))
	}
	b.WriteString("\n")
	b.WriteString(m.stateLine())
	b.WriteString("\n\n")

	snap := m.ctrl.Snapshot()
	if snap == nil {
		b.WriteString(StyleDim.Render("  waiting for first render..."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.nodeTable(snap))
		b.WriteString("\n")
		b.WriteString(m.statsLine(snap))
		b.WriteString("\n")
	}

	if err := m.ctrl.Err(); err != nil {
		b.WriteString("\n")
		b.WriteString(StyleError.Render("  ✗ " + err.Error()))
		if snap != nil {
			b.WriteString(StyleDim.Render("  (showing last good render)"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.searching {
		b.WriteString(StyleHighlight.Render("search: ") + m.searchInput + StyleDim.Render("▏"))
	} else {
		b.WriteString(StyleDim.Render("v: view  s: style  l: label  g: clusters  /: search  r: refresh  R: force  a: auto  q: quit"))
	}
	b.WriteString("\n")

	return b.String()
}

func (m watchModel) stateLine() string {
	s := m.ctrl.State()
	parts := []string{
		"view " + StyleValue.Render(string(s.ViewMode)),
		"style " + StyleValue.Render(string(s.Style)),
		"label " + StyleValue.Render(string(s.Label)),
	}
	if s.Clusters {
		parts = append(parts, StyleValue.Render("clusters"))
	}
	if s.Search != "" {
		parts = append(parts, "search "+StyleHighlight.Render(s.Search))
	}
	if m.autoRefresh {
		parts = append(parts, StyleSuccess.Render(fmt.Sprintf("auto %s", m.interval)))
	}
	return StyleDim.Render("  " + strings.Join(parts, StyleDim.Render(" · ")))
}

func (m watchModel) nodeTable(snap *view.Snapshot) string {
	matched := make(map[string]bool, len(snap.Matches))
	for _, id := range snap.Matches {
		matched[id] = true
	}

	deltas := make(map[string]string, len(snap.Model.Edges))
	for _, e := range snap.Model.Edges {
		if e.Kind == graph.EdgeFollowing || deltas[e.To] == "" {
			deltas[e.To] = e.Label
		}
	}

	rows := [][]string{}
	for i := range snap.Model.Nodes {
		n := &snap.Model.Nodes[i]
		marker := "  "
		if matched[n.ID] {
			marker = "▸ "
		}
		delta := deltas[n.ID]
		if n.Root {
			delta = "—"
		}
		rows = append(rows, []string{marker, n.Label, n.Info.Status, n.Cluster, delta})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Node", "Status", "Group", "Δ offset").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row >= len(snap.Model.Nodes) {
				return lipgloss.NewStyle()
			}
			n := &snap.Model.Nodes[row]
			style := statusStyle(n.Class)
			if matched[n.ID] {
				return style.Bold(true)
			}
			if col == 3 {
				return StyleDim
			}
			return style
		})

	return t.Render()
}

func (m watchModel) statsLine(snap *view.Snapshot) string {
	stats := snap.Stats
	line := fmt.Sprintf("  %d followers · %d nodes · %d edges · fetched %s",
		stats.FollowerCount, stats.NodeCount, stats.EdgeCount,
		snap.FetchedAt.Format("15:04:05"))
	if len(snap.Matches) > 0 {
		line += fmt.Sprintf(" · %d matches", len(snap.Matches))
	}
	return StyleDim.Render(line)
}

// =============================================================================
// Cycling helpers
// =============================================================================

func nextViewMode(cur graph.ViewMode) graph.ViewMode {
	order := []graph.ViewMode{graph.ViewBoth, graph.ViewFollowing, graph.ViewRequested}
	return cycle(order, cur)
}

func nextStyle(cur layout.Style) layout.Style {
	return cycle(layout.Styles(), cur)
}

func nextLabel(cur graph.LabelField) graph.LabelField {
	return cycle(graph.LabelFields(), cur)
}

func cycle[T comparable](order []T, cur T) T {
	for i, v := range order {
		if v == cur {
			return order[(i+1)%len(order)]
		}
	}
	return order[0]
}
