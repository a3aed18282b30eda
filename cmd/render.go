package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/xkilldash9x/hyperaide-sync/internal/syncapi"
)

const banner = `
██╗  ██╗██╗   ██╗██████╗ ███████╗██████╗  █████╗ ██╗██████╗ ███████╗
██║  ██║╚██╗ ██╔╝██╔══██╗██╔════╝██╔══██╗██╔══██╗██║██╔══██╗██╔════╝
███████║ ╚████╔╝ ██████╔╝█████╗  ██████╔╝███████║██║██║  ██║█████╗
██╔══██║  ╚██╔╝  ██╔═══╝ ██╔══╝  ██╔══██╗██╔══██║██║██║  ██║██╔══╝
██║  ██║   ██║   ██║     ███████╗██║  ██║██║  ██║██║██████╔╝███████╗
╚═╝  ╚═╝   ╚═╝   ╚═╝     ╚══════╝╚═╝  ╚═╝╚═╝  ╚═╝╚═╝╚═════╝ ╚══════╝`

// Top to bottom, white fading to gray.
var bannerGradient = []string{"#FFFFFF", "#EEEEEE", "#DDDDDD", "#BBBBBB", "#999999", "#777777"}

// printer writes the human-facing output. Styles come from a renderer bound
// to the writer, so output to a pipe or a test buffer is plain text.
type printer struct {
	out io.Writer
	r   *lipgloss.Renderer

	accent  lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	danger  lipgloss.Style
	warning lipgloss.Style
	bold    lipgloss.Style
}

func newPrinter(out io.Writer) *printer {
	r := lipgloss.NewRenderer(out)
	return &printer{
		out:     out,
		r:       r,
		accent:  r.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
		muted:   r.NewStyle().Faint(true),
		success: r.NewStyle().Foreground(lipgloss.Color("2")),
		danger:  r.NewStyle().Foreground(lipgloss.Color("1")),
		warning: r.NewStyle().Foreground(lipgloss.Color("3")),
		bold:    r.NewStyle().Bold(true),
	}
}

func (p *printer) banner() {
	lines := strings.Split(strings.TrimPrefix(banner, "\n"), "\n")
	for i, line := range lines {
		color := bannerGradient[min(i, len(bannerGradient)-1)]
		fmt.Fprintln(p.out, p.r.NewStyle().Bold(true).Foreground(lipgloss.Color(color)).Render(line))
	}
	fmt.Fprintln(p.out, p.muted.Render("  Browser Auth Sync CLI"))
	fmt.Fprintln(p.out)
}

func (p *printer) step(format string, args ...any) {
	fmt.Fprintf(p.out, "%s  %s\n", p.accent.Render("•"), fmt.Sprintf(format, args...))
}

func (p *printer) warn(format string, args ...any) {
	fmt.Fprintf(p.out, "%s  %s\n", p.warning.Render("!"), fmt.Sprintf(format, args...))
}

func (p *printer) succeed(format string, args ...any) {
	fmt.Fprintf(p.out, "%s  %s\n", p.success.Render("✔"), fmt.Sprintf(format, args...))
}

func (p *printer) fail(format string, args ...any) {
	fmt.Fprintln(p.out, p.danger.Render("✖  "+fmt.Sprintf(format, args...)))
}

// subtle prints dimmed guidance, indented under the previous line.
func (p *printer) subtle(format string, args ...any) {
	fmt.Fprintln(p.out, "    "+p.muted.Render(fmt.Sprintf(format, args...)))
}

func (p *printer) blank() { fmt.Fprintln(p.out) }

func (p *printer) table(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(p.muted).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return p.bold.Padding(0, 1)
			case col == 1:
				return p.muted.Padding(0, 1)
			default:
				return p.r.NewStyle().Padding(0, 1)
			}
		})
	fmt.Fprintln(p.out, t.Render())
}

// connectedSitesTable renders sites as Site | Domain, plus Status when asked.
func (p *printer) connectedSitesTable(sites []syncapi.ConnectedSite, withStatus bool) {
	headers := []string{"Site", "Domain"}
	if withStatus {
		headers = append(headers, "Status")
	}
	rows := make([][]string, 0, len(sites))
	for _, s := range sites {
		row := []string{s.Name(), s.Domain}
		if withStatus {
			status := s.Status
			if status == "" {
				status = "active"
			}
			row = append(row, status)
		}
		rows = append(rows, row)
	}
	p.table(headers, rows)
}

// syncResultTable renders one row per uploaded bundle.
func (p *printer) syncResultTable(result *syncapi.SyncResult) {
	names := make(map[string]string, len(result.ConnectedSites))
	for _, s := range result.ConnectedSites {
		names[s.Domain] = s.Name()
	}
	rows := make([][]string, 0, len(result.Sites))
	for _, s := range result.Sites {
		name := names[s.Domain]
		if name == "" {
			name = s.Domain
		}
		status := "synced"
		if !s.Accepted {
			status = "rejected"
			if s.Reason != "" {
				status += ": " + s.Reason
			}
		}
		rows = append(rows, []string{name, s.Domain, status})
	}
	p.table([]string{"Site", "Domain", "Status"}, rows)
}
