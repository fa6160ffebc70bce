package harvest

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
)

var (
	discoveryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("105")).
			Bold(true)

	paperStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("71"))
)

// Progress renders the orchestrator's two indicators (discovery,
// per-paper). They are observable side effects, not part of the crawl
// contract; a nil *Progress disables rendering entirely.
type Progress struct {
	out  io.Writer
	done atomic.Int64
}

// NewProgress renders to out, typically os.Stderr so the indicators
// never interleave with piped output.
func NewProgress(out io.Writer) *Progress {
	return &Progress{out: out}
}

// DiscoveredPage reports one completed discovery step.
func (p *Progress) DiscoveredPage(page, totalURLs int) {
	if p == nil {
		return
	}
	fmt.Fprintln(p.out, discoveryStyle.Render(
		fmt.Sprintf("discovery: page %d done, %d papers found", page, totalURLs)))
}

// PaperDone reports one fully ingested paper. Safe for concurrent use
// by the fetch phase's workers.
func (p *Progress) PaperDone(total int) {
	if p == nil {
		return
	}
	fmt.Fprintln(p.out, paperStyle.Render(
		fmt.Sprintf("papers: %d/%d", p.done.Add(1), total)))
}
