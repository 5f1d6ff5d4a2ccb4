package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/abelbrown/ytsummary/internal/controller"
	"github.com/abelbrown/ytsummary/internal/item"
)

// WritePlain prints the feed state as uncolored text, one block per record.
// It backs the non-interactive mode and shares derivations with the cards.
func WritePlain(w io.Writer, st controller.State, opts Options) error {
	opts = opts.withDefaults()
	f := cardFormat{loc: opts.Location, layout: opts.DateLayout, now: opts.Now()}

	bw := bufio.NewWriter(w)
	header := "YouTube Summary " + opts.ChannelName
	if st.ChannelID != "" {
		header += " " + st.ChannelID
	}
	fmt.Fprintf(bw, "%s (%d)\n\n", header, len(st.Items))

	switch st.Phase {
	case controller.PhaseError:
		fmt.Fprintf(bw, "Something went wrong: %s\n", st.ErrMessage)
	case controller.PhaseLoading:
		fmt.Fprintln(bw, "Loading...")
	default:
		if len(st.Items) == 0 {
			fmt.Fprintln(bw, "No summaries yet")
			fmt.Fprintln(bw, "Summaries for this channel are generated in the next batch run.")
		}
		for _, rec := range st.Items {
			p := item.New(rec)
			title := oneLine(rec.Title)
			if p.IsNew(f.now) {
				title = "[NEW] " + title
			}
			fmt.Fprintln(bw, title)

			meta := []string{}
			if rec.ChannelTitle != "" {
				meta = append(meta, rec.ChannelTitle)
			}
			if d := p.DisplayDate(f.loc, f.layout); d != "" {
				meta = append(meta, d)
			}
			if s := p.Stats(); s != "" {
				meta = append(meta, s)
			}
			if len(meta) > 0 {
				fmt.Fprintf(bw, "    %s\n", strings.Join(meta, " · "))
			}
			if s := oneLine(rec.Summary); s != "" {
				fmt.Fprintf(bw, "    %s\n", s)
			}
			fmt.Fprintf(bw, "    %s\n\n", p.WatchURL())
		}
	}

	fmt.Fprintf(bw, "\nPowered by %s\n", summarizerName)
	return bw.Flush()
}
