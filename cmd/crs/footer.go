package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/raderre/cresite/internal/gesture"
	"github.com/raderre/cresite/internal/ui"
)

var footerCmd = &cobra.Command{
	Use:     "footer",
	Short:   "Show the site footer",
	GroupID: "live",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ui.StdinIsTerminal() {
			printFooter(cmd.OutOrStdout())
			return nil
		}

		fd := int(os.Stdin.Fd())
		state, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("entering raw mode: %w", err)
		}
		restore := func() { _ = term.Restore(fd, state) }

		fv := newFooterView(gesture.SystemClock)
		defer fv.close()

		out := cmd.OutOrStdout()
		printFooter(rawWriter{out})
		go fv.readKeys(os.Stdin)

		select {
		case <-fv.quit:
			restore()
			return nil
		case path := <-fv.navigate:
			restore()
			if path != gesture.AuthPath {
				return nil
			}
			return runAuthPrompt(cmd.Context(), os.Stdin, out)
		}
	},
}

// footerView turns key presses into logo clicks. Space and Enter click the
// logo; q, Esc and Ctrl-C quit.
type footerView struct {
	detector *gesture.Detector
	navigate chan string
	quit     chan struct{}
}

func newFooterView(clock gesture.Clock) *footerView {
	fv := &footerView{
		navigate: make(chan string, 1),
		quit:     make(chan struct{}),
	}
	fv.detector = gesture.New(clock, gesture.NavigatorFunc(func(path string) {
		select {
		case fv.navigate <- path:
		default:
		}
	}))
	return fv
}

// key handles one input byte and reports whether reading should stop.
func (fv *footerView) key(b byte) bool {
	switch b {
	case ' ', '\r', '\n':
		return fv.detector.Click()
	case 'q', 'Q', 0x1b, 0x03:
		close(fv.quit)
		return true
	}
	return false
}

func (fv *footerView) readKeys(r io.Reader) {
	buf := make([]byte, 1)
	for {
		if _, err := r.Read(buf); err != nil {
			return
		}
		if fv.key(buf[0]) {
			return
		}
	}
}

func (fv *footerView) close() {
	fv.detector.Close()
}

// rawWriter translates "\n" to "\r\n" for a terminal in raw mode.
type rawWriter struct{ w io.Writer }

func (rw rawWriter) Write(p []byte) (int, error) {
	out := make([]byte, 0, len(p)+8)
	for _, b := range p {
		if b == '\n' {
			out = append(out, '\r')
		}
		out = append(out, b)
	}
	if _, err := rw.w.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}

func printFooter(w io.Writer) {
	fmt.Fprintln(w, ui.RenderAccent("[ JOSH RADER ]"))
	fmt.Fprintln(w, "Licensed commercial real estate agent serving Abilene, TX and surrounding areas.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.RenderAccent("Quick Links")+"  Services · Properties · About · Contact · Privacy Policy")
	fmt.Fprintln(w, ui.RenderAccent("Services")+"     Retail Leasing · Office Leasing · Industrial Properties · Property Investment · Market Analysis")
	fmt.Fprintln(w, ui.RenderAccent("Contact")+"      1500 Industrial Blvd, Suite 300, Abilene, TX 79601 · (325) 665-9244")
	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.RenderMuted(fmt.Sprintf("© %d Josh Rader Commercial Real Estate. All rights reserved.", time.Now().Year())))
	fmt.Fprintln(w, ui.RenderMuted("space/enter: click logo   q: quit"))
}
