package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go-quotepdf/internal/process"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// requestIdle is how long the page must go without network requests before
// it counts as idle.
const requestIdle = 500 * time.Millisecond

// rodEngine starts a fresh browser per render through the rod launcher.
type rodEngine struct {
	execPath  string
	noSandbox bool
	workDir   string
	log       *zap.Logger
}

func (e *rodEngine) Render(ctx context.Context, html string) ([]byte, error) {
	path, err := writePage(e.workDir, html)
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	l := launcher.New().Context(ctx).NoSandbox(e.noSandbox)
	if e.execPath != "" {
		l = l.Bin(e.execPath)
	}
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}
	defer l.Cleanup()
	defer l.Kill()

	release := watch(ctx, func() {
		e.log.Warn("killing browser after render deadline", zap.Int("pid", l.PID()))
		process.KillProcessGroup(l.PID())
		l.Kill()
	})
	defer release()

	browser := rod.New().ControlURL(u).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}
	defer func() { _ = browser.Close() }()

	pg, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	wait := pg.WaitRequestIdle(requestIdle, nil, nil, nil)
	if err := pg.Navigate(fileURL(path)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	wait()
	if err := pg.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	r, err := pg.PDF(&proto.PagePrintToPDF{
		PaperWidth:        floatPtr(letterWidthInches),
		PaperHeight:       floatPtr(letterHeightInches),
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return buf, nil
}
