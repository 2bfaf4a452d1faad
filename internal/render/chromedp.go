package render

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go-quotepdf/internal/process"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// chromedpEngine starts a fresh Chrome per render through the DevTools
// protocol.
type chromedpEngine struct {
	execPath  string
	noSandbox bool
	workDir   string
	log       *zap.Logger
}

func (e *chromedpEngine) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("no-first-run", true),
		chromedp.ModifyCmdFunc(process.NewGroup),
	)
	if e.execPath != "" {
		opts = append(opts, chromedp.ExecPath(e.execPath))
	}
	if e.noSandbox {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}
	return opts
}

func (e *chromedpEngine) Render(ctx context.Context, html string) ([]byte, error) {
	path, err := writePage(e.workDir, html)
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, e.allocatorOptions()...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if err := chromedp.Run(browserCtx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}
	release := watch(ctx, func() {
		c := chromedp.FromContext(browserCtx)
		if c == nil || c.Browser == nil {
			return
		}
		if p := c.Browser.Process(); p != nil {
			e.log.Warn("killing browser after render deadline", zap.Int("pid", p.Pid))
			process.KillProcessGroup(p.Pid)
			_ = p.Kill()
		}
	})
	defer release()

	idle := newIdleTracker()
	chromedp.ListenTarget(browserCtx, idle.observe)

	if err := chromedp.Run(browserCtx,
		page.SetLifecycleEventsEnabled(true),
		chromedp.Navigate(fileURL(path)),
		chromedp.ActionFunc(idle.waitMainFrame),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	var buf []byte
	if err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, _, err = page.PrintToPDF().
			WithPaperWidth(letterWidthInches).
			WithPaperHeight(letterHeightInches).
			WithPrintBackground(true).
			WithPreferCSSPageSize(true).
			Do(ctx)
		return err
	})); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	return buf, nil
}

// idleTracker records which loaders reached the networkIdle lifecycle
// event. Events may arrive before the navigation action returns.
type idleTracker struct {
	mu     sync.Mutex
	idle   map[cdp.LoaderID]bool
	signal chan struct{}
}

func newIdleTracker() *idleTracker {
	return &idleTracker{
		idle:   make(map[cdp.LoaderID]bool),
		signal: make(chan struct{}, 1),
	}
}

func (t *idleTracker) observe(ev any) {
	e, ok := ev.(*page.EventLifecycleEvent)
	if !ok || e.Name != "networkIdle" {
		return
	}
	t.mu.Lock()
	t.idle[e.LoaderID] = true
	t.mu.Unlock()
	select {
	case t.signal <- struct{}{}:
	default:
	}
}

func (t *idleTracker) waitMainFrame(ctx context.Context) error {
	tree, err := page.GetFrameTree().Do(ctx)
	if err != nil {
		return err
	}
	return t.wait(ctx, tree.Frame.LoaderID)
}

func (t *idleTracker) wait(ctx context.Context, loader cdp.LoaderID) error {
	for {
		t.mu.Lock()
		done := t.idle[loader]
		t.mu.Unlock()
		if done {
			return nil
		}
		select {
		case <-t.signal:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
