package utils

import (
	"context"
	"math/rand"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const (
	windowWidth  = 1366
	windowHeight = 900
)

// Desktop Chrome builds; Maps serves a reduced page to unknown agents.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
}

// Extra switches layered over chromedp's defaults.
var launchFlags = map[string]interface{}{
	"disable-blink-features": "AutomationControlled",
	"disable-dev-shm-usage":  true,
	"no-sandbox":             true,
	"lang":                   "en-US",
}

// Runs in every document before the page's own scripts.
const maskAutomationJS = `Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });`

func RandomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// LaunchOptions builds the allocator options for one Chrome process. An
// empty userAgent picks one at random.
func LaunchOptions(headless bool, userAgent string) []chromedp.ExecAllocatorOption {
	if userAgent == "" {
		userAgent = RandomUserAgent()
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", headless),
		chromedp.WindowSize(windowWidth, windowHeight),
		chromedp.UserAgent(userAgent),
	)
	for name, value := range launchFlags {
		opts = append(opts, chromedp.Flag(name, value))
	}
	return opts
}

// HideAutomation registers the navigator mask on the current tab. It only
// needs to run once per tab.
func HideAutomation() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(maskAutomationJS).Do(ctx)
		return err
	})
}
