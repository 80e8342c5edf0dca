package launcher

import (
	"io"

	"github.com/pkg/browser"
)

func init() {
	// keep the browser helper's chatter off the launcher's streams
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
}

func openBrowser(url string) error {
	return browser.OpenURL(url)
}
