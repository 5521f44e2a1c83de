package mockserver

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/mattn/go-isatty"
)

// Color constants for terminal output
const (
	cRed    = "\u001b[91m"
	cGreen  = "\u001b[92m"
	cYellow = "\u001b[93m"
	cBlue   = "\u001b[94m"
	cCyan   = "\u001b[96m"
	cReset  = "\u001b[0m"
)

// pollSampleEvery is how many /ping calls pass between two logged ones
const pollSampleEvery = 10

func statusColor(status int, enabled bool) string {
	if !enabled {
		return ""
	}
	switch {
	case status >= 200 && status < 300:
		return cGreen
	case status >= 300 && status < 400:
		return cBlue
	case status >= 400 && status < 500:
		return cYellow
	default:
		return cRed
	}
}

func methodColor(method string, enabled bool) string {
	if !enabled {
		return ""
	}
	switch method {
	case fiber.MethodGet:
		return cCyan
	case fiber.MethodPost:
		return cGreen
	case fiber.MethodDelete:
		return cRed
	default:
		return cReset
	}
}

// RequestLogger logs every request to out except health polls, of which
// only every tenth is written.
func RequestLogger(out io.Writer) fiber.Handler {
	var (
		mu    sync.Mutex
		polls int
	)

	colors := false
	if f, ok := out.(*os.File); ok {
		colors = isatty.IsTerminal(f.Fd()) && os.Getenv("NO_COLOR") == "" && os.Getenv("TERM") != "dumb"
	}

	defaultLogger := fiberlogger.New(fiberlogger.Config{
		Format:        "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}\n",
		Output:        out,
		DisableColors: !colors,
	})

	return func(c *fiber.Ctx) error {
		if c.Path() != "/ping" {
			return defaultLogger(c)
		}

		mu.Lock()
		polls++
		count := polls
		if count >= pollSampleEvery {
			polls = 0
		}
		mu.Unlock()

		if count < pollSampleEvery {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		reset := ""
		if colors {
			reset = cReset
		}
		fmt.Fprintf(out, "%s | %s%d%s | %13s | %s | %s%s%s | %s | - [sampled: %d calls]\n",
			time.Now().Format("15:04:05"),
			statusColor(status, colors), status, reset,
			time.Since(start),
			c.IP(),
			methodColor(c.Method(), colors), c.Method(), reset,
			c.Path(),
			count)
		return err
	}
}
