package runtime

import (
	"context"
	"encoding/json"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// ReadyCheck is a named dependency check for /readyz.
type ReadyCheck struct {
	Name  string
	Check func(context.Context) error
}

// ReadyReport is the /readyz body. Checks maps each check name to "ok" or
// its error text.
type ReadyReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

const checkTimeout = 2 * time.Second

// SignalContext ends on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// RunChecks runs every check concurrently, each with its own timeout.
func RunChecks(ctx context.Context, checks []ReadyCheck) ReadyReport {
	results := make([]string, len(checks))
	var g errgroup.Group
	for i, check := range checks {
		if check.Check == nil {
			results[i] = "ok"
			continue
		}
		g.Go(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()
			if err := check.Check(checkCtx); err != nil {
				results[i] = err.Error()
				return nil
			}
			results[i] = "ok"
			return nil
		})
	}
	_ = g.Wait()

	report := ReadyReport{Status: "ok"}
	if len(checks) == 0 {
		return report
	}
	report.Checks = make(map[string]string, len(checks))
	for i, check := range checks {
		name := check.Name
		if name == "" {
			name = "dependency"
		}
		report.Checks[name] = results[i]
		if results[i] != "ok" {
			report.Status = "unavailable"
		}
	}
	return report
}

func NewBaseMuxWithReady(checks ...ReadyCheck) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		report := RunChecks(r.Context(), checks)
		code := http.StatusOK
		if report.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		body, _ := json.Marshal(report)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = w.Write(body)
	})
	return mux
}
